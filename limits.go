package qwi

import "errors"

var ErrLimitExceeded = errors.New("qwi: limit exceeded")

type Limits struct {
	MaxOptionalsLen   uint32 // file-scope optional block
	MaxElements       int
	MaxElementBodyLen uint32 // element optionals + bitstream as stored in file
	MaxPlaneSamples   uint64 // planes*width*height of one element
	MaxScriptLen      int
}

func defaultLimits() Limits {
	return Limits{
		MaxOptionalsLen:   16 << 20,  // 16 MiB
		MaxElements:       4096,
		MaxElementBodyLen: 1 << 30,   // 1 GiB
		MaxPlaneSamples:   512 << 20, // 1 GiB of int16 samples
		MaxScriptLen:      16 << 20,
	}
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxOptionalsLen == 0 {
		l.MaxOptionalsLen = d.MaxOptionalsLen
	}
	if l.MaxElements == 0 {
		l.MaxElements = d.MaxElements
	}
	if l.MaxElementBodyLen == 0 {
		l.MaxElementBodyLen = d.MaxElementBodyLen
	}
	if l.MaxPlaneSamples == 0 {
		l.MaxPlaneSamples = d.MaxPlaneSamples
	}
	if l.MaxScriptLen == 0 {
		l.MaxScriptLen = d.MaxScriptLen
	}
	return l
}
