package qwi

import "fmt"

const (
	// FormatVersion is the container version written by this package,
	// packed as major<<16 | minor<<8 | patch.
	FormatVersion uint32 = 1<<16 | 2<<8 | 0

	// MaxResolutionLevels bounds the number of progressive levels an element may carry.
	MaxResolutionLevels = 8

	// MaxDimension is the largest canvas or element side.
	MaxDimension = 65535

	fileHeaderSize         = 24
	elementHeaderSize      = 32
	elementShortHeaderSize = 20
)

// Magic is the 4-byte QWI file signature.
var Magic = [4]byte{'Q', 'W', 'I', '!'}

const (
	HeaderFlagSplit uint8 = 0x01
	HeaderFlagBase  uint8 = 0x02
)

// ContainerType describes how the elements of a file relate to each other.
type ContainerType uint8

const (
	TypeSingle     ContainerType = 0
	TypeMultilayer ContainerType = 1
	TypeAnimate    ContainerType = 2
	TypeSlideshow  ContainerType = 3
)

func (t ContainerType) String() string {
	switch t {
	case TypeSingle:
		return "single"
	case TypeMultilayer:
		return "multilayer"
	case TypeAnimate:
		return "animate"
	case TypeSlideshow:
		return "slideshow"
	default:
		return "unknown"
	}
}

// namedLayers reports whether elements of this container carry a NAM section.
func (t ContainerType) namedLayers() bool {
	return t&1 != 0
}

type Colorspace uint8

const (
	ColorspaceRGB Colorspace = 0
	ColorspaceYUV Colorspace = 1
)

type Subsampling uint8

const (
	SubsamplingAuto Subsampling = 0
	Subsampling444  Subsampling = 1
	Subsampling422H Subsampling = 2
	Subsampling422V Subsampling = 3
	Subsampling420  Subsampling = 4
)

func (s Subsampling) String() string {
	switch s {
	case SubsamplingAuto:
		return "auto"
	case Subsampling444:
		return "4:4:4"
	case Subsampling422H:
		return "4:2:2h"
	case Subsampling422V:
		return "4:2:2v"
	case Subsampling420:
		return "4:2:0"
	default:
		return "unknown"
	}
}

type Resiliency uint8

const (
	ResiliencyNone         Resiliency = 0
	ResiliencyIntermediate Resiliency = 1
	ResiliencyFull         Resiliency = 2
)

// FileHeader is the fixed header at the start of every QWI file.
type FileHeader struct {
	Version      uint32
	Type         ContainerType
	Flags        uint8
	Elements     uint16
	OptionalsLen uint32
	Width        uint16
	Height       uint16
	TopLevels    uint8
}

func (h FileHeader) Split() bool { return h.Flags&HeaderFlagSplit != 0 }
func (h FileHeader) Base() bool  { return h.Flags&HeaderFlagBase != 0 }

// shortElementHeader reports whether the element at index uses the short header form.
func (h FileHeader) shortElementHeader(index int) bool {
	return index == 0 && h.Split() && h.Base()
}

func (h FileHeader) elementHeaderLen(index int) int {
	if h.shortElementHeader(index) {
		return elementShortHeaderSize
	}
	return elementHeaderSize
}

// VersionMismatch reports whether the file was written by a different
// major or minor format revision than the one this package implements.
func (h FileHeader) VersionMismatch() bool {
	const mask = 0xffff00
	return h.Version&mask != FormatVersion&mask
}

// VersionString formats the packed version as major.minor.patch.
func VersionString(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>16&0xff, v>>8&0xff, v&0xff)
}

// Element describes one image payload: a still image, a layer, an animation
// frame or a slideshow page.
type Element struct {
	Width        uint16
	Height       uint16
	OffsetX      int32
	OffsetY      int32
	Planes       uint8
	Subsampling  Subsampling
	Colorspace   Colorspace
	BitDepth     uint8
	Quality      int8
	AlphaQuality int8
	Levels       uint8
	Resiliency   Resiliency
	Duration     uint16
	OptionalsLen uint32
	BodyLen      uint32
}

// hasAlpha reports whether the last plane is an alpha channel.
func (e Element) hasAlpha() bool {
	return e.Planes == 2 || e.Planes == 4
}

func colorspaceFor(planes uint8) Colorspace {
	if planes >= 3 {
		return ColorspaceRGB
	}
	return ColorspaceYUV
}
