package qwi

import (
	"bytes"
	"context"
	"io"
)

// SectionInfo summarizes one optional chunk.
type SectionInfo struct {
	Tag    string `json:"tag"`
	Length int    `json:"length"`
}

// ElementInfo describes a stored element without its pixels.
type ElementInfo struct {
	Index        int           `json:"index"`
	HeaderLen    int           `json:"header_len"`
	Name         string        `json:"name"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	OffsetX      int           `json:"offset_x"`
	OffsetY      int           `json:"offset_y"`
	Planes       int           `json:"planes"`
	Subsampling  string        `json:"subsampling"`
	Colorspace   int           `json:"colorspace"`
	BitDepth     int           `json:"bit_depth"`
	Quality      int           `json:"quality"`
	AlphaQuality int           `json:"alpha_quality"`
	Levels       int           `json:"levels"`
	Resiliency   int           `json:"resiliency"`
	DurationMs   uint32        `json:"duration_ms,omitempty"`
	Combine      bool          `json:"combine,omitempty"`
	BodyLen      uint32        `json:"body_len"`
	Placeholder  bool          `json:"placeholder,omitempty"`
	Sections     []SectionInfo `json:"sections,omitempty"`
}

// Info is the structural summary Inspect returns.
type Info struct {
	Version   string        `json:"version"`
	Type      string        `json:"type"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Split     bool          `json:"split"`
	Base      bool          `json:"base"`
	TopLevels int           `json:"top_levels"`
	Sections  []SectionInfo `json:"sections,omitempty"`
	Script    []byte        `json:"-"`
	Elements  []ElementInfo `json:"elements"`
	Warnings  []string      `json:"warnings,omitempty"`

	Header FileHeader `json:"-"`
}

// Inspect walks the container structure of r without decoding any pixels.
func Inspect(ctx context.Context, r io.Reader, opts ...ReadOption) (*Info, error) {
	cfg := newReadConfig(opts)
	c, err := openContainer(r, cfg.limits)
	if err != nil {
		return nil, err
	}
	h := c.header
	info := &Info{
		Version:   VersionString(h.Version),
		Type:      h.Type.String(),
		Width:     int(h.Width),
		Height:    int(h.Height),
		Split:     h.Split(),
		Base:      h.Base(),
		TopLevels: int(h.TopLevels),
		Header:    h,
	}
	if w := versionWarning(h); w != nil {
		info.Warnings = append(info.Warnings, w.Error())
	}
	fileSections, err := Sections(ScopeFile, c.optionals)
	if err != nil {
		return nil, err
	}
	info.Sections = sectionInfos(fileSections)
	info.Script = ReassembleScript(fileSections)

	for c.remaining() {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}
		se, err := c.readElement()
		if err != nil {
			return nil, err
		}
		sections, err := Sections(ScopeElement, se.optionals)
		if err != nil {
			return nil, err
		}
		name, ok := se.storedName()
		if !ok {
			name = defaultLayerName(h.Type, se.index, se.Duration, cfg.filename)
		}
		ei := ElementInfo{
			Index:        se.index,
			HeaderLen:    h.elementHeaderLen(se.index),
			Name:         name,
			Width:        int(se.Width),
			Height:       int(se.Height),
			OffsetX:      int(se.OffsetX),
			OffsetY:      int(se.OffsetY),
			Planes:       int(se.Planes),
			Subsampling:  se.Subsampling.String(),
			Colorspace:   int(se.Colorspace),
			BitDepth:     int(se.BitDepth),
			Quality:      int(se.Quality),
			AlphaQuality: int(se.AlphaQuality),
			Levels:       int(se.Levels),
			Resiliency:   int(se.Resiliency),
			BodyLen:      se.BodyLen,
			Placeholder:  se.placeholder(),
			Sections:     sectionInfos(sections),
		}
		if h.Type == TypeAnimate {
			ei.DurationMs = UnpackDuration(se.Duration)
			ei.Combine = IsCombine(se.Duration)
		}
		info.Elements = append(info.Elements, ei)
	}
	return info, nil
}

func sectionInfos(sections []Section) []SectionInfo {
	if len(sections) == 0 {
		return nil
	}
	out := make([]SectionInfo, len(sections))
	for i, s := range sections {
		out[i] = SectionInfo{Tag: s.Tag.String(), Length: len(s.Payload)}
	}
	return out
}

// Detect reports whether b starts with the QWI signature.
func Detect(b []byte) bool {
	return bytes.HasPrefix(b, Magic[:])
}
