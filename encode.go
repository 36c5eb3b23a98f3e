package qwi

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var frameDurationPattern = regexp.MustCompile(`\((\d+)ms\)`)

type builtElement struct {
	Element
	short     bool
	optionals []byte
	bitstream []byte
}

// containerBuilder holds a fully encoded file. The header is only filled in
// once every element size is known, so nothing reaches the writer until
// the whole image has been encoded.
type containerBuilder struct {
	header    FileHeader
	optionals []byte
	elements  []builtElement
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo emits the file in order: header, file optionals, then each
// element header followed by its optionals and bitstream.
func (b *containerBuilder) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if err := writeFileHeader(cw, b.header); err != nil {
		return cw.n, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if _, err := cw.Write(b.optionals); err != nil {
		return cw.n, fmt.Errorf("%w: %w", ErrIO, err)
	}
	for i := range b.elements {
		e := &b.elements[i]
		if err := writeElementHeader(cw, e.Element, e.short); err != nil {
			return cw.n, fmt.Errorf("%w: element %d: %w", ErrIO, i, err)
		}
		if _, err := cw.Write(e.optionals); err != nil {
			return cw.n, fmt.Errorf("%w: element %d: %w", ErrIO, i, err)
		}
		if _, err := cw.Write(e.bitstream); err != nil {
			return cw.n, fmt.Errorf("%w: element %d: %w", ErrIO, i, err)
		}
	}
	return cw.n, nil
}

// Encode writes img to w as a QWI file.
//
// Layers[0] becomes element 0. With more than one layer the file is a
// multilayer image unless WithAnimation or WithSlideshow is given. Save
// settings default to DefaultSaveConfig and are clamped into range.
//
// The whole file is built in memory first. If ctx is cancelled between two
// elements Encode returns ErrCancelled and w is left untouched.
func Encode(ctx context.Context, w io.Writer, img *Image, opts ...WriteOption) error {
	cfg := newWriteConfig(opts)
	b, err := buildContainer(ctx, img, cfg)
	if err != nil {
		return err
	}
	_, err = b.WriteTo(w)
	return err
}

func buildContainer(ctx context.Context, img *Image, cfg writeConfig) (*containerBuilder, error) {
	log := cfg.loggerFor(ctx)
	start := time.Now()
	if err := validateImage(img, cfg.limits); err != nil {
		return nil, err
	}
	n := len(img.Layers)
	save := cfg.save.normalize(n, img.Layers[0].Planes)

	b := &containerBuilder{}
	b.header = FileHeader{
		Version:  FormatVersion,
		Type:     save.containerType(n),
		Elements: uint16(n),
		Width:    uint16(img.Width),
		Height:   uint16(img.Height),
	}
	if img.Width == 0 || img.Height == 0 {
		b.header.Width, b.header.Height = uint16(img.Layers[0].Width), uint16(img.Layers[0].Height)
	}
	if save.SplitBase {
		if base := img.Layers[0]; base.OffsetX != 0 || base.OffsetY != 0 {
			return nil, fmt.Errorf("%w: split base layer must sit at the origin, not (%d,%d)", ErrValidation, base.OffsetX, base.OffsetY)
		}
		b.header.Flags = HeaderFlagSplit | HeaderFlagBase
	}

	opt, err := encodeScript(img.Script)
	if err != nil {
		return nil, err
	}
	if uint64(len(opt)) > uint64(cfg.limits.MaxOptionalsLen) {
		return nil, fmt.Errorf("%w: file optionals of %d bytes", ErrLimitExceeded, len(opt))
	}
	b.optionals = opt
	b.header.OptionalsLen = uint32(len(opt))

	for i := range img.Layers {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				return nil, cancelled(err)
			}
		}
		be, err := buildElement(cfg, save, b.header, i, &img.Layers[i])
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		b.header.TopLevels = max(b.header.TopLevels, be.Levels)
		b.elements = append(b.elements, be)
		log.Debug("encoded element", "index", i, "width", be.Width, "height", be.Height, "levels", be.Levels, "bytes", be.BodyLen)
		if cfg.progress != nil {
			cfg.progress(float64(i+1) / float64(n))
		}
	}
	log.Debug("qwi encoded", "type", b.header.Type, "elements", n, "elapsed", time.Since(start))
	return b, nil
}

func buildElement(cfg writeConfig, save SaveConfig, h FileHeader, index int, l *Layer) (builtElement, error) {
	be := builtElement{short: h.shortElementHeader(index)}
	e := &be.Element
	e.Width, e.Height = uint16(l.Width), uint16(l.Height)
	e.OffsetX, e.OffsetY = int32(l.OffsetX), int32(l.OffsetY)
	e.Planes = uint8(l.Planes)
	e.Subsampling = Subsampling(save.Subsampling)
	if l.Planes < 3 {
		e.Subsampling = Subsampling444
	}
	e.Colorspace = colorspaceFor(e.Planes)
	e.BitDepth = 8
	e.Quality = int8(save.Quality)
	e.AlphaQuality = -1
	if e.hasAlpha() {
		e.AlphaQuality = int8(save.AlphaQuality)
	}
	e.Resiliency = Resiliency(save.Resiliency)
	if l.Width > 0 && l.Height > 0 {
		e.Levels = levelsFor(save.Levels, l.Width, l.Height)
	}
	if be.short {
		e.Subsampling = Subsampling444
		e.AlphaQuality = e.Quality
	}

	ow := NewOptionalWriter(ScopeElement)
	if h.Type == TypeAnimate {
		e.Duration = frameDuration(save.Duration, l)
	} else if h.Type.namedLayers() && l.Name != "" {
		if _, err := ow.SetSection(TagName, []byte(l.Name)); err != nil {
			return be, err
		}
	}
	be.optionals = ow.Bytes()

	if l.Width > 0 && l.Height > 0 {
		bits, err := encodePlanes(cfg, e, l)
		if err != nil {
			return be, err
		}
		be.bitstream = bits
	}
	body := uint64(len(be.optionals)) + uint64(len(be.bitstream))
	if body > uint64(cfg.limits.MaxElementBodyLen) {
		return be, fmt.Errorf("%w: element body of %d bytes", ErrLimitExceeded, body)
	}
	e.OptionalsLen = uint32(len(be.optionals))
	e.BodyLen = uint32(body)
	return be, nil
}

// frameDuration picks the packed duration of an animation frame: a "(Nms)"
// in the layer name, else the layer's own duration, else the default. A
// "(combine)" in the name sets the combine flag.
func frameDuration(defaultMs uint32, l *Layer) uint16 {
	d := PackDuration(defaultMs)
	if l.Duration != 0 {
		d = l.Duration
	}
	if m := frameDurationPattern.FindStringSubmatch(l.Name); m != nil {
		if ms, err := strconv.ParseUint(m[1], 10, 32); err == nil {
			d = PackDuration(uint32(ms)) | d&DurationCombine
		}
	}
	if strings.Contains(l.Name, "(combine)") {
		d |= DurationCombine
	}
	return d
}

func encodePlanes(cfg writeConfig, e *Element, l *Layer) ([]byte, error) {
	planes, release, err := acquirePlanes(l.Planes, l.Width, l.Height, cfg.limits)
	if err != nil {
		return nil, err
	}
	defer release()
	l.splitPlanes(planes)
	return cfg.codec.Encode(e, planes)
}
