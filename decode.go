package qwi

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// containerReader walks a QWI stream: header, file optionals, then one
// element at a time.
type containerReader struct {
	r         io.Reader
	limits    Limits
	header    FileHeader
	optionals []byte
	next      int
}

type storedElement struct {
	Element
	index     int
	optionals []byte
	bitstream []byte
}

func openContainer(r io.Reader, limits Limits) (*containerReader, error) {
	h, err := readFileHeader(r)
	if err != nil {
		return nil, err
	}
	if err := validateFileHeader(h, limits); err != nil {
		return nil, err
	}
	c := &containerReader{r: r, limits: limits, header: h}
	if h.OptionalsLen > 0 {
		c.optionals = make([]byte, h.OptionalsLen)
		if _, err := io.ReadFull(r, c.optionals); err != nil {
			return nil, readErr("file optionals", err)
		}
		if _, err := Sections(ScopeFile, c.optionals); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *containerReader) remaining() bool {
	return c.next < int(c.header.Elements)
}

// readElement reads the next element header and body.
func (c *containerReader) readElement() (*storedElement, error) {
	i := c.next
	e, err := readElementHeader(c.r, c.header.shortElementHeader(i))
	if err != nil {
		return nil, fmt.Errorf("element %d: %w", i, err)
	}
	if err := validateElementHeader(e, i, c.limits); err != nil {
		return nil, err
	}
	body := make([]byte, e.BodyLen)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return nil, fmt.Errorf("element %d: %w", i, readErr("element body", err))
	}
	se := &storedElement{Element: e, index: i, optionals: body[:e.OptionalsLen], bitstream: body[e.OptionalsLen:]}
	if _, err := Sections(ScopeElement, se.optionals); err != nil {
		return nil, fmt.Errorf("element %d: %w", i, err)
	}
	c.next++
	return se, nil
}

// placeholder reports whether the element carries no pixels.
func (e *storedElement) placeholder() bool {
	return e.Width == 0 || e.Height == 0
}

// storedName returns the NAM section of the element, if any.
func (e *storedElement) storedName() (string, bool) {
	ref, ok, err := FindSection(TagName, ScopeElement, 0, e.optionals)
	if err != nil || !ok {
		return "", false
	}
	payload, _, _, err := GetSection(ScopeElement, e.optionals, ref.Offset)
	if err != nil || len(payload) == 0 {
		return "", false
	}
	return string(payload), true
}

// defaultLayerName names an element that has no NAM section.
func defaultLayerName(t ContainerType, index int, duration uint16, filename string) string {
	switch t {
	case TypeAnimate:
		combine := ""
		if IsCombine(duration) {
			combine = " (combine)"
		}
		return fmt.Sprintf("Video frame %d (%dms)%s", index, UnpackDuration(duration), combine)
	case TypeMultilayer:
		if index == 0 {
			return "Background"
		}
		return fmt.Sprintf("Layer %d", index)
	case TypeSlideshow:
		return fmt.Sprintf("Image %d", index)
	}
	if filename != "" {
		return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return fmt.Sprintf("Image %d", index)
}

func versionWarning(h FileHeader) error {
	if !h.VersionMismatch() {
		return nil
	}
	return fmt.Errorf("%w: file is %s, decoder is %s", ErrVersionMismatch, VersionString(h.Version), VersionString(FormatVersion))
}

// Decode reads a QWI image from r.
//
// Element 0 sets the canvas size and every further element becomes a layer
// at its stored offset. Zero-sized elements after the first are skipped.
// With WithThumbnail only element 0 is decoded, at the coarsest stored level
// that fits the requested size.
//
// A version mismatch is not an error: it is logged and appended to
// Image.Warnings. Cancellation of ctx is honoured between elements.
func Decode(ctx context.Context, r io.Reader, opts ...ReadOption) (*Image, error) {
	cfg := newReadConfig(opts)
	log := cfg.loggerFor(ctx)
	start := time.Now()

	c, err := openContainer(r, cfg.limits)
	if err != nil {
		return nil, err
	}
	h := c.header
	img := &Image{Type: h.Type, Filename: cfg.filename}
	if w := versionWarning(h); w != nil {
		log.Warn("qwi version mismatch", "file", VersionString(h.Version), "decoder", VersionString(FormatVersion))
		img.Warnings = append(img.Warnings, w)
	}
	if len(c.optionals) > 0 {
		sections, err := Sections(ScopeFile, c.optionals)
		if err != nil {
			return nil, err
		}
		img.Script = ReassembleScript(sections)
		if len(img.Script) > cfg.limits.MaxScriptLen {
			return nil, fmt.Errorf("%w: script of %d bytes", ErrLimitExceeded, len(img.Script))
		}
	}

	total := int(h.Elements)
	if cfg.thumb > 0 {
		total = 1
	}
	for c.remaining() {
		i := c.next
		if i > 0 {
			if cfg.thumb > 0 {
				break
			}
			if err := ctx.Err(); err != nil {
				return nil, cancelled(err)
			}
		}
		se, err := c.readElement()
		if err != nil {
			return nil, err
		}
		if se.placeholder() {
			if i == 0 {
				return nil, fmt.Errorf("%w: element 0 is %dx%d", ErrInvalidHeader, se.Width, se.Height)
			}
			log.Debug("skipping empty element", "index", i)
			continue
		}

		level := 0
		if i == 0 {
			img.FullWidth, img.FullHeight = int(se.Width), int(se.Height)
			if cfg.thumb > 0 {
				level = ThumbnailLevel(int(se.Width), int(se.Height), int(se.Levels), cfg.thumb)
			}
			img.Width, img.Height = LevelSize(int(se.Width), int(se.Height), level)
		}
		layer, err := decodeLayer(cfg, h.Type, se, level)
		if err != nil {
			return nil, err
		}
		img.Layers = append(img.Layers, layer)
		log.Debug("decoded element", "index", i, "width", layer.Width, "height", layer.Height, "planes", layer.Planes, "level", level)
		if cfg.progress != nil {
			cfg.progress(float64(i+1) / float64(total))
		}
	}
	if cfg.progress != nil {
		cfg.progress(1)
	}
	log.Debug("qwi decoded", "type", h.Type, "elements", h.Elements, "layers", len(img.Layers), "elapsed", time.Since(start))
	return img, nil
}

func decodeLayer(cfg readConfig, t ContainerType, se *storedElement, level int) (Layer, error) {
	w, h := LevelSize(int(se.Width), int(se.Height), level)
	planes, release, err := acquirePlanes(int(se.Planes), w, h, cfg.limits)
	if err != nil {
		return Layer{}, fmt.Errorf("element %d: %w", se.index, err)
	}
	defer release()
	if _, err := cfg.codec.Decode(&se.Element, se.bitstream, level, planes); err != nil {
		return Layer{}, fmt.Errorf("element %d: %w", se.index, err)
	}
	name, ok := se.storedName()
	if !ok {
		name = defaultLayerName(t, se.index, se.Duration, cfg.filename)
	}
	return Layer{
		Name:     name,
		OffsetX:  int(se.OffsetX >> level),
		OffsetY:  int(se.OffsetY >> level),
		Width:    w,
		Height:   h,
		Planes:   int(se.Planes),
		Duration: se.Duration,
		Pix:      joinPlanes(planes, w*h),
	}, nil
}
