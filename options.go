package qwi

import (
	"context"
	"log/slog"

	"github.com/logicossoftware/go-qwi/internal/logger"
)

// ProgressFunc receives the fraction of elements processed so far. It is
// advisory: Decode and Encode behave the same with or without it.
type ProgressFunc func(fraction float64)

type readConfig struct {
	limits   Limits
	thumb    int
	codec    PixelCodec
	progress ProgressFunc
	filename string
	log      logger.Logger
}

func (c readConfig) loggerFor(ctx context.Context) logger.Logger {
	if c.log != nil {
		return c.log
	}
	return logger.FromContext(ctx)
}

type ReadOption func(*readConfig)

func WithReadLimits(l Limits) ReadOption {
	return func(c *readConfig) { c.limits = l }
}

// WithThumbnail makes Decode stop after element 0, reduced to the coarsest
// stored level whose sides are at most size pixels.
func WithThumbnail(size int) ReadOption {
	return func(c *readConfig) { c.thumb = size }
}

func WithReadCodec(codec PixelCodec) ReadOption {
	return func(c *readConfig) { c.codec = codec }
}

func WithReadProgress(fn ProgressFunc) ReadOption {
	return func(c *readConfig) { c.progress = fn }
}

// WithReadLogger sends Decode's records, such as the version mismatch
// warning, to l instead of the context logger. A nil l discards them.
func WithReadLogger(l *slog.Logger) ReadOption {
	return func(c *readConfig) { c.log = logger.FromSlog(l) }
}

// WithFilename sets the name used for single-image layers and Image.Filename.
// Load sets it from the path.
func WithFilename(name string) ReadOption {
	return func(c *readConfig) { c.filename = name }
}

func newReadConfig(opts []ReadOption) readConfig {
	cfg := readConfig{codec: PlanarCodec{Compression: CompZSTD}}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	if cfg.codec == nil {
		cfg.codec = PlanarCodec{Compression: CompZSTD}
	}
	return cfg
}

type writeConfig struct {
	limits   Limits
	codec    PixelCodec
	progress ProgressFunc
	save     SaveConfig
	log      logger.Logger
}

func (c writeConfig) loggerFor(ctx context.Context) logger.Logger {
	if c.log != nil {
		return c.log
	}
	return logger.FromContext(ctx)
}

type WriteOption func(*writeConfig)

func WithWriteLimits(l Limits) WriteOption {
	return func(c *writeConfig) { c.limits = l }
}

func WithWriteCodec(codec PixelCodec) WriteOption {
	return func(c *writeConfig) { c.codec = codec }
}

// WithCompression selects the compressor of the built-in PlanarCodec.
// It replaces any codec set with WithWriteCodec.
func WithCompression(comp Compression) WriteOption {
	return func(c *writeConfig) { c.codec = PlanarCodec{Compression: comp} }
}

// WithWriteLogger is the Encode counterpart of WithReadLogger.
func WithWriteLogger(l *slog.Logger) WriteOption {
	return func(c *writeConfig) { c.log = logger.FromSlog(l) }
}

func WithWriteProgress(fn ProgressFunc) WriteOption {
	return func(c *writeConfig) { c.progress = fn }
}

// WithSaveConfig replaces every save setting at once.
func WithSaveConfig(s SaveConfig) WriteOption {
	return func(c *writeConfig) { c.save = s }
}

// WithPreset applies one of the named presets. Unknown names are ignored;
// use LookupPreset to check a name first.
func WithPreset(name string) WriteOption {
	return func(c *writeConfig) {
		if p, ok := LookupPreset(name); ok {
			p.apply(&c.save)
		}
	}
}

func WithQuality(q int) WriteOption {
	return func(c *writeConfig) { c.save.Quality = q }
}

func WithAlphaQuality(q int) WriteOption {
	return func(c *writeConfig) { c.save.AlphaQuality = q }
}

func WithLevels(p LevelPolicy) WriteOption {
	return func(c *writeConfig) { c.save.Levels = p }
}

func WithResiliency(r int) WriteOption {
	return func(c *writeConfig) { c.save.Resiliency = r }
}

func WithSubsampling(s int) WriteOption {
	return func(c *writeConfig) { c.save.Subsampling = s }
}

// WithAnimation writes a multi-layer image as an animation with the given
// default frame duration in milliseconds.
func WithAnimation(durationMs uint32) WriteOption {
	return func(c *writeConfig) {
		c.save.Animate = true
		c.save.Duration = durationMs
	}
}

func WithSlideshow() WriteOption {
	return func(c *writeConfig) { c.save.Slideshow = true }
}

// WithSplitBase stores element 0 with the short header. Element 0 must then
// sit at the canvas origin.
func WithSplitBase() WriteOption {
	return func(c *writeConfig) { c.save.SplitBase = true }
}

func newWriteConfig(opts []WriteOption) writeConfig {
	cfg := writeConfig{
		codec: PlanarCodec{Compression: CompZSTD},
		save:  DefaultSaveConfig(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	if cfg.codec == nil {
		cfg.codec = PlanarCodec{Compression: CompZSTD}
	}
	return cfg
}
