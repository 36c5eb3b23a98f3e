package main

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	qwi "github.com/logicossoftware/go-qwi"
	"github.com/logicossoftware/go-qwi/internal/logger"
)

type encodeFlags struct {
	output        string
	preset        string
	quality       int64
	alphaQuality  int64
	levels        string
	resiliency    int64
	subsampling   int64
	compression   string
	frameDuration int64
	animate       bool
	slideshow     bool
	splitBase     bool
	script        string

	// configured holds flags whose value came from the config file.
	configured map[string]bool
}

func encodeCmd() *cli.Command {
	f := encodeFlags{configured: map[string]bool{}}

	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode PNG, JPEG or GIF images into a QWI file",
		ArgsUsage: "<image> [image...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output .qwi path",
				Destination: &f.output,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "preset",
				Usage:       "named settings bundle (see `qwi presets`)",
				Destination: &f.preset,
			},
			&cli.Int64Flag{
				Name:        "quality",
				Aliases:     []string{"q"},
				Usage:       "color quality 0..100, 100 is lossless",
				Value:       100,
				Destination: &f.quality,
			},
			&cli.Int64Flag{
				Name:        "alpha-quality",
				Usage:       "alpha quality 0..100",
				Value:       100,
				Destination: &f.alphaQuality,
			},
			&cli.StringFlag{
				Name:        "levels",
				Usage:       "resolution levels (auto, single, max)",
				Value:       "auto",
				Destination: &f.levels,
			},
			&cli.Int64Flag{
				Name:        "resiliency",
				Usage:       "error resiliency 0..2",
				Destination: &f.resiliency,
			},
			&cli.Int64Flag{
				Name:        "subsampling",
				Usage:       "chroma subsampling (0 auto, 1 4:4:4, 2 4:2:2h, 3 4:2:2v, 4 4:2:0)",
				Destination: &f.subsampling,
			},
			&cli.StringFlag{
				Name:        "compression",
				Usage:       "level compression (none, zip, zstd, lz4, brotli)",
				Value:       "zstd",
				Destination: &f.compression,
			},
			&cli.BoolFlag{
				Name:        "animate",
				Usage:       "store the inputs as animation frames",
				Destination: &f.animate,
			},
			&cli.Int64Flag{
				Name:        "frame-duration",
				Usage:       "default frame duration in milliseconds",
				Value:       100,
				Destination: &f.frameDuration,
			},
			&cli.BoolFlag{
				Name:        "slideshow",
				Usage:       "store the inputs as slideshow pages",
				Destination: &f.slideshow,
			},
			&cli.BoolFlag{
				Name:        "split-base",
				Usage:       "write element 0 with the short header",
				Destination: &f.splitBase,
			},
			&cli.StringFlag{
				Name:        "script",
				Usage:       "file with <page>, <font> and <code> regions to embed",
				Destination: &f.script,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return fmt.Errorf("encode: at least one input image is required")
			}
			applyEncodeConfig(cmd.IsSet, config, &f)
			isSet := func(name string) bool { return cmd.IsSet(name) || f.configured[name] }
			return runEncode(ctx, cmd.Args().Slice(), f, isSet)
		},
	}
}

func runEncode(ctx context.Context, inputs []string, f encodeFlags, isSet func(string) bool) error {
	log := logger.FromContext(ctx)

	save, err := f.saveConfig(isSet)
	if err != nil {
		return err
	}
	comp, err := qwi.ParseCompression(f.compression)
	if err != nil {
		return err
	}

	img, animated, err := readInputs(inputs)
	if err != nil {
		return err
	}
	if animated {
		save.Animate = true
	}
	if f.script != "" {
		if img.Script, err = os.ReadFile(f.script); err != nil {
			return fmt.Errorf("read script: %w", err)
		}
	}

	start := time.Now()
	err = qwi.Save(ctx, f.output, img,
		qwi.WithSaveConfig(save),
		qwi.WithCompression(comp),
		qwi.WithWriteProgress(func(p float64) { log.Debug("encode progress", "fraction", p) }),
	)
	if err != nil {
		return err
	}
	log.Info("wrote image", "path", f.output, "layers", len(img.Layers), "took", time.Since(start))
	return nil
}

// saveConfig resolves the flags into save settings. A preset provides the
// base values; explicitly set flags override it.
func (f encodeFlags) saveConfig(isSet func(string) bool) (qwi.SaveConfig, error) {
	s := qwi.DefaultSaveConfig()
	usePreset := f.preset != ""
	if usePreset {
		var ok bool
		if s, ok = s.ApplyPreset(f.preset); !ok {
			return s, fmt.Errorf("unknown preset %q (known: %s)", f.preset, strings.Join(qwi.PresetNames(), ", "))
		}
	}
	override := func(name string) bool { return !usePreset || isSet(name) }

	if override("quality") {
		s.Quality = int(f.quality)
	}
	if override("alpha-quality") {
		s.AlphaQuality = int(f.alphaQuality)
	}
	if override("levels") {
		p, ok := qwi.ParseLevelPolicy(f.levels)
		if !ok {
			return s, fmt.Errorf("unknown levels policy %q", f.levels)
		}
		s.Levels = p
	}
	if override("resiliency") {
		s.Resiliency = int(f.resiliency)
	}
	if override("subsampling") {
		s.Subsampling = int(f.subsampling)
	}
	if f.frameDuration < 0 {
		return s, fmt.Errorf("negative frame duration %d", f.frameDuration)
	}
	s.Animate = f.animate
	s.Duration = uint32(f.frameDuration)
	s.Slideshow = f.slideshow
	s.SplitBase = f.splitBase
	return s, nil
}

// readInputs turns the input files into an image. A single animated GIF
// becomes one layer per frame and reports animated.
func readInputs(paths []string) (*qwi.Image, bool, error) {
	if len(paths) == 1 && strings.EqualFold(filepath.Ext(paths[0]), ".gif") {
		g, err := readGIF(paths[0])
		if err != nil {
			return nil, false, err
		}
		if len(g.Image) > 1 {
			return gifImage(g), true, nil
		}
	}

	img := &qwi.Image{}
	for _, p := range paths {
		m, err := readImage(p)
		if err != nil {
			return nil, false, err
		}
		img.Layers = append(img.Layers, qwi.LayerFromImage(layerName(p), m))
	}
	return img, false, nil
}

func readImage(path string) (image.Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	m, _, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, nil
}

func readGIF(path string) (*gif.GIF, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	g, err := gif.DecodeAll(fh)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return g, nil
}

// gifImage maps GIF frames onto animation layers. Delays are in hundredths
// of a second; a frame that keeps its predecessor on screen is combined.
func gifImage(g *gif.GIF) *qwi.Image {
	img := &qwi.Image{Width: g.Config.Width, Height: g.Config.Height}
	for i, frame := range g.Image {
		delay := 0
		if i < len(g.Delay) {
			delay = g.Delay[i] * 10
		}
		combine := i > 0 && i-1 < len(g.Disposal) && g.Disposal[i-1] == gif.DisposalNone
		img.Layers = append(img.Layers, qwi.LayerFromImage(frameName(i, delay, combine), frame))
	}
	return img
}

func frameName(i, ms int, combine bool) string {
	name := fmt.Sprintf("Frame %d (%dms)", i+1, ms)
	if combine {
		name += " (combine)"
	}
	return name
}

func layerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
