package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	qwi "github.com/logicossoftware/go-qwi"
	"github.com/logicossoftware/go-qwi/internal/logger"
)

func decodeCmd() *cli.Command {
	var outDir string

	return &cli.Command{
		Name:      "decode",
		Usage:     "Write every layer of a QWI file as PNG",
		ArgsUsage: "<file.qwi>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "directory for the PNG files",
				Value:       ".",
				Destination: &outDir,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("decode: missing input file")
			}
			log := logger.FromContext(ctx)
			opts := append(readOptions(), qwi.WithReadProgress(func(p float64) {
				log.Debug("decode progress", "fraction", p)
			}))
			img, err := qwi.Load(ctx, path, opts...)
			if err != nil {
				return err
			}
			written, err := writeLayers(outDir, layerName(path), img)
			if err != nil {
				return err
			}
			for _, f := range written {
				log.Info("wrote", "path", f)
			}
			return nil
		},
	}
}

// writeLayers stores each layer as <base>_NN.png and the script, if any, as
// <base>.code in dir. It returns the paths written.
func writeLayers(dir, base string, img *qwi.Image) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for i, l := range img.Layers {
		p := filepath.Join(dir, fmt.Sprintf("%s_%02d.png", base, i))
		if err := writePNG(p, l); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	if len(img.Script) > 0 {
		p := filepath.Join(dir, base+"."+qwi.ScriptAttachment)
		if err := os.WriteFile(p, img.Script, 0o644); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}

func writePNG(path string, l qwi.Layer) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(fh, l.Image()); err != nil {
		_ = fh.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return fh.Close()
}
