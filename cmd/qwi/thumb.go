package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	qwi "github.com/logicossoftware/go-qwi"
	"github.com/logicossoftware/go-qwi/internal/logger"
)

func thumbCmd() *cli.Command {
	var (
		output string
		size   int64
	)

	return &cli.Command{
		Name:      "thumb",
		Usage:     "Extract a thumbnail from the stored resolution levels",
		ArgsUsage: "<file.qwi>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output PNG path",
				Required:    true,
				Destination: &output,
			},
			&cli.Int64Flag{
				Name:        "size",
				Aliases:     []string{"s"},
				Usage:       "largest thumbnail side in pixels",
				Value:       128,
				Destination: &size,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("thumb: missing input file")
			}
			if config.ThumbSize != nil && !cmd.IsSet("size") {
				size = *config.ThumbSize
			}
			if size <= 0 {
				return fmt.Errorf("thumb: size must be positive, got %d", size)
			}
			img, err := qwi.Load(ctx, path, append(readOptions(), qwi.WithThumbnail(int(size)))...)
			if err != nil {
				return err
			}
			if err := writePNG(output, img.Layers[0]); err != nil {
				return err
			}
			logger.FromContext(ctx).Info("wrote thumbnail", "path", output,
				"width", img.Width, "height", img.Height, "full_width", img.FullWidth, "full_height", img.FullHeight)
			return nil
		},
	}
}
