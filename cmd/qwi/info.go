package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	qwi "github.com/logicossoftware/go-qwi"
)

func infoCmd() *cli.Command {
	var (
		asJSON     bool
		showScript bool
	)

	return &cli.Command{
		Name:      "info",
		Usage:     "Describe the structure of a QWI file without decoding pixels",
		ArgsUsage: "<file.qwi>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the description as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "script", Usage: "print the embedded script", Destination: &showScript},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("info: missing input file")
			}
			info, err := qwi.LoadInfo(ctx, path, readOptions()...)
			if err != nil {
				return err
			}
			if asJSON {
				return writeInfoJSON(os.Stdout, info)
			}
			writeInfoText(os.Stdout, path, info)
			if showScript && len(info.Script) > 0 {
				fmt.Printf("\n%s\n", info.Script)
			}
			return nil
		},
	}
}

func writeInfoJSON(w io.Writer, info *qwi.Info) error {
	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

func writeInfoText(w io.Writer, path string, info *qwi.Info) {
	fmt.Fprintf(w, "File:     %s\n", path)
	fmt.Fprintf(w, "Version:  %s\n", info.Version)
	fmt.Fprintf(w, "Type:     %s\n", info.Type)
	fmt.Fprintf(w, "Canvas:   %dx%d\n", info.Width, info.Height)
	fmt.Fprintf(w, "Levels:   %d\n", info.TopLevels+1)
	if info.Split || info.Base {
		fmt.Fprintf(w, "Flags:    split=%v base=%v\n", info.Split, info.Base)
	}
	for _, s := range info.Sections {
		fmt.Fprintf(w, "Section:  %s (%d bytes)\n", s.Tag, s.Length)
	}
	for _, warn := range info.Warnings {
		fmt.Fprintf(w, "Warning:  %s\n", warn)
	}
	fmt.Fprintf(w, "Elements: %d\n", len(info.Elements))
	for _, e := range info.Elements {
		fmt.Fprintf(w, "  [%d] %q %dx%d at %d,%d planes=%d q=%d levels=%d body=%d",
			e.Index, e.Name, e.Width, e.Height, e.OffsetX, e.OffsetY, e.Planes, e.Quality, e.Levels+1, e.BodyLen)
		if e.DurationMs > 0 {
			fmt.Fprintf(w, " %dms", e.DurationMs)
		}
		if e.Combine {
			fmt.Fprint(w, " combine")
		}
		if e.Placeholder {
			fmt.Fprint(w, " placeholder")
		}
		fmt.Fprintln(w)
	}
}

func presetsCmd() *cli.Command {
	return &cli.Command{
		Name:  "presets",
		Usage: "List the named encoder presets",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			for _, name := range qwi.PresetNames() {
				p, _ := qwi.LookupPreset(name)
				fmt.Printf("%-17s quality=%d alpha=%d levels=%s resiliency=%d subsampling=%d\n",
					name, p.Quality, p.AlphaQuality, p.Levels, p.Resiliency, p.Subsampling)
			}
			return nil
		},
	}
}

// readOptions builds decode options from the config file.
func readOptions() []qwi.ReadOption {
	var opts []qwi.ReadOption
	if config.MaxElements != nil {
		opts = append(opts, qwi.WithReadLimits(qwi.Limits{MaxElements: int(*config.MaxElements)}))
	}
	return opts
}
