// Command qwi inspects, encodes and decodes QWI images.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/logicossoftware/go-qwi/internal/logger"
)

var (
	logLevel   string
	logFormat  string
	configFile string

	// config is loaded once in Before and consulted by the subcommands.
	config Config
)

func main() {
	app := &cli.Command{
		Name:  "qwi",
		Usage: "Inspect, encode and decode QWI images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "warn",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format (pretty, text, json)",
				Value:       "pretty",
				Destination: &logFormat,
			},
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path to config.yaml",
				Value:       configPath(),
				Destination: &configFile,
			},
		},
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			infoCmd(),
			encodeCmd(),
			decodeCmd(),
			thumbCmd(),
			presetsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, cfgErr := loadConfig(configFile)
	if cfgErr != nil && cmd.IsSet("config") {
		return ctx, cfgErr
	}
	config = cfg
	if config.LogLevel != "" && !cmd.IsSet("log-level") {
		logLevel = config.LogLevel
	}
	if config.LogFormat != "" && !cmd.IsSet("log-format") {
		logFormat = config.LogFormat
	}
	log, err := newLogger(logLevel, logFormat)
	if err != nil {
		return ctx, err
	}
	if cfgErr != nil {
		log.Warn("ignoring config file", "path", configFile, "error", cfgErr)
	}
	return logger.WithContext(ctx, log), nil
}

func newLogger(level, format string) (logger.Logger, error) {
	lvl := logger.ParseLevel(level)
	switch strings.ToLower(format) {
	case "", "pretty":
		return logger.Pretty(os.Stderr, lvl), nil
	case "json":
		return logger.JSON(os.Stderr, lvl), nil
	case "text":
		return logger.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}
