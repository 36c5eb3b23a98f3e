package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the qwi configuration file (~/.config/qwi/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Encoding defaults
	Preset        string `yaml:"preset"`
	Quality       *int64 `yaml:"quality"`
	AlphaQuality  *int64 `yaml:"alpha_quality"`
	Levels        string `yaml:"levels"`
	Resiliency    *int64 `yaml:"resiliency"`
	Subsampling   *int64 `yaml:"subsampling"`
	Compression   string `yaml:"compression"`
	FrameDuration *int64 `yaml:"frame_duration_ms"`

	// Decoding
	ThumbSize   *int64 `yaml:"thumb_size"`
	MaxElements *int64 `yaml:"max_elements"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "qwi", "config.yaml")
}

// loadConfig reads path. A missing file is not an error and yields a zero Config.
func loadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEncodeConfig copies config defaults into f for every flag the user
// did not set explicitly and records which ones it touched.
func applyEncodeConfig(isSet func(string) bool, cfg Config, f *encodeFlags) {
	mark := func(name string) { f.configured[name] = true }
	if cfg.Preset != "" && !isSet("preset") {
		f.preset = cfg.Preset
		mark("preset")
	}
	if cfg.Quality != nil && !isSet("quality") {
		f.quality = *cfg.Quality
		mark("quality")
	}
	if cfg.AlphaQuality != nil && !isSet("alpha-quality") {
		f.alphaQuality = *cfg.AlphaQuality
		mark("alpha-quality")
	}
	if cfg.Levels != "" && !isSet("levels") {
		f.levels = cfg.Levels
		mark("levels")
	}
	if cfg.Resiliency != nil && !isSet("resiliency") {
		f.resiliency = *cfg.Resiliency
		mark("resiliency")
	}
	if cfg.Subsampling != nil && !isSet("subsampling") {
		f.subsampling = *cfg.Subsampling
		mark("subsampling")
	}
	if cfg.Compression != "" && !isSet("compression") {
		f.compression = cfg.Compression
		mark("compression")
	}
	if cfg.FrameDuration != nil && !isSet("frame-duration") {
		f.frameDuration = *cfg.FrameDuration
		mark("frame-duration")
	}
}
