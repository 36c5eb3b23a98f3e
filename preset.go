package qwi

import "sort"

// SaveConfig holds the user-facing encoder settings. Out of range values are
// clamped by Encode rather than rejected.
type SaveConfig struct {
	Quality      int // 0..100
	AlphaQuality int // 0..100
	Levels       LevelPolicy
	Resiliency   int // 0..2
	Subsampling  int // 0 auto, 1 4:4:4, 2 4:2:2 horizontal, 3 4:2:2 vertical, 4 4:2:0
	Animate      bool
	Duration     uint32 // default frame duration in milliseconds
	Slideshow    bool
	SplitBase    bool
}

func DefaultSaveConfig() SaveConfig {
	return SaveConfig{Quality: 100, AlphaQuality: 100, Levels: LevelsAuto}
}

// normalize clamps every field into range for an image of the given element
// count and plane count of element 0.
func (s SaveConfig) normalize(elements, planes int) SaveConfig {
	s.Quality = clampInt(s.Quality, 0, 100)
	s.AlphaQuality = clampInt(s.AlphaQuality, 0, 100)
	s.Resiliency = clampInt(s.Resiliency, 0, 2)
	if s.Subsampling < 0 || s.Subsampling > int(Subsampling420) {
		s.Subsampling = int(SubsamplingAuto)
	}
	if planes < 3 {
		s.Subsampling = int(Subsampling444)
	}
	if s.Levels > LevelsMax {
		s.Levels = LevelsAuto
	}
	if elements < 2 {
		s.Animate = false
		s.Slideshow = false
	}
	if s.Animate {
		s.Slideshow = false
		s.Duration = UnpackDuration(PackDuration(s.Duration))
	} else {
		s.Duration = 0
	}
	return s
}

func (s SaveConfig) containerType(elements int) ContainerType {
	switch {
	case elements < 2:
		return TypeSingle
	case s.Animate:
		return TypeAnimate
	case s.Slideshow:
		return TypeSlideshow
	default:
		return TypeMultilayer
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Preset is a named bundle of save settings.
type Preset struct {
	Name         string
	Resiliency   int
	Quality      int
	AlphaQuality int
	Levels       LevelPolicy
	Subsampling  int
}

func (p Preset) apply(s *SaveConfig) {
	s.Resiliency = p.Resiliency
	s.Quality = p.Quality
	s.AlphaQuality = p.AlphaQuality
	s.Levels = p.Levels
	s.Subsampling = p.Subsampling
}

var presets = map[string]Preset{
	"drawing":          {Name: "drawing", Resiliency: 0, Quality: 100, AlphaQuality: 100, Levels: LevelsSingle, Subsampling: 0},
	"archive-lossless": {Name: "archive-lossless", Resiliency: 0, Quality: 100, AlphaQuality: 100, Levels: LevelsAuto, Subsampling: 0},
	"archive-photo":    {Name: "archive-photo", Resiliency: 0, Quality: 90, AlphaQuality: 100, Levels: LevelsMax, Subsampling: 1},
	"web-good":         {Name: "web-good", Resiliency: 1, Quality: 90, AlphaQuality: 100, Levels: LevelsMax, Subsampling: 4},
	"web-smaller":      {Name: "web-smaller", Resiliency: 1, Quality: 80, AlphaQuality: 100, Levels: LevelsMax, Subsampling: 4},
}

func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// PresetNames lists the known presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset returns s with the named preset's settings applied.
func (s SaveConfig) ApplyPreset(name string) (SaveConfig, bool) {
	p, ok := presets[name]
	if ok {
		p.apply(&s)
	}
	return s, ok
}

// ParseLevelPolicy accepts auto, single and max.
func ParseLevelPolicy(s string) (LevelPolicy, bool) {
	switch s {
	case "auto", "":
		return LevelsAuto, true
	case "single":
		return LevelsSingle, true
	case "max":
		return LevelsMax, true
	}
	return LevelsAuto, false
}
