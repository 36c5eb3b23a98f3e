package qwi

import (
	"errors"
	"reflect"
	"testing"
)

func TestLimitsWithDefaults(t *testing.T) {
	l := (Limits{}).withDefaults()
	if l != defaultLimits() {
		t.Fatalf("zero limits = %+v", l)
	}

	custom := (Limits{MaxElements: 7}).withDefaults()
	if custom.MaxElements != 7 || custom.MaxOptionalsLen != defaultLimits().MaxOptionalsLen {
		t.Fatalf("custom limits = %+v", custom)
	}
}

func TestSaveConfigNormalize(t *testing.T) {
	s := SaveConfig{
		Quality: 140, AlphaQuality: -3, Resiliency: 9, Subsampling: 11,
		Levels: LevelPolicy(200), Animate: true, Slideshow: true, Duration: 1234,
	}.normalize(3, 4)
	want := SaveConfig{
		Quality: 100, AlphaQuality: 0, Resiliency: 2, Subsampling: 0,
		Levels: LevelsAuto, Animate: true, Duration: 1230,
	}
	if s != want {
		t.Fatalf("normalize = %+v, want %+v", s, want)
	}

	gray := SaveConfig{Subsampling: 4}.normalize(1, 1)
	if gray.Subsampling != int(Subsampling444) {
		t.Fatalf("gray subsampling = %d", gray.Subsampling)
	}

	single := SaveConfig{Animate: true, Slideshow: true, Duration: 50}.normalize(1, 3)
	if single.Animate || single.Slideshow || single.Duration != 0 {
		t.Fatalf("single element config = %+v", single)
	}
	if single.containerType(1) != TypeSingle {
		t.Fatal("single element container type")
	}
	if (SaveConfig{Slideshow: true}).containerType(2) != TypeSlideshow {
		t.Fatal("slideshow container type")
	}
	if (SaveConfig{}).containerType(5) != TypeMultilayer {
		t.Fatal("multilayer container type")
	}
}

func TestPresets(t *testing.T) {
	names := PresetNames()
	want := []string{"archive-lossless", "archive-photo", "drawing", "web-good", "web-smaller"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("PresetNames = %v", names)
	}

	p, ok := LookupPreset("web-smaller")
	if !ok || p.Quality != 80 || p.Resiliency != 1 || p.Levels != LevelsMax || p.Subsampling != 4 {
		t.Fatalf("web-smaller = %+v", p)
	}
	if _, ok := LookupPreset("nope"); ok {
		t.Fatal("unknown preset found")
	}

	s, ok := DefaultSaveConfig().ApplyPreset("drawing")
	if !ok || s.Levels != LevelsSingle || s.Quality != 100 {
		t.Fatalf("drawing applied = %+v", s)
	}
	s, ok = DefaultSaveConfig().ApplyPreset("nope")
	if ok || s != DefaultSaveConfig() {
		t.Fatal("unknown preset changed the config")
	}

	cfg := newWriteConfig([]WriteOption{WithPreset("archive-photo"), WithQuality(55)})
	if cfg.save.Quality != 55 || cfg.save.Levels != LevelsMax || cfg.save.Subsampling != 1 {
		t.Fatalf("options after preset = %+v", cfg.save)
	}
}

func TestParseLevelPolicy(t *testing.T) {
	for _, p := range []LevelPolicy{LevelsAuto, LevelsSingle, LevelsMax} {
		got, ok := ParseLevelPolicy(p.String())
		if !ok || got != p {
			t.Fatalf("ParseLevelPolicy(%q) = %v, %v", p.String(), got, ok)
		}
	}
	if _, ok := ParseLevelPolicy("most"); ok {
		t.Fatal("unknown policy accepted")
	}
}

func TestValidateImage(t *testing.T) {
	limits := defaultLimits()
	good := grayLayer("", 4, 4, 0)
	cases := []struct {
		name string
		img  *Image
		want error
	}{
		{"nil", nil, ErrValidation},
		{"no layers", &Image{}, ErrValidation},
		{"bad planes", &Image{Layers: []Layer{{Width: 1, Height: 1, Planes: 5, Pix: make([]uint8, 5)}}}, ErrValidation},
		{"short pix", &Image{Layers: []Layer{{Width: 2, Height: 2, Planes: 1, Pix: make([]uint8, 3)}}}, ErrValidation},
		{"too wide", &Image{Layers: []Layer{{Width: MaxDimension + 1, Height: 0, Planes: 1}}}, ErrValidation},
		{"empty base", &Image{Layers: []Layer{{Width: 0, Height: 0, Planes: 1}, good}}, ErrValidation},
		{"canvas", &Image{Width: -1, Layers: []Layer{good}}, ErrValidation},
		{"script", &Image{Layers: []Layer{good}, Script: make([]byte, limits.MaxScriptLen+1)}, ErrLimitExceeded},
	}
	for _, c := range cases {
		if err := validateImage(c.img, limits); !errors.Is(err, c.want) {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, err)
		}
	}

	limits.MaxElements = 1
	if err := validateImage(&Image{Layers: []Layer{good, good}}, limits); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("too many layers: %v", err)
	}

	// Placeholder layers above the base are allowed.
	if err := validateImage(&Image{Layers: []Layer{good, {Planes: 1}}}, defaultLimits()); err != nil {
		t.Fatalf("placeholder layer rejected: %v", err)
	}
}
