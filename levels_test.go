package qwi

import "testing"

func TestFitAndThumbnailLevel(t *testing.T) {
	if got := FitLevel(512, 300, 32); got != 4 {
		t.Fatalf("FitLevel(512,300,32) = %d, want 4", got)
	}
	if got := ThumbnailLevel(512, 300, 3, 32); got != 3 {
		t.Fatalf("ThumbnailLevel with 3 stored levels = %d, want 3", got)
	}
	if got := ThumbnailLevel(512, 300, 7, 32); got != 4 {
		t.Fatalf("ThumbnailLevel with 7 stored levels = %d, want 4", got)
	}
	if got := ThumbnailLevel(512, 300, 3, 600); got != 0 {
		t.Fatalf("oversized thumbnail = %d, want 0", got)
	}
	if got := FitLevel(512, 300, 0); got != 0 {
		t.Fatalf("FitLevel without thumbnail = %d", got)
	}
	// ceil, not floor: 33 pixels at level 1 is 17, still over 16.
	if got := FitLevel(33, 1, 16); got != 2 {
		t.Fatalf("FitLevel(33,1,16) = %d, want 2", got)
	}
}

func TestLevelSize(t *testing.T) {
	w, h := LevelSize(512, 300, 3)
	if w != 64 || h != 38 {
		t.Fatalf("LevelSize = %dx%d", w, h)
	}
	w, h = LevelSize(1, 1, 5)
	if w != 1 || h != 1 {
		t.Fatalf("LevelSize of 1x1 = %dx%d", w, h)
	}
}

func TestMaxLevels(t *testing.T) {
	cases := []struct{ w, h, want int }{
		{4096, 4096, 8},
		{512, 300, 4},
		{64, 64, 2},
		{16, 16, 1},
		{4096, 16, 1},
	}
	for _, c := range cases {
		if got := maxLevels(c.w, c.h); got != c.want {
			t.Errorf("maxLevels(%d,%d) = %d, want %d", c.w, c.h, got, c.want)
		}
	}
}

func TestLevelsFor(t *testing.T) {
	cases := []struct {
		p    LevelPolicy
		w, h int
		want uint8
	}{
		{LevelsSingle, 4096, 4096, 0},
		{LevelsMax, 512, 300, 3},
		{LevelsMax, 16, 16, 0},
		{LevelsAuto, 64, 64, 0},
		{LevelsAuto, 512, 300, 2},
		{LevelsAuto, 4096, 4096, 5},
	}
	for _, c := range cases {
		if got := levelsFor(c.p, c.w, c.h); got != c.want {
			t.Errorf("levelsFor(%s,%d,%d) = %d, want %d", c.p, c.w, c.h, got, c.want)
		}
	}
}
