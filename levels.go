package qwi

// LevelPolicy selects how many resolution levels Encode stores per element.
type LevelPolicy uint8

const (
	LevelsAuto LevelPolicy = iota
	LevelsSingle
	LevelsMax
)

func (p LevelPolicy) String() string {
	switch p {
	case LevelsAuto:
		return "auto"
	case LevelsSingle:
		return "single"
	case LevelsMax:
		return "max"
	default:
		return "unknown"
	}
}

const (
	// minLevelSide is the smallest side maxLevels lets the coarsest level shrink to.
	minLevelSide = 32
	// autoLevelSide is the side the auto policy aims its coarsest level at.
	autoLevelSide = 128
)

// ceilShift returns ceil(v / 2^n).
func ceilShift(v, n int) int {
	return (v + (1 << n) - 1) >> n
}

// LevelSize returns the dimensions of an element reduced by level.
func LevelSize(width, height, level int) (int, int) {
	return ceilShift(width, level), ceilShift(height, level)
}

// FitLevel returns the smallest reduction L with both ceil(width/2^L) and
// ceil(height/2^L) at most thumb, without any bound from stored levels.
func FitLevel(width, height, thumb int) int {
	if thumb <= 0 {
		return 0
	}
	l := 0
	for l < 31 && (ceilShift(width, l) > thumb || ceilShift(height, l) > thumb) {
		l++
	}
	return l
}

// ThumbnailLevel is FitLevel clamped to the levels an element actually stores.
// Scanning stops at levels, so for a 512x300 element with 3 levels and a 32
// pixel thumbnail the result is 3, not 4.
func ThumbnailLevel(width, height, levels, thumb int) int {
	l := FitLevel(width, height, thumb)
	if l > levels {
		return levels
	}
	return l
}

// maxLevels returns how many levels a width x height element can carry before
// its coarsest level drops under minLevelSide on either side.
func maxLevels(width, height int) int {
	l := MaxResolutionLevels - 1
	for l > 0 && ceilShift(width, l) < minLevelSide {
		l--
	}
	for l > 0 && ceilShift(height, l) < minLevelSide {
		l--
	}
	return l + 1
}

// levelsFor resolves a policy into the level index stored in an element header.
func levelsFor(p LevelPolicy, width, height int) uint8 {
	top := maxLevels(width, height) - 1
	switch p {
	case LevelsSingle:
		return 0
	case LevelsMax:
		return uint8(top)
	default:
		l := 0
		for l < top && (ceilShift(width, l) > autoLevelSide || ceilShift(height, l) > autoLevelSide) {
			l++
		}
		return uint8(l)
	}
}
