package qwi

const (
	// DurationCombine marks a frame that is composited over the previous one
	// instead of replacing it. Pack and Unpack never touch it.
	DurationCombine uint16 = 0x8000

	// MaxDuration is the longest representable frame duration in milliseconds.
	MaxDuration uint32 = 163830

	durationCoarse uint16 = 0x4000
	durationMask   uint16 = 0x3fff
	durationMaxRaw uint16 = 0x7fff
	fineLimit      uint32 = 164
)

// PackDuration encodes a frame duration in milliseconds into 15 bits.
// Durations under 164ms are kept in hundredths; longer ones in tens of
// milliseconds with bit 0x4000 set. Values above MaxDuration saturate.
func PackDuration(ms uint32) uint16 {
	if ms < fineLimit {
		return uint16(ms * 100)
	}
	if ms > MaxDuration {
		return durationMaxRaw
	}
	return durationCoarse | uint16(ms/10)
}

// UnpackDuration returns the duration in milliseconds. It ignores the combine flag.
// The transform is lossy: coarse values are truncated to tens of milliseconds.
func UnpackDuration(v uint16) uint32 {
	if v&durationCoarse != 0 {
		return uint32(v&durationMask) * 10
	}
	return uint32(v&durationMask) / 100
}

// IsCombine reports whether v carries DurationCombine.
func IsCombine(v uint16) bool {
	return v&DurationCombine != 0
}
