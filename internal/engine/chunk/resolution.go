package chunk

// Size is the side length in full-resolution pixels of every chunk.
const Size = 32

// Resolution identifies a level of the resolution pyramid.
type Resolution uint8

const (
	// Full is the source resolution; all other levels derive from it.
	Full Resolution = iota
	// Half stores a chunk at 1/2 scale.
	Half
	// Quarter stores a chunk at 1/4 scale.
	Quarter
	// Eighth stores a chunk at 1/8 scale.
	Eighth
)

// Resolutions lists every pyramid level from Full to Eighth.
var Resolutions = [...]Resolution{Full, Half, Quarter, Eighth}

// LevelCount is the number of pyramid levels.
const LevelCount = len(Resolutions)

// PixelSize returns the side length in pixels of a chunk stored at r.
func (r Resolution) PixelSize() int {
	return Size >> r
}

// Multiplier returns the scale factor of r relative to Full.
func (r Resolution) Multiplier() float64 {
	return 1 / float64(int(1)<<r)
}

// Valid reports whether r is a known level.
func (r Resolution) Valid() bool {
	return r <= Eighth
}

// String returns the level name.
func (r Resolution) String() string {
	switch r {
	case Full:
		return "full"
	case Half:
		return "half"
	case Quarter:
		return "quarter"
	case Eighth:
		return "eighth"
	default:
		return "unknown"
	}
}

// ParseResolution parses a level name, defaulting to Full.
func ParseResolution(s string) Resolution {
	switch s {
	case "half", "1/2":
		return Half
	case "quarter", "1/4":
		return Quarter
	case "eighth", "1/8":
		return Eighth
	default:
		return Full
	}
}
