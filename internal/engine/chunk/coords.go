package chunk

import (
	"image"
	"slices"
)

// CoordOf returns the chunk coordinate containing the full-resolution pixel p.
func CoordOf(p image.Point) image.Point {
	return image.Pt(floorDiv(p.X, Size), floorDiv(p.Y, Size))
}

// Bounds returns the full-resolution pixel rectangle covered by the chunk at coord.
func Bounds(coord image.Point) image.Rectangle {
	origin := coord.Mul(Size)
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(Size, Size))}
}

// CoordsIn returns the coordinates of every chunk overlapping r, row by row.
// An empty rectangle yields no coordinates.
func CoordsIn(r image.Rectangle) []image.Point {
	if r.Empty() {
		return nil
	}
	lo := CoordOf(r.Min)
	hi := CoordOf(r.Max.Sub(image.Pt(1, 1)))
	coords := make([]image.Point, 0, (hi.X-lo.X+1)*(hi.Y-lo.Y+1))
	for y := lo.Y; y <= hi.Y; y++ {
		for x := lo.X; x <= hi.X; x++ {
			coords = append(coords, image.Pt(x, y))
		}
	}
	return coords
}

// CanvasCoords returns every chunk coordinate of a canvas of the given size.
func CanvasCoords(size image.Point) []image.Point {
	return CoordsIn(image.Rectangle{Max: size})
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Set is a set of chunk coordinates.
type Set map[image.Point]struct{}

// NewSet creates a set holding coords.
func NewSet(coords ...image.Point) Set {
	s := make(Set, len(coords))
	for _, c := range coords {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts coord.
func (s Set) Add(coord image.Point) {
	s[coord] = struct{}{}
}

// Contains reports whether coord is in the set.
func (s Set) Contains(coord image.Point) bool {
	_, ok := s[coord]
	return ok
}

// Len returns the number of coordinates.
func (s Set) Len() int {
	return len(s)
}

// Union adds every coordinate of other to s and returns s.
// A nil receiver allocates a new set.
func (s Set) Union(other Set) Set {
	if s == nil {
		s = make(Set, len(other))
	}
	for c := range other {
		s[c] = struct{}{}
	}
	return s
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	return Set(nil).Union(s)
}

// IsSuperset reports whether s contains every coordinate of other.
func (s Set) IsSuperset(other Set) bool {
	for c := range other {
		if !s.Contains(c) {
			return false
		}
	}
	return true
}

// Slice returns the coordinates sorted by row, then column.
func (s Set) Slice() []image.Point {
	out := make([]image.Point, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b image.Point) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
	return out
}
