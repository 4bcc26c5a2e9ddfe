package world

// Point is a position on a level grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) ToArray() [2]int { return [2]int{p.X, p.Y} }

// Vec is a movement step between adjacent or line-connected positions.
type Vec struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

func (p Point) Add(v Vec) Point { return Point{X: p.X + v.DX, Y: p.Y + v.DY} }

func (p Point) Sub(q Point) Vec { return Vec{DX: p.X - q.X, DY: p.Y - q.Y} }

// ChessDist is the Chebyshev distance; adjacency is distance 1.
func ChessDist(a, b Point) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Time is in-level time in deltas. One clip is DeltasPerClip deltas; a
// normal actor acts once per clip.
type Time int64

const DeltasPerClip Time = 10

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// line returns up to n successive points along the discretized line from
// src toward (and beyond) tgt, excluding src. eps selects among the
// equivalent lines through the same endpoints; distinct eps values walk
// distinct tie-breaking paths.
func line(src, tgt Point, eps, n int) []Point {
	dx := tgt.X - src.X
	dy := tgt.Y - src.Y
	adx, ady := abs(dx), abs(dy)
	if adx == 0 && ady == 0 {
		return nil
	}
	sx, sy := sign(dx), sign(dy)

	pts := make([]Point, 0, n)
	x, y := src.X, src.Y
	if adx >= ady {
		err := mod(eps, adx) - adx/2
		for len(pts) < n {
			x += sx
			err += ady
			if 2*err >= adx {
				y += sy
				err -= adx
			}
			pts = append(pts, Point{X: x, Y: y})
		}
		return pts
	}
	err := mod(eps, ady) - ady/2
	for len(pts) < n {
		y += sy
		err += adx
		if 2*err >= ady {
			x += sx
			err -= ady
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts
}

// LineTo returns the line from src (exclusive) to tgt (inclusive).
func LineTo(src, tgt Point, eps int) []Point {
	return line(src, tgt, eps, ChessDist(src, tgt))
}
