package world

import "testing"

func TestLineTo_ReachesTargetInChessDistSteps(t *testing.T) {
	cases := []struct {
		src, tgt Point
	}{
		{Point{X: 0, Y: 0}, Point{X: 5, Y: 0}},
		{Point{X: 0, Y: 0}, Point{X: 5, Y: 3}},
		{Point{X: 4, Y: 7}, Point{X: 0, Y: 2}},
		{Point{X: 2, Y: 2}, Point{X: 3, Y: 3}},
		{Point{X: 9, Y: 1}, Point{X: 1, Y: 1}},
	}
	for _, c := range cases {
		path := LineTo(c.src, c.tgt, 0)
		if len(path) != ChessDist(c.src, c.tgt) {
			t.Fatalf("line %v->%v: %d steps, want %d", c.src, c.tgt, len(path), ChessDist(c.src, c.tgt))
		}
		if path[len(path)-1] != c.tgt {
			t.Fatalf("line %v->%v ends at %v", c.src, c.tgt, path[len(path)-1])
		}
		prev := c.src
		for _, p := range path {
			if ChessDist(prev, p) != 1 {
				t.Fatalf("line %v->%v: non-adjacent step %v->%v", c.src, c.tgt, prev, p)
			}
			prev = p
		}
	}
}

func TestLine_ExtendsBeyondTarget(t *testing.T) {
	src, tgt := Point{X: 0, Y: 0}, Point{X: 2, Y: 1}
	path := line(src, tgt, 0, 6)
	if len(path) != 6 {
		t.Fatalf("got %d points, want 6", len(path))
	}
	if path[1] != tgt {
		t.Fatalf("target not on path at chess distance: %v", path)
	}
}

func TestLine_EpsSelectsDistinctPaths(t *testing.T) {
	src, tgt := Point{X: 0, Y: 0}, Point{X: 4, Y: 2}
	seen := map[Point]bool{}
	distinct := false
	base := LineTo(src, tgt, 0)
	for _, p := range base {
		seen[p] = true
	}
	for eps := 1; eps < 4; eps++ {
		for _, p := range LineTo(src, tgt, eps) {
			if !seen[p] {
				distinct = true
			}
		}
	}
	if !distinct {
		t.Fatalf("eps variation never changed the path %v", base)
	}
}

func TestLine_SamePointIsEmpty(t *testing.T) {
	if got := LineTo(Point{X: 3, Y: 3}, Point{X: 3, Y: 3}, 0); len(got) != 0 {
		t.Fatalf("self line not empty: %v", got)
	}
}
