package canvas

import (
	"math"
	"math/rand"
	"testing"

	"weave/internal/geom"
)

func TestResolvePushesApartOnMinAxis(t *testing.T) {
	boxes := []Box{
		{ID: "a", Rect: geom.Rect{X: 0, Y: 0, W: 100, H: 100}},
		{ID: "b", Rect: geom.Rect{X: 50, Y: 0, W: 100, H: 100}},
	}
	moved, changed := ResolveCollisions(boxes, ResolveOptions{})
	if !changed {
		t.Fatal("overlapping boxes reported unchanged")
	}
	a, b := moved["a"], moved["b"]
	if a.Y != 0 || b.Y != 0 {
		t.Errorf("boxes moved on the wrong axis: a=%v b=%v", a, b)
	}
	if a.X != -35 || b.X != 85 {
		t.Errorf("positions = %v / %v, want -35 / 85", a.X, b.X)
	}
	// Final gap equals the margin.
	if gap := b.X - (a.X + 100); gap != 20 {
		t.Errorf("gap = %v, want margin 20", gap)
	}
}

func TestResolveRespectsExclusions(t *testing.T) {
	boxes := []Box{
		{ID: "a", Rect: geom.Rect{X: 0, Y: 0, W: 100, H: 100}},
		{ID: "b", Rect: geom.Rect{X: 50, Y: 0, W: 100, H: 100}},
	}
	moved, changed := ResolveCollisions(boxes, ResolveOptions{
		Exclude: [][2]string{{"b", "a"}},
	})
	if changed || len(moved) != 0 {
		t.Errorf("excluded pair moved: %v", moved)
	}
}

func TestResolveLeavesSeparatedAlone(t *testing.T) {
	boxes := []Box{
		{ID: "a", Rect: geom.Rect{X: 0, Y: 0, W: 100, H: 100}},
		{ID: "b", Rect: geom.Rect{X: 200, Y: 0, W: 100, H: 100}},
	}
	moved, changed := ResolveCollisions(boxes, ResolveOptions{})
	if changed || len(moved) != 0 {
		t.Errorf("separated boxes moved: %v", moved)
	}
}

func TestResolveVerticalStack(t *testing.T) {
	// Wider than tall overlap pushes vertically.
	boxes := []Box{
		{ID: "a", Rect: geom.Rect{X: 0, Y: 0, W: 300, H: 80}},
		{ID: "b", Rect: geom.Rect{X: 0, Y: 40, W: 300, H: 80}},
	}
	moved, _ := ResolveCollisions(boxes, ResolveOptions{})
	a, b := moved["a"], moved["b"]
	if a.X != 0 || b.X != 0 {
		t.Errorf("horizontal drift: a=%v b=%v", a, b)
	}
	if a.Y >= b.Y {
		t.Errorf("stack order flipped: a=%v b=%v", a.Y, b.Y)
	}
	if gap := b.Y - (a.Y + 80); math.Abs(gap-20) > 1e-9 {
		t.Errorf("gap = %v, want 20", gap)
	}
}

func TestResolveResidualOverlapBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	opts := ResolveOptions{}.normalized()

	for trial := 0; trial < 10; trial++ {
		boxes := make([]Box, 8)
		for i := range boxes {
			boxes[i] = Box{
				ID: string(rune('a' + i)),
				Rect: geom.Rect{
					X: rng.Float64() * 900,
					Y: rng.Float64() * 700,
					W: 100 + rng.Float64()*100,
					H: 80 + rng.Float64()*60,
				},
			}
		}
		moved, _ := ResolveCollisions(boxes, ResolveOptions{})
		for i := range boxes {
			if pos, ok := moved[boxes[i].ID]; ok {
				boxes[i].Rect.X, boxes[i].Rect.Y = pos.X, pos.Y
			}
		}
		pad := opts.Margin / 2
		for i := 0; i < len(boxes); i++ {
			for j := i + 1; j < len(boxes); j++ {
				a := boxes[i].Rect.Pad(pad)
				b := boxes[j].Rect.Pad(pad)
				overlapX := math.Min(a.MaxX(), b.MaxX()) - math.Max(a.X, b.X)
				overlapY := math.Min(a.MaxY(), b.MaxY()) - math.Max(a.Y, b.Y)
				if math.Min(overlapX, overlapY) > opts.OverlapThreshold+1e-6 {
					t.Fatalf("trial %d: residual overlap between %s and %s: %v/%v",
						trial, boxes[i].ID, boxes[j].ID, overlapX, overlapY)
				}
			}
		}
	}
}

func TestResolveDefaultsApplied(t *testing.T) {
	o := ResolveOptions{}.normalized()
	if o.Iterations != 50 || o.Margin != 20 || o.OverlapThreshold != 0.5 {
		t.Errorf("defaults = %+v", o)
	}
}
