package canvas

import (
	"context"
	"log/slog"

	"weave/internal/geom"
)

// KindPair is an unordered pair of node kinds allowed to auto-connect
// when dragged near each other.
type KindPair struct {
	A, B NodeKind
}

// Matches reports whether the pair covers kinds x and y in either
// order. Same-kind pairs never match.
func (p KindPair) Matches(x, y NodeKind) bool {
	if x == y {
		return false
	}
	return (p.A == x && p.B == y) || (p.A == y && p.B == x)
}

// Config tunes the engine. Zero values are replaced by the matching
// DefaultConfig values when the engine is created.
type Config struct {
	// Viewport.
	MinZoom float64
	MaxZoom float64

	// Anchor placement. Spread parameters place fan-out anchors inside
	// [SpreadMin, SpreadMax] around the side midpoint. Target anchors
	// slide freely only on sides at least FreeSlideMin long, clamped
	// TargetMargin away from the corners.
	SpreadMin    float64
	SpreadMax    float64
	TargetMargin float64
	FreeSlideMin float64

	// Edge routing.
	PathKind     PathKind
	LaneSpacing  float64
	ObstaclePad  float64
	DetourMargin float64
	CornerRadius float64
	StubOffset   float64
	Curvature    float64
	NearLevelTol float64

	// Collision resolution, applied after each completed gesture.
	CollideIterations int
	CollideMargin     float64
	OverlapThreshold  float64

	// Proximity auto-connect. Threshold is a screen-space distance;
	// Compatibility lists the kind pairs allowed to connect. An empty
	// list disables the connector.
	ProximityThreshold float64
	Compatibility      []KindPair

	// Per-kind minimum node sizes, enforced on resize and on load.
	MinSizes map[NodeKind]geom.Size

	// Logger receives routing and lifecycle diagnostics. Nil keeps the
	// engine silent.
	Logger *slog.Logger
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MinZoom:            0.1,
		MaxZoom:            4.0,
		SpreadMin:          0.35,
		SpreadMax:          0.65,
		TargetMargin:       0.025,
		FreeSlideMin:       60,
		PathKind:           PathSmart,
		LaneSpacing:        14,
		ObstaclePad:        12,
		DetourMargin:       8,
		CornerRadius:       8,
		StubOffset:         24,
		Curvature:          0.4,
		NearLevelTol:       4,
		CollideIterations:  50,
		CollideMargin:      20,
		OverlapThreshold:   0.5,
		ProximityThreshold: 48,
		Compatibility: []KindPair{
			{A: KindNote, B: KindThread},
			{A: KindImage, B: KindThread},
		},
		MinSizes: map[NodeKind]geom.Size{
			KindNote:   {W: 120, H: 60},
			KindImage:  {W: 60, H: 60},
			KindThread: {W: 160, H: 90},
		},
	}
}

// normalized fills zero-valued fields from the defaults so callers can
// set only what they care about.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MinZoom <= 0 {
		c.MinZoom = d.MinZoom
	}
	if c.MaxZoom <= 0 {
		c.MaxZoom = d.MaxZoom
	}
	if c.SpreadMin <= 0 {
		c.SpreadMin = d.SpreadMin
	}
	if c.SpreadMax <= 0 {
		c.SpreadMax = d.SpreadMax
	}
	if c.TargetMargin <= 0 {
		c.TargetMargin = d.TargetMargin
	}
	if c.FreeSlideMin <= 0 {
		c.FreeSlideMin = d.FreeSlideMin
	}
	if c.PathKind == "" {
		c.PathKind = d.PathKind
	}
	if c.LaneSpacing <= 0 {
		c.LaneSpacing = d.LaneSpacing
	}
	if c.ObstaclePad <= 0 {
		c.ObstaclePad = d.ObstaclePad
	}
	if c.DetourMargin <= 0 {
		c.DetourMargin = d.DetourMargin
	}
	if c.CornerRadius <= 0 {
		c.CornerRadius = d.CornerRadius
	}
	if c.StubOffset <= 0 {
		c.StubOffset = d.StubOffset
	}
	if c.Curvature <= 0 {
		c.Curvature = d.Curvature
	}
	if c.NearLevelTol <= 0 {
		c.NearLevelTol = d.NearLevelTol
	}
	if c.CollideIterations <= 0 {
		c.CollideIterations = d.CollideIterations
	}
	if c.CollideMargin <= 0 {
		c.CollideMargin = d.CollideMargin
	}
	if c.OverlapThreshold <= 0 {
		c.OverlapThreshold = d.OverlapThreshold
	}
	if c.ProximityThreshold <= 0 {
		c.ProximityThreshold = d.ProximityThreshold
	}
	if c.Compatibility == nil {
		c.Compatibility = d.Compatibility
	}
	if c.MinSizes == nil {
		c.MinSizes = d.MinSizes
	}
	if c.Logger == nil {
		c.Logger = slog.New(nopHandler{})
	}
	return c
}

// pairAllowed reports whether kinds x and y may auto-connect.
func (c Config) pairAllowed(x, y NodeKind) bool {
	for _, p := range c.Compatibility {
		if p.Matches(x, y) {
			return true
		}
	}
	return false
}

// minSize returns the minimum size for a kind, or a 1x1 floor for
// kinds without an explicit entry.
func (c Config) minSize(k NodeKind) geom.Size {
	if s, ok := c.MinSizes[k]; ok {
		return s
	}
	return geom.Size{W: 1, H: 1}
}

// nopHandler discards all records. Enabled returns false so disabled
// logging skips message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
