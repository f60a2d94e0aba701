package editor

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPosition centers the crop focal point.
	DefaultPosition = "50% 50%"

	// ClickThreshold is the pointer travel, in pixels on either axis, below
	// which a whole gesture counts as a click rather than a drag.
	ClickThreshold = 5.0
)

// BannerVariant selects which of a document banner's two crop focal points
// is being edited. The same source image is cropped wide on the page header
// and square on the grid card, so the two positions are stored and edited
// independently and never derived from one another.
type BannerVariant string

const (
	BannerPage BannerVariant = "page"
	BannerGrid BannerVariant = "grid"
)

// Position is a crop focal point, each axis a percentage in [0,100].
// 0/0 is the top-left corner, 50/50 the center.
type Position struct {
	X float64
	Y float64
}

// String encodes the position as "<x>% <y>%".
func (p Position) String() string {
	return formatPercent(p.X) + "% " + formatPercent(p.Y) + "%"
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParsePosition decodes an "<x>% <y>%" string, clamping each axis into
// [0,100]. Empty or malformed values fall back to the centered default.
func ParsePosition(value string) Position {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return Position{X: 50, Y: 50}
	}
	x, errX := strconv.ParseFloat(strings.TrimSuffix(parts[0], "%"), 64)
	y, errY := strconv.ParseFloat(strings.TrimSuffix(parts[1], "%"), 64)
	if errX != nil || errY != nil {
		return Position{X: 50, Y: 50}
	}
	return Position{X: clampPercent(x), Y: clampPercent(y)}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Reposition is the two-phase banner crop edit. Entering reposition mode
// seeds a draft from the persisted value, drags move only the draft, and
// nothing is written until the caller commits explicitly. Dropping the
// value cancels the edit.
type Reposition struct {
	seed  Position
	draft Position
}

// StartReposition seeds a draft from the persisted position string.
func StartReposition(persisted string) *Reposition {
	p := ParsePosition(persisted)
	return &Reposition{seed: p, draft: p}
}

// Drag applies the pointer's total travel since the gesture began. Pixel
// deltas are normalized by the container's rendered size so the focal
// point tracks the pointer regardless of how large the banner renders.
func (r *Reposition) Drag(dx, dy, containerW, containerH float64) Position {
	if containerW > 0 {
		r.draft.X = clampPercent(r.seed.X + dx/containerW*100)
	}
	if containerH > 0 {
		r.draft.Y = clampPercent(r.seed.Y + dy/containerH*100)
	}
	return r.draft
}

// Release ends the current pointer gesture; a following Drag continues
// from where this one left off.
func (r *Reposition) Release() {
	r.seed = r.draft
}

// Draft returns the uncommitted position.
func (r *Reposition) Draft() Position {
	return r.draft
}

// Commit returns the position string to persist.
func (r *Reposition) Commit() string {
	return r.draft.String()
}

// Gesture distinguishes a click from a drag. The pointer has to travel at
// least ClickThreshold pixels on some axis before the gesture becomes a
// drag; below that the press falls through to the click action.
type Gesture struct {
	startX   float64
	startY   float64
	dragging bool
}

func BeginGesture(x, y float64) *Gesture {
	return &Gesture{startX: x, startY: y}
}

// Move reports whether the gesture has become a drag.
func (g *Gesture) Move(x, y float64) bool {
	if !g.dragging && (math.Abs(x-g.startX) >= ClickThreshold || math.Abs(y-g.startY) >= ClickThreshold) {
		g.dragging = true
	}
	return g.dragging
}

// IsClick reports whether the whole gesture stayed within the click
// threshold, in which case the underlying select/open action should fire.
func (g *Gesture) IsClick() bool {
	return !g.dragging
}
