package editor

import (
	"regexp"
	"strconv"
	"strings"
)

// MinImageWidth is the narrowest an inline image can be dragged, in pixels.
const MinImageWidth = 50

// ResizeHandle says which edge of the image the resize handle sits on.
type ResizeHandle int

const (
	HandleRight ResizeHandle = iota
	HandleLeft
)

// ResizeWidth computes the width for a horizontal resize drag. dx is the
// pointer's travel since the handle was grabbed; dragging the left handle
// inverts it. Height always stays auto so the aspect ratio is preserved.
func ResizeWidth(startWidth, dx float64, handle ResizeHandle) float64 {
	if handle == HandleLeft {
		dx = -dx
	}
	width := startWidth + dx
	if width < MinImageWidth {
		width = MinImageWidth
	}
	return width
}

// ResizeDrag tracks a single handle drag. The width is transient local
// state for live feedback; only Commit yields a value to persist, so the
// autosave controller sees one content change per gesture instead of one
// per pixel.
type ResizeDrag struct {
	handle     ResizeHandle
	startX     float64
	startWidth float64
	width      float64
}

func BeginResize(handle ResizeHandle, startX, startWidth float64) *ResizeDrag {
	return &ResizeDrag{handle: handle, startX: startX, startWidth: startWidth, width: startWidth}
}

// Move updates the transient width as the pointer moves.
func (d *ResizeDrag) Move(x float64) float64 {
	d.width = ResizeWidth(d.startWidth, x-d.startX, d.handle)
	return d.width
}

// Commit ends the gesture at the given pointer position and returns the
// width to write into the image node's attributes.
func (d *ResizeDrag) Commit(x float64) float64 {
	return d.Move(x)
}

var numericDimension = regexp.MustCompile(`^\d+(\.\d+)?(px)?$`)

// NormalizeDimension parses a persisted width or height attribute. Bare
// numbers and px-suffixed numbers normalize to a number; anything else
// ("50%", "auto") is not ours to interpret and the caller should pass the
// raw string through unchanged.
func NormalizeDimension(value string) (float64, bool) {
	if !numericDimension.MatchString(value) {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(value, "px"), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
