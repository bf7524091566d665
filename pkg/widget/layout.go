package widget

import "strconv"

const (
	// DefaultThreshold is the viewport width, in logical pixels, below which
	// the layout is treated as narrow.
	DefaultThreshold = 900
	// DefaultOffset is how far the background is pushed out of view while the
	// dropdown needs the room.
	DefaultOffset = 150
)

// Layout computes the small visual adjustments around the field.
// All methods are pure.
type Layout struct {
	Threshold int
	Offset    int
}

// DefaultLayout returns the 900/150 layout.
func DefaultLayout() Layout {
	return Layout{Threshold: DefaultThreshold, Offset: DefaultOffset}
}

// HeadingMargin is the top margin above the heading and description.
// It collapses to zero when a success or error message takes the space.
func (l Layout) HeadingMargin(p Page) int {
	if p.Success != "" || p.Error != "" {
		return 0
	}
	return 1
}

// BackgroundOffset is the offset for the current input: zero for an empty
// field or a narrow viewport, shifted otherwise.
func (l Layout) BackgroundOffset(input string, width int) int {
	if input == "" || width < l.Threshold {
		return 0
	}
	return -l.Offset
}

// RenderedOffset is the offset after a non-empty list was drawn. A wide
// viewport shifts the background; a narrow one keeps current.
func (l Layout) RenderedOffset(current, width int) int {
	if width > l.Threshold {
		return -l.Offset
	}
	return current
}

// FormatOffset renders an offset the way a style sheet expects it.
func FormatOffset(offset int) string {
	if offset == 0 {
		return "0"
	}
	return strconv.Itoa(offset) + "px"
}
