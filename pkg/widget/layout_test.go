package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackgroundOffset(t *testing.T) {
	l := DefaultLayout()

	testCases := []struct {
		input    string
		width    int
		expected int
	}{
		{"", 1200, 0},
		{"", 899, 0},
		{"main", 899, 0},
		{"main", 900, -150},
		{"main", 901, -150},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, l.BackgroundOffset(tc.input, tc.width), "input %q width %d", tc.input, tc.width)
		// idempotent
		assert.Equal(t, l.BackgroundOffset(tc.input, tc.width), l.BackgroundOffset(tc.input, tc.width))
	}
}

func TestRenderedOffset(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, -150, l.RenderedOffset(0, 901))
	assert.Equal(t, 0, l.RenderedOffset(0, 900))
	assert.Equal(t, -150, l.RenderedOffset(-150, 900))
	assert.Equal(t, 0, l.RenderedOffset(0, 899))
}

func TestHeadingMargin(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, 1, l.HeadingMargin(Page{Heading: "h", Description: "p"}))
	assert.Equal(t, 0, l.HeadingMargin(Page{Success: "Saved!"}))
	assert.Equal(t, 0, l.HeadingMargin(Page{Error: "Not found"}))
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "0", FormatOffset(0))
	assert.Equal(t, "-150px", FormatOffset(-150))
}
