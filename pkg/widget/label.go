package widget

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bastiangx/addrcomplete/pkg/geocode"
)

// directional matches one standalone compass abbreviation and the whitespace
// in front of it.
var directional = regexp.MustCompile(`\s*\b(?:NW|SE|SW|NE)\b`)

// Entry is one rendered row of the dropdown.
type Entry struct {
	ID   string
	Text string
}

// FormatLabel turns a provider label into display text: components are
// reversed (finest first) and re-joined with ", ", then the first directional
// token is dropped.
//
// Only the first token is removed. Labels with two tokens keep the second.
func FormatLabel(label string) string {
	parts := strings.Split(label, ",")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	text := strings.Join(parts, ", ")

	if loc := directional.FindStringIndex(text); loc != nil {
		text = text[:loc[0]] + text[loc[1]:]
	}
	return strings.TrimSpace(text)
}

// EntryID is the identifier of the row at index.
func EntryID(index int) string {
	return fmt.Sprintf("choice%d", index)
}

// Render builds the dropdown rows for suggestions, in order.
func Render(suggestions []geocode.Suggestion) []Entry {
	entries := make([]Entry, len(suggestions))
	for i, s := range suggestions {
		entries[i] = Entry{
			ID:   EntryID(i),
			Text: FormatLabel(s.Label),
		}
	}
	return entries
}
