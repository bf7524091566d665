// Package cli is the line-oriented front end: every line read is one query.
// It is handy for checking provider answers and label formatting without
// the full-screen UI.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/addrcomplete/pkg/cache"
	"github.com/bastiangx/addrcomplete/pkg/geocode"
	"github.com/bastiangx/addrcomplete/pkg/widget"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
)

// InputHandler reads queries from in and prints suggestions to out.
// A line of the form ":N" picks row N of the last answer, ":h [prefix]"
// lists cached queries.
type InputHandler struct {
	source       geocode.Source
	in           io.Reader
	out          io.Writer
	limit        int
	width        int
	requestCount int
	last         []widget.Entry
}

// NewInputHandler handles initialization of the InputHandler with basic parameters.
// width bounds the printed row length; 0 disables truncation.
func NewInputHandler(source geocode.Source, in io.Reader, out io.Writer, limit, width int) *InputHandler {
	return &InputHandler{
		source: source,
		in:     in,
		out:    out,
		limit:  limit,
		width:  width,
	}
}

// Start begins the interface loop. It returns nil when the input ends.
func (h *InputHandler) Start(ctx context.Context) error {
	fmt.Fprintln(h.out, "addrcomplete CLI")
	fmt.Fprintln(h.out, "type an address and press Enter to see suggestions, :N to pick one (Ctrl+C to exit):")

	reader := bufio.NewReader(h.in)
	for {
		fmt.Fprint(h.out, "> ")
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			h.handleLine(ctx, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (h *InputHandler) handleLine(ctx context.Context, line string) {
	if rest, ok := strings.CutPrefix(line, ":h"); ok {
		h.history(strings.TrimSpace(rest))
		return
	}
	if strings.HasPrefix(line, ":") {
		h.pick(line[1:])
		return
	}
	h.handleInput(ctx, line)
}

func (h *InputHandler) pick(arg string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(h.last) {
		fmt.Fprintf(h.out, "no suggestion %q to pick\n", arg)
		return
	}
	fmt.Fprintf(h.out, "Selected: %s\n", h.last[n-1].Text)
}

func (h *InputHandler) history(prefix string) {
	cached, ok := h.source.(interface{ Store() *cache.Store })
	if !ok {
		fmt.Fprintln(h.out, "cache disabled")
		return
	}
	queries := cached.Store().Queries(prefix)
	if len(queries) == 0 {
		fmt.Fprintln(h.out, "no cached queries")
		return
	}
	slices.Sort(queries)
	for _, q := range queries {
		fmt.Fprintf(h.out, "  %s\n", q)
	}
}

// handleInput looks up one query and prints the rows.
func (h *InputHandler) handleInput(ctx context.Context, query string) {
	h.requestCount++
	start := time.Now()

	suggestions, err := h.source.Suggest(ctx, query)
	log.Debugf("Took [ %v ] for query '%s'", time.Since(start), query)

	if err != nil && !errors.Is(err, geocode.ErrMalformedPayload) {
		h.last = nil
		log.Errorf("Lookup failed: %v", err)
		fmt.Fprintln(h.out, "suggestions unavailable")
		return
	}

	if h.limit > 0 && len(suggestions) > h.limit {
		suggestions = suggestions[:h.limit]
	}
	h.last = widget.Render(suggestions)

	if len(h.last) == 0 {
		fmt.Fprintf(h.out, "No suggestions found for '%s'\n", query)
		return
	}

	fmt.Fprintf(h.out, "Found %d suggestions for '%s':\n", len(h.last), query)
	for i, e := range h.last {
		text := e.Text
		if h.width > 8 {
			text = runewidth.Truncate(text, h.width-8, "…")
		}
		fmt.Fprintf(h.out, "%2d. \033[38;5;75m%s\033[0m\n", i+1, text)
	}
}
