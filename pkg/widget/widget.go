/*
Package widget is the headless address autocomplete widget.

A Widget owns the field text, the dropdown rows and the small layout state
around them. Front ends feed it input events and selections and redraw from
the State snapshots it publishes:

	w, err := widget.New(widget.Options{
		Page:     widget.Page{Heading: "Find a station", Description: "Start typing an address"},
		Source:   client,
		OnChange: func(s widget.State) { program.Send(s) },
	})
	w.SetInput("123 Main")

Input is debounced; each debounced run dispatches one lookup tagged with a
sequence number. A response older than the newest one already shown is
dropped, so out-of-order replies cannot overwrite fresher rows.

Lookup failures never escape: transport and status errors hide the dropdown
and flag the widget as unavailable, malformed payloads render as no results.
*/
package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/addrcomplete/pkg/debounce"
	"github.com/bastiangx/addrcomplete/pkg/geocode"
	"github.com/charmbracelet/log"
)

// ErrMissingElement is returned by New when a required part is absent.
var ErrMissingElement = errors.New("missing required widget element")

// Page describes the static content the widget is mounted into.
type Page struct {
	Heading     string
	Description string
	// Success and Error are optional status messages from the surrounding form.
	Success string
	Error   string
}

// Options configures New.
type Options struct {
	Page     Page
	Source   geocode.Source
	Debounce time.Duration
	Layout   Layout
	// Width is the initial viewport width in logical pixels.
	Width    int
	OnChange func(State)
}

// State is a snapshot of everything a view needs to draw the widget.
type State struct {
	Input         string
	Visible       bool
	Entries       []Entry
	Offset        int
	HeadingMargin int
	Unavailable   bool
	// Seq is the sequence number of the lookup currently shown.
	Seq uint64
	// Rev increases with every published snapshot; views drop lower ones.
	Rev uint64
}

// Widget is safe for concurrent use.
type Widget struct {
	page      Page
	source    geocode.Source
	layout    Layout
	onChange  func(State)
	debouncer *debounce.Debouncer

	input       string
	width       int
	visible     bool
	entries     []Entry
	offset      int
	unavailable bool
	dispatched  uint64
	applied     uint64
	rev         uint64
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// New validates opts and returns a ready widget.
func New(opts Options) (*Widget, error) {
	var missing []string
	if strings.TrimSpace(opts.Page.Heading) == "" {
		missing = append(missing, "heading")
	}
	if strings.TrimSpace(opts.Page.Description) == "" {
		missing = append(missing, "description")
	}
	if opts.Source == nil {
		missing = append(missing, "suggestion source")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingElement, strings.Join(missing, ", "))
	}

	layout := opts.Layout
	if layout.Threshold <= 0 {
		layout.Threshold = DefaultThreshold
	}
	if layout.Offset <= 0 {
		layout.Offset = DefaultOffset
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{
		page:     opts.Page,
		source:   opts.Source,
		layout:   layout,
		onChange: opts.OnChange,
		width:    opts.Width,
		ctx:      ctx,
		cancel:   cancel,
	}
	w.debouncer = debounce.New(opts.Debounce, w.Refresh)
	return w, nil
}

// SetInput records a keystroke-level change and schedules a lookup.
func (w *Widget) SetInput(text string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.input = text
	w.mu.Unlock()

	w.debouncer.Trigger()
}

// Resize records the viewport width. The layout follows on the next event.
func (w *Widget) Resize(width int) {
	w.mu.Lock()
	w.width = width
	w.mu.Unlock()
}

// Refresh dispatches a lookup for the current input right away. It is the
// action behind the debouncer.
func (w *Widget) Refresh() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	query := w.input
	w.visible = query != ""
	w.offset = w.layout.BackgroundOffset(query, w.width)
	w.unavailable = false
	w.dispatched++
	seq := w.dispatched
	w.wg.Add(1)
	state := w.snapshotLocked()
	w.mu.Unlock()

	w.publish(state)

	go func() {
		defer w.wg.Done()
		suggestions, err := w.source.Suggest(w.ctx, query)
		w.apply(seq, query, suggestions, err)
	}()
}

func (w *Widget) apply(seq uint64, query string, suggestions []geocode.Suggestion, err error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if seq < w.applied {
		w.mu.Unlock()
		log.Debugf("Dropping stale response #%d for '%s' (showing #%d)", seq, query, w.applied)
		return
	}
	w.applied = seq

	var statusErr *geocode.StatusError
	switch {
	case err == nil:
		w.renderLocked(suggestions)
	case errors.Is(err, geocode.ErrMalformedPayload):
		log.Warnf("Treating malformed response for '%s' as empty: %v", query, err)
		w.renderLocked(nil)
	case errors.As(err, &statusErr):
		log.Errorf("Suggestion lookup for '%s' failed: %v", query, err)
		w.failLocked()
	default:
		log.Warnf("Suggestion lookup for '%s' failed: %v", query, err)
		w.failLocked()
	}
	state := w.snapshotLocked()
	w.mu.Unlock()

	w.publish(state)
}

func (w *Widget) renderLocked(suggestions []geocode.Suggestion) {
	if len(suggestions) == 0 {
		w.offset = 0
		w.entries = nil
		w.visible = false
		return
	}
	w.entries = Render(suggestions)
	w.visible = true
	w.offset = w.layout.RenderedOffset(w.offset, w.width)
}

func (w *Widget) failLocked() {
	w.entries = nil
	w.visible = false
	w.offset = 0
	w.unavailable = true
}

// Select fills the field with the row at index. An index outside the
// rendered rows, or any index while the dropdown is hidden, is ignored and
// false is returned.
func (w *Widget) Select(index int) bool {
	w.mu.Lock()
	if !w.visible || index < 0 || index >= len(w.entries) {
		w.mu.Unlock()
		return false
	}
	w.selectLocked(w.entries[index].Text)
	state := w.snapshotLocked()
	w.mu.Unlock()

	w.publish(state)
	return true
}

// SelectText fills the field with text verbatim, as a click on a row does.
// It does not start a lookup.
func (w *Widget) SelectText(text string) {
	w.mu.Lock()
	w.selectLocked(text)
	state := w.snapshotLocked()
	w.mu.Unlock()

	w.publish(state)
}

func (w *Widget) selectLocked(text string) {
	w.input = text
	w.visible = false
	w.offset = 0
}

// Dismiss hides the dropdown without touching the field.
func (w *Widget) Dismiss() {
	w.mu.Lock()
	w.visible = false
	w.offset = 0
	state := w.snapshotLocked()
	w.mu.Unlock()

	w.publish(state)
}

// Page returns the page the widget was mounted into.
func (w *Widget) Page() Page {
	return w.page
}

// State returns the current snapshot.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Close stops pending and in-flight lookups and waits for them to finish.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.debouncer.Stop()
	w.cancel()
	w.wg.Wait()
}

func (w *Widget) snapshotLocked() State {
	w.rev++
	entries := make([]Entry, len(w.entries))
	copy(entries, w.entries)
	return State{
		Input:         w.input,
		Visible:       w.visible,
		Entries:       entries,
		Offset:        w.offset,
		HeadingMargin: w.layout.HeadingMargin(w.page),
		Unavailable:   w.unavailable,
		Seq:           w.applied,
		Rev:           w.rev,
	}
}

func (w *Widget) publish(state State) {
	if w.onChange != nil {
		w.onChange(state)
	}
}
