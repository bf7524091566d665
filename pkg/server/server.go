package server

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bastiangx/addrcomplete/pkg/cache"
	"github.com/bastiangx/addrcomplete/pkg/geocode"
	"github.com/bastiangx/addrcomplete/pkg/widget"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	defaultLimit   = 10
	maxLimit       = 64
	maxQueryLength = 200
)

// Server handles the IPC for address suggestions
type Server struct {
	source       geocode.Source
	decoder      *msgpack.Decoder
	encoder      *msgpack.Encoder
	requestCount int
}

// NewServer creates a server reading requests from r and writing responses to w.
func NewServer(source geocode.Source, r io.Reader, w io.Writer) *Server {
	return &Server{
		source:  source,
		decoder: msgpack.NewDecoder(r),
		encoder: msgpack.NewEncoder(w),
	}
}

// Start announces readiness and serves requests until the input ends or ctx
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting Server.")
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var raw msgpack.RawMessage
		if err := s.decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("Reading request: %v", err)
			return err
		}

		var request Request
		if err := msgpack.Unmarshal(raw, &request); err != nil {
			log.Errorf("Unmarshaling request: %v", err)
			s.sendError("", "Invalid msgpack request", 400)
			continue
		}
		s.handleRequest(ctx, request)
	}
}

func (s *Server) handleRequest(ctx context.Context, request Request) {
	s.requestCount++
	if request.ID == "" {
		request.ID = uuid.NewString()
	}

	switch request.Action {
	case "", "suggest":
		s.handleSuggest(ctx, request)
	case "health":
		s.send(StatusResponse{ID: request.ID, Status: "ok"})
	case "stats":
		stats := map[string]int{"requests": s.requestCount}
		if cached, ok := s.source.(interface{ Store() *cache.Store }); ok {
			for k, v := range cached.Store().Stats() {
				stats[k] = v
			}
		}
		s.send(StatusResponse{ID: request.ID, Status: "ok", Stats: stats})
	default:
		s.sendError(request.ID, "Unknown action: "+request.Action, 400)
	}
}

func (s *Server) handleSuggest(ctx context.Context, request Request) {
	if len(request.Query) > maxQueryLength {
		s.sendError(request.ID, "Query exceeds maximum length", 400)
		return
	}

	limit := request.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	start := time.Now()
	suggestions, err := s.source.Suggest(ctx, request.Query)
	elapsed := time.Since(start)

	var statusErr *geocode.StatusError
	switch {
	case err == nil:
	case errors.Is(err, geocode.ErrMalformedPayload):
		log.Warnf("Malformed provider payload for '%s': %v", request.Query, err)
		suggestions = nil
	case errors.As(err, &statusErr):
		log.Errorf("Provider error for '%s': %v", request.Query, err)
		s.sendError(request.ID, err.Error(), 502)
		return
	default:
		log.Warnf("Provider unreachable for '%s': %v", request.Query, err)
		s.sendError(request.ID, err.Error(), 503)
		return
	}

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	entries := widget.Render(suggestions)
	items := make([]SuggestionItem, len(entries))
	for i, e := range entries {
		items[i] = SuggestionItem{ID: e.ID, Text: e.Text, Label: suggestions[i].Label}
	}

	log.Debugf("Took [ %v ] for query '%s'", elapsed, request.Query)
	s.send(SuggestResponse{
		ID:          request.ID,
		Suggestions: items,
		Count:       len(items),
		TimeTaken:   elapsed.Milliseconds(),
	})
}

func (s *Server) send(response any) error {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
		return err
	}
	return nil
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
