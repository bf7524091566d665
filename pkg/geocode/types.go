/*
Package geocode talks to the address suggestion provider.

The default provider is the HERE autocomplete API (6.2). A request carries the
API key and the free-text query:

	GET https://autocomplete.geocoder.ls.hereapi.com/6.2/suggest.json?apiKey=...&query=123+Main

and the provider answers with a list of suggestion records:

	{"suggestions": [{"label": "United States, IL, Springfield, 123 Main St"}]}

Only the label is used; every other field is ignored.

# Errors

Failures fall into three groups so callers can recover differently:

	ErrTransport         no response at all (network failure, timeout, cancelled context)
	*StatusError         the provider answered with a non-2xx status
	ErrMalformedPayload  the body could not be decoded or has no suggestions list

None of them is fatal to the caller; the widget treats each as recoverable.
*/
package geocode

import (
	"context"
	"errors"
	"fmt"
)

// DefaultEndpoint is the HERE autocomplete suggest endpoint.
const DefaultEndpoint = "https://autocomplete.geocoder.ls.hereapi.com/6.2/suggest.json"

var (
	// ErrTransport wraps failures where no usable response arrived.
	ErrTransport = errors.New("suggestion provider unreachable")
	// ErrMalformedPayload marks a response body that is not a suggestion list.
	ErrMalformedPayload = errors.New("malformed suggestion payload")
	// ErrMissingAPIKey is returned when the client is built without credentials.
	ErrMissingAPIKey = errors.New("missing provider API key")
)

// StatusError is a non-success HTTP status from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("suggestion provider returned status %d", e.Code)
	}
	return fmt.Sprintf("suggestion provider returned status %d: %s", e.Code, e.Body)
}

// Suggestion is one candidate address returned by the provider.
type Suggestion struct {
	Label string `json:"label" msgpack:"l"`
}

// Source produces suggestions for a query.
type Source interface {
	Suggest(ctx context.Context, query string) ([]Suggestion, error)
}

// suggestResponse mirrors the part of the provider payload we read.
// Suggestions is a pointer so a missing field can be told apart from an empty list.
type suggestResponse struct {
	Suggestions *[]Suggestion `json:"suggestions"`
}
