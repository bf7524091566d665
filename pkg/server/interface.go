/*
Package server implements msgpack IPC for address suggestions.

Editors and other front ends that want the suggestion pipeline without the
terminal UI start the binary with -s and talk msgpack over stdin/stdout. The
stream is a sequence of msgpack maps; each request gets exactly one response
carrying the same ID. Requests are processed in arrival order, so a client
that sends queries as the user types always sees the answers in that order.

# IPC

On start the server writes a status message:

	{"status": "ready"}

A suggestion request names the query and an optional limit:

	{"id": "req_001", "q": "123 Main", "l": 5}

A request without an ID is answered under a generated UUID.

The response carries display-ready rows (the label already reversed and
cleaned), the raw provider label, and the time taken in milliseconds:

	{"id": "req_001", "s": [{"i": "choice0", "t": "123 Main St, Springfield, IL, USA", "l": "USA, IL, Springfield, 123 Main St"}], "c": 1, "t": 142}

Other actions are selected with "a":

	{"id": "h1", "a": "health"}
	{"id": "s1", "a": "stats"}

Failures come back as an error message with an HTTP-like code:

	{"id": "req_002", "e": "suggestion provider unreachable", "c": 503}

A malformed provider payload is not an error; it yields an empty list.
*/
package server

// Request is any message read from the client.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"a,omitempty"`
	Query  string `msgpack:"q"`
	Limit  int    `msgpack:"l,omitempty"`
}

// SuggestionItem is one rendered row.
type SuggestionItem struct {
	ID    string `msgpack:"i"`
	Text  string `msgpack:"t"`
	Label string `msgpack:"l"`
}

// SuggestResponse answers a suggestion request.
type SuggestResponse struct {
	ID          string           `msgpack:"id"`
	Suggestions []SuggestionItem `msgpack:"s"`
	Count       int              `msgpack:"c"`
	TimeTaken   int64            `msgpack:"t"`
}

// StatusResponse answers health checks and announces readiness.
type StatusResponse struct {
	ID     string         `msgpack:"id,omitempty"`
	Status string         `msgpack:"status"`
	Stats  map[string]int `msgpack:"stats,omitempty"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
