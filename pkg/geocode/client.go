package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Options configures a Client.
type Options struct {
	Endpoint      string
	APIKey        string
	Timeout       time.Duration
	MaxResults    int
	RatePerSecond float64
	Burst         int
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client queries the suggestion endpoint over HTTP.
type Client struct {
	endpoint   string
	apiKey     string
	maxResults int
	client     *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a Client, filling in defaults for zero values.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", opts.Endpoint, err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return &Client{
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		maxResults: opts.MaxResults,
		client:     httpClient,
		limiter:    limiter,
	}, nil
}

// Suggest issues one request for query. An empty query returns no
// suggestions without contacting the provider.
func (c *Client) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	params := url.Values{}
	params.Add("apiKey", c.apiKey)
	params.Add("query", query)
	if c.maxResults > 0 {
		params.Add("maxresults", strconv.Itoa(c.maxResults))
	}
	reqURL := fmt.Sprintf("%s?%s", c.endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	log.Debugf("Provider answered %d in [ %v ] for '%s'", resp.StatusCode, time.Since(start), query)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if payload.Suggestions == nil {
		return nil, fmt.Errorf("%w: no suggestions field", ErrMalformedPayload)
	}
	return *payload.Suggestions, nil
}
