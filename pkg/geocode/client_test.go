package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bastiangx/addrcomplete/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		Endpoint: srv.URL + "/6.2/suggest.json",
		APIKey:   "test-key",
		Timeout:  time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Options{APIKey: "  "})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSuggestSendsKeyAndQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/6.2/suggest.json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		assert.Equal(t, "123 Main", r.URL.Query().Get("query"))
		assert.Empty(t, r.URL.Query().Get("maxresults"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"suggestions":[{"label":"USA, IL, Springfield, 123 Main St","matchLevel":"houseNumber"},{"label":"USA, OH, 123 Main Ave"}]}`))
	})

	got, err := c.Suggest(context.Background(), "123 Main")
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{
		{Label: "USA, IL, Springfield, 123 Main St"},
		{Label: "USA, OH, 123 Main Ave"},
	}, got)
}

func TestSuggestMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("maxresults"))
		_, _ = w.Write([]byte(`{"suggestions":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Options{Endpoint: srv.URL, APIKey: "k", MaxResults: 7})
	require.NoError(t, err)
	got, err := c.Suggest(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggestEmptyQuerySkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	got, err := c.Suggest(context.Background(), "   ")
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), calls.Load())
}

func TestSuggestErrors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "non-success status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
			},
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
				assert.Equal(t, "invalid credentials", statusErr.Body)
			},
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>oops`))
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedPayload)
			},
		},
		{
			name: "missing suggestions field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"items":[]}`))
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedPayload)
			},
		},
		{
			name: "suggestions of the wrong type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"suggestions":"nope"}`))
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedPayload)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			got, err := c.Suggest(context.Background(), "main")
			require.Error(t, err)
			assert.Nil(t, got)
			tc.check(t, err)
		})
	}
}

func TestSuggestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	c, err := NewClient(Options{Endpoint: endpoint, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.Suggest(context.Background(), "main")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSuggestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Options{Endpoint: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Suggest(context.Background(), "main")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSuggestRateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"suggestions":[]}`))
	})
	c.limiter = rate.NewLimiter(rate.Limit(0.001), 1)

	_, err := c.Suggest(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Suggest(ctx, "second")
	assert.ErrorIs(t, err, ErrTransport)
}

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (s *countingSource) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []Suggestion{{Label: "USA, " + query}}, nil
}

func TestCachedSource(t *testing.T) {
	inner := &countingSource{}
	src := NewCachedSource(inner, cache.New(8))

	first, err := src.Suggest(context.Background(), "Main")
	require.NoError(t, err)
	second, err := src.Suggest(context.Background(), "main ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, 1, src.Store().Len())
}

func TestCachedSourceDoesNotCacheFailures(t *testing.T) {
	inner := &countingSource{err: ErrTransport}
	src := NewCachedSource(inner, cache.New(8))

	_, err := src.Suggest(context.Background(), "main")
	assert.ErrorIs(t, err, ErrTransport)
	_, err = src.Suggest(context.Background(), "main")
	assert.ErrorIs(t, err, ErrTransport)

	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Equal(t, 0, src.Store().Len())
}

type blockingSource struct {
	release chan struct{}
	calls   atomic.Int32
}

func (s *blockingSource) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	s.calls.Add(1)
	<-s.release
	return []Suggestion{{Label: "USA, " + query}}, nil
}

func TestCachedSourceSharesInFlightLookups(t *testing.T) {
	inner := &blockingSource{release: make(chan struct{})}
	src := NewCachedSource(inner, cache.New(8))

	results := make(chan []Suggestion, 2)
	for _, q := range []string{"Main St", "main  st"} {
		q := q
		go func() {
			got, err := src.Suggest(context.Background(), q)
			assert.NoError(t, err)
			results <- got
		}()
	}

	require.Eventually(t, func() bool { return inner.calls.Load() == 1 }, time.Second, time.Millisecond)
	// let the second caller join the flight
	time.Sleep(20 * time.Millisecond)
	close(inner.release)

	first, second := <-results, <-results
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
	assert.Equal(t, int32(1), inner.calls.Load())
}
