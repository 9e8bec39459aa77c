package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linode/cloudmanager/engine/thunk"
)

type recordedRequest struct {
	method string
	status int
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (r *fakeRecorder) RecordRequest(_ context.Context, method string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recordedRequest{method: method, status: status})
}

func newTestClient(t *testing.T, h http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/v4"
	cfg.Token = "secret"
	cfg.RetryWait = time.Millisecond
	cfg.RetryMaxWait = 5 * time.Millisecond
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("Should reject relative and non-http base URLs", func(t *testing.T) {
		_, err := New(Config{BaseURL: "/v4"})
		assert.Error(t, err)
		_, err = New(Config{BaseURL: "ftp://api.linode.com"})
		assert.Error(t, err)
	})
}

func TestClient_Get(t *testing.T) {
	t.Run("Should send the token, query and filter header", func(t *testing.T) {
		var got *http.Request
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			got = r.Clone(context.Background())
			_, _ = w.Write([]byte(`{"data":[],"page":2,"pages":2,"results":0}`))
		})
		body, err := c.Get(
			context.Background(),
			"/linode/instances",
			thunk.WithPage(2, 100),
			thunk.WithFilter(`{"region":"us-east"}`),
		)
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":[],"page":2,"pages":2,"results":0}`, string(body))
		require.NotNil(t, got)
		assert.Equal(t, "/v4/linode/instances", got.URL.Path)
		assert.Equal(t, "2", got.URL.Query().Get("page"))
		assert.Equal(t, "100", got.URL.Query().Get("page_size"))
		assert.Equal(t, `{"region":"us-east"}`, got.Header.Get(thunk.FilterHeader))
		assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))
		assert.NotEmpty(t, got.Header.Get(RequestIDHeader))
	})

	t.Run("Should map a 404 to a not-found API error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[{"reason":"Not found"}]}`))
		})
		_, err := c.Get(context.Background(), "/linode/instances/9")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.True(t, thunk.IsNotFound(err))
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, []string{"Not found"}, apiErr.Reasons)
		assert.Contains(t, apiErr.Error(), "GET /linode/instances/9: status 404: Not found")
	})

	t.Run("Should retry server errors", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"id":1}`))
		})
		body, err := c.Get(context.Background(), "/linode/instances/1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":1}`, string(body))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("Should not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"reason":"a"},{"reason":"b"}]}`))
		})
		_, err := c.Get(context.Background(), "/linode/instances")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode())
		assert.Equal(t, []string{"a", "b"}, apiErr.Reasons)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_Mutations(t *testing.T) {
	t.Run("Should send bodies and record every request", func(t *testing.T) {
		type call struct {
			method string
			body   map[string]any
		}
		var mu sync.Mutex
		var calls []call
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			calls = append(calls, call{method: r.Method, body: body})
			mu.Unlock()
			_, _ = w.Write([]byte(`{"id":7,"label":"web"}`))
		}))
		defer srv.Close()
		rec := &fakeRecorder{}
		c, err := New(Config{BaseURL: srv.URL}, WithRecorder(rec), WithHTTPClient(srv.Client()))
		require.NoError(t, err)
		ctx := context.Background()

		_, err = c.Post(ctx, "/linode/instances", map[string]any{"label": "web"})
		require.NoError(t, err)
		_, err = c.Put(ctx, "/linode/instances/7", map[string]any{"label": "db"})
		require.NoError(t, err)
		_, err = c.Delete(ctx, "/linode/instances/7")
		require.NoError(t, err)

		require.Len(t, calls, 3)
		assert.Equal(t, http.MethodPost, calls[0].method)
		assert.Equal(t, "web", calls[0].body["label"])
		assert.Equal(t, http.MethodPut, calls[1].method)
		assert.Equal(t, "db", calls[1].body["label"])
		assert.Equal(t, http.MethodDelete, calls[2].method)
		assert.Equal(t, []recordedRequest{
			{method: http.MethodPost, status: 200},
			{method: http.MethodPut, status: 200},
			{method: http.MethodDelete, status: 200},
		}, rec.seen)
	})
}

func TestGovernor(t *testing.T) {
	t.Run("Should be disabled without a limit", func(t *testing.T) {
		assert.Nil(t, NewGovernor(0, time.Second))
		var g *Governor
		assert.NoError(t, g.Wait(context.Background()))
	})
	t.Run("Should hold requests once the rate is reached", func(t *testing.T) {
		g := NewGovernor(1, time.Hour)
		require.NoError(t, g.Wait(context.Background()))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)
	})
}
