package thunk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linode/cloudmanager/engine/core"
	"github.com/linode/cloudmanager/engine/resource"
	"github.com/linode/cloudmanager/engine/store"
)

var t0 = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

type statusError struct{ status int }

func (e *statusError) Error() string   { return fmt.Sprintf("status %d", e.status) }
func (e *statusError) StatusCode() int { return e.status }

// fakeClient answers GETs through get and records every call in order.
type fakeClient struct {
	mu    sync.Mutex
	get   func(path string, req *Request) ([]byte, error)
	reply func(method, path string, body any) ([]byte, error)
	log   []string
}

func (c *fakeClient) record(entry string) {
	c.mu.Lock()
	c.log = append(c.log, entry)
	c.mu.Unlock()
}

func (c *fakeClient) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

func (c *fakeClient) Get(_ context.Context, path string, opts ...RequestOption) ([]byte, error) {
	req := NewRequest(opts...)
	entry := "GET " + path
	if p := req.Query.Get("page"); p != "" {
		entry += "?page=" + p
	}
	c.record(entry)
	return c.get(path, req)
}

func (c *fakeClient) Put(_ context.Context, path string, body any) ([]byte, error) {
	c.record("PUT " + path)
	return c.reply(http.MethodPut, path, body)
}

func (c *fakeClient) Post(_ context.Context, path string, body any) ([]byte, error) {
	c.record("POST " + path)
	return c.reply(http.MethodPost, path, body)
}

func (c *fakeClient) Delete(_ context.Context, path string) ([]byte, error) {
	c.record("DELETE " + path)
	return c.reply(http.MethodDelete, path, nil)
}

// recordingStore logs dispatched action types into the client log so tests
// can assert the interleaving of requests and commits.
type recordingStore struct {
	*store.Store
	client *fakeClient
}

func (s *recordingStore) Dispatch(ctx context.Context, a resource.Action) (resource.Action, error) {
	s.client.record(a.Type())
	return s.Store.Dispatch(ctx, a)
}

func pageBody(t *testing.T, page, pages, results int, objs ...core.Object) []byte {
	t.Helper()
	if objs == nil {
		objs = []core.Object{}
	}
	b, err := json.Marshal(map[string]any{"data": objs, "page": page, "pages": pages, "results": results})
	require.NoError(t, err)
	return b
}

func objBody(t *testing.T, obj core.Object) []byte {
	t.Helper()
	b, err := json.Marshal(obj)
	require.NoError(t, err)
	return b
}

func testTree(t *testing.T) *resource.Tree {
	t.Helper()
	tree, err := resource.NewTree(
		&resource.Schema{
			Name: "linodes",
			Supports: resource.Capabilities{
				resource.CapOne, resource.CapMany, resource.CapCreate, resource.CapUpdate, resource.CapDelete,
			},
			EndpointTemplate: "/linode/instances",
			Subresources: map[string]*resource.Schema{
				"_configs": {
					Name:             "configs",
					Supports:         resource.Capabilities{resource.CapOne, resource.CapMany, resource.CapCreate},
					EndpointTemplate: "/linode/instances/{0}/configs",
				},
			},
		},
		&resource.Schema{
			Name:             "regions",
			Supports:         resource.Capabilities{resource.CapMany},
			IDKind:           core.IDKindString,
			EndpointTemplate: "/regions",
		},
	)
	require.NoError(t, err)
	return tree
}

type harness struct {
	tree   *resource.Tree
	store  *recordingStore
	client *fakeClient
	gen    *Generator
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	tree := testTree(t)
	client := &fakeClient{
		get: func(path string, _ *Request) ([]byte, error) {
			return nil, &statusError{status: http.StatusNotFound}
		},
		reply: func(_, _ string, body any) ([]byte, error) {
			if body == nil {
				return []byte("{}"), nil
			}
			return json.Marshal(body)
		},
	}
	st := &recordingStore{Store: store.New(tree, store.WithClock(func() time.Time { return t0 })), client: client}
	gen, err := New(tree, st, client, append([]Option{WithClock(func() time.Time { return t0 })}, opts...)...)
	require.NoError(t, err)
	return &harness{tree: tree, store: st, client: client, gen: gen}
}

func (h *harness) bundle(t *testing.T, path string) *Thunks {
	t.Helper()
	b, err := h.gen.Lookup(path)
	require.NoError(t, err)
	return b
}
