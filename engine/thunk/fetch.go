package thunk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/linode/cloudmanager/engine/core"
	"github.com/linode/cloudmanager/engine/resource"
	"github.com/linode/cloudmanager/pkg/logger"
)

// One fetches a single object, commits it and returns it. Identical
// concurrent calls share one request.
func (t *Thunks) One(ctx context.Context, ids []core.ID, opts ...RequestOption) (core.Object, error) {
	if err := t.require(resource.CapOne); err != nil {
		return nil, err
	}
	ids = t.normalize(ids)
	obj, err := t.fetchOne(ctx, ids, opts...)
	if err != nil {
		return nil, err
	}
	if err := t.dispatch(ctx, t.actions.One(obj, ids...)); err != nil {
		return nil, err
	}
	return obj, nil
}

func (t *Thunks) fetchOne(ctx context.Context, ids []core.ID, opts ...RequestOption) (core.Object, error) {
	path := t.schema.Path(ids...)
	req := NewRequest(opts...)
	key := path + "?" + req.Query.Encode() + "#" + req.Header.Get(FilterHeader)
	// the shared request outlives any single caller; each caller waits on its own ctx
	shared := context.WithoutCancel(ctx)
	ch := t.gen.group.DoChan(key, func() (any, error) {
		body, err := t.gen.client.Get(shared, path, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
		}
		return core.DecodeObject(body)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	obj, ok := res.Val.(core.Object)
	if !ok {
		return nil, fmt.Errorf("unexpected response for %s", path)
	}
	// the shared result may be handed to several callers
	return core.MergeObjects(nil, obj), nil
}

// PageRequest selects one page of a collection.
type PageRequest struct {
	// Page is 0-indexed; the request uses Page+1.
	Page int
	IDs  []core.ID
	// Filter projects every fetched object before it is committed.
	Filter resource.Filter
	// NoStore skips committing the page.
	NoStore bool
	// SkipFetched returns a nil page without a request when the page is
	// already recorded in PagesFetched of a valid collection.
	SkipFetched bool
	// FetchBeganAt marks the start of the surrounding fetch. Stored items
	// updated after it are refetched individually. Zero means now.
	FetchBeganAt time.Time
	Header       http.Header
}

// Page fetches one page, reconciles it against newer stored items and,
// unless NoStore is set, commits it with a MANY action.
func (t *Thunks) Page(ctx context.Context, req PageRequest) (*resource.Page, error) {
	if err := t.require(resource.CapMany); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	ids := t.normalize(req.IDs)
	if req.SkipFetched && t.fetched(ctx, ids, req.Page+1) {
		log.Debug("Page already fetched", "resource", t.name, "page", req.Page+1)
		return nil, nil
	}
	began := req.FetchBeganAt
	if began.IsZero() {
		began = t.gen.opts.Now()
	}
	path := t.schema.Path(ids...)
	body, err := t.gen.client.Get(ctx, path, WithPage(req.Page+1, t.gen.opts.PageSize), WithHeader(req.Header))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s page %d: %w", path, req.Page+1, err)
	}
	var raw resource.Page
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s page %d: %w", path, req.Page+1, err)
	}
	page := resource.FilterPage(&raw, req.Filter)
	if err := t.reconcile(ctx, ids, page, req, began); err != nil {
		return nil, err
	}
	if !req.NoStore {
		if err := t.dispatch(ctx, t.actions.Many(page, ids...)); err != nil {
			return nil, err
		}
	}
	log.Debug("Fetched page", "resource", t.name, "page", page.Page, "pages", page.Pages, "count", len(page.Data))
	return page, nil
}

func (t *Thunks) fetched(ctx context.Context, ids []core.ID, page int) bool {
	st, _, err := t.gen.store.Resolve(ctx, t.node, ids...)
	if err != nil || st.Invalid {
		return false
	}
	return slices.Contains(st.PagesFetched, page)
}

// reconcile replaces page objects whose stored copy is newer than began with
// a fresh single fetch. A 404 there means the item vanished meanwhile and the
// page copy is kept.
func (t *Thunks) reconcile(ctx context.Context, ids []core.ID, page *resource.Page, req PageRequest, began time.Time) error {
	st, _, err := t.gen.store.Resolve(ctx, t.node, ids...)
	if err != nil || len(st.Items) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)
	for i, obj := range page.Data {
		id, ok := core.IDFromValue(t.schema.Kind(), obj[t.schema.Key()])
		if !ok {
			continue
		}
		item, ok := st.Items[id]
		if !ok || !item.UpdatedAt.After(began) {
			continue
		}
		fresh, err := t.fetchOne(ctx, append(slices.Clone(ids), id), WithHeader(req.Header))
		if IsNotFound(err) {
			log.Debug("Reconciliation target disappeared", "resource", t.name, "id", id)
			continue
		}
		if err != nil {
			return err
		}
		if req.Filter != nil {
			fresh = req.Filter(fresh)
		}
		if len(fresh) > 0 {
			page.Data[i] = fresh
		}
	}
	return nil
}

// AllRequest selects a whole collection.
type AllRequest struct {
	IDs    []core.ID
	Filter resource.Filter
	Header http.Header
	// MaxRestarts overrides the generator bound when positive.
	MaxRestarts int
	// Concurrency overrides the generator bound when positive.
	Concurrency int
}

// All fetches every page of the collection. When the collection size changes
// mid-traversal the whole traversal starts over. A collection flagged invalid
// is committed only once complete: INVALIDATE first, then one MANY per page in
// page order.
func (t *Thunks) All(ctx context.Context, req AllRequest) ([]core.Object, error) {
	if err := t.require(resource.CapMany); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	maxRestarts := t.gen.opts.MaxRestarts
	if req.MaxRestarts > 0 {
		maxRestarts = req.MaxRestarts
	}
	start := t.gen.opts.Now()
	for restarts := 0; ; restarts++ {
		objs, err := t.fetchAll(ctx, req)
		if err == nil {
			if r := t.gen.opts.Recorder; r != nil {
				r.RecordFetchAll(ctx, t.name, t.gen.opts.Now().Sub(start), restarts)
			}
			return objs, nil
		}
		if !errors.Is(err, errDrift) {
			return nil, err
		}
		if maxRestarts > 0 && restarts >= maxRestarts {
			return nil, fmt.Errorf("%w: %s after %d restarts", ErrPaginationDrift, t.name, restarts)
		}
		if r := t.gen.opts.Recorder; r != nil {
			r.RecordRestart(ctx, t.name)
		}
		log.Warn("Collection changed during fetch, restarting", "resource", t.name, "restarts", restarts+1, "reason", err)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (t *Thunks) fetchAll(ctx context.Context, req AllRequest) ([]core.Object, error) {
	ids := t.normalize(req.IDs)
	invalid := false
	if st, _, err := t.gen.store.Resolve(ctx, t.node, ids...); err == nil {
		invalid = st.Invalid
	}
	began := t.gen.opts.Now()
	pageReq := func(n int) PageRequest {
		return PageRequest{Page: n, IDs: ids, Filter: req.Filter, NoStore: invalid, FetchBeganAt: began, Header: req.Header}
	}
	first, err := t.Page(ctx, pageReq(0))
	if err != nil {
		return nil, err
	}
	pages := make([]*resource.Page, max(first.Pages, 1))
	pages[0] = first
	limit := t.gen.opts.Concurrency
	if req.Concurrency > 0 {
		limit = req.Concurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for n := 1; n < len(pages); n++ {
		g.Go(func() error {
			p, err := t.Page(gctx, pageReq(n))
			if err != nil {
				return err
			}
			pages[n] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := checkDrift(pages); err != nil {
		return nil, err
	}
	if invalid {
		if err := t.dispatch(ctx, t.actions.Invalidate(ids...)); err != nil {
			return nil, err
		}
		for _, p := range pages {
			if err := t.dispatch(ctx, t.actions.Many(p, ids...)); err != nil {
				return nil, err
			}
		}
	}
	return t.dedupe(pages), nil
}

// dedupe flattens pages keeping one object per key: the last copy seen, at
// the position the key first appeared. Objects without a key are kept as is.
func (t *Thunks) dedupe(pages []*resource.Page) []core.Object {
	var out []core.Object
	pos := make(map[core.ID]int)
	for _, p := range pages {
		for _, obj := range p.Data {
			id, ok := core.IDFromValue(t.schema.Kind(), obj[t.schema.Key()])
			if !ok {
				out = append(out, obj)
				continue
			}
			if i, seen := pos[id]; seen {
				out[i] = obj
				continue
			}
			pos[id] = len(out)
			out = append(out, obj)
		}
	}
	return out
}

// checkDrift compares the objects received, filtered ones included, with the
// result count reported by the last page.
func checkDrift(pages []*resource.Page) error {
	got := 0
	counts := make([]string, len(pages))
	for i, p := range pages {
		got += len(p.Data) + p.Filtered
		counts[i] = fmt.Sprint(len(p.Data) + p.Filtered)
	}
	last := pages[len(pages)-1]
	want := last.Results + last.Filtered
	if got != want {
		return fmt.Errorf("%w: received %d objects (%s) but last page reports %d", errDrift, got, strings.Join(counts, "+"), want)
	}
	return nil
}
