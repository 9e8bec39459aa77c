package thunk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dario.cat/mergo"
	"golang.org/x/sync/singleflight"

	"github.com/linode/cloudmanager/engine/core"
	"github.com/linode/cloudmanager/engine/resource"
)

// Store is the part of the store handle the thunks need.
type Store interface {
	Dispatch(ctx context.Context, a resource.Action) (resource.Action, error)
	Resolve(ctx context.Context, n resource.NodeID, ids ...core.ID) (*resource.State, *resource.Item, error)
}

// Recorder observes fetch-all traversals.
type Recorder interface {
	RecordRestart(ctx context.Context, resource string)
	RecordFetchAll(ctx context.Context, resource string, elapsed time.Duration, restarts int)
}

// Options tune every thunk built by a Generator.
type Options struct {
	// PageSize is sent as page_size; zero keeps the API default.
	PageSize int
	// Concurrency bounds the pages fetched in parallel by All.
	Concurrency int
	// MaxRestarts bounds drift restarts in All; zero restarts forever.
	MaxRestarts int
	// PollInterval is the default interval of Until.
	PollInterval time.Duration
	Recorder     Recorder
	Now          func() time.Time
}

// DefaultOptions returns the options used for unset fields.
func DefaultOptions() Options {
	return Options{
		Concurrency:  4,
		PollInterval: 3 * time.Second,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

type Option func(*Options)

func WithPageSize(n int) Option {
	return func(o *Options) { o.PageSize = n }
}

func WithConcurrency(n int) Option {
	return func(o *Options) { o.Concurrency = n }
}

func WithMaxRestarts(n int) Option {
	return func(o *Options) { o.MaxRestarts = n }
}

func WithPollInterval(d time.Duration) Option {
	return func(o *Options) { o.PollInterval = d }
}

func WithRecorder(r Recorder) Option {
	return func(o *Options) { o.Recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// Generator builds thunk bundles bound to one store and one HTTP client.
type Generator struct {
	tree   *resource.Tree
	store  Store
	client HTTPClient
	opts   Options
	group  singleflight.Group
	// polling holds the items an Until call currently owns.
	polling sync.Map
}

// New builds a generator. Unset options fall back to DefaultOptions.
func New(tree *resource.Tree, store Store, client HTTPClient, opts ...Option) (*Generator, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if err := mergo.Merge(&o, DefaultOptions()); err != nil {
		return nil, fmt.Errorf("failed to apply default options: %w", err)
	}
	return &Generator{tree: tree, store: store, client: client, opts: o}, nil
}

// Thunks is the bundle of one schema node. Sub holds one bundle per
// subresource, keyed by schema name.
type Thunks struct {
	gen     *Generator
	node    resource.NodeID
	schema  *resource.Schema
	actions *resource.Actions
	name    string
	Sub     map[string]*Thunks
}

// Bundle builds the thunks of n and, recursively, of its subresources.
func (g *Generator) Bundle(n resource.NodeID) *Thunks {
	return g.bundle(n, resource.GenActions(g.tree, n))
}

// Lookup resolves a dotted path and builds its bundle.
func (g *Generator) Lookup(path string) (*Thunks, error) {
	n, err := g.tree.Lookup(path)
	if err != nil {
		return nil, err
	}
	return g.Bundle(n), nil
}

func (g *Generator) bundle(n resource.NodeID, actions *resource.Actions) *Thunks {
	t := &Thunks{
		gen:     g,
		node:    n,
		schema:  g.tree.Schema(n),
		actions: actions,
		name:    g.tree.FullyQualified(n),
		Sub:     make(map[string]*Thunks, len(actions.Sub)),
	}
	for name, sub := range actions.Sub {
		t.Sub[name] = g.bundle(sub.Node, sub)
	}
	return t
}

// Name is the fully qualified resource name.
func (t *Thunks) Name() string {
	return t.name
}

func (t *Thunks) Node() resource.NodeID {
	return t.node
}

func (t *Thunks) require(c resource.Capability) error {
	if !t.schema.Supports.Has(c) {
		return fmt.Errorf("%w: %s does not support %s", ErrUnsupported, t.name, c)
	}
	return nil
}

func (t *Thunks) normalize(ids []core.ID) []core.ID {
	return resource.NormalizeIDs(t.gen.tree, t.node, ids)
}

func (t *Thunks) dispatch(ctx context.Context, a resource.Action) error {
	if _, err := t.gen.store.Dispatch(ctx, a); err != nil {
		return fmt.Errorf("failed to dispatch %s: %w", a.Type(), err)
	}
	return nil
}
