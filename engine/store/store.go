package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/linode/cloudmanager/engine/core"
	"github.com/linode/cloudmanager/engine/resource"
	"github.com/linode/cloudmanager/pkg/logger"
)

// ErrClosed is returned by every operation on a closed store.
var ErrClosed = errors.New("store is closed")

const defaultWatchBuffer = 64

// Recorder receives one call per dispatched action.
type Recorder interface {
	RecordAction(ctx context.Context, resource, op string)
}

// Event describes one dispatched action for watchers.
// ETag fingerprints the root state after the action was applied.
type Event struct {
	Type    string          `json:"type"`
	Action  resource.Action `json:"-"`
	Changed bool            `json:"changed"`
	ETag    string          `json:"etag"`
	At      time.Time       `json:"at"`
}

// Store is the explicit handle over the state tree. Dispatches are serialized;
// states are never mutated in place, so values handed out by Resolve stay
// valid snapshots and must be treated as read-only.
type Store struct {
	tree        *resource.Tree
	mu          sync.RWMutex
	roots       map[string]*resource.State
	reducers    map[string]*resource.Reducer
	watchers    []*watcher
	closed      bool
	done        chan struct{}
	now         func() time.Time
	recorder    Recorder
	watchBuffer int
}

type watcher struct {
	ch     chan Event
	closed bool
}

type Option func(*Store)

// WithClock replaces the clock used to stamp actions.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

func WithWatchBuffer(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.watchBuffer = n
		}
	}
}

// New seeds one default state per root schema of tree.
func New(tree *resource.Tree, opts ...Option) *Store {
	s := &Store{
		tree:        tree,
		roots:       resource.DefaultRoots(tree),
		reducers:    make(map[string]*resource.Reducer, len(tree.Roots())),
		now:         func() time.Time { return time.Now().UTC() },
		watchBuffer: defaultWatchBuffer,
		done:        make(chan struct{}),
	}
	for _, id := range tree.Roots() {
		s.reducers[tree.Schema(id).Name] = resource.NewReducer(tree, id)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tree returns the schema tree the store was built from.
func (s *Store) Tree() *resource.Tree {
	return s.tree
}

// Dispatch applies a to the root it addresses and notifies watchers.
// Actions for unknown roots leave the state untouched.
func (s *Store) Dispatch(ctx context.Context, a resource.Action) (resource.Action, error) {
	if err := ctx.Err(); err != nil {
		return a, fmt.Errorf("context canceled: %w", err)
	}
	log := logger.FromContext(ctx)
	if a.At.IsZero() {
		a.At = s.now()
	}
	root := a.Root()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return a, ErrClosed
	}
	r, ok := s.reducers[root]
	if !ok {
		s.mu.Unlock()
		log.Debug("Ignoring action for unknown root", "type", a.Type())
		return a, nil
	}
	prev := s.roots[root]
	next := r.Reduce(prev, a)
	s.roots[root] = next
	if len(s.watchers) > 0 {
		evt := Event{Type: a.Type(), Action: a, Changed: next != prev, ETag: core.ETagFromAny(next), At: a.At}
		for _, w := range s.watchers {
			if w.closed {
				continue
			}
			select {
			case w.ch <- evt:
			default:
				log.Warn("watch channel full; dropping event", "type", evt.Type)
			}
		}
	}
	s.mu.Unlock()
	if s.recorder != nil {
		s.recorder.RecordAction(ctx, root, string(a.Op))
	}
	log.Debug("Dispatched action", "type", a.Type(), "ids", a.IDs, "changed", next != prev)
	return a, nil
}

// Resolve returns the collection (and item, when an id for n is given)
// addressed by ids. The values are shared with the store.
func (s *Store) Resolve(ctx context.Context, n resource.NodeID, ids ...core.ID) (*resource.State, *resource.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context canceled: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, nil, ErrClosed
	}
	st, item, ok := resource.StateOf(s.tree, n, s.roots, ids)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s %v", resource.ErrNotLoaded, s.tree.FullyQualified(n), ids)
	}
	return st, item, nil
}

// Root returns a deep copy of one root state.
func (s *Store) Root(ctx context.Context, name string) (*resource.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled: %w", err)
	}
	s.mu.RLock()
	st, ok := s.roots[name]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", resource.ErrUnknownResource, name)
	}
	cp, err := core.DeepCopy(st)
	if err != nil {
		return nil, fmt.Errorf("deep copy failed: %w", err)
	}
	return cp, nil
}

// State returns a deep copy of every root state.
func (s *Store) State(ctx context.Context) (map[string]*resource.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled: %w", err)
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}
	roots := make(map[string]*resource.State, len(s.roots))
	for k, v := range s.roots {
		roots[k] = v
	}
	s.mu.RUnlock()
	cp, err := core.DeepCopy(roots)
	if err != nil {
		return nil, fmt.Errorf("deep copy failed: %w", err)
	}
	return cp, nil
}

// Watch streams events until ctx is done or the store is closed.
func (s *Store) Watch(ctx context.Context) (<-chan Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled: %w", err)
	}
	w := &watcher{ch: make(chan Event, s.watchBuffer)}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.watchers = append(s.watchers, w)
	s.mu.Unlock()
	go func() {
		select {
		case <-ctx.Done():
			s.removeWatcher(w)
		case <-s.done:
		}
	}()
	return w.ch, nil
}

// Close closes every watcher channel. Later calls are no-ops.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	for _, w := range s.watchers {
		if !w.closed {
			close(w.ch)
			w.closed = true
		}
	}
	s.watchers = nil
	return nil
}

func (s *Store) removeWatcher(target *watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.watchers {
		if w == target {
			s.watchers = append(s.watchers[:i:i], s.watchers[i+1:]...)
			break
		}
	}
	if !target.closed {
		close(target.ch)
		target.closed = true
	}
}
