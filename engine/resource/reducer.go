package resource

import (
	"slices"
	"time"

	"github.com/linode/cloudmanager/engine/core"
)

// Reduce folds a into the state owned by node n and returns the next state.
// It never mutates s; when a is not addressed to n or one of its descendants,
// s itself is returned.
func Reduce(t *Tree, n NodeID, s *State, a Action) *State {
	if s == nil {
		s = DefaultStateFull(t.Schema(n))
	}
	path := t.paths[n]
	if len(a.Address) < len(path) || !slices.Equal(a.Address[:len(path)], path) {
		return s
	}
	if len(a.Address) > len(path) {
		return reduceSubresource(t, n, s, a)
	}
	switch a.Op {
	case OpOne:
		return reduceOne(t, n, s, a)
	case OpMany:
		return reduceMany(t, n, s, a)
	case OpDelete:
		return reduceDelete(t, n, s, a)
	case OpInvalidate:
		return reduceInvalidate(t, n, s)
	case OpMarkInvalid:
		next := s.clone()
		next.Invalid = true
		return next
	}
	return s
}

// Reducer binds a node so callers can fold actions without carrying the tree.
type Reducer struct {
	tree *Tree
	node NodeID
}

func NewReducer(t *Tree, n NodeID) *Reducer {
	return &Reducer{tree: t, node: n}
}

func (r *Reducer) Reduce(s *State, a Action) *State {
	return Reduce(r.tree, r.node, s, a)
}

func reduceOne(t *Tree, n NodeID, s *State, a Action) *State {
	sc := t.Schema(n)
	if !sc.Plural() {
		next := s.clone()
		next.Object = core.MergeObjects(s.Object, a.Resource)
		return next
	}
	id, ok := targetID(sc, a)
	if !ok {
		return s
	}
	return upsert(sc, s, id, a.At, func(existing *Item) *Item {
		return mergeItem(sc, existing, a.Resource, a.At)
	})
}

// mergeItem shallow-merges obj over existing, keeping its subresources.
func mergeItem(sc *Schema, existing *Item, obj core.Object, at time.Time) *Item {
	if existing == nil {
		return DefaultStateOne(sc.Subresources, core.MergeObjects(nil, obj), at)
	}
	return &Item{
		Data:         core.MergeObjects(existing.Data, obj),
		UpdatedAt:    at,
		Subresources: existing.Subresources,
	}
}

// upsert replaces the item at id with build(existing) and re-derives the id list.
func upsert(sc *Schema, s *State, id core.ID, at time.Time, build func(existing *Item) *Item) *State {
	next := s.clone()
	if next.Items == nil {
		next.Items = map[core.ID]*Item{}
	}
	item := build(s.Items[id])
	item.UpdatedAt = at
	next.Items[id] = item
	next.IDs = sortedIDs(sc, next.Items)
	return next
}

// targetID is the last non-empty id of the action, or the primary key of the
// resource when the caller did not know the id yet (creates).
func targetID(sc *Schema, a Action) (core.ID, bool) {
	for i := len(a.IDs) - 1; i >= 0; i-- {
		if !a.IDs[i].IsZero() {
			return a.IDs[i], true
		}
	}
	return core.IDFromValue(sc.Kind(), a.Resource[sc.Key()])
}

func reduceMany(t *Tree, n NodeID, s *State, a Action) *State {
	sc := t.Schema(n)
	if a.Page == nil {
		return s
	}
	// one copy and one sort per page
	next := s.clone()
	if next.Items == nil {
		next.Items = map[core.ID]*Item{}
	}
	for _, obj := range a.Page.Data {
		id, ok := core.IDFromValue(sc.Kind(), obj[sc.Key()])
		if !ok {
			continue
		}
		next.Items[id] = mergeItem(sc, next.Items[id], obj, a.At)
	}
	next.IDs = sortedIDs(sc, next.Items)
	next.TotalPages = a.Page.Pages
	next.TotalResults = a.Page.Results
	if a.Page.Page > 0 && !slices.Contains(next.PagesFetched, a.Page.Page) {
		next.PagesFetched = append(next.PagesFetched, a.Page.Page)
		slices.Sort(next.PagesFetched)
	}
	return next
}

func reduceDelete(t *Tree, n NodeID, s *State, a Action) *State {
	if len(a.IDs) == 0 {
		return s
	}
	id := a.IDs[len(a.IDs)-1]
	if _, ok := s.Items[id]; !ok {
		return s
	}
	next := s.clone()
	delete(next.Items, id)
	next.IDs = sortedIDs(t.Schema(n), next.Items)
	return next
}

func reduceInvalidate(t *Tree, n NodeID, s *State) *State {
	sc := t.Schema(n)
	next := DefaultStateFull(sc)
	if !sc.Plural() {
		next.Subresources = s.Subresources
	}
	return next
}

// reduceSubresource routes an action addressed below n into the owning item
// (or the singleton container) and merges the child result back.
func reduceSubresource(t *Tree, n NodeID, s *State, a Action) *State {
	sc := t.Schema(n)
	name := a.Address[len(t.paths[n])]
	child, ok := t.Child(n, name)
	if !ok {
		return s
	}
	key := t.Node(child).Key
	if !sc.Plural() {
		sub := s.Subresources[key]
		updated := Reduce(t, child, sub, a)
		if updated == sub {
			return s
		}
		next := s.clone()
		if next.Subresources == nil {
			next.Subresources = map[string]*State{}
		}
		next.Subresources[key] = updated
		return next
	}
	if len(a.IDs) == 0 {
		return s
	}
	parentID := a.IDs[0]
	subAction := a
	subAction.IDs = a.IDs[1:]
	existing := s.Items[parentID]
	sub := existing.Sub(key)
	updated := Reduce(t, child, sub, subAction)
	if existing != nil && updated == sub {
		return s
	}
	return upsert(sc, s, parentID, a.At, func(existing *Item) *Item {
		if existing == nil {
			item := DefaultStateOne(sc.Subresources, nil, a.At)
			item.Subresources[key] = updated
			return item
		}
		subs := make(map[string]*State, len(existing.Subresources)+1)
		for k, v := range existing.Subresources {
			subs[k] = v
		}
		subs[key] = updated
		return &Item{Data: existing.Data, UpdatedAt: a.At, Subresources: subs}
	})
}
