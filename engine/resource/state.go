package resource

import (
	"maps"
	"slices"
	"time"

	"github.com/linode/cloudmanager/engine/core"
)

// Unknown is the pagination value of a collection that was never fetched.
const Unknown = -1

// State is the normalized slice of the store owned by one schema node.
// Plural schemas use the collection fields; singletons use Object.
type State struct {
	TotalPages   int               `json:"totalPages"`
	TotalResults int               `json:"totalResults"`
	IDs          []core.ID         `json:"ids"`
	Items        map[core.ID]*Item `json:"items,omitempty"`
	Object       core.Object       `json:"object,omitempty"`
	Subresources map[string]*State `json:"subresources,omitempty"`
	Invalid      bool              `json:"invalid,omitempty"`
	PagesFetched []int             `json:"pagesFetched,omitempty"`
}

// Item is one stored object plus its own subresource containers.
type Item struct {
	Data         core.Object       `json:"data"`
	UpdatedAt    time.Time         `json:"__updatedAt"`
	Subresources map[string]*State `json:"subresources,omitempty"`
}

// Sub returns the subresource container stored under key.
func (i *Item) Sub(key string) *State {
	if i == nil {
		return nil
	}
	return i.Subresources[key]
}

// Get returns an item by id.
func (s *State) Get(id core.ID) (*Item, bool) {
	if s == nil {
		return nil, false
	}
	it, ok := s.Items[id]
	return it, ok
}

// Loaded reports whether a page of the collection has been committed.
func (s *State) Loaded() bool {
	return s != nil && s.TotalPages != Unknown
}

// List returns item data in ids order.
func (s *State) List() []core.Object {
	if s == nil {
		return nil
	}
	out := make([]core.Object, 0, len(s.IDs))
	for _, id := range s.IDs {
		if it, ok := s.Items[id]; ok {
			out = append(out, it.Data)
		}
	}
	return out
}

// CreateDefaultState returns an empty, never-fetched collection.
func CreateDefaultState() *State {
	return &State{
		TotalPages:   Unknown,
		TotalResults: Unknown,
		IDs:          []core.ID{},
		Items:        map[core.ID]*Item{},
	}
}

// DefaultStateFull seeds the state of a schema: a collection when the schema
// supports MANY, otherwise an empty singleton with its subresource containers.
func DefaultStateFull(s *Schema) *State {
	if s.Plural() {
		return CreateDefaultState()
	}
	return &State{Object: core.Object{}, Subresources: defaultContainers(s.Subresources)}
}

// DefaultStateOne wraps data into a new item whose subresource containers exist.
func DefaultStateOne(subs map[string]*Schema, data core.Object, at time.Time) *Item {
	if data == nil {
		data = core.Object{}
	}
	return &Item{Data: data, UpdatedAt: at, Subresources: defaultContainers(subs)}
}

func defaultContainers(subs map[string]*Schema) map[string]*State {
	out := make(map[string]*State, len(subs))
	for k, sub := range subs {
		if sub == nil {
			continue
		}
		out[k] = DefaultStateFull(sub)
	}
	return out
}

// DefaultRoots seeds one state per root of t.
func DefaultRoots(t *Tree) map[string]*State {
	out := make(map[string]*State, len(t.roots))
	for _, id := range t.roots {
		s := t.Schema(id)
		out[s.Name] = DefaultStateFull(s)
	}
	return out
}

// clone copies the top level of s so a reducer can replace fields.
func (s *State) clone() *State {
	next := *s
	next.Items = maps.Clone(s.Items)
	next.Subresources = maps.Clone(s.Subresources)
	next.IDs = slices.Clone(s.IDs)
	next.PagesFetched = slices.Clone(s.PagesFetched)
	return &next
}

// sortedIDs derives the id list from the item map.
func sortedIDs(sc *Schema, items map[core.ID]*Item) []core.ID {
	ids := make([]core.ID, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, sc.Compare)
	return ids
}
