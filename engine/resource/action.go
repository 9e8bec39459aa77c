package resource

import (
	"slices"
	"strings"
	"time"

	"github.com/linode/cloudmanager/engine/core"
)

// Op is the operation an action asks the reducer to perform.
type Op string

const (
	OpOne         Op = "ONE"
	OpMany        Op = "MANY"
	OpDelete      Op = "DELETE"
	OpInvalidate  Op = "INVALIDATE"
	OpMarkInvalid Op = "MARK_INVALID"
)

// TypePrefix starts every rendered action type.
const TypePrefix = "GEN@"

// Page is one page of a paginated collection response.
// Filtered counts objects dropped by a client-side filter and is never sent by the API.
type Page struct {
	Data     []core.Object `json:"data"`
	Page     int           `json:"page"`
	Pages    int           `json:"pages"`
	Results  int           `json:"results"`
	Filtered int           `json:"-"`
}

// Action is a structured reducer input. Address holds the schema names from the
// root to the target, IDs holds one id per addressed level (ancestors first).
type Action struct {
	Address  []string
	Op       Op
	Resource core.Object
	Page     *Page
	IDs      []core.ID
	At       time.Time
}

// Type renders the action as "GEN@<path>/<OP>".
func (a Action) Type() string {
	return TypePrefix + strings.Join(a.Address, ".") + "/" + string(a.Op)
}

// Root is the name of the top-level schema the action is addressed to.
func (a Action) Root() string {
	if len(a.Address) == 0 {
		return ""
	}
	return a.Address[0]
}

// NormalizeIDs coerces ids level by level using the id kind of each schema on
// the path to n. Ids past the node fall back to ParseIntIfActualInt.
func NormalizeIDs(t *Tree, n NodeID, ids []core.ID) []core.ID {
	lineage := t.Lineage(n)
	out := make([]core.ID, len(ids))
	level := 0
	for i, id := range ids {
		for level < len(lineage) && !t.Schema(lineage[level]).Plural() {
			level++
		}
		if level < len(lineage) {
			out[i] = core.NormalizeID(t.Schema(lineage[level]).Kind(), id)
			level++
			continue
		}
		out[i] = core.ParseIntIfActualInt(id.String())
	}
	return out
}

// OneCreator builds actions that upsert a single object.
func OneCreator(t *Tree, n NodeID) func(resource core.Object, ids ...core.ID) Action {
	path := t.Path(n)
	return func(resource core.Object, ids ...core.ID) Action {
		return Action{Address: path, Op: OpOne, Resource: resource, IDs: NormalizeIDs(t, n, ids)}
	}
}

// ManyCreator builds actions that upsert a page of objects.
func ManyCreator(t *Tree, n NodeID) func(page *Page, ids ...core.ID) Action {
	path := t.Path(n)
	return func(page *Page, ids ...core.ID) Action {
		return Action{Address: path, Op: OpMany, Page: page, IDs: NormalizeIDs(t, n, ids)}
	}
}

// DeleteCreator builds actions that remove the object named by the last id.
func DeleteCreator(t *Tree, n NodeID) func(ids ...core.ID) Action {
	path := t.Path(n)
	return func(ids ...core.ID) Action {
		return Action{Address: path, Op: OpDelete, IDs: NormalizeIDs(t, n, ids)}
	}
}

// InvalidateCreator builds actions that reset a collection before a full recommit.
func InvalidateCreator(t *Tree, n NodeID) func(ids ...core.ID) Action {
	path := t.Path(n)
	return func(ids ...core.ID) Action {
		return Action{Address: path, Op: OpInvalidate, IDs: NormalizeIDs(t, n, ids)}
	}
}

// MarkInvalidCreator builds actions that flag a collection as stale.
func MarkInvalidCreator(t *Tree, n NodeID) func(ids ...core.ID) Action {
	path := t.Path(n)
	return func(ids ...core.ID) Action {
		return Action{Address: path, Op: OpMarkInvalid, IDs: NormalizeIDs(t, n, ids)}
	}
}

// Actions is the action-creator bundle of one schema node.
// Creators are nil when the schema does not support them.
type Actions struct {
	Type        string
	Node        NodeID
	One         func(resource core.Object, ids ...core.ID) Action
	Many        func(page *Page, ids ...core.ID) Action
	Delete      func(ids ...core.ID) Action
	Invalidate  func(ids ...core.ID) Action
	MarkInvalid func(ids ...core.ID) Action
	Sub         map[string]*Actions
}

// GenActions builds the bundle for n and, recursively, every subresource.
func GenActions(t *Tree, n NodeID) *Actions {
	s := t.Schema(n)
	a := &Actions{
		Type:        s.Name,
		Node:        n,
		Invalidate:  InvalidateCreator(t, n),
		MarkInvalid: MarkInvalidCreator(t, n),
		Sub:         make(map[string]*Actions, len(t.Node(n).Children)),
	}
	if slices.ContainsFunc(s.Supports, func(c Capability) bool {
		return c == CapOne || c == CapCreate || c == CapUpdate
	}) {
		a.One = OneCreator(t, n)
	}
	if s.Supports.Has(CapMany) {
		a.Many = ManyCreator(t, n)
	}
	if s.Supports.Has(CapDelete) {
		a.Delete = DeleteCreator(t, n)
	}
	for _, c := range t.Node(n).Children {
		a.Sub[t.Schema(c).Name] = GenActions(t, c)
	}
	return a
}
