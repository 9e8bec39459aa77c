package resource

import (
	"github.com/linode/cloudmanager/engine/core"
)

// StateOf walks the root states down to node n. Plural ancestors consume one id
// each. When an id for n itself is supplied the matching item is returned too;
// otherwise the item is nil and the collection is the result.
func StateOf(t *Tree, n NodeID, roots map[string]*State, ids []core.ID) (*State, *Item, bool) {
	lineage := t.Lineage(n)
	cur := roots[t.Schema(lineage[0]).Name]
	if cur == nil {
		return nil, nil, false
	}
	rest := ids
	for i, id := range lineage {
		sc := t.Schema(id)
		last := i == len(lineage)-1
		if last {
			if !sc.Plural() || len(rest) == 0 {
				return cur, nil, true
			}
			item, ok := cur.Items[rest[0]]
			return cur, item, ok
		}
		key := t.Node(lineage[i+1]).Key
		if !sc.Plural() {
			cur = cur.Subresources[key]
		} else {
			if len(rest) == 0 {
				return nil, nil, false
			}
			item, ok := cur.Items[rest[0]]
			if !ok {
				return nil, nil, false
			}
			rest = rest[1:]
			cur = item.Sub(key)
		}
		if cur == nil {
			return nil, nil, false
		}
	}
	return cur, nil, true
}

// Filter projects one fetched object. Returning nil or an empty object drops it.
type Filter func(obj core.Object) core.Object

// FilterPage applies filter to a copy of page. Dropped objects decrement Results
// and are counted in Filtered so callers can still compare raw counts.
func FilterPage(page *Page, filter Filter) *Page {
	if page == nil {
		return nil
	}
	out := *page
	if filter == nil {
		out.Data = append([]core.Object(nil), page.Data...)
		return &out
	}
	out.Data = make([]core.Object, 0, len(page.Data))
	for _, obj := range page.Data {
		projected := filter(obj)
		if len(projected) == 0 {
			out.Results--
			out.Filtered++
			continue
		}
		out.Data = append(out.Data, projected)
	}
	return &out
}

// FullyLoaded reports whether obj carries any API field, as opposed to only
// local keys written by the client.
func FullyLoaded(obj core.Object) bool {
	for k := range obj {
		if !core.IsLocalKey(k) {
			return true
		}
	}
	return false
}
