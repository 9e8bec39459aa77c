package resource

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/linode/cloudmanager/engine/core"
)

// DefaultPrimaryKey is used when a schema does not name one.
const DefaultPrimaryKey = "id"

// EndpointFunc builds the request path for a resource from ancestor ids,
// optionally followed by the id of the item itself.
type EndpointFunc func(ids ...core.ID) string

// SortFunc orders ids after a bulk upsert.
type SortFunc func(a, b core.ID) int

// Schema declares one REST resource. Schemas are immutable once a Tree is built from them.
type Schema struct {
	Name             string             `yaml:"name"        validate:"required,resource_name"`
	Supports         Capabilities       `yaml:"supports"`
	EndpointTemplate string             `yaml:"endpoint"`
	PrimaryKey       string             `yaml:"primary_key"`
	IDKind           core.IDKind        `yaml:"id_kind"     validate:"omitempty,oneof=int string"`
	SortOrder        string             `yaml:"sort"        validate:"omitempty,oneof=asc desc"`
	Subresources     map[string]*Schema `yaml:"subresources" validate:"omitempty,dive"`

	Endpoint EndpointFunc `yaml:"-"`
	Sort     SortFunc     `yaml:"-"`
}

// Plural reports whether the resource is a keyed, paginated collection.
// Anything else is a singleton merged directly into its state.
func (s *Schema) Plural() bool {
	return s.Supports.Has(CapMany)
}

func (s *Schema) Key() string {
	if s.PrimaryKey == "" {
		return DefaultPrimaryKey
	}
	return s.PrimaryKey
}

func (s *Schema) Kind() core.IDKind {
	if s.IDKind == "" {
		return core.IDKindInt
	}
	return s.IDKind
}

// Compare orders two ids of this resource.
func (s *Schema) Compare(a, b core.ID) int {
	if s.Sort != nil {
		return s.Sort(a, b)
	}
	c := core.CompareIDs(a, b)
	if s.SortOrder == "desc" {
		return -c
	}
	return c
}

// Path renders the endpoint for ids.
func (s *Schema) Path(ids ...core.ID) string {
	if s.Endpoint != nil {
		return s.Endpoint(ids...)
	}
	return expandTemplate(s.EndpointTemplate, ids)
}

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

// expandTemplate fills {n} placeholders with ids[n] and appends every id
// beyond the highest placeholder as a trailing path segment.
func expandTemplate(tpl string, ids []core.ID) string {
	used := 0
	out := placeholder.ReplaceAllStringFunc(tpl, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n >= len(ids) {
			return m
		}
		used = max(used, n+1)
		return ids[n].String()
	})
	out = "/" + strings.Trim(out, "/")
	for _, id := range ids[used:] {
		out += "/" + id.String()
	}
	return out
}

// SortedKeys returns the subresource keys in a stable order.
func (s *Schema) SortedKeys() []string {
	keys := make([]string, 0, len(s.Subresources))
	for k := range s.Subresources {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (s *Schema) String() string {
	return fmt.Sprintf("%s%v", s.Name, []Capability(s.Supports))
}
