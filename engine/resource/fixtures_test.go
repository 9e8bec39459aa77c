package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linode/cloudmanager/engine/core"
)

var now = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func linodesSchema() *Schema {
	return &Schema{
		Name:             "linodes",
		Supports:         Capabilities{CapOne, CapMany, CapCreate, CapUpdate, CapDelete},
		EndpointTemplate: "/linode/instances",
		Subresources: map[string]*Schema{
			"_configs": {
				Name:             "configs",
				Supports:         Capabilities{CapOne, CapMany, CapDelete},
				EndpointTemplate: "/linode/instances/{0}/configs",
			},
			"_disks": {
				Name:             "disks",
				Supports:         Capabilities{CapOne, CapMany},
				EndpointTemplate: "/linode/instances/{0}/disks",
			},
		},
	}
}

func profileSchema() *Schema {
	return &Schema{
		Name:             "profile",
		Supports:         Capabilities{CapOne, CapUpdate},
		EndpointTemplate: "/profile",
		Subresources: map[string]*Schema{
			"_tokens": {
				Name:             "tokens",
				Supports:         Capabilities{CapOne, CapMany, CapDelete},
				EndpointTemplate: "/profile/tokens",
			},
		},
	}
}

func testTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := NewTree(linodesSchema(), profileSchema())
	require.NoError(t, err)
	return tree
}

func lookup(t *testing.T, tree *Tree, path string) NodeID {
	t.Helper()
	id, err := tree.Lookup(path)
	require.NoError(t, err)
	return id
}

func ids(raw ...string) []core.ID {
	out := make([]core.ID, len(raw))
	for i, r := range raw {
		out[i] = core.ID(r)
	}
	return out
}
