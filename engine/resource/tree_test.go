package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTree(t *testing.T) {
	t.Run("Should qualify every node by its ancestor names", func(t *testing.T) {
		tree := testTree(t)
		err := tree.Walk(func(n *Node) error {
			var names []string
			for _, id := range tree.Lineage(n.ID) {
				names = append(names, tree.Schema(id).Name)
			}
			assert.Equal(t, names, tree.Path(n.ID))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "linodes.configs", tree.FullyQualified(lookup(t, tree, "linodes.configs")))
		assert.Equal(t, "profile.tokens", tree.FullyQualified(lookup(t, tree, "profile.tokens")))
	})

	t.Run("Should store parent indexes instead of pointers", func(t *testing.T) {
		tree := testTree(t)
		root, ok := tree.Root("linodes")
		require.True(t, ok)
		configs := lookup(t, tree, "linodes.configs")
		assert.Equal(t, root, tree.Node(configs).Parent)
		assert.Equal(t, NoParent, tree.Node(root).Parent)
		assert.Equal(t, "_configs", tree.Node(configs).Key)
		assert.Equal(t, 1, tree.Depth(configs))
		assert.Equal(t, 5, tree.Len())
	})

	t.Run("Should reject duplicate roots", func(t *testing.T) {
		_, err := NewTree(linodesSchema(), linodesSchema())
		assert.ErrorIs(t, err, ErrInvalidSchema)
	})

	t.Run("Should reject a schema that contains itself", func(t *testing.T) {
		s := &Schema{Name: "loop", Supports: Capabilities{CapMany}, EndpointTemplate: "/loop"}
		s.Subresources = map[string]*Schema{"_loop": s}
		_, err := NewTree(s)
		assert.ErrorIs(t, err, ErrInvalidSchema)
	})

	t.Run("Should reject sibling name collisions", func(t *testing.T) {
		s := linodesSchema()
		s.Subresources["_other"] = &Schema{Name: "configs", EndpointTemplate: "/x"}
		_, err := NewTree(s)
		assert.ErrorIs(t, err, ErrInvalidSchema)
	})

	t.Run("Should reject schemas without endpoint", func(t *testing.T) {
		_, err := NewTree(&Schema{Name: "nothing"})
		assert.ErrorIs(t, err, ErrInvalidSchema)
	})

	t.Run("Should report unknown paths", func(t *testing.T) {
		tree := testTree(t)
		_, err := tree.Lookup("linodes.nope")
		assert.ErrorIs(t, err, ErrUnknownResource)
		_, err = tree.Lookup("nope")
		assert.ErrorIs(t, err, ErrUnknownResource)
	})
}

func TestSchemaPath(t *testing.T) {
	t.Run("Should fill placeholders and append the trailing id", func(t *testing.T) {
		tree := testTree(t)
		configs := tree.Schema(lookup(t, tree, "linodes.configs"))
		assert.Equal(t, "/linode/instances/12/configs", configs.Path(ids("12")...))
		assert.Equal(t, "/linode/instances/12/configs/34", configs.Path(ids("12", "34")...))
	})
	t.Run("Should append ids to templates without placeholders", func(t *testing.T) {
		s := linodesSchema()
		assert.Equal(t, "/linode/instances", s.Path())
		assert.Equal(t, "/linode/instances/9", s.Path(ids("9")...))
	})
}
