package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linode/cloudmanager/engine/core"
)

func TestCreateDefaultState(t *testing.T) {
	t.Run("Should return an unknown empty collection", func(t *testing.T) {
		s := CreateDefaultState()
		assert.Equal(t, Unknown, s.TotalPages)
		assert.Equal(t, Unknown, s.TotalResults)
		assert.Empty(t, s.IDs)
		assert.NotNil(t, s.Items)
		assert.False(t, s.Loaded())
	})
}

func TestDefaultStateFull(t *testing.T) {
	t.Run("Should be deep-equal but distinct across calls", func(t *testing.T) {
		s := linodesSchema()
		a := DefaultStateFull(s)
		b := DefaultStateFull(s)
		assert.Equal(t, a, b)
		assert.NotSame(t, a, b)
		a.Items["1"] = &Item{}
		assert.Empty(t, b.Items)
	})
	t.Run("Should return an empty singleton for non-plural schemas", func(t *testing.T) {
		s := DefaultStateFull(profileSchema())
		assert.Equal(t, core.Object{}, s.Object)
		assert.Contains(t, s.Subresources, "_tokens")
		assert.Equal(t, Unknown, s.Subresources["_tokens"].TotalPages)
	})
}

func TestDefaultStateOne(t *testing.T) {
	t.Run("Should seed one container per subresource", func(t *testing.T) {
		item := DefaultStateOne(linodesSchema().Subresources, core.Object{"one": "one"}, now)
		assert.Equal(t, core.Object{"one": "one"}, item.Data)
		assert.Len(t, item.Subresources, 2)
		assert.Equal(t, CreateDefaultState(), item.Subresources["_configs"])
		assert.Equal(t, now, item.UpdatedAt)
	})
	t.Run("Should handle missing subresources", func(t *testing.T) {
		item := DefaultStateOne(nil, nil, now)
		assert.Equal(t, core.Object{}, item.Data)
		assert.Empty(t, item.Subresources)
	})
}

func TestDefaultRoots(t *testing.T) {
	t.Run("Should seed one state per root", func(t *testing.T) {
		roots := DefaultRoots(testTree(t))
		assert.Len(t, roots, 2)
		assert.Contains(t, roots, "linodes")
		assert.Contains(t, roots, "profile")
	})
}
