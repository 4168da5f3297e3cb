package id

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsSortableAndUnique(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]struct{}, 1000)
	prev := ""
	for i := 0; i < 1000; i++ {
		v := g.Generate()
		require.Len(t, v, 26)
		_, err := ulid.ParseStrict(v)
		require.NoError(t, err)

		_, dup := seen[v]
		assert.False(t, dup)
		seen[v] = struct{}{}

		assert.Greater(t, v, prev)
		prev = v
	}
}

func TestNewULID(t *testing.T) {
	assert.NotEqual(t, NewULID(), NewULID())
}
