package nuts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHierarchy(t *testing.T, ids map[string]int) *hierarchy {
	t.Helper()
	var regions []*Region
	for id, level := range ids {
		r, err := NewRegion(squareFeature(id, level, 0, 0, 10), 0)
		require.NoError(t, err)
		regions = append(regions, r)
	}
	h, err := newHierarchy(regions, false, 0)
	require.NoError(t, err)
	return h
}

func TestHierarchy_AncestorsOf(t *testing.T) {
	h := buildHierarchy(t, map[string]int{
		"DE": 0, "DE1": 1, "DE11": 2, "DE111": 3, "FR": 0,
	})

	// Immediate parent first, up to the root.
	assert.Equal(t, []string{"DE11", "DE1", "DE"}, regionIDs(h.AncestorsOf("DE111")))
	assert.Equal(t, []string{"DE"}, regionIDs(h.AncestorsOf("DE1")))
	assert.Empty(t, h.AncestorsOf("DE"))
	assert.Empty(t, h.AncestorsOf("FR"))
}

func TestHierarchy_AncestorsStopAtMissingLevel(t *testing.T) {
	// DE missing: resolution stops at the lowest loaded ancestor.
	h := buildHierarchy(t, map[string]int{"DE1": 1, "DE11": 2})

	assert.Equal(t, []string{"DE1"}, regionIDs(h.AncestorsOf("DE11")))
	assert.Empty(t, h.AncestorsOf("DE1"))
}

func TestHierarchy_SkippedLevelBridged(t *testing.T) {
	// Without strict mode a level gap links to the nearest loaded ancestor.
	h := buildHierarchy(t, map[string]int{"DE": 0, "DE11": 2})

	assert.Equal(t, []string{"DE"}, regionIDs(h.AncestorsOf("DE11")))
}

func TestHierarchy_ChildrenOf(t *testing.T) {
	h := buildHierarchy(t, map[string]int{
		"DE": 0, "DE3": 1, "DE1": 1, "DE2": 1, "DE11": 2,
	})

	assert.Equal(t, []string{"DE1", "DE2", "DE3"}, regionIDs(h.ChildrenOf("DE")))
	assert.Equal(t, []string{"DE11"}, regionIDs(h.ChildrenOf("DE1")))
	assert.Empty(t, h.ChildrenOf("DE11"))
	assert.Empty(t, h.ChildrenOf("XX"))
}

func TestHierarchy_Strict(t *testing.T) {
	r1, err := NewRegion(squareFeature("DE11", 2, 0, 0, 10), 0)
	require.NoError(t, err)

	_, err = newHierarchy([]*Region{r1}, true, 0)
	assert.ErrorIs(t, err, ErrHierarchyViolation)

	// Not a violation when the range starts at the region's level.
	_, err = newHierarchy([]*Region{r1}, true, 2)
	assert.NoError(t, err)
}

func TestHierarchy_Region(t *testing.T) {
	h := buildHierarchy(t, map[string]int{"DE": 0})

	r, ok := h.Region("DE")
	require.True(t, ok)
	assert.Equal(t, "DE", r.ID())

	_, ok = h.Region("FR")
	assert.False(t, ok)
}
