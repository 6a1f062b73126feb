package typeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	set := NewSet("hud", "main_menu")
	assert.True(t, set.Contain("hud"))
	assert.True(t, set.Contain("hud", "main_menu"))
	assert.False(t, set.Contain("hud", "minimap"))

	set.Insert("minimap", "hud")
	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []string{"hud", "main_menu", "minimap"}, Sorted(set))

	set.Remove("hud", "unknown")
	assert.False(t, set.Contain("hud"))
	assert.ElementsMatch(t, []string{"main_menu", "minimap"}, set.Collect())
}
