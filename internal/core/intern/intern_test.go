package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	tab := NewTable()
	a := tab.Add("textures/a.png")
	b := tab.Add("textures/b.png")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, tab.Add("textures/a.png"))
	assert.Equal(t, "textures/b.png", tab.Get(b))
	assert.Equal(t, "", tab.Get(99))
	assert.Equal(t, 2, tab.Len())

	id, ok := tab.Find("textures/a.png")
	assert.True(t, ok)
	assert.Equal(t, a, id)
	_, ok = tab.Find("missing")
	assert.False(t, ok)
}

func TestResourceName(t *testing.T) {
	assert.Equal(t, "textures/a.png", ResourceName(`textures\a.png`))
	assert.Equal(t, "textures/a.png", ResourceName("./textures/../textures/a.png"))
	assert.Equal(t, "shaders/x.kage", ResourceName("/shaders/x.kage"))
	// e + combining acute folds into the precomposed form.
	assert.Equal(t, "caf\u00e9.png", ResourceName("cafe\u0301.png"))
}
