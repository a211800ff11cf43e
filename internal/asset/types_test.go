package asset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/asset"
	"github.com/feacur/customengine/internal/core/ecs"
)

func TestParseOBJ(t *testing.T) {
	src := `# quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 1
vn 0 0 1
f 1/1/1 2/1/1 3/2/1 4/2/1
f -4/1/1 -2/2/1 -1/2/1
`
	m, err := asset.ParseOBJ([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 2, 3}, m.Attributes)
	assert.Equal(t, 8, m.Stride())
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 0, 2, 3}, m.Indices)
	assert.Len(t, m.Vertices, 4*8)
	assert.Equal(t, []float32{1, 1, 0, 1, 1, 0, 0, 1}, m.Vertices[16:24])
}

func TestParseOBJPositionsOnly(t *testing.T) {
	m, err := asset.ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, m.Indices)
	assert.Equal(t, []float32{1, 0, 0, 0, 0, 0, 0, 0}, m.Vertices[8:16])
}

func TestParseOBJErrors(t *testing.T) {
	for name, src := range map[string]string{
		"no faces":     "v 0 0 0\n",
		"short face":   "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"out of range": "v 0 0 0\nf 1 2 3\n",
		"bad float":    "v 0 x 0\n",
		"bad corner":   "v 0 0 0\nf 1/2/3/4 1 1\n",
		"empty vertex": "v 0 0 0\nf /1 1 1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := asset.ParseOBJ([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestConfigAsset(t *testing.T) {
	h := newHarness(t)
	configs := asset.RegisterConfig(h.store)
	h.src.Put("game.toml", []byte("speed = 2.5\nlives = 3\n[player]\nname = \"ann\"\ngod = true\n"))

	ref := configs.Add("game.toml")
	c := configs.Get(ref)
	assert.Equal(t, 2.5, c.GetFloat("speed", 0))
	assert.Equal(t, int64(3), c.GetInt("lives", 0))
	assert.Equal(t, 3.0, c.GetFloat("lives", 0))
	assert.Equal(t, "ann", c.GetString("player.name", ""))
	assert.True(t, c.GetBool("player.god", false))
	assert.Equal(t, "dflt", c.GetString("player.missing", "dflt"))
	assert.Equal(t, int64(9), c.GetInt("speed.deeper", 9))

	h.src.Put("game.toml", []byte("speed = 4.0\n"))
	h.store.HandleEvent(asset.FileEvent{Name: "game.toml", Action: asset.Modified})
	c = configs.Get(ref)
	assert.Equal(t, 4.0, c.GetFloat("speed", 0))
	assert.Equal(t, int64(-1), c.GetInt("lives", -1))
}

func TestConfigAssetParseError(t *testing.T) {
	h := newHarness(t)
	configs := asset.RegisterConfig(h.store)
	h.src.Put("bad.toml", []byte("= nope"))
	ref := configs.Add("bad.toml")
	assert.Empty(t, configs.Get(ref).Values)
	assert.Equal(t, 1, h.count("config parse failed"))
}

func TestManifestPreload(t *testing.T) {
	h := newHarness(t)
	notes := h.registerNote()
	h.src.Put("a.txt", []byte("a"))
	h.src.Put("manifest.yaml", []byte(`preload:
  - type: note
    resource: a.txt
  - type: sound
    resource: boom.ogg
`))

	m, err := h.store.LoadManifest("manifest.yaml")
	require.NoError(t, err)
	require.Len(t, m.Preload, 2)
	assert.Equal(t, 1, h.store.Preload(m))
	assert.False(t, notes.Find("a.txt").IsEmpty())
	assert.Equal(t, 1, h.count("manifest names unknown asset type"))

	_, err = h.store.LoadManifest("nope.yaml")
	assert.Error(t, err)
	_, err = asset.ParseManifest([]byte("preload: ["))
	assert.Error(t, err)
}

type pos struct {
	V [3]float32
}

func TestPrefabReloadOverridesInstances(t *testing.T) {
	reg := ecs.NewRegistry()
	position := ecs.RegisterComponent(reg, "Position", ecs.Hooks[pos]{
		Read: func(_ *ecs.World, _ ecs.Entity, c *pos, cur *ecs.Cursor) {
			if key, args, ok := cur.Field(); ok && key == "value" {
				ecs.ParseFloats(args, c.V[:])
				cur.Advance()
			}
		},
	})
	w := ecs.NewWorld(reg, ecs.LayoutSparse, zap.NewNop())

	h := newHarness(t)
	prefabs := asset.RegisterPrefab(h.store, w)
	h.src.Put("p.txt", []byte("Position\nvalue 1 2 3\n"))

	ref := prefabs.Add("p.txt")
	proto := prefabs.Get(ref).Entity
	require.True(t, w.Exists(proto))
	assert.True(t, w.IsTemplate(proto))

	inst := prefabs.Instantiate(ref)
	require.True(t, w.Exists(inst))
	assert.False(t, w.IsTemplate(inst))
	assert.Equal(t, proto, w.Prototype(inst))
	assert.Equal(t, [3]float32{1, 2, 3}, position.Of(w, inst).V)

	seen := 0
	ecs.Each1(w, position, func(ecs.Entity, *pos) { seen++ })
	assert.Equal(t, 1, seen)

	h.src.Put("p.txt", []byte("Position\nvalue 4 5 6\n"))
	reloaded := h.store.HandleEvent(asset.FileEvent{Name: "p.txt", Action: asset.Modified})
	require.Len(t, reloaded, 1)
	assert.Equal(t, ref, reloaded[0].Ref)

	fresh := prefabs.Get(ref).Entity
	assert.False(t, w.Exists(proto))
	assert.True(t, w.IsTemplate(fresh))
	assert.Equal(t, fresh, w.Prototype(inst))
	assert.Equal(t, [3]float32{4, 5, 6}, position.Of(w, inst).V)

	prefabs.Remove(ref)
	assert.False(t, w.Exists(fresh))
	assert.True(t, w.Exists(inst))
	assert.True(t, prefabs.Instantiate(ref).IsEmpty())
}
