package vmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func near(t *testing.T, want, got Vec4) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-5)
	assert.InDelta(t, want.Y, got.Y, 1e-5)
	assert.InDelta(t, want.Z, got.Z, 1e-5)
	assert.InDelta(t, want.W, got.W, 1e-5)
}

func TestTRS(t *testing.T) {
	q := AxisAngle(Vec3{Z: 1}, math.Pi/2)
	m := TRS(Vec3{1, 2, 3}, q, Vec3{2, 2, 2})
	// (1,0,0) scaled to (2,0,0), rotated to (0,2,0), moved to (1,4,3).
	near(t, Vec4{1, 4, 3, 1}, m.MulPoint(Vec3{X: 1}))
}

func TestInverseRigidUndoesTransform(t *testing.T) {
	pos := Vec3{5, -1, 2}
	q := AxisAngle(Vec3{Y: 1}, 0.7)
	world := TRS(pos, q, Vec3{1, 1, 1})
	view := InverseRigid(pos, q)
	p := Vec3{0.3, 0.2, -4}
	w := world.MulPoint(p)
	near(t, Vec4{p.X, p.Y, p.Z, 1}, view.MulPoint(Vec3{w.X, w.Y, w.Z}))
	near(t, Vec4{1, 0, 0, 0}, Vec4{view.Mul(world)[0], view.Mul(world)[1], view.Mul(world)[2], view.Mul(world)[3]})
}

func TestIdentityAndNormalize(t *testing.T) {
	m := Identity()
	near(t, Vec4{1, 2, 3, 1}, m.MulPoint(Vec3{1, 2, 3}))
	assert.Equal(t, QuatIdentity, Quat{}.Normalize())
	assert.InDelta(t, 1, Quat{0, 0, 2, 0}.Normalize().Z, 1e-6)
}

func TestProjectionsMapNearPlane(t *testing.T) {
	p := Perspective(math.Pi/2, 1, 1, 10)
	v := p.MulPoint(Vec3{Z: -1})
	assert.InDelta(t, -1, v.Z/v.W, 1e-5)

	o := Ortho(5, 2, 0, 10)
	near(t, Vec4{1, 1, -1, 1}, o.MulPoint(Vec3{10, 5, 0}))
}
