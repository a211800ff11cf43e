// Package vmath holds the few vector and matrix types the render path
// passes through the command buffer. Matrices are column-major.
package vmath

import "math"

type Vec2i struct{ X, Y int32 }

type Vec3 struct{ X, Y, Z float32 }

type Vec4 struct{ X, Y, Z, W float32 }

// Quat is a rotation quaternion; the identity is {0, 0, 0, 1}.
type Quat struct{ X, Y, Z, W float32 }

// Mat4 is stored column-major: element (row r, column c) is M[c*4+r].
type Mat4 [16]float32

var QuatIdentity = Quat{W: 1}

func Identity() Mat4 {
	return Mat4{0: 1, 5: 1, 10: 1, 15: 1}
}

// AxisAngle builds a rotation of angle radians around a unit axis.
func AxisAngle(axis Vec3, angle float32) Quat {
	s, c := math.Sincos(float64(angle) / 2)
	return Quat{axis.X * float32(s), axis.Y * float32(s), axis.Z * float32(s), float32(c)}
}

// Normalize returns q scaled to unit length; a zero quaternion becomes the identity.
func (q Quat) Normalize() Quat {
	n := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if n == 0 {
		return QuatIdentity
	}
	return Quat{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

func rotation(q Quat) Mat4 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return Mat4{
		1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y), 0,
		2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x), 0,
		2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}

// TRS composes translation * rotation * scale.
func TRS(t Vec3, r Quat, s Vec3) Mat4 {
	m := rotation(r)
	for i := 0; i < 3; i++ {
		m[i] *= s.X
		m[4+i] *= s.Y
		m[8+i] *= s.Z
	}
	m[12], m[13], m[14] = t.X, t.Y, t.Z
	return m
}

// InverseRigid inverts a translation+rotation transform.
func InverseRigid(t Vec3, r Quat) Mat4 {
	rm := rotation(r)
	var m Mat4
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			m[col*4+row] = rm[row*4+col]
		}
	}
	tv := [3]float32{t.X, t.Y, t.Z}
	for row := 0; row < 3; row++ {
		var sum float32
		for k := 0; k < 3; k++ {
			sum += m[k*4+row] * tv[k]
		}
		m[12+row] = -sum
	}
	m[15] = 1
	return m
}

// Perspective is the OpenGL-style projection with a vertical fov in radians.
func Perspective(fovy, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovy)/2))
	return Mat4{
		0:  f / aspect,
		5:  f,
		10: (far + near) / (near - far),
		11: -1,
		14: 2 * far * near / (near - far),
	}
}

// Ortho is a symmetric orthographic projection of the given half height.
func Ortho(halfHeight, aspect, near, far float32) Mat4 {
	return Mat4{
		0:  1 / (halfHeight * aspect),
		5:  1 / halfHeight,
		10: -2 / (far - near),
		14: -(far + near) / (far - near),
		15: 1,
	}
}

func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+r] * b[c*4+k]
			}
			m[c*4+r] = sum
		}
	}
	return m
}

// MulPoint transforms (p, 1) and returns the homogeneous result.
func (a Mat4) MulPoint(p Vec3) Vec4 {
	return Vec4{
		a[0]*p.X + a[4]*p.Y + a[8]*p.Z + a[12],
		a[1]*p.X + a[5]*p.Y + a[9]*p.Z + a[13],
		a[2]*p.X + a[6]*p.Y + a[10]*p.Z + a[14],
		a[3]*p.X + a[7]*p.Y + a[11]*p.Z + a[15],
	}
}
