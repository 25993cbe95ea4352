// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import (
	"math"
)

// M4 is a column-major 4x4 matrix of float64.
type M4 [4]V4

// I makes m an identity matrix.
func (m *M4) I() { *m = M4{{1}, {0, 1}, {0, 0, 1}, {0, 0, 0, 1}} }

// Mul sets m to contain l ⋅ r.
// m may alias l and/or r.
func (m *M4) Mul(l, r *M4) {
	var x M4
	for i := range x {
		for j := range x {
			for k := range x {
				x[i][j] += l[k][j] * r[i][k]
			}
		}
	}
	*m = x
}

// Transpose sets m to contain the transpose of n.
func (m *M4) Transpose(n *M4) {
	for i := range m {
		m[i][i] = n[i][i]
		for j := i + 1; j < len(m); j++ {
			m[i][j], m[j][i] = n[j][i], n[i][j]
		}
	}
}

func (n *M4) factors() (s0, s1, s2, s3, s4, s5, c0, c1, c2, c3, c4, c5 float64) {
	s0 = n[0][0]*n[1][1] - n[0][1]*n[1][0]
	s1 = n[0][0]*n[1][2] - n[0][2]*n[1][0]
	s2 = n[0][0]*n[1][3] - n[0][3]*n[1][0]
	s3 = n[0][1]*n[1][2] - n[0][2]*n[1][1]
	s4 = n[0][1]*n[1][3] - n[0][3]*n[1][1]
	s5 = n[0][2]*n[1][3] - n[0][3]*n[1][2]
	c0 = n[2][0]*n[3][1] - n[2][1]*n[3][0]
	c1 = n[2][0]*n[3][2] - n[2][2]*n[3][0]
	c2 = n[2][0]*n[3][3] - n[2][3]*n[3][0]
	c3 = n[2][1]*n[3][2] - n[2][2]*n[3][1]
	c4 = n[2][1]*n[3][3] - n[2][3]*n[3][1]
	c5 = n[2][2]*n[3][3] - n[2][3]*n[3][2]
	return
}

// Invert sets m to contain the inverse of n.
// It returns false if n is not invertible, in which
// case m is left unchanged.
// m may alias n.
func (m *M4) Invert(n *M4) bool {
	s0, s1, s2, s3, s4, s5, c0, c1, c2, c3, c4, c5 := n.factors()
	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 || math.IsNaN(det) {
		return false
	}
	idet := 1 / det
	if math.IsInf(idet, 0) {
		return false
	}
	var x M4
	x[0][0] = (c5*n[1][1] - c4*n[1][2] + c3*n[1][3]) * idet
	x[0][1] = (-c5*n[0][1] + c4*n[0][2] - c3*n[0][3]) * idet
	x[0][2] = (s5*n[3][1] - s4*n[3][2] + s3*n[3][3]) * idet
	x[0][3] = (-s5*n[2][1] + s4*n[2][2] - s3*n[2][3]) * idet
	x[1][0] = (-c5*n[1][0] + c2*n[1][2] - c1*n[1][3]) * idet
	x[1][1] = (c5*n[0][0] - c2*n[0][2] + c1*n[0][3]) * idet
	x[1][2] = (-s5*n[3][0] + s2*n[3][2] - s1*n[3][3]) * idet
	x[1][3] = (s5*n[2][0] - s2*n[2][2] + s1*n[2][3]) * idet
	x[2][0] = (c4*n[1][0] - c2*n[1][1] + c0*n[1][3]) * idet
	x[2][1] = (-c4*n[0][0] + c2*n[0][1] - c0*n[0][3]) * idet
	x[2][2] = (s4*n[3][0] - s2*n[3][1] + s0*n[3][3]) * idet
	x[2][3] = (-s4*n[2][0] + s2*n[2][1] - s0*n[2][3]) * idet
	x[3][0] = (-c3*n[1][0] + c1*n[1][1] - c0*n[1][2]) * idet
	x[3][1] = (c3*n[0][0] - c1*n[0][1] + c0*n[0][2]) * idet
	x[3][2] = (-s3*n[3][0] + s1*n[3][1] - s0*n[3][2]) * idet
	x[3][3] = (s3*n[2][0] - s1*n[2][1] + s0*n[2][2]) * idet
	*m = x
	return true
}

// Translate sets m to contain a translation.
func (m *M4) Translate(x, y, z float64) {
	*m = M4{{1}, {0, 1}, {0, 0, 1}, {x, y, z, 1}}
}

// Scale sets m to contain a scale.
func (m *M4) Scale(x, y, z float64) {
	*m = M4{{x}, {0, y}, {0, 0, z}, {0, 0, 0, 1}}
}

// RotateX sets m to contain a rotation of angle
// radians about the x axis.
func (m *M4) RotateX(angle float64) {
	s, c := math.Sincos(angle)
	*m = M4{{1}, {0, c, s}, {0, -s, c}, {0, 0, 0, 1}}
}

// RotateY sets m to contain a rotation of angle
// radians about the y axis.
func (m *M4) RotateY(angle float64) {
	s, c := math.Sincos(angle)
	*m = M4{{c, 0, -s}, {0, 1}, {s, 0, c}, {0, 0, 0, 1}}
}

// RotateZ sets m to contain a rotation of angle
// radians about the z axis.
func (m *M4) RotateZ(angle float64) {
	s, c := math.Sincos(angle)
	*m = M4{{c, s}, {-s, c}, {0, 0, 1}, {0, 0, 0, 1}}
}

// RotateQ sets m to contain the rotation that q
// represents.
// q must be a unit quaternion.
func (m *M4) RotateQ(q *Q) {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.R
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	*m = M4{
		{1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy)},
		{2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx)},
		{2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy)},
		{0, 0, 0, 1},
	}
}

// Equal reports whether every element of l and r
// differs by at most tol.
func Equal(l, r *M4, tol float64) bool {
	for i := range l {
		for j := range l[i] {
			if math.Abs(l[i][j]-r[i][j]) > tol {
				return false
			}
		}
	}
	return true
}
