// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package linear implements math for 3D graphics.
//
// Matrices are stored in column-major order and are
// meant to be applied to column vectors, so that
// l ⋅ r transforms by r first and then by l.
package linear

// V3 is a 3-component vector of float64.
type V3 [3]float64

// AddV3 returns v + w.
func AddV3(v, w V3) (u V3) {
	for i := range u {
		u[i] = v[i] + w[i]
	}
	return
}

// ScaleV3 returns s ⋅ v.
func ScaleV3(s float64, v V3) (u V3) {
	for i := range u {
		u[i] = s * v[i]
	}
	return
}

// DotV3 returns v ⋅ w.
func DotV3(v, w V3) (d float64) {
	for i := range v {
		d += v[i] * w[i]
	}
	return
}

// Cross returns v × w.
func Cross(v, w V3) (u V3) {
	u[0] = v[1]*w[2] - v[2]*w[1]
	u[1] = v[2]*w[0] - v[0]*w[2]
	u[2] = v[0]*w[1] - v[1]*w[0]
	return
}

// V4 is a 4-component vector of float64.
type V4 [4]float64

// MulM4V4 returns m ⋅ v.
func MulM4V4(m *M4, v V4) (u V4) {
	for i := range m {
		for j := range u {
			u[j] += m[i][j] * v[i]
		}
	}
	return
}
