// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import (
	"math"
)

// Q is a quaternion of float64.
// V is the vector (imaginary) part and R is the
// real part.
type Q struct {
	V V3
	R float64
}

// I makes q an identity quaternion.
func (q *Q) I() { *q = Q{R: 1} }

// Mul sets q to contain l ⋅ r.
func (q *Q) Mul(l, r *Q) {
	v := ScaleV3(r.R, l.V)
	w := ScaleV3(l.R, r.V)
	v = AddV3(v, w)
	w = Cross(l.V, r.V)
	d := DotV3(l.V, r.V)
	q.V = AddV3(v, w)
	q.R = l.R*r.R - d
}

// Rotate sets q to contain a rotation of angle
// radians about axis.
// axis must be a unit vector.
func (q *Q) Rotate(angle float64, axis *V3) {
	s, c := math.Sincos(angle * 0.5)
	q.V = ScaleV3(s, *axis)
	q.R = c
}

// Len returns the norm of q.
func (q *Q) Len() float64 {
	v, r, s := q.scaled()
	if s == 0 || math.IsInf(s, 0) {
		return s
	}
	return s * math.Sqrt(DotV3(v, v)+r*r)
}

// Norm sets q to contain p normalized.
// p must not be a zero quaternion.
func (q *Q) Norm(p *Q) {
	v, r, _ := p.scaled()
	l := math.Sqrt(DotV3(v, v) + r*r)
	q.V = V3{v[0] / l, v[1] / l, v[2] / l}
	q.R = r / l
}

// scaled returns the components of q divided by s,
// the largest of their magnitudes.
// The largest of them has magnitude one, so their
// squares sum to at least one and never overflow.
func (q *Q) scaled() (v V3, r, s float64) {
	s = math.Abs(q.R)
	for _, x := range q.V {
		s = math.Max(s, math.Abs(x))
	}
	if s == 0 || math.IsInf(s, 0) {
		return q.V, q.R, s
	}
	return V3{q.V[0] / s, q.V[1] / s, q.V[2] / s}, q.R / s, s
}
