// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package spatial

import (
	"math"

	"github.com/pkg/errors"

	"github.com/gviegas/physical/linear"
)

// ErrInvalidRotationArity means that a rotation was given
// with a number of components other than 3 or 4.
var ErrInvalidRotationArity = errors.New("spatial: rotation must have 3 or 4 components")

// Rotation is an orientation.
// It is implemented by EulerDegrees and Quaternion only.
type Rotation interface {
	// Matrix returns the 4x4 rotation matrix.
	Matrix() linear.M4

	// Quat returns the rotation as a unit quaternion.
	Quat() linear.Q

	// Components returns the stored values, in the
	// order they were given.
	Components() []float64

	rotation()
}

// ParseRotation creates a Rotation from untyped data.
// Three values produce EulerDegrees and four values
// produce a Quaternion (x, y, z, w). Any other length
// fails with ErrInvalidRotationArity.
func ParseRotation(v []float64) (Rotation, error) {
	switch len(v) {
	case 3:
		return EulerDegrees{v[0], v[1], v[2]}, nil
	case 4:
		return Quaternion{v[0], v[1], v[2], v[3]}, nil
	}
	return nil, errors.Wrapf(ErrInvalidRotationArity, "have %d components", len(v))
}

// EulerDegrees is a rotation given as three angles in
// degrees, one per axis.
// Angles are applied intrinsically in X, Y, Z order,
// that is, R = Rx ⋅ Ry ⋅ Rz.
// Values are neither clamped nor wrapped; angles that
// differ by multiples of 360 yield the same matrix.
type EulerDegrees struct {
	X, Y, Z float64
}

func (EulerDegrees) rotation() {}

// Matrix implements Rotation.
func (e EulerDegrees) Matrix() linear.M4 {
	var m, r linear.M4
	m.RotateX(radians(e.X))
	r.RotateY(radians(e.Y))
	m.Mul(&m, &r)
	r.RotateZ(radians(e.Z))
	m.Mul(&m, &r)
	return m
}

// Quat implements Rotation.
func (e EulerDegrees) Quat() linear.Q {
	var q, r linear.Q
	q.Rotate(radians(e.X), &linear.V3{1, 0, 0})
	r.Rotate(radians(e.Y), &linear.V3{0, 1, 0})
	q.Mul(&q, &r)
	r.Rotate(radians(e.Z), &linear.V3{0, 0, 1})
	q.Mul(&q, &r)
	return q
}

// Components implements Rotation.
func (e EulerDegrees) Components() []float64 { return []float64{e.X, e.Y, e.Z} }

// Quaternion is a rotation given as a quaternion whose
// vector part is (X, Y, Z) and real part is W.
// It should be kept normalized, but a copy is always
// normalized before conversion. A zero quaternion is
// not a valid rotation and causes a panic on conversion.
type Quaternion struct {
	X, Y, Z, W float64
}

func (Quaternion) rotation() {}

func (q Quaternion) toQ() linear.Q {
	return linear.Q{V: linear.V3{q.X, q.Y, q.Z}, R: q.W}
}

// Norm returns the length of q.
func (q Quaternion) Norm() float64 {
	p := q.toQ()
	return p.Len()
}

// Valid reports whether q has finite components, not
// all of them zero.
func (q Quaternion) Valid() bool {
	zero := true
	for _, x := range q.Components() {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
		zero = zero && x == 0
	}
	return !zero
}

// Normalize returns q with unit length.
func (q Quaternion) Normalize() Quaternion {
	p := q.Quat()
	return Quaternion{p.V[0], p.V[1], p.V[2], p.R}
}

// Quat implements Rotation.
func (q Quaternion) Quat() linear.Q {
	if !q.Valid() {
		panic("spatial: invalid quaternion " + q.String())
	}
	p := q.toQ()
	p.Norm(&p)
	return p
}

// Matrix implements Rotation.
func (q Quaternion) Matrix() linear.M4 {
	var m linear.M4
	p := q.Quat()
	m.RotateQ(&p)
	return m
}

// Components implements Rotation.
func (q Quaternion) Components() []float64 { return []float64{q.X, q.Y, q.Z, q.W} }

func (q Quaternion) String() string {
	return fmtFloats(q.Components())
}

// Compose returns the rotation l ⋅ r, that is, r
// followed by l.
func Compose(l, r Rotation) Quaternion {
	var q linear.Q
	a, b := l.Quat(), r.Quat()
	q.Mul(&a, &b)
	q.Norm(&q)
	return Quaternion{q.V[0], q.V[1], q.V[2], q.R}
}

func radians(deg float64) float64 { return deg * (math.Pi / 180) }
