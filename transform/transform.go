// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package transform implements the local spatial state
// of an entity and the matrices derived from it.
package transform

import (
	"github.com/pkg/errors"

	"github.com/gviegas/physical/linear"
	"github.com/gviegas/physical/spatial"
)

// ErrSingularMatrix means that a matrix that must be
// inverted is not invertible. It usually is caused by
// a zero scale factor.
var ErrSingularMatrix = errors.New("transform: singular matrix")

// Matrices is the set of matrices derived from a
// Transform.
type Matrices struct {
	// Model maps local space into parent space.
	// It is Position ⋅ Rotation ⋅ Scale.
	Model linear.M4
	// Normal is the inverse-transpose of Model.
	Normal linear.M4
	// View is the inverse of Rigid.
	View linear.M4
	// Rigid is Position ⋅ Rotation, that is, Model
	// without scale.
	Rigid linear.M4
}

// Transform combines position, rotation and scale.
// Setters only store values; the matrices are derived
// by Update.
type Transform struct {
	pos   spatial.Position
	rot   spatial.Rotation
	scale spatial.Scale
	mats  Matrices
}

// Option configures a new Transform.
type Option func(*Transform)

// WithPosition sets the initial position.
func WithPosition(p spatial.Position) Option {
	return func(t *Transform) { t.pos = p }
}

// WithRotation sets the initial rotation.
func WithRotation(r spatial.Rotation) Option {
	return func(t *Transform) { t.SetRotation(r) }
}

// WithScale sets the initial scale.
func WithScale(s spatial.Scale) Option {
	return func(t *Transform) { t.scale = s }
}

// New creates a Transform at the origin, with no
// rotation and unit scale, unless opts say otherwise.
// The matrices are computed before New returns.
func New(opts ...Option) (*Transform, error) {
	t := &Transform{
		rot:   spatial.EulerDegrees{},
		scale: spatial.Uniform(1),
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.Update(); err != nil {
		return nil, err
	}
	return t, nil
}

// Position returns the stored position.
func (t *Transform) Position() spatial.Position { return t.pos }

// SetPosition sets the position.
func (t *Transform) SetPosition(p spatial.Position) { t.pos = p }

// Rotation returns the stored rotation, as given.
func (t *Transform) Rotation() spatial.Rotation { return t.rot }

// SetRotation sets the rotation.
// A nil r resets the rotation to the identity.
func (t *Transform) SetRotation(r spatial.Rotation) {
	if r == nil {
		r = spatial.EulerDegrees{}
	}
	t.rot = r
}

// Scale returns the stored scale.
func (t *Transform) Scale() spatial.Scale { return t.scale }

// SetScale sets the scale.
func (t *Transform) SetScale(s spatial.Scale) { t.scale = s }

// Eval computes the matrices from the current values
// without storing them.
func (t *Transform) Eval() (m Matrices, err error) {
	p, r, s := t.pos.Matrix(), t.rot.Matrix(), t.scale.Matrix()
	m.Rigid.Mul(&p, &r)
	if !m.View.Invert(&m.Rigid) {
		return Matrices{}, errors.Wrap(ErrSingularMatrix, "view")
	}
	m.Model.Mul(&m.Rigid, &s)
	m.Normal.Transpose(&m.Model)
	if !m.Normal.Invert(&m.Normal) {
		return Matrices{}, errors.Wrapf(ErrSingularMatrix, "normal (scale %v)", t.scale)
	}
	return m, nil
}

// Update recomputes the matrices.
// On failure, the previous matrices are kept.
func (t *Transform) Update() error { return t.UpdateWith(nil) }

// UpdateWith is like Update, but calls f with the new
// matrices before storing them. If f returns an error,
// nothing is stored and the error is returned.
func (t *Transform) UpdateWith(f func(Matrices) error) error {
	m, err := t.Eval()
	if err != nil {
		return err
	}
	if f != nil {
		if err := f(m); err != nil {
			return err
		}
	}
	t.mats = m
	return nil
}

// Model returns the model matrix.
func (t *Transform) Model() linear.M4 { return t.mats.Model }

// Normal returns the normal matrix.
func (t *Transform) Normal() linear.M4 { return t.mats.Normal }

// View returns the view matrix.
// It does not account for scale.
func (t *Transform) View() linear.M4 { return t.mats.View }

// Rigid returns the model matrix without scale.
func (t *Transform) Rigid() linear.M4 { return t.mats.Rigid }

// Matrices returns all of the derived matrices.
func (t *Transform) Matrices() Matrices { return t.mats }
