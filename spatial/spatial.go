// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package spatial defines the primitives that a
// transform is made of: position, rotation and scale.
package spatial

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gviegas/physical/linear"
)

// Position is a translation in 3D space.
type Position struct {
	X, Y, Z float64
}

// PositionOf converts v into a Position.
func PositionOf(v linear.V3) Position { return Position{v[0], v[1], v[2]} }

// Vector returns p as a linear.V3.
func (p Position) Vector() linear.V3 { return linear.V3{p.X, p.Y, p.Z} }

// Matrix returns the translation matrix of p.
func (p Position) Matrix() linear.M4 {
	var m linear.M4
	m.Translate(p.X, p.Y, p.Z)
	return m
}

// ErrInvalidScaleArity means that a scale was given
// with a number of components other than 1 or 3.
var ErrInvalidScaleArity = errors.New("spatial: scale must have 1 or 3 components")

// Scale is either a uniform scale factor or a
// per-axis one.
// The zero value is a uniform scale of one.
type Scale struct {
	v       linear.V3
	perAxis bool
	set     bool
}

// Uniform returns a Scale that applies s to every axis.
func Uniform(s float64) Scale { return Scale{v: linear.V3{s, s, s}, set: true} }

// NonUniform returns a Scale with per-axis factors.
func NonUniform(x, y, z float64) Scale {
	return Scale{v: linear.V3{x, y, z}, perAxis: true, set: true}
}

// ParseScale creates a Scale from untyped data.
// One value produces a uniform scale and three values
// produce a non-uniform one.
func ParseScale(v []float64) (Scale, error) {
	switch len(v) {
	case 1:
		return Uniform(v[0]), nil
	case 3:
		return NonUniform(v[0], v[1], v[2]), nil
	}
	return Scale{}, errors.Wrapf(ErrInvalidScaleArity, "have %d components", len(v))
}

// IsUniform reports whether s was created by Uniform.
func (s Scale) IsUniform() bool { return !s.perAxis }

// Factor returns the uniform scale factor.
// For non-uniform scales it returns the x factor.
func (s Scale) Factor() float64 { return s.Vector()[0] }

// Vector returns the per-axis factors of s.
func (s Scale) Vector() linear.V3 {
	if !s.set {
		return linear.V3{1, 1, 1}
	}
	return s.v
}

// Matrix returns the diagonal scale matrix of s.
func (s Scale) Matrix() linear.M4 {
	var m linear.M4
	v := s.Vector()
	m.Scale(v[0], v[1], v[2])
	return m
}

func (s Scale) String() string {
	v := s.Vector()
	if s.perAxis {
		return fmtFloats(v[:])
	}
	return strconv.FormatFloat(v[0], 'g', -1, 64)
}

func fmtFloats(v []float64) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, x := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	b.WriteByte(')')
	return b.String()
}
