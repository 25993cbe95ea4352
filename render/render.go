// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package render exposes the global matrices of a
// scene in the single precision layout that graphics
// APIs expect.
package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/physical/linear"
	"github.com/gviegas/physical/node"
	"github.com/gviegas/physical/scene"
)

// Mat4 converts m into an mgl32.Mat4.
// Both are column-major, so the result can be uploaded
// as is.
func Mat4(m *linear.M4) (n mgl32.Mat4) {
	for i := range m {
		for j := range m[i] {
			n[i*4+j] = float32(m[i][j])
		}
	}
	return
}

// Uniform holds the matrices needed to draw the entity
// attached to a node.
type Uniform struct {
	Name   string
	Model  mgl32.Mat4
	Normal mgl32.Mat4
	View   mgl32.Mat4
}

// Of returns the Uniform of n.
func Of(n *node.Node) Uniform {
	m, nm, v := n.ModelGlobal(), n.NormalGlobal(), n.ViewGlobal()
	return Uniform{
		Name:   n.Name,
		Model:  Mat4(&m),
		Normal: Mat4(&nm),
		View:   Mat4(&v),
	}
}

// Normal3 returns the upper-left 3x3 of the normal
// matrix, which is what shaders use to transform
// normals.
func (u *Uniform) Normal3() mgl32.Mat3 { return u.Normal.Mat3() }

// ModelView returns view ⋅ u.Model, the model matrix of
// u as seen by a camera whose view matrix is view.
func (u *Uniform) ModelView(view mgl32.Mat4) mgl32.Mat4 { return view.Mul4(u.Model) }

// Collect returns the Uniform of every node in sc, in
// update order.
// It must be called after sc is updated for the
// current frame.
func Collect(sc *scene.Scene) []Uniform {
	var us []Uniform
	sc.Walk(func(n *node.Node) bool {
		us = append(us, Of(n))
		return true
	})
	return us
}
