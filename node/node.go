// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package node implements the scene's graph.
//
// A Node owns a transform.Transform and composes its
// local matrices with those of its ancestors to produce
// world (global) matrices.
package node

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gviegas/physical/linear"
	"github.com/gviegas/physical/spatial"
	"github.com/gviegas/physical/transform"
)

// ErrCyclicParent means that a node would become its
// own ancestor.
var ErrCyclicParent = errors.New("node: cyclic parent")

// ErrSingularMatrix is transform.ErrSingularMatrix.
var ErrSingularMatrix = transform.ErrSingularMatrix

// Node represents a single node in a scene graph.
// Nodes have at most one immediate ancestor and
// an arbitrary number of immediate descendants.
type Node struct {
	tf *transform.Transform

	parent *Node
	next   *Node
	prev   *Node
	sub    *Node

	model  linear.M4
	normal linear.M4
	view   linear.M4

	// Name for the node.
	// It is not used by node code other than in
	// error messages.
	Name string
}

// New creates a root node.
// opts are passed to transform.New.
func New(opts ...transform.Option) (*Node, error) {
	tf, err := transform.New(opts...)
	if err != nil {
		return nil, err
	}
	n := &Node{tf: tf}
	m := tf.Matrices()
	n.model, n.normal, n.view = m.Model, m.Normal, m.View
	return n, nil
}

// Transform returns the node's transform.
func (n *Node) Transform() *transform.Transform { return n.tf }

// Position returns the local position.
func (n *Node) Position() spatial.Position { return n.tf.Position() }

// SetPosition sets the local position.
// It takes effect on the next call to Update.
func (n *Node) SetPosition(p spatial.Position) { n.tf.SetPosition(p) }

// Rotation returns the local rotation.
func (n *Node) Rotation() spatial.Rotation { return n.tf.Rotation() }

// SetRotation sets the local rotation.
// It takes effect on the next call to Update.
func (n *Node) SetRotation(r spatial.Rotation) { n.tf.SetRotation(r) }

// Scale returns the local scale.
func (n *Node) Scale() spatial.Scale { return n.tf.Scale() }

// SetScale sets the local scale.
// It takes effect on the next call to Update.
func (n *Node) SetScale(s spatial.Scale) { n.tf.SetScale(s) }

// Parent returns the immediate ancestor of n, or nil
// if n is a root.
func (n *Node) Parent() *Node { return n.parent }

// IsAncestor reports whether n is an ancestor of d.
func (n *Node) IsAncestor(d *Node) bool {
	for p := d.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Root returns the topmost ancestor of n, or n itself
// if it has no parent.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// SetParent makes n an immediate descendant of p.
// A nil p turns n into a root.
// It fails with ErrCyclicParent if p is n or one of
// its descendants.
// The global matrices reflect the change on the next
// call to Update.
func (n *Node) SetParent(p *Node) error {
	if p == n.parent {
		return nil
	}
	if p != nil && (p == n || n.IsAncestor(p)) {
		return errors.Wrapf(ErrCyclicParent, "%v under %v", n, p)
	}
	n.Remove()
	if p != nil {
		p.link(n)
	}
	return nil
}

// Insert inserts node sub as the last immediate
// descendant of node n.
// It is equivalent to sub.SetParent(n).
func (n *Node) Insert(sub *Node) error { return sub.SetParent(n) }

func (n *Node) link(sub *Node) {
	sub.parent = n
	if n.sub == nil {
		n.sub = sub
		return
	}
	last := n.sub
	for last.next != nil {
		last = last.next
	}
	last.next = sub
	sub.prev = last
}

// Remove removes node n from its immediate ancestor.
// Descendants of n are kept.
func (n *Node) Remove() {
	if n.parent == nil {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		n.parent.sub = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	n.parent = nil
	n.prev = nil
	n.next = nil
}

// Destroy removes n from its immediate ancestor and
// turns every immediate descendant of n into a root.
// No other node refers to n after Destroy returns.
func (n *Node) Destroy() {
	n.Remove()
	for n.sub != nil {
		n.sub.Remove()
	}
}

// Children returns the immediate descendants of n, in
// insertion order.
func (n *Node) Children() []*Node {
	var s []*Node
	for nd := n.sub; nd != nil; nd = nd.next {
		s = append(s, nd)
	}
	return s
}

// Len returns the number of immediate descendants of n.
func (n *Node) Len() (l int) {
	for nd := n.sub; nd != nil; nd = nd.next {
		l++
	}
	return
}

// ForEach calls f for each descendant of node n.
// Ancestors are processed first.
// The scene graph must not be changed until this
// method returns.
func (n *Node) ForEach(f func(*Node)) {
	n.Until(func(nd *Node) bool {
		f(nd)
		return true
	})
}

// Until calls f for each descendant of node n.
// Ancestors are processed first. If f returns false,
// Until returns immediately.
// The scene graph must not be changed until this
// method returns.
func (n *Node) Until(f func(*Node) bool) {
	if n.sub == nil {
		return
	}
	que := []*Node{n.sub}
	for len(que) > 0 {
		for nd := que[0]; nd != nil; nd = nd.next {
			if !f(nd) {
				return
			}
			if sub := nd.sub; sub != nil {
				que = append(que, sub)
			}
		}
		que = que[1:]
	}
}

// Update recomputes the local matrices of n and then
// its global matrices, using the global matrices of
// its parent as they currently are.
// On failure, no matrix of n is changed.
func (n *Node) Update() error {
	err := n.tf.UpdateWith(func(m transform.Matrices) error {
		if n.parent == nil {
			n.model, n.normal, n.view = m.Model, m.Normal, m.View
			return nil
		}
		var model, normal, rigid, view linear.M4
		model.Mul(&n.parent.model, &m.Model)
		normal.Mul(&n.parent.normal, &m.Normal)
		// The view matrix is the inverse of the global
		// model matrix without n's own scale.
		rigid.Mul(&n.parent.model, &m.Rigid)
		if !view.Invert(&rigid) {
			return errors.Wrap(ErrSingularMatrix, "global view")
		}
		n.model, n.normal, n.view = model, normal, view
		return nil
	})
	return errors.Wrapf(err, "node %v", n)
}

// UpdateTree calls Update on n and then on each of its
// descendants, ancestors first.
// It stops at the first failure.
func (n *Node) UpdateTree() (err error) {
	if err = n.Update(); err != nil {
		return
	}
	n.Until(func(nd *Node) bool {
		err = nd.Update()
		return err == nil
	})
	return
}

// Model returns the local model matrix.
func (n *Node) Model() linear.M4 { return n.tf.Model() }

// Normal returns the local normal matrix.
func (n *Node) Normal() linear.M4 { return n.tf.Normal() }

// View returns the local view matrix.
func (n *Node) View() linear.M4 { return n.tf.View() }

// ModelGlobal returns the global model matrix.
func (n *Node) ModelGlobal() linear.M4 { return n.model }

// NormalGlobal returns the global normal matrix.
func (n *Node) NormalGlobal() linear.M4 { return n.normal }

// ViewGlobal returns the global view matrix.
func (n *Node) ViewGlobal() linear.M4 { return n.view }

// PositionGlobal returns the world position of n's
// origin.
func (n *Node) PositionGlobal() linear.V3 {
	p := linear.MulM4V4(&n.model, linear.V4{3: 1})
	return linear.V3{p[0], p[1], p[2]}
}

func (n *Node) String() string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("%p", n)
}
