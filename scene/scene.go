// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package scene provides functionality for creating and
// updating scene graphs.
package scene

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gviegas/physical/node"
)

// Scene defines a scene graph.
// It owns a set of root nodes and propagates matrix
// updates through them, parents before children.
// The world itself has identity global matrices, so
// the global matrices of a root are its local ones.
type Scene struct {
	roots     []*node.Node
	observers []func(*node.Node)
	log       *slog.Logger
	strict    bool
	frame     uint64
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the logger used by the scene.
// The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scene) { s.log = l }
}

// WithStrict sets whether Update must stop at the
// first node that fails to update.
func WithStrict(strict bool) Option {
	return func(s *Scene) { s.strict = strict }
}

// New creates an initialized scene.
func New(opts ...Option) *Scene { return new(Scene).Init(opts...) }

// Init initializes a scene.
func (s *Scene) Init(opts ...Option) *Scene {
	*s = Scene{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scene) logger() *slog.Logger {
	if s.log == nil {
		return slog.Default()
	}
	return s.log
}

// Insert makes n a root of s.
// n is removed from its current parent, if any.
func (s *Scene) Insert(n *node.Node) {
	n.Remove()
	for _, r := range s.roots {
		if r == n {
			return
		}
	}
	s.roots = append(s.roots, n)
}

// Remove removes n from s.
// If n is a root, it stops being one. Otherwise n is
// removed from its parent. In both cases the
// descendants of n go along with it.
// It returns false if n is not in s.
func (s *Scene) Remove(n *node.Node) bool {
	if !s.Contains(n) {
		return false
	}
	if n.Parent() != nil {
		n.Remove()
		return true
	}
	for i, r := range s.roots {
		if r == n {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether n is in s.
func (s *Scene) Contains(n *node.Node) bool {
	r := n.Root()
	for _, x := range s.roots {
		if x == r {
			return true
		}
	}
	return false
}

// prune drops roots that were given a parent
// since they were inserted.
func (s *Scene) prune() {
	roots := s.roots[:0]
	for _, r := range s.roots {
		if r.Parent() == nil {
			roots = append(roots, r)
		}
	}
	for i := len(roots); i < len(s.roots); i++ {
		s.roots[i] = nil
	}
	s.roots = roots
}

// Roots returns the root nodes of s.
func (s *Scene) Roots() []*node.Node {
	s.prune()
	return append([]*node.Node(nil), s.roots...)
}

// Walk calls f for every node in s, in update order:
// roots first, then their descendants, ancestors
// always before descendants. If f returns false,
// Walk returns immediately.
// The scene graph must not be changed until this
// method returns.
func (s *Scene) Walk(f func(*node.Node) bool) {
	s.prune()
	que := append([]*node.Node(nil), s.roots...)
	for len(que) > 0 {
		n := que[0]
		que = que[1:]
		if !f(n) {
			return
		}
		que = append(que, n.Children()...)
	}
}

// Len returns the number of nodes in s.
func (s *Scene) Len() (n int) {
	s.Walk(func(*node.Node) bool {
		n++
		return true
	})
	return
}

// Find returns the first node named name, in update
// order, or nil if there is none.
func (s *Scene) Find(name string) (n *node.Node) {
	s.Walk(func(nd *node.Node) bool {
		if nd.Name == name {
			n = nd
			return false
		}
		return true
	})
	return
}

// Observe registers f to be called after each node
// is successfully updated.
// f may remove nodes from s; nodes removed this way
// are skipped for the rest of the pass.
func (s *Scene) Observe(f func(*node.Node)) {
	s.observers = append(s.observers, f)
}

// Frame returns the number of calls to Advance.
func (s *Scene) Frame() uint64 { return s.frame }

// NodeError is a failure to update a single node.
type NodeError struct {
	Node *node.Node
	Err  error
}

func (e NodeError) Error() string { return e.Err.Error() }

// Unwrap returns e.Err.
func (e NodeError) Unwrap() error { return e.Err }

// FrameError lists the nodes that failed to update
// during one pass.
type FrameError struct {
	Frame  uint64
	Failed []NodeError
	// Skipped is the number of descendants of failed
	// nodes that were not updated.
	Skipped int
}

func (e *FrameError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scene: frame %d: %d node(s) failed", e.Frame, len(e.Failed))
	if e.Skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", e.Skipped)
	}
	for _, f := range e.Failed {
		b.WriteString("; ")
		b.WriteString(f.Error())
	}
	return b.String()
}

// Unwrap returns the errors of every failed node.
func (e *FrameError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i := range e.Failed {
		errs[i] = e.Failed[i]
	}
	return errs
}

// Update updates every node of s, parents before
// children.
// Nodes are collected when Update is called; nodes
// that are removed from s during the pass (by an
// observer) are skipped.
// In strict mode, Update returns the first failure.
// Otherwise the subtree of a failing node is left as
// it was and Update goes on with the remaining nodes,
// returning a *FrameError at the end.
func (s *Scene) Update() error {
	var nodes []*node.Node
	s.Walk(func(n *node.Node) bool {
		nodes = append(nodes, n)
		return true
	})

	var ferr *FrameError
	var failed map[*node.Node]bool
	for _, n := range nodes {
		if !s.Contains(n) {
			continue
		}
		if p := n.Parent(); p != nil && failed[p] {
			failed[n] = true
			ferr.Skipped++
			continue
		}
		if err := n.Update(); err != nil {
			if s.strict {
				return err
			}
			s.logger().Warn("node not updated", "frame", s.frame, "node", n.String(), "err", err)
			if ferr == nil {
				ferr = &FrameError{Frame: s.frame}
				failed = make(map[*node.Node]bool)
			}
			ferr.Failed = append(ferr.Failed, NodeError{n, err})
			failed[n] = true
			continue
		}
		for _, f := range s.observers {
			f(n)
		}
	}
	if ferr != nil {
		return ferr
	}
	return nil
}

// Advance updates s and moves to the next frame.
// The frame counter is incremented even if Update
// fails.
func (s *Scene) Advance() error {
	start := time.Now()
	err := s.Update()
	s.logger().Debug("frame", "frame", s.frame, "roots", len(s.roots), "elapsed", time.Since(start), "ok", err == nil)
	s.frame++
	return err
}
