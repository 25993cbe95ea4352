// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package tracking applies rigid body poses from a
// motion tracking system to scene nodes.
//
// How samples are acquired is up to the Source
// implementation; this package only defines what a
// sample is and how it is written into nodes.
package tracking

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/gviegas/physical/node"
	"github.com/gviegas/physical/scene"
	"github.com/gviegas/physical/spatial"
)

// Sample is the pose of a rigid body at some instant.
type Sample struct {
	// Body is the name of the rigid body.
	Body     string
	Position spatial.Position
	// Rotation may be nil, in which case only the
	// position is applied.
	Rotation spatial.Rotation
}

// Frame is the set of samples of a single instant.
type Frame []Sample

// Source produces frames.
type Source interface {
	// Next blocks until the next frame is available.
	// It returns io.EOF when no more frames will
	// be produced.
	Next(ctx context.Context) (Frame, error)
}

// SliceSource is a Source that replays recorded frames.
type SliceSource struct {
	Frames []Frame
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.Frames) == 0 {
		return nil, io.EOF
	}
	f := s.Frames[0]
	s.Frames = s.Frames[1:]
	return f, nil
}

type binding struct {
	node   *node.Node
	offset spatial.Rotation
}

// Binder maps rigid body names to nodes.
type Binder struct {
	bodies map[string]*binding
	log    *slog.Logger
}

// NewBinder creates an empty Binder.
// A nil log means slog.Default().
func NewBinder(log *slog.Logger) *Binder {
	if log == nil {
		log = slog.Default()
	}
	return &Binder{bodies: make(map[string]*binding), log: log}
}

// Bind makes samples of body be written into n.
// A previous binding of body is replaced.
func (b *Binder) Bind(body string, n *node.Node) {
	b.bodies[body] = &binding{node: n}
}

// Unbind removes the binding of body.
func (b *Binder) Unbind(body string) { delete(b.bodies, body) }

// Node returns the node bound to body, if any.
func (b *Binder) Node(body string) (*node.Node, bool) {
	x, ok := b.bodies[body]
	if !ok {
		return nil, false
	}
	return x.node, true
}

// Bodies returns the number of bound bodies.
func (b *Binder) Bodies() int { return len(b.bodies) }

// Offset sets a fixed rotation that is applied after
// every sampled rotation of body.
// Offsets are useful to correct a constant
// misalignment between the tracking system and the
// display, such as a yaw found during calibration.
// A nil rot removes the offset.
func (b *Binder) Offset(body string, rot spatial.Rotation) error {
	x, ok := b.bodies[body]
	if !ok {
		return errors.Errorf("tracking: body %q is not bound", body)
	}
	x.offset = rot
	return nil
}

// Apply writes the samples of f into their nodes.
// It does not update the nodes; that is left to the
// scene's propagation pass.
// Samples of unknown bodies are ignored. Samples with
// an invalid quaternion, as reported for bodies that
// the tracking system has lost, are ignored as well,
// so that the node keeps its last pose.
// It returns the number of samples applied.
func (b *Binder) Apply(f Frame) (applied int) {
	for _, s := range f {
		x, ok := b.bodies[s.Body]
		if !ok {
			b.log.Debug("unbound body", "body", s.Body)
			continue
		}
		if q, ok := s.Rotation.(spatial.Quaternion); ok && !q.Valid() {
			b.log.Warn("invalid rotation sample", "body", s.Body, "rotation", q.String())
			continue
		}
		x.node.SetPosition(s.Position)
		switch {
		case s.Rotation == nil:
		case x.offset != nil:
			x.node.SetRotation(spatial.Compose(x.offset, s.Rotation))
		default:
			x.node.SetRotation(s.Rotation)
		}
		applied++
	}
	return
}

// Pump drives sc from src: for each frame produced by
// src, it applies the frame through b and then calls
// sc.Advance.
// It returns nil when src is exhausted, ctx.Err() when
// ctx ends, or the first error from src or sc.
// sc's errors that only concern some of its nodes
// (*scene.FrameError) are logged instead.
func Pump(ctx context.Context, src Source, b *Binder, sc *scene.Scene) error {
	for {
		f, err := src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "tracking: next frame")
		}
		n := b.Apply(f)
		if err := sc.Advance(); err != nil {
			var ferr *scene.FrameError
			if !errors.As(err, &ferr) {
				return err
			}
			b.log.Warn("frame partially updated", "frame", ferr.Frame, "failed", len(ferr.Failed))
		}
		b.log.Debug("frame applied", "samples", len(f), "applied", n)
	}
}
