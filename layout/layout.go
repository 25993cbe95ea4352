// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package layout loads scene layouts from YAML, TOML
// or glTF files.
//
// A layout lists nodes with their initial position,
// rotation and scale, their parent and, optionally,
// the tracked rigid body that drives them:
//
//	nodes:
//	  - name: arena
//	    rotation: [0, 90, 0]   # Euler degrees; 4 values for a quaternion
//	    scale: 1               # or [x, y, z]
//	    body: Arena
//	  - name: marker
//	    parent: arena
//	    position: [1, 0, 0]
package layout

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gviegas/physical/node"
	"github.com/gviegas/physical/scene"
	"github.com/gviegas/physical/spatial"
	"github.com/gviegas/physical/tracking"
	"github.com/gviegas/physical/transform"
)

var (
	// ErrUnnamed means that a node has no name.
	ErrUnnamed = errors.New("layout: unnamed node")
	// ErrDuplicateName means that two nodes have the
	// same name.
	ErrDuplicateName = errors.New("layout: duplicate node name")
	// ErrUnknownParent means that a node refers to a
	// parent that is not in the layout.
	ErrUnknownParent = errors.New("layout: unknown parent")
	// ErrFormat means that the file format is not
	// supported.
	ErrFormat = errors.New("layout: unsupported format")
)

// Format is the encoding of a layout.
type Format int

// Formats.
const (
	YAML Format = iota
	TOML
	// GLTF is either the JSON or the binary form.
	GLTF
)

// FormatOf returns the format that the extension of
// path indicates.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	case ".gltf", ".glb":
		return GLTF, nil
	}
	return 0, errors.Wrapf(ErrFormat, "%q", path)
}

// Node describes a single node.
type Node struct {
	Name     string
	Parent   string
	Body     string
	Position spatial.Position
	Rotation spatial.Rotation
	Scale    spatial.Scale
}

// Layout is a decoded layout.
type Layout struct {
	Nodes []Node
}

// rawNode is what decoders fill in.
// Numeric fields are left untyped since they can be
// either a scalar or a list.
type rawNode struct {
	Name     string `yaml:"name" toml:"name"`
	Parent   string `yaml:"parent" toml:"parent"`
	Body     string `yaml:"body" toml:"body"`
	Position any    `yaml:"position" toml:"position"`
	Rotation any    `yaml:"rotation" toml:"rotation"`
	Scale    any    `yaml:"scale" toml:"scale"`
}

type rawLayout struct {
	Nodes []rawNode `yaml:"nodes" toml:"nodes"`
}

// Load reads the layout file at path.
func Load(path string) (*Layout, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if f == GLTF {
		l, err := openGLTF(path)
		return l, errors.Wrapf(err, "%s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "layout")
	}
	l, err := Decode(bytes.NewReader(b), f)
	return l, errors.Wrapf(err, "%s", path)
}

// Decode reads a layout in the given format from r.
func Decode(r io.Reader, f Format) (*Layout, error) {
	if f == GLTF {
		return decodeGLTF(r)
	}
	var raw rawLayout
	switch f {
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "layout: yaml")
		}
	case TOML:
		if err := toml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "layout: toml")
		}
	default:
		return nil, errors.Wrapf(ErrFormat, "%d", f)
	}

	l := &Layout{Nodes: make([]Node, 0, len(raw.Nodes))}
	for i, rn := range raw.Nodes {
		n, err := rn.convert()
		if err != nil {
			return nil, errors.Wrapf(err, "layout: node %d (%q)", i, rn.Name)
		}
		l.Nodes = append(l.Nodes, n)
	}
	return l, nil
}

func (rn *rawNode) convert() (n Node, err error) {
	n = Node{
		Name:     rn.Name,
		Parent:   rn.Parent,
		Body:     rn.Body,
		Rotation: spatial.EulerDegrees{},
		Scale:    spatial.Uniform(1),
	}
	if rn.Position != nil {
		v, err := floats(rn.Position)
		if err != nil {
			return n, errors.Wrap(err, "position")
		}
		if len(v) != 3 {
			return n, errors.Errorf("position: have %d components, want 3", len(v))
		}
		n.Position = spatial.Position{X: v[0], Y: v[1], Z: v[2]}
	}
	if rn.Rotation != nil {
		v, err := floats(rn.Rotation)
		if err != nil {
			return n, errors.Wrap(err, "rotation")
		}
		if n.Rotation, err = spatial.ParseRotation(v); err != nil {
			return n, err
		}
	}
	if rn.Scale != nil {
		v, err := floats(rn.Scale)
		if err != nil {
			return n, errors.Wrap(err, "scale")
		}
		if n.Scale, err = spatial.ParseScale(v); err != nil {
			return n, err
		}
	}
	return n, nil
}

// floats converts a decoded scalar or list of numbers.
func floats(x any) ([]float64, error) {
	switch x := x.(type) {
	case []any:
		v := make([]float64, len(x))
		for i := range x {
			f, err := number(x[i])
			if err != nil {
				return nil, err
			}
			v[i] = f
		}
		return v, nil
	default:
		f, err := number(x)
		if err != nil {
			return nil, err
		}
		return []float64{f}, nil
	}
}

func number(x any) (float64, error) {
	switch x := x.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	}
	return 0, errors.Errorf("%v (%T) is not a number", x, x)
}

// Build creates the nodes of l, inserts the root nodes
// into sc and, if b is not nil, binds the nodes that
// name a body.
// Parents may be listed after their children.
// Nothing is inserted into sc if Build fails.
// The created nodes are returned in layout order; their
// global matrices are valid after the next update of sc.
func (l *Layout) Build(sc *scene.Scene, b *tracking.Binder) ([]*node.Node, error) {
	nodes := make([]*node.Node, len(l.Nodes))
	byName := make(map[string]*node.Node, len(l.Nodes))
	for i, ln := range l.Nodes {
		if ln.Name == "" {
			return nil, errors.Wrapf(ErrUnnamed, "node %d", i)
		}
		if _, dup := byName[ln.Name]; dup {
			return nil, errors.Wrapf(ErrDuplicateName, "%q", ln.Name)
		}
		n, err := node.New(
			transform.WithPosition(ln.Position),
			transform.WithRotation(ln.Rotation),
			transform.WithScale(ln.Scale),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "layout: node %q", ln.Name)
		}
		n.Name = ln.Name
		nodes[i] = n
		byName[ln.Name] = n
	}
	for i, ln := range l.Nodes {
		if ln.Parent == "" {
			continue
		}
		p, ok := byName[ln.Parent]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownParent, "%q (parent of %q)", ln.Parent, ln.Name)
		}
		if err := nodes[i].SetParent(p); err != nil {
			return nil, errors.Wrap(err, "layout")
		}
	}
	for i, ln := range l.Nodes {
		if ln.Parent == "" {
			sc.Insert(nodes[i])
		}
		if ln.Body != "" && b != nil {
			b.Bind(ln.Body, nodes[i])
		}
	}
	return nodes, nil
}
