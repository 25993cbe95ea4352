// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package layout

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/gviegas/physical/spatial"
)

// ErrMatrixNode means that a glTF node has its
// transform given as a matrix rather than as
// translation, rotation and scale.
var ErrMatrixNode = errors.New("layout: gltf node with matrix transform")

// decodeGLTF reads the node hierarchy of a glTF
// document. Meshes and every other resource are
// ignored.
// A node names its tracked body with a "body" string
// in its extras.
func decodeGLTF(r io.Reader) (*Layout, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "layout: gltf")
	}
	return fromGLTF(doc)
}

// openGLTF is like decodeGLTF but resolves external
// buffers relative to path.
func openGLTF(path string) (*Layout, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "layout: gltf")
	}
	return fromGLTF(doc)
}

func fromGLTF(doc *gltf.Document) (*Layout, error) {
	names := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		names[i] = n.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("node%d", i)
		}
	}
	parents := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) >= len(doc.Nodes) {
				return nil, errors.Errorf("layout: gltf node %q: child %d out of range", names[i], c)
			}
			parents[c] = names[i]
		}
	}

	l := &Layout{Nodes: make([]Node, len(doc.Nodes))}
	for i, n := range doc.Nodes {
		if n.Matrix != gltf.DefaultMatrix {
			return nil, errors.Wrapf(ErrMatrixNode, "%q", names[i])
		}
		t, r, s := n.Translation, n.Rotation, n.Scale
		ln := Node{
			Name:     names[i],
			Parent:   parents[i],
			Position: spatial.Position{X: float64(t[0]), Y: float64(t[1]), Z: float64(t[2])},
			Rotation: spatial.Quaternion{X: float64(r[0]), Y: float64(r[1]), Z: float64(r[2]), W: float64(r[3])},
		}
		if s[0] == s[1] && s[1] == s[2] {
			ln.Scale = spatial.Uniform(float64(s[0]))
		} else {
			ln.Scale = spatial.NonUniform(float64(s[0]), float64(s[1]), float64(s[2]))
		}
		if x, ok := n.Extras.(map[string]interface{}); ok {
			if b, ok := x["body"].(string); ok {
				ln.Body = b
			}
		}
		l.Nodes[i] = ln
	}
	return l, nil
}
