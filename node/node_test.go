// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package node

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/physical/linear"
	"github.com/gviegas/physical/spatial"
	"github.com/gviegas/physical/transform"
)

const tol = 1e-6

// assertV3 checks that have is within tol of want.
func assertV3(t *testing.T, want, have linear.V3) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], have[:], tol)
}

// graph is for testing only.
// n.Name must have been set in order to produce
// meaningful output.
func (n *Node) graph() string {
	const s = `
            (%5s)
               ^
               |
(%5s) <-> (%5s) <-> (%5s)
               |
               v
            (%5s)
`
	nd := [5]*Node{n.parent, n.prev, n, n.next, n.sub}
	nm := [5]string{}
	for i := range nd {
		if nd[i] != nil {
			nm[i] = nd[i].Name
		} else {
			nm[i] = "<nil>"
		}
	}
	return fmt.Sprintf(s, nm[0], nm[1], nm[2], nm[3], nm[4])
}

// logGraph outputs the scene graph whose root is n.
func (n *Node) logGraph(t *testing.T) {
	s := n.graph()
	n.ForEach(func(n *Node) {
		s += n.graph()
	})
	t.Log(s)
}

// testInsert calls n.Insert and checks that it works
// as expected.
func (n *Node) testInsert(sub *Node, t *testing.T) {
	t.Helper()
	if err := n.Insert(sub); err != nil {
		t.Fatalf("n.Insert: unexpected error: %v", err)
	}
	if sub.parent != n {
		t.Fatalf("n.Insert: sub.parent\nhave %v\nwant %v\n%s", sub.parent, n, sub.graph())
	}
	if c := n.Children(); c[len(c)-1] != sub {
		t.Fatalf("n.Insert: last child\nhave %v\nwant %v\n%s", c[len(c)-1], sub, n.graph())
	}
}

// testRemove calls n.Remove and checks that it works
// as expected.
func (n *Node) testRemove(t *testing.T) {
	t.Helper()
	anc := n.parent
	n.Remove()
	if n.next != nil {
		t.Fatalf("n.Remove: n.next\nhave %v\nwant nil\n%s", n.next, n.graph())
	}
	if n.prev != nil {
		t.Fatalf("n.Remove: n.prev\nhave %v\nwant nil\n%s", n.prev, n.graph())
	}
	if n.parent != nil {
		t.Fatalf("n.Remove: n.parent\nhave %v\nwant nil\n%s", n.parent, n.graph())
	}
	if anc != nil {
		for _, c := range anc.Children() {
			if c == n {
				t.Fatalf("n.Remove: n still a child of\n%s", anc.graph())
			}
		}
	}
}

func newNode(t *testing.T, name string, opts ...transform.Option) *Node {
	t.Helper()
	n, err := New(opts...)
	require.NoError(t, err)
	n.Name = name
	return n
}

func names(s []*Node) (nm []string) {
	for _, n := range s {
		nm = append(nm, n.Name)
	}
	return
}

func TestNode(t *testing.T) {
	n1 := newNode(t, "n1")
	n2 := newNode(t, "n2")
	n3 := newNode(t, "n3")
	n4 := newNode(t, "n4")
	n5 := newNode(t, "n5")

	n1.testInsert(n2, t)
	n1.testInsert(n3, t)
	n1.testInsert(n4, t)
	n3.testInsert(n5, t)
	n1.logGraph(t)
	assert.Equal(t, []string{"n2", "n3", "n4"}, names(n1.Children()))
	assert.Equal(t, 3, n1.Len())
	assert.Equal(t, 1, n3.Len())
	n2.testRemove(t)
	n3.testRemove(t)
	n1.testRemove(t)
	n5.testRemove(t)
	n4.testRemove(t)
	n1.logGraph(t)
	n3.logGraph(t)
	assert.Empty(t, n1.Children())
	assert.Zero(t, n1.Len())

	n5.testInsert(n4, t)
	n4.testInsert(n3, t)
	n3.testInsert(n2, t)
	n2.testInsert(n1, t)
	n5.logGraph(t)
	assert.Same(t, n5, n1.Root())
	assert.True(t, n5.IsAncestor(n1))
	assert.False(t, n1.IsAncestor(n5))
	n1.testRemove(t)
	n2.testRemove(t)
	n3.testRemove(t)
	n4.testRemove(t)
	n5.logGraph(t)
	n1.logGraph(t)

	n1.testInsert(n2, t)
	n2.testInsert(n3, t)
	n1.testInsert(n3, t)
	n1.logGraph(t)
	assert.Equal(t, []string{"n2", "n3"}, names(n1.Children()))
	assert.Empty(t, n2.Children())
	n2.testRemove(t)
	n3.testInsert(n2, t)
	n1.logGraph(t)
}

func TestCyclicParent(t *testing.T) {
	n1 := newNode(t, "n1")
	n2 := newNode(t, "n2")
	n3 := newNode(t, "n3")
	require.NoError(t, n1.Insert(n2))
	require.NoError(t, n2.Insert(n3))

	for _, c := range [][2]*Node{{n1, n1}, {n1, n2}, {n1, n3}, {n2, n3}} {
		err := c[0].SetParent(c[1])
		assert.True(t, errors.Is(err, ErrCyclicParent), "%v under %v: %v", c[0], c[1], err)
	}
	// Failed calls change nothing.
	assert.Nil(t, n1.Parent())
	assert.Same(t, n1, n2.Parent())
	assert.Same(t, n2, n3.Parent())

	// Setting the current parent is a no-op.
	require.NoError(t, n3.SetParent(n2))
	assert.Equal(t, []*Node{n3}, n2.Children())
}

func TestForEachOrder(t *testing.T) {
	r := newNode(t, "r")
	a := newNode(t, "a")
	b := newNode(t, "b")
	a1 := newNode(t, "a1")
	b1 := newNode(t, "b1")
	a11 := newNode(t, "a11")
	r.testInsert(a, t)
	r.testInsert(b, t)
	a.testInsert(a1, t)
	b.testInsert(b1, t)
	a1.testInsert(a11, t)

	var seen []string
	r.ForEach(func(n *Node) { seen = append(seen, n.Name) })
	assert.Equal(t, []string{"a", "b", "a1", "b1", "a11"}, seen)

	seen = seen[:0]
	r.Until(func(n *Node) bool {
		seen = append(seen, n.Name)
		return n != b
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestDestroy(t *testing.T) {
	p := newNode(t, "p")
	n := newNode(t, "n")
	c1 := newNode(t, "c1")
	c2 := newNode(t, "c2")
	p.testInsert(n, t)
	n.testInsert(c1, t)
	n.testInsert(c2, t)

	n.Destroy()
	assert.Nil(t, n.Parent())
	assert.Empty(t, n.Children())
	assert.Empty(t, p.Children())
	assert.Nil(t, c1.Parent())
	assert.Nil(t, c2.Parent())
	assert.Nil(t, c1.next)
	assert.Nil(t, c2.prev)
}

func assertM4(t *testing.T, want, have linear.M4) {
	t.Helper()
	assert.Truef(t, linear.Equal(&want, &have, tol), "have %v\nwant %v", have, want)
}

func TestRootGlobals(t *testing.T) {
	n := newNode(t, "n",
		transform.WithPosition(spatial.Position{X: 1, Y: 2, Z: 3}),
		transform.WithRotation(spatial.EulerDegrees{X: 10, Y: 20, Z: 30}),
		transform.WithScale(spatial.NonUniform(1, 2, 3)),
	)
	// New computes the initial globals.
	assertM4(t, n.Model(), n.ModelGlobal())

	for _, s := range []spatial.Scale{spatial.Uniform(1), spatial.Uniform(4), spatial.NonUniform(0.5, 2, 8)} {
		n.SetScale(s)
		n.SetRotation(spatial.Quaternion{X: 0.3, Y: 0.1, Z: -0.2, W: 0.9})
		require.NoError(t, n.Update())
		assert.Equal(t, n.Model(), n.ModelGlobal())
		assert.Equal(t, n.Normal(), n.NormalGlobal())
		assert.Equal(t, n.View(), n.ViewGlobal())
	}
}

func TestChildGlobals(t *testing.T) {
	p := newNode(t, "p",
		transform.WithPosition(spatial.Position{X: -3, Y: 5, Z: 1}),
		transform.WithRotation(spatial.EulerDegrees{X: 0, Y: 45, Z: 10}),
		transform.WithScale(spatial.NonUniform(2, 1, 0.5)),
	)
	c := newNode(t, "c",
		transform.WithPosition(spatial.Position{X: 1, Y: 0, Z: 2}),
		transform.WithRotation(spatial.Quaternion{X: 0, Y: 0, Z: 1, W: 1}),
		transform.WithScale(spatial.Uniform(3)),
	)
	p.testInsert(c, t)
	require.NoError(t, p.UpdateTree())

	pm, pn := p.ModelGlobal(), p.NormalGlobal()
	cm, cn, cr := c.Model(), c.Normal(), c.Transform().Rigid()
	var model, normal, view linear.M4
	model.Mul(&pm, &cm)
	normal.Mul(&pn, &cn)
	view.Mul(&pm, &cr)
	require.True(t, view.Invert(&view))

	assertM4(t, model, c.ModelGlobal())
	assertM4(t, normal, c.NormalGlobal())
	assertM4(t, view, c.ViewGlobal())

	// The global normal matrix is the inverse-transpose
	// of the global model matrix.
	var it linear.M4
	it.Transpose(&model)
	require.True(t, it.Invert(&it))
	assertM4(t, it, c.NormalGlobal())

	// The child's own scale does not affect its view.
	c.SetScale(spatial.Uniform(0.1))
	require.NoError(t, c.Update())
	assertM4(t, view, c.ViewGlobal())
	have := c.ModelGlobal()
	assert.False(t, linear.Equal(&model, &have, tol))
}

func TestReparent(t *testing.T) {
	a := newNode(t, "a", transform.WithPosition(spatial.Position{X: 10, Y: 0, Z: 0}))
	b := newNode(t, "b",
		transform.WithPosition(spatial.Position{X: 0, Y: -4, Z: 0}),
		transform.WithRotation(spatial.EulerDegrees{Z: 90}),
	)
	c := newNode(t, "c", transform.WithPosition(spatial.Position{X: 1, Y: 1, Z: 1}))
	a.testInsert(c, t)
	require.NoError(t, a.UpdateTree())
	require.NoError(t, b.UpdateTree())
	before := c.ModelGlobal()

	require.NoError(t, c.SetParent(b))
	// Nothing changes until the next update.
	assert.Equal(t, before, c.ModelGlobal())

	require.NoError(t, c.Update())
	bm, am, cm := b.ModelGlobal(), a.ModelGlobal(), c.Model()
	var want, old linear.M4
	want.Mul(&bm, &cm)
	old.Mul(&am, &cm)
	assertM4(t, want, c.ModelGlobal())
	have := c.ModelGlobal()
	assert.False(t, linear.Equal(&old, &have, tol))

	// Detached nodes are roots again.
	require.NoError(t, c.SetParent(nil))
	require.NoError(t, c.Update())
	assert.Equal(t, c.Model(), c.ModelGlobal())
}

func TestPositionGlobal(t *testing.T) {
	root := newNode(t, "root")
	child := newNode(t, "child", transform.WithPosition(spatial.Position{X: 1, Y: 0, Z: 0}))
	root.testInsert(child, t)

	require.NoError(t, root.UpdateTree())
	assertV3(t, linear.V3{1, 0, 0}, child.PositionGlobal())

	root.SetPosition(spatial.Position{X: 5, Y: 0, Z: 0})
	require.NoError(t, root.UpdateTree())
	assertV3(t, linear.V3{6, 0, 0}, child.PositionGlobal())

	// Rotation and scale of the parent apply to the
	// child's position.
	root.SetRotation(spatial.EulerDegrees{Z: 90})
	root.SetScale(spatial.Uniform(2))
	require.NoError(t, root.UpdateTree())
	assertV3(t, linear.V3{5, 2, 0}, child.PositionGlobal())
}

func TestUpdateAtomic(t *testing.T) {
	p := newNode(t, "p", transform.WithPosition(spatial.Position{X: 1, Y: 2, Z: 3}))
	c := newNode(t, "c")
	p.testInsert(c, t)
	require.NoError(t, p.UpdateTree())
	model, normal, view := c.ModelGlobal(), c.NormalGlobal(), c.ViewGlobal()
	local := c.Transform().Matrices()

	c.SetScale(spatial.NonUniform(1, 0, 1))
	err := c.Update()
	assert.True(t, errors.Is(err, ErrSingularMatrix), "%v", err)
	assert.Contains(t, err.Error(), "node c")
	assert.Equal(t, model, c.ModelGlobal())
	assert.Equal(t, normal, c.NormalGlobal())
	assert.Equal(t, view, c.ViewGlobal())
	assert.Equal(t, local, c.Transform().Matrices())

	// A failing parent stops UpdateTree.
	c.SetScale(spatial.Uniform(1))
	p.SetScale(spatial.Uniform(0))
	c.SetPosition(spatial.Position{X: 9, Y: 9, Z: 9})
	err = p.UpdateTree()
	assert.True(t, errors.Is(err, ErrSingularMatrix))
	assert.Equal(t, local, c.Transform().Matrices())
}
