package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddReturnsMinimalDelta(t *testing.T) {
	k := NewDotKernel[string]()
	delta, err := k.Add("n1", "x")
	assert.NoError(t, err)

	d := Dot{ID: "n1", Counter: 1}
	assert.Equal(t, 1, delta.Len())
	v, ok := delta.Get(d)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	assert.True(t, delta.Context().DotIn(d))
	assert.Equal(t, int64(1), delta.Context().Max("n1"))

	// the kernel itself holds the write too
	v, ok = k.Get(d)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestKernelAnchoring(t *testing.T) {
	k := NewDotKernel[string]()
	_, _ = k.Add("n1", "x")
	_, _ = k.Add("n2", "y")
	_, _ = k.Add("n1", "z")
	_ = k.RemoveValue("y")

	for _, d := range k.Dots() {
		assert.True(t, k.Context().DotIn(d))
	}
}

func TestObservedRemoveViaJoin(t *testing.T) {
	// k1 holds a:1 -> "x"; k2 has observed and removed a:1
	k1 := NewDotKernel[string]()
	_, err := k1.Add("a", "x")
	assert.NoError(t, err)

	k2 := NewDotKernel[string]()
	assert.NoError(t, k2.Context().InsertDot("a:1", true))

	k1.Join(k2)
	assert.Equal(t, 0, k1.Len())
	assert.True(t, k1.Context().DotIn(Dot{ID: "a", Counter: 1}))
}

func TestCausalNonResurrection(t *testing.T) {
	// k1 observed a:1..a:3 and removed them all
	k1 := NewDotKernel[string]()
	for _, s := range []string{"a:1", "a:2", "a:3"} {
		assert.NoError(t, k1.Context().InsertDot(s, false))
	}
	k1.Context().Compact()

	// k2 still holds a:3
	k2 := NewDotKernel[string]()
	_, _ = k2.Add("a", "u")
	_, _ = k2.Add("a", "v")
	_, _ = k2.Add("a", "x")
	_, _ = k2.RemoveDot("a:1")
	_, _ = k2.RemoveDot("a:2")

	k1.Join(k2)
	assert.Equal(t, 0, k1.Len())
}

func TestRemoveDot(t *testing.T) {
	k := NewDotKernel[string]()
	_, _ = k.Add("n1", "x")
	_, _ = k.Add("n1", "y")

	delta, err := k.RemoveDot("n1:1")
	assert.NoError(t, err)
	assert.Equal(t, 1, k.Len())
	assert.Equal(t, 0, delta.Len())
	assert.True(t, delta.Context().DotIn(Dot{ID: "n1", Counter: 1}))
	// the tombstone stays in the kernel's own context
	assert.True(t, k.Context().DotIn(Dot{ID: "n1", Counter: 1}))

	// removing a dot that is only a tombstone is a silent no-op
	delta, err = k.RemoveDot("n1:1")
	assert.NoError(t, err)
	assert.False(t, delta.Context().DotIn(Dot{ID: "n1", Counter: 1}))

	_, err = k.RemoveDot("garbage")
	assert.Error(t, err)
}

func TestRemoveValue(t *testing.T) {
	k := NewDotKernel[string]()
	_, _ = k.Add("n1", "x")
	_, _ = k.Add("n2", "x")
	_, _ = k.Add("n1", "y")

	delta := k.RemoveValue("x")
	assert.Equal(t, []string{"y"}, k.Values())
	assert.True(t, delta.Context().DotIn(Dot{ID: "n1", Counter: 1}))
	assert.True(t, delta.Context().DotIn(Dot{ID: "n2", Counter: 1}))
	assert.False(t, delta.Context().DotIn(Dot{ID: "n1", Counter: 2}))
}

func TestRemoveAll(t *testing.T) {
	k := NewDotKernel[string]()
	_, _ = k.Add("n1", "x")
	_, _ = k.Add("n2", "y")

	delta := k.RemoveAll()
	assert.Equal(t, 0, k.Len())
	assert.Equal(t, 0, delta.Len())
	assert.True(t, delta.Context().DotIn(Dot{ID: "n1", Counter: 1}))
	assert.True(t, delta.Context().DotIn(Dot{ID: "n2", Counter: 1}))
}

func TestKernelJoinLatticeLaws(t *testing.T) {
	mk := func(src string, vals ...string) *DotKernel[string] {
		k := NewDotKernel[string]()
		for _, v := range vals {
			_, _ = k.Add(src, v)
		}
		return k
	}
	a := mk("a", "1", "2")
	_, _ = a.RemoveDot("a:1")
	b := mk("b", "7")
	c := mk("c", "x", "y")
	_ = c.RemoveValue("x")

	// idempotent
	aa := a.Clone()
	aa.Join(a.Clone())
	assert.Equal(t, a.String(), aa.String())

	// self-join leaves the kernel unchanged
	sj := a.Clone()
	sj.Join(sj)
	assert.Equal(t, a.String(), sj.String())

	// commutative
	ab := a.Clone()
	ab.Join(b.Clone())
	ba := b.Clone()
	ba.Join(a.Clone())
	assert.Equal(t, ab.String(), ba.String())

	// associative
	abc1 := a.Clone()
	abc1.Join(b.Clone())
	abc1.Join(c.Clone())
	bc := b.Clone()
	bc.Join(c.Clone())
	abc2 := a.Clone()
	abc2.Join(bc)
	assert.Equal(t, abc1.String(), abc2.String())
}

func TestDeltaCompleteness(t *testing.T) {
	// a replica that shares the pre-state and applies the delta ends
	// up equal to the replica that performed the mutation
	k := NewDotKernel[string]()
	_, _ = k.Add("n1", "x")
	_, _ = k.Add("n2", "y")

	pre := k.Clone()
	delta, err := k.Add("n1", "z")
	assert.NoError(t, err)
	pre.Join(delta)
	assert.Equal(t, k.String(), pre.String())

	pre = k.Clone()
	rm := k.RemoveValue("y")
	pre.Join(rm)
	assert.Equal(t, k.String(), pre.String())

	pre = k.Clone()
	pre.Join(k.RemoveAll())
	assert.Equal(t, k.String(), pre.String())
}

func TestDeepJoinNumericPayload(t *testing.T) {
	k1 := NewDotKernel[int64]()
	_, _ = k1.Add("a", 5)
	k2 := NewDotKernel[int64]()
	_, _ = k2.Add("a", 8)

	// both kernels hold a:1, with different tallies
	assert.NoError(t, k1.DeepJoin(k2))
	v, ok := k1.Get(Dot{ID: "a", Counter: 1})
	assert.True(t, ok)
	assert.Equal(t, int64(8), v)
}

func TestDeepJoinUnjoinable(t *testing.T) {
	k1 := NewDotKernel[string]()
	_, _ = k1.Add("a", "x")
	k2 := NewDotKernel[string]()
	_, _ = k2.Add("a", "y")

	assert.Error(t, k1.DeepJoin(k2))
}

func TestCloneOwnedContext(t *testing.T) {
	k := NewDotKernel[string]()
	_, _ = k.Add("n1", "x")

	c := k.Clone()
	assert.Equal(t, k.String(), c.String())

	// the clone mints its own dots now
	_, err := c.Add("n1", "y")
	assert.NoError(t, err)
	assert.False(t, k.Context().DotIn(Dot{ID: "n1", Counter: 2}))
}

func TestCloneSharedContext(t *testing.T) {
	shared := NewDotContext()
	k1 := NewSharedDotKernel[string](shared)
	k2 := NewSharedDotKernel[string](shared)

	_, _ = k1.Add("n1", "x")
	_, _ = k2.Add("n1", "y")
	assert.Equal(t, int64(2), shared.Max("n1"))

	// a clone of a shared-frame kernel stays on the shared frame
	c := k1.Clone()
	_, _ = c.Add("n1", "z")
	assert.Equal(t, int64(3), shared.Max("n1"))
	assert.True(t, k2.Context().DotIn(Dot{ID: "n1", Counter: 3}))
}

func TestDotAdd(t *testing.T) {
	k := NewDotKernel[string]()
	d, err := k.DotAdd("n1", "x")
	assert.NoError(t, err)
	assert.Equal(t, Dot{ID: "n1", Counter: 1}, d)
	assert.Equal(t, 1, k.Len())

	_, err = k.DotAdd("", "x")
	assert.Error(t, err)
}

func TestKernelString(t *testing.T) {
	k := NewDotKernel[string]()
	_, _ = k.Add("a", "x")
	assert.Equal(t, `Kernel: DS (a:1->"x") Context: CC (a:1) DC ()`, k.String())
}
