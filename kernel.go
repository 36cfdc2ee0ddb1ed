package crdt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash"
)

// DotKernel is a dot-to-payload store anchored in a causal context.
// Every stored dot is a member of the context; a context dot with no
// stored payload is an observed remove, so removed dots never
// resurrect on merge.
type DotKernel[V any] struct {
	ds   map[Dot]V
	ctx  *DotContext // causal frame, possibly shared with sibling kernels
	base *DotContext // private context kept for cloning when ctx is shared
}

// NewDotKernel makes a kernel owning its causal context.
func NewDotKernel[V any]() *DotKernel[V] {
	base := NewDotContext()
	return &DotKernel[V]{ds: make(map[Dot]V), ctx: base, base: base}
}

// NewSharedDotKernel makes a kernel drawing dots from a context owned
// elsewhere, so sibling kernels on the same frame never mint the same
// dot. A nil shared context falls back to an owned one.
func NewSharedDotKernel[V any](shared *DotContext) *DotKernel[V] {
	k := &DotKernel[V]{ds: make(map[Dot]V), base: NewDotContext()}
	if shared == nil {
		k.ctx = k.base
	} else {
		k.ctx = shared
	}
	return k
}

func (k *DotKernel[V]) Context() *DotContext { return k.ctx }

func (k *DotKernel[V]) Len() int { return len(k.ds) }

func (k *DotKernel[V]) Get(d Dot) (V, bool) {
	v, ok := k.ds[d]
	return v, ok
}

// Dots returns the stored dots in dot order.
func (k *DotKernel[V]) Dots() []Dot {
	dots := make([]Dot, 0, len(k.ds))
	for d := range k.ds {
		dots = append(dots, d)
	}
	slices.SortFunc(dots, Dot.Compare)
	return dots
}

// Values returns the payload image in dot order.
func (k *DotKernel[V]) Values() []V {
	dots := k.Dots()
	vals := make([]V, 0, len(dots))
	for _, d := range dots {
		vals = append(vals, k.ds[d])
	}
	return vals
}

// Add writes the payload under a fresh dot and returns the delta: a
// kernel holding just that write plus the context to explain it.
func (k *DotKernel[V]) Add(src string, v V) (*DotKernel[V], error) {
	d, err := k.ctx.MakeDot(src)
	if err != nil {
		return nil, err
	}
	k.ds[d] = v
	delta := NewDotKernel[V]()
	delta.ds[d] = v
	_ = delta.ctx.InsertDot(d, true)
	return delta, nil
}

// DotAdd is Add for callers composing deltas at a higher level; only
// the minted dot is returned.
func (k *DotKernel[V]) DotAdd(src string, v V) (Dot, error) {
	d, err := k.ctx.MakeDot(src)
	if err != nil {
		return Dot{}, err
	}
	k.ds[d] = v
	return d, nil
}

// RemoveAll drops every stored dot. The dots stay in this kernel's
// context as tombstones and land in the delta's context, so joining
// the delta elsewhere removes the same dots there.
func (k *DotKernel[V]) RemoveAll() *DotKernel[V] {
	delta := NewDotKernel[V]()
	for d := range k.ds {
		_ = delta.ctx.InsertDot(d, false)
		delete(k.ds, d)
	}
	delta.ctx.Compact()
	return delta
}

// RemoveDot drops a single stored dot. A dot the kernel only knows as
// a tombstone is left alone: the remove is already in effect, and the
// returned delta is empty.
func (k *DotKernel[V]) RemoveDot(v any) (*DotKernel[V], error) {
	d, err := AsDot(v)
	if err != nil {
		return nil, err
	}
	delta := NewDotKernel[V]()
	if _, ok := k.ds[d]; ok {
		delete(k.ds, d)
		_ = delta.ctx.InsertDot(d, true)
	}
	return delta, nil
}

// RemoveValue drops every dot whose payload is structurally equal to
// the given value. Equality is canonical JSON, with an xxhash digest
// as the fast path.
func (k *DotKernel[V]) RemoveValue(v V) *DotKernel[V] {
	delta := NewDotKernel[V]()
	want, wantSum, ok := canonicalJSON(v)
	if !ok {
		return delta
	}
	for d, stored := range k.ds {
		enc, sum, ok := canonicalJSON(stored)
		if !ok || sum != wantSum || !bytes.Equal(enc, want) {
			continue
		}
		delete(k.ds, d)
		_ = delta.ctx.InsertDot(d, false)
	}
	delta.ctx.Compact()
	return delta
}

// Join merges the other kernel in, honoring observed removes: a dot
// stored only here but present in the other context was removed
// there; a dot stored only there joins here unless this context
// already holds its tombstone. Joining a kernel into itself is a
// no-op.
func (k *DotKernel[V]) Join(other *DotKernel[V]) {
	_ = k.merge(other, false)
}

// DeepJoin is Join for lattice payloads: when both sides store the
// same dot with structurally different payloads, the payloads are
// merged through JoinValues.
func (k *DotKernel[V]) DeepJoin(other *DotKernel[V]) error {
	return k.merge(other, true)
}

// merge walks both stores in dot order with two cursors, so the
// outcome is independent of map iteration order.
func (k *DotKernel[V]) merge(other *DotKernel[V], deep bool) error {
	if k == other {
		return nil
	}
	mine, theirs := k.Dots(), other.Dots()
	i, j := 0, 0
	for i < len(mine) || j < len(theirs) {
		var cmp int
		switch {
		case i >= len(mine):
			cmp = 1
		case j >= len(theirs):
			cmp = -1
		default:
			cmp = mine[i].Compare(theirs[j])
		}
		switch {
		case cmp < 0:
			if other.ctx.DotIn(mine[i]) {
				delete(k.ds, mine[i])
			}
			i++
		case cmp > 0:
			if !k.ctx.DotIn(theirs[j]) {
				k.ds[theirs[j]] = other.ds[theirs[j]]
			}
			j++
		default:
			if deep && !canonicalEqual(k.ds[mine[i]], other.ds[theirs[j]]) {
				joined, err := JoinValues(any(k.ds[mine[i]]), any(other.ds[theirs[j]]))
				if err != nil {
					return err
				}
				k.ds[mine[i]] = joined.(V)
			}
			i++
			j++
		}
	}
	k.ctx.Join(other.ctx)
	return nil
}

// Clone copies the kernel. A kernel owning its context gets one fresh
// context for both roles; a kernel on a shared frame keeps pointing
// at the same shared context and only its private base is copied.
// Payloads are copied by reference.
func (k *DotKernel[V]) Clone() *DotKernel[V] {
	c := &DotKernel[V]{ds: make(map[Dot]V, len(k.ds))}
	for d, v := range k.ds {
		c.ds[d] = v
	}
	if k.ctx == k.base {
		c.base = k.base.Clone()
		c.ctx = c.base
	} else {
		c.ctx = k.ctx
		c.base = k.base.Clone()
	}
	return c
}

// String is a debug form, not a wire format.
func (k *DotKernel[V]) String() string {
	var b strings.Builder
	b.WriteString("Kernel: DS (")
	for i, d := range k.Dots() {
		if i > 0 {
			b.WriteByte(' ')
		}
		enc, _ := json.Marshal(k.ds[d])
		fmt.Fprintf(&b, "%s->%s", d, enc)
	}
	b.WriteString(") ")
	b.WriteString(k.ctx.String())
	return b.String()
}

// canonicalJSON is the structural-equality contract for payloads:
// values are equal iff their JSON encodings coincide. Unencodable
// values compare equal to nothing.
func canonicalJSON(v any) ([]byte, uint64, bool) {
	enc, err := json.Marshal(v)
	if err != nil {
		return nil, 0, false
	}
	return enc, xxhash.Sum64(enc), true
}

func canonicalEqual(a, b any) bool {
	ea, sa, oka := canonicalJSON(a)
	eb, sb, okb := canonicalJSON(b)
	return oka && okb && sa == sb && bytes.Equal(ea, eb)
}
