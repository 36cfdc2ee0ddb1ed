package crdt

// MVReg is a multi-value register. A local write leaves a single
// value; merging concurrent writes keeps all of them until the next
// write collapses the register again.
type MVReg[V any] struct {
	src string
	k   *DotKernel[V]
}

func NewMVReg[V any](src string) *MVReg[V] {
	return &MVReg[V]{src: src, k: NewDotKernel[V]()}
}

// NewSharedMVReg puts the register on a causal frame owned elsewhere,
// typically next to the other fields of a composite type.
func NewSharedMVReg[V any](src string, shared *DotContext) *MVReg[V] {
	return &MVReg[V]{src: src, k: NewSharedDotKernel[V](shared)}
}

// Write replaces whatever the register holds with v. The returned
// delta carries both the removal of the old dots and the new write,
// so a remote join applies them atomically.
func (r *MVReg[V]) Write(v V) (*DotKernel[V], error) {
	delta := r.k.RemoveAll()
	add, err := r.k.Add(r.src, v)
	if err != nil {
		return nil, err
	}
	delta.Join(add)
	return delta, nil
}

// Read returns every value the register currently holds, in dot
// order: one value after a local write, several after merging
// concurrent writes, none after a reset.
func (r *MVReg[V]) Read() []V {
	return r.k.Values()
}

// Reset clears the register without writing a new value.
func (r *MVReg[V]) Reset() *DotKernel[V] {
	return r.k.RemoveAll()
}

// Join applies a delta or a full peer kernel to the register.
func (r *MVReg[V]) Join(delta *DotKernel[V]) {
	r.k.Join(delta)
}

// Merge folds a whole peer register in.
func (r *MVReg[V]) Merge(other *MVReg[V]) {
	r.k.Join(other.k)
}

func (r *MVReg[V]) Kernel() *DotKernel[V] { return r.k }

func (r *MVReg[V]) String() string { return r.k.String() }
