package crdt

// AWORSet is an add-wins observed-remove set over the kernel. Adding
// re-tags the value with a fresh dot, so a concurrent remove only
// cancels the tags it has observed and the add survives the merge.
type AWORSet[V any] struct {
	src string
	k   *DotKernel[V]
}

func NewAWORSet[V any](src string) *AWORSet[V] {
	return &AWORSet[V]{src: src, k: NewDotKernel[V]()}
}

func NewSharedAWORSet[V any](src string, shared *DotContext) *AWORSet[V] {
	return &AWORSet[V]{src: src, k: NewSharedDotKernel[V](shared)}
}

// Add inserts v. Old tags of the same value are dropped in the same
// delta, keeping one live dot per value per adder.
func (s *AWORSet[V]) Add(v V) (*DotKernel[V], error) {
	delta := s.k.RemoveValue(v)
	add, err := s.k.Add(s.src, v)
	if err != nil {
		return nil, err
	}
	delta.Join(add)
	return delta, nil
}

// Remove drops every observed tag of v.
func (s *AWORSet[V]) Remove(v V) *DotKernel[V] {
	return s.k.RemoveValue(v)
}

// Elements returns the distinct values, first-tag order.
func (s *AWORSet[V]) Elements() []V {
	seen := make(map[uint64][][]byte)
	var out []V
	for _, d := range s.k.Dots() {
		v := s.k.ds[d]
		enc, sum, ok := canonicalJSON(v)
		if !ok {
			continue
		}
		dup := false
		for _, prev := range seen[sum] {
			if string(prev) == string(enc) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[sum] = append(seen[sum], enc)
		out = append(out, v)
	}
	return out
}

func (s *AWORSet[V]) Contains(v V) bool {
	for _, stored := range s.k.ds {
		if canonicalEqual(stored, v) {
			return true
		}
	}
	return false
}

func (s *AWORSet[V]) Join(delta *DotKernel[V]) {
	s.k.Join(delta)
}

func (s *AWORSet[V]) Merge(other *AWORSet[V]) {
	s.k.Join(other.k)
}

func (s *AWORSet[V]) Kernel() *DotKernel[V] { return s.k }

func (s *AWORSet[V]) String() string { return s.k.String() }
