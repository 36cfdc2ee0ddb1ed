package crdt

// CCounter is a causal counter: each replica keeps its tally under
// its own dot and replaces the dot on every change. Merges go through
// DeepJoin so a tally conflict on the same dot settles by max.
type CCounter struct {
	src string
	k   *DotKernel[int64]
}

func NewCCounter(src string) *CCounter {
	return &CCounter{src: src, k: NewDotKernel[int64]()}
}

func NewSharedCCounter(src string, shared *DotContext) *CCounter {
	return &CCounter{src: src, k: NewSharedDotKernel[int64](shared)}
}

func (c *CCounter) Inc(n int64) (*DotKernel[int64], error) {
	return c.update(n)
}

func (c *CCounter) Dec(n int64) (*DotKernel[int64], error) {
	return c.update(-n)
}

// update folds this replica's previous dots into one fresh dot
// carrying the new tally.
func (c *CCounter) update(n int64) (*DotKernel[int64], error) {
	delta := NewDotKernel[int64]()
	var base int64
	for _, d := range c.k.Dots() {
		if d.ID != c.src {
			continue
		}
		base += c.k.ds[d]
		rm, err := c.k.RemoveDot(d)
		if err != nil {
			return nil, err
		}
		delta.Join(rm)
	}
	add, err := c.k.Add(c.src, base+n)
	if err != nil {
		return nil, err
	}
	delta.Join(add)
	return delta, nil
}

// Read sums the tallies of every replica.
func (c *CCounter) Read() int64 {
	var sum int64
	for _, v := range c.k.ds {
		sum += v
	}
	return sum
}

// Reset drops every observed tally.
func (c *CCounter) Reset() *DotKernel[int64] {
	return c.k.RemoveAll()
}

func (c *CCounter) Join(delta *DotKernel[int64]) error {
	return c.k.DeepJoin(delta)
}

func (c *CCounter) Merge(other *CCounter) error {
	return c.k.DeepJoin(other.k)
}

func (c *CCounter) Kernel() *DotKernel[int64] { return c.k }

func (c *CCounter) String() string { return c.k.String() }
