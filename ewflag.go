package crdt

// EWFlag is an enable-wins boolean flag: an enable concurrent with a
// disable survives the merge.
type EWFlag struct {
	src string
	k   *DotKernel[bool]
}

func NewEWFlag(src string) *EWFlag {
	return &EWFlag{src: src, k: NewDotKernel[bool]()}
}

func NewSharedEWFlag(src string, shared *DotContext) *EWFlag {
	return &EWFlag{src: src, k: NewSharedDotKernel[bool](shared)}
}

// Enable raises the flag, replacing any dots seen so far.
func (f *EWFlag) Enable() (*DotKernel[bool], error) {
	delta := f.k.RemoveAll()
	add, err := f.k.Add(f.src, true)
	if err != nil {
		return nil, err
	}
	delta.Join(add)
	return delta, nil
}

// Disable lowers the flag by removing every observed dot.
func (f *EWFlag) Disable() *DotKernel[bool] {
	return f.k.RemoveAll()
}

// Read reports whether any enable dot is live.
func (f *EWFlag) Read() bool {
	return f.k.Len() > 0
}

func (f *EWFlag) Join(delta *DotKernel[bool]) {
	f.k.Join(delta)
}

func (f *EWFlag) Merge(other *EWFlag) {
	f.k.Join(other.k)
}

func (f *EWFlag) Kernel() *DotKernel[bool] { return f.k }

func (f *EWFlag) String() string { return f.k.String() }
