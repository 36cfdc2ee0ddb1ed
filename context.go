package crdt

import (
	"slices"
	"strings"

	"github.com/OleksandrMizov/CRDT/crdt_errors"
)

// CC maps a replica id to the top of its contiguous dot sequence; an
// entry (id, c) stands for every dot (id,1)..(id,c).
type CC map[string]int64

// DotCloud holds dots observed out of order, waiting for the gap
// below them to fill.
type DotCloud map[Dot]struct{}

// DotContext is the set of dots a replica has observed, split into
// the compact part and the cloud. It only ever grows; Compact changes
// the representation, not the membership.
type DotContext struct {
	cc CC
	dc DotCloud
}

func NewDotContext() *DotContext {
	return &DotContext{cc: make(CC), dc: make(DotCloud)}
}

// DotIn reports whether the dot is covered by the compact part or
// sits in the cloud.
func (ctx *DotContext) DotIn(d Dot) bool {
	if d.Counter <= ctx.cc[d.ID] {
		return true
	}
	_, ok := ctx.dc[d]
	return ok
}

// MakeDot advances the compact entry for the id and returns the
// freshly minted dot. Dots minted here are contiguous per id, so they
// never land in the cloud.
func (ctx *DotContext) MakeDot(id string) (Dot, error) {
	if len(id) == 0 || strings.IndexByte(id, ':') >= 0 {
		return Dot{}, crdt_errors.ErrInvalidDot
	}
	ctx.cc[id]++
	return Dot{ID: id, Counter: ctx.cc[id]}, nil
}

// InsertDot adds one observed dot. Batch callers pass compactNow
// false and call Compact once at the end.
func (ctx *DotContext) InsertDot(v any, compactNow bool) error {
	d, err := AsDot(v)
	if err != nil {
		return err
	}
	ctx.dc[d] = struct{}{}
	if compactNow {
		ctx.Compact()
	}
	return nil
}

// Compact folds contiguous cloud dots into the compact part and drops
// dominated ones. Runs to fixpoint: absorbing (id,k) can make
// (id,k+1) absorbable on the next pass.
func (ctx *DotContext) Compact() {
	for again := true; again; {
		again = false
		for d := range ctx.dc {
			top := ctx.cc[d.ID]
			switch {
			case d.Counter == top+1:
				ctx.cc[d.ID] = d.Counter
				delete(ctx.dc, d)
				again = true
			case d.Counter <= top:
				delete(ctx.dc, d)
			}
		}
	}
}

// Join folds the other context in: per-id max over the compact part,
// union of the clouds, then a compaction. Joining a context into
// itself is a no-op.
func (ctx *DotContext) Join(other *DotContext) {
	if ctx == other {
		return
	}
	for id, top := range other.cc {
		if top > ctx.cc[id] {
			ctx.cc[id] = top
		}
	}
	for d := range other.dc {
		ctx.dc[d] = struct{}{}
	}
	ctx.Compact()
}

func (ctx *DotContext) Clone() *DotContext {
	c := &DotContext{cc: make(CC, len(ctx.cc)), dc: make(DotCloud, len(ctx.dc))}
	for id, top := range ctx.cc {
		c.cc[id] = top
	}
	for d := range ctx.dc {
		c.dc[d] = struct{}{}
	}
	return c
}

// Max returns the top contiguous counter observed for the id.
func (ctx *DotContext) Max(id string) int64 {
	return ctx.cc[id]
}

func (ctx *DotContext) CompactSize() int { return len(ctx.cc) }
func (ctx *DotContext) CloudSize() int   { return len(ctx.dc) }

func (ctx *DotContext) ccDots() []Dot {
	dots := make([]Dot, 0, len(ctx.cc))
	for id, top := range ctx.cc {
		dots = append(dots, Dot{ID: id, Counter: top})
	}
	slices.SortFunc(dots, Dot.Compare)
	return dots
}

func (ctx *DotContext) cloudDots() []Dot {
	dots := make([]Dot, 0, len(ctx.dc))
	for d := range ctx.dc {
		dots = append(dots, d)
	}
	slices.SortFunc(dots, Dot.Compare)
	return dots
}

// String is a debug form, not a wire format.
func (ctx *DotContext) String() string {
	var b strings.Builder
	b.WriteString("Context: CC (")
	for i, d := range ctx.ccDots() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.String())
	}
	b.WriteString(") DC (")
	for i, d := range ctx.cloudDots() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.String())
	}
	b.WriteString(")")
	return b.String()
}
