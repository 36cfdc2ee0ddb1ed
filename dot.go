package crdt

import (
	"strconv"
	"strings"

	"github.com/OleksandrMizov/CRDT/crdt_errors"
)

// Dot identifies exactly one write: a replica id plus the sequence
// number of that write at the replica. Counter 0 only appears as the
// initial value of a compact context entry, never as a real write.
type Dot struct {
	ID      string
	Counter int64
}

func NewDot(id string, counter int64) (Dot, error) {
	if len(id) == 0 || counter < 0 || strings.IndexByte(id, ':') >= 0 {
		return Dot{}, crdt_errors.ErrInvalidDot
	}
	return Dot{ID: id, Counter: counter}, nil
}

// ParseDot reads the wire form `id:counter`. The id part carries no
// colon, the counter part is a plain decimal with no sign and no
// leading zeros, so String round-trips exactly.
func ParseDot(s string) (Dot, error) {
	sep := strings.IndexByte(s, ':')
	if sep <= 0 || strings.IndexByte(s[sep+1:], ':') >= 0 {
		return Dot{}, crdt_errors.ErrInvalidDotFormat
	}
	num := s[sep+1:]
	if len(num) == 0 || (num[0] == '0' && len(num) > 1) {
		return Dot{}, crdt_errors.ErrInvalidDotFormat
	}
	for i := 0; i < len(num); i++ {
		if num[i] < '0' || num[i] > '9' {
			return Dot{}, crdt_errors.ErrInvalidDotFormat
		}
	}
	counter, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return Dot{}, crdt_errors.ErrInvalidDotFormat
	}
	return Dot{ID: s[:sep], Counter: counter}, nil
}

func (d Dot) String() string {
	var buf [32]byte
	b := append(buf[:0], d.ID...)
	b = append(b, ':')
	b = strconv.AppendInt(b, d.Counter, 10)
	return string(b)
}

// Compare orders dots by id, then by counter.
func (d Dot) Compare(other Dot) int {
	if c := strings.Compare(d.ID, other.ID); c != 0 {
		return c
	}
	switch {
	case d.Counter < other.Counter:
		return -1
	case d.Counter > other.Counter:
		return 1
	}
	return 0
}

func (d Dot) Less(other Dot) bool {
	return d.Compare(other) < 0
}

// AsDot coerces a Dot, a *Dot, a dot string, or anything exposing an
// AsDot accessor. Everything else is not a dot.
func AsDot(v any) (Dot, error) {
	switch x := v.(type) {
	case Dot:
		if len(x.ID) == 0 || x.Counter < 0 {
			return Dot{}, crdt_errors.ErrInvalidDot
		}
		return x, nil
	case *Dot:
		if x == nil {
			return Dot{}, crdt_errors.ErrInvalidDot
		}
		return AsDot(*x)
	case string:
		d, err := ParseDot(x)
		if err != nil {
			return Dot{}, crdt_errors.ErrInvalidDot
		}
		return d, nil
	case interface{ AsDot() Dot }:
		return AsDot(x.AsDot())
	}
	return Dot{}, crdt_errors.ErrInvalidDot
}
