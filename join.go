package crdt

import (
	"github.com/OleksandrMizov/CRDT/crdt_errors"
)

// Joinable payloads merge a peer value into themselves. DeepJoin
// clones the receiver before joining, so a join never mutates stored
// state in place.
type Joinable interface {
	CloneValue() Joinable
	JoinValue(other any) error
}

// JoinValues merges two payload values: numbers join by max, Joinable
// values are copied and joined, anything else does not join.
func JoinValues(a, b any) (any, error) {
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if aok && bok {
		if bf > af {
			return b, nil
		}
		return a, nil
	}
	if j, ok := a.(Joinable); ok {
		c := j.CloneValue()
		if err := c.JoinValue(b); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, crdt_errors.ErrUnjoinableTypes
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
