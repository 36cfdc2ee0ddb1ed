package crdt

import (
	"encoding/json"

	"github.com/learn-decentralized-systems/toytlv"

	"github.com/OleksandrMizov/CRDT/crdt_errors"
)

// Wire forms. A dot travels as a 'D' record holding its string form;
// a context is a 'C' record of 'M' (compact) and 'X' (cloud) dots; a
// kernel is a 'K' record of one 'E' entry per stored dot followed by
// the context record. Payloads on the wire are raw JSON.

func (d Dot) TLV() []byte {
	return toytlv.Record('D', []byte(d.String()))
}

func DotFromTLV(rec []byte) (Dot, []byte, error) {
	body, rest, err := toytlv.TakeWary('D', rec)
	if err != nil {
		return Dot{}, nil, err
	}
	d, err := ParseDot(string(body))
	if err != nil {
		return Dot{}, nil, err
	}
	return d, rest, nil
}

// TLV serializes the context deterministically: compact entries
// first, cloud dots after, both in dot order.
func (ctx *DotContext) TLV() (ret []byte) {
	bm, ret := toytlv.OpenHeader(ret, 'C')
	for _, d := range ctx.ccDots() {
		ret = toytlv.Append(ret, 'M', []byte(d.String()))
	}
	for _, d := range ctx.cloudDots() {
		ret = toytlv.Append(ret, 'X', []byte(d.String()))
	}
	toytlv.CloseHeader(ret, bm)
	return ret
}

// PutTLV folds a serialized context into this one.
func (ctx *DotContext) PutTLV(rec []byte) error {
	body, _, err := toytlv.TakeWary('C', rec)
	if err != nil {
		return crdt_errors.ErrBadContextRecord
	}
	return ctx.putTLVBody(body)
}

func (ctx *DotContext) putTLVBody(body []byte) error {
	for len(body) > 0 {
		lit, val, rest, err := toytlv.TakeAnyWary(body)
		if err != nil {
			return crdt_errors.ErrBadContextRecord
		}
		d, err := ParseDot(string(val))
		if err != nil {
			return crdt_errors.ErrBadContextRecord
		}
		switch lit {
		case 'M':
			if d.Counter > ctx.cc[d.ID] {
				ctx.cc[d.ID] = d.Counter
			}
		case 'X':
			ctx.dc[d] = struct{}{}
		default:
			return crdt_errors.ErrBadContextRecord
		}
		body = rest
	}
	ctx.Compact()
	return nil
}

// KernelTLV serializes a raw-payload kernel deterministically, so
// equal kernels yield equal bytes.
func KernelTLV(k *DotKernel[json.RawMessage]) (ret []byte) {
	bm, ret := toytlv.OpenHeader(ret, 'K')
	for _, d := range k.Dots() {
		ret = append(ret, toytlv.Record('E',
			toytlv.Record('D', []byte(d.String())),
			toytlv.Record('V', k.ds[d]),
		)...)
	}
	ret = append(ret, k.ctx.TLV()...)
	toytlv.CloseHeader(ret, bm)
	return ret
}

func KernelFromTLV(tlv []byte) (*DotKernel[json.RawMessage], error) {
	body, _, err := toytlv.TakeWary('K', tlv)
	if err != nil {
		return nil, crdt_errors.ErrBadKernelRecord
	}
	k := NewDotKernel[json.RawMessage]()
	for len(body) > 0 {
		lit, rec, rest, err := toytlv.TakeAnyWary(body)
		if err != nil {
			return nil, crdt_errors.ErrBadKernelRecord
		}
		switch lit {
		case 'E':
			dotb, vrest, err := toytlv.TakeWary('D', rec)
			if err != nil {
				return nil, crdt_errors.ErrBadKernelRecord
			}
			d, err := ParseDot(string(dotb))
			if err != nil {
				return nil, crdt_errors.ErrBadKernelRecord
			}
			val, _, err := toytlv.TakeWary('V', vrest)
			if err != nil {
				return nil, crdt_errors.ErrBadKernelRecord
			}
			k.ds[d] = json.RawMessage(append([]byte(nil), val...))
		case 'C':
			if err := k.ctx.putTLVBody(rec); err != nil {
				return nil, err
			}
		default:
			return nil, crdt_errors.ErrBadKernelRecord
		}
		body = rest
	}
	for d := range k.ds {
		if !k.ctx.DotIn(d) {
			return nil, crdt_errors.ErrBadKernelRecord
		}
	}
	return k, nil
}

// ToWire converts a typed kernel into the raw-JSON wire kernel. The
// wire kernel owns a copy of the context, so it detaches cleanly from
// a shared frame.
func ToWire[V any](k *DotKernel[V]) (*DotKernel[json.RawMessage], error) {
	w := NewDotKernel[json.RawMessage]()
	for d, v := range k.ds {
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		w.ds[d] = enc
	}
	w.ctx.Join(k.ctx)
	return w, nil
}

// FromWire decodes a wire kernel into typed payloads.
func FromWire[V any](w *DotKernel[json.RawMessage]) (*DotKernel[V], error) {
	k := NewDotKernel[V]()
	for d, raw := range w.ds {
		var v V
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		k.ds[d] = v
	}
	k.ctx.Join(w.ctx)
	return k, nil
}

// KernelMerge folds any number of serialized kernels, oldest first,
// into one serialized kernel. This is the merge the store's pebble
// operator runs, and it is the same join replicas run in memory.
func KernelMerge(tlvs [][]byte) ([]byte, error) {
	merged := NewDotKernel[json.RawMessage]()
	for _, tlv := range tlvs {
		k, err := KernelFromTLV(tlv)
		if err != nil {
			return nil, err
		}
		merged.Join(k)
	}
	return KernelTLV(merged), nil
}
