package replica

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/learn-decentralized-systems/toyqueue"
	"github.com/learn-decentralized-systems/toytlv"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	crdt "github.com/OleksandrMizov/CRDT"
	"github.com/OleksandrMizov/CRDT/store"
	"github.com/OleksandrMizov/CRDT/utils"
)

// Replica hosts named multi-value registers that all draw dots from
// one shared causal context, so a dot minted by any register is
// unique across the replica. Local mutations queue their deltas as
// TLV records; two replicas synchronize by feeding one's records into
// the other's Drain, in any order, any number of times.
type Replica struct {
	id   string
	ctx  *crdt.DotContext
	regs *xsync.MapOf[string, *crdt.MVReg[json.RawMessage]]
	log  utils.Logger
	db   *store.Store

	lock sync.Mutex
	outq toyqueue.Records
}

type Options struct {
	Logger utils.Logger
	Store  *store.Store
}

// New creates a replica. An empty id gets a fresh UUIDv7.
func New(id string, opts *Options) *Replica {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger(slog.LevelInfo)
	}
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}
	return &Replica{
		id:   id,
		ctx:  crdt.NewDotContext(),
		regs: xsync.NewMapOf[string, *crdt.MVReg[json.RawMessage]](),
		log:  opts.Logger,
		db:   opts.Store,
	}
}

func (r *Replica) ID() string { return r.id }

// Context returns the replica's shared causal frame. Callers must not
// mutate it concurrently with replica operations.
func (r *Replica) Context() *crdt.DotContext { return r.ctx }

func (r *Replica) register(name string) *crdt.MVReg[json.RawMessage] {
	reg, _ := r.regs.LoadOrCompute(name, func() *crdt.MVReg[json.RawMessage] {
		return crdt.NewSharedMVReg[json.RawMessage](r.id, r.ctx)
	})
	return reg
}

// Write stores a JSON value into the named register and queues the
// resulting delta for synchronization.
func (r *Replica) Write(name string, value json.RawMessage) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	delta, err := r.register(name).Write(value)
	if err != nil {
		return err
	}
	return r.push(name, delta)
}

// Reset clears the named register and queues the removal delta.
func (r *Replica) Reset(name string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.push(name, r.register(name).Reset())
}

// Read returns the current value set of the named register.
func (r *Replica) Read(name string) []json.RawMessage {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.register(name).Read()
}

// Registers lists the register names this replica has touched.
func (r *Replica) Registers() (names []string) {
	r.regs.Range(func(name string, _ *crdt.MVReg[json.RawMessage]) bool {
		names = append(names, name)
		return true
	})
	return
}

func (r *Replica) push(name string, delta *crdt.DotKernel[json.RawMessage]) error {
	rec := toytlv.Record('O',
		toytlv.Record('S', []byte(name)),
		crdt.KernelTLV(delta),
	)
	r.outq = append(r.outq, rec)
	if r.db != nil {
		if err := r.db.Merge(name, delta); err != nil {
			return err
		}
	}
	r.log.Debug("delta queued", "replica", r.id, "register", name)
	return nil
}

// Feed hands out the queued delta records and clears the queue.
func (r *Replica) Feed() (recs toyqueue.Records, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	recs = r.outq
	r.outq = nil
	return
}

// Drain applies delta records produced by another replica's Feed.
// Records may arrive out of order or more than once; the kernel join
// absorbs both.
func (r *Replica) Drain(recs toyqueue.Records) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, rec := range recs {
		body, _, err := toytlv.TakeWary('O', rec)
		if err != nil {
			return errors.Wrap(err, "replica: bad delta record")
		}
		nameb, rest, err := toytlv.TakeWary('S', body)
		if err != nil {
			return errors.Wrap(err, "replica: bad delta record")
		}
		k, err := crdt.KernelFromTLV(rest)
		if err != nil {
			return err
		}
		name := string(nameb)
		r.register(name).Join(k)
		if r.db != nil {
			if err := r.db.Merge(name, k); err != nil {
				return err
			}
		}
		r.log.Debug("delta applied", "replica", r.id, "register", name)
	}
	return nil
}

// Stats reports gauge values for metrics collection.
func (r *Replica) Stats() (registers, ccEntries, cloudDots, queued int) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.regs.Range(func(string, *crdt.MVReg[json.RawMessage]) bool {
		registers++
		return true
	})
	return registers, r.ctx.CompactSize(), r.ctx.CloudSize(), len(r.outq)
}
