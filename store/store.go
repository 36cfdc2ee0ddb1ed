package store

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/cockroachdb/pebble"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	crdt "github.com/OleksandrMizov/CRDT"
	"github.com/OleksandrMizov/CRDT/utils"
)

// Store keeps serialized register kernels in pebble, one row per
// register name. Deltas go through the pebble merge operator, so a
// row converges under compaction exactly the way a replica does in
// memory.
type Store struct {
	db    *pebble.DB
	log   utils.Logger
	cache *lru.Cache[string, *crdt.DotKernel[json.RawMessage]]
}

type Options struct {
	CacheSize int
	Logger    utils.Logger
}

const keyPrefix = 'R'

var WriteOptions = pebble.WriteOptions{Sync: false}

func mkKey(name string) []byte {
	key := make([]byte, 0, len(name)+1)
	key = append(key, keyPrefix)
	return append(key, name...)
}

func Open(path string, opts *Options) (*Store, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = 1024
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger(slog.LevelInfo)
	}
	popts := pebble.Options{
		Merger: &pebble.Merger{
			Name:  "crdt.kernel",
			Merge: merger,
		},
	}
	db, err := pebble.Open(path, &popts)
	if err != nil {
		return nil, errors.Wrap(err, "store: open")
	}
	cache, err := lru.New[string, *crdt.DotKernel[json.RawMessage]](opts.CacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, log: opts.Logger, cache: cache}, nil
}

func merger(key, value []byte) (pebble.ValueMerger, error) {
	ma := &mergeAdaptor{}
	return ma, ma.MergeNewer(value)
}

// mergeAdaptor collects merge operands and folds them with
// KernelMerge, oldest first.
type mergeAdaptor struct {
	old  bool
	vals [][]byte
}

func (a *mergeAdaptor) MergeNewer(value []byte) error {
	target := make([]byte, len(value))
	copy(target, value)
	a.vals = append(a.vals, target)
	return nil
}

func (a *mergeAdaptor) MergeOlder(value []byte) error {
	target := make([]byte, len(value))
	copy(target, value)
	a.vals = append(a.vals, target)
	a.old = true
	return nil
}

func (a *mergeAdaptor) Finish(includesBase bool) (res []byte, cl io.Closer, err error) {
	if a.old {
		for i, j := 0, len(a.vals)-1; i < j; i, j = i+1, j-1 {
			a.vals[i], a.vals[j] = a.vals[j], a.vals[i]
		}
	}
	if len(a.vals) == 0 {
		return nil, nil, nil
	}
	res, err = crdt.KernelMerge(a.vals)
	return res, nil, err
}

// Merge applies a delta (or a full state) to the named register.
func (s *Store) Merge(name string, delta *crdt.DotKernel[json.RawMessage]) error {
	tlv := crdt.KernelTLV(delta)
	if err := s.db.Merge(mkKey(name), tlv, &WriteOptions); err != nil {
		return errors.Wrap(err, "store: merge")
	}
	s.cache.Remove(name)
	s.log.Debug("delta merged", "register", name, "bytes", len(tlv))
	return nil
}

// Load reads the named register's kernel. A register never written is
// an empty kernel, not an error.
func (s *Store) Load(name string) (*crdt.DotKernel[json.RawMessage], error) {
	if k, ok := s.cache.Get(name); ok {
		return k.Clone(), nil
	}
	val, closer, err := s.db.Get(mkKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return crdt.NewDotKernel[json.RawMessage](), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "store: get")
	}
	defer closer.Close()
	k, err := crdt.KernelFromTLV(val)
	if err != nil {
		return nil, err
	}
	s.cache.Add(name, k.Clone())
	return k, nil
}

// Registers lists every register name in the store.
func (s *Store) Registers() (names []string, err error) {
	it, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "store: iter")
	}
	for it.SeekGE([]byte{keyPrefix}); it.Valid() && it.Key()[0] == keyPrefix; it.Next() {
		names = append(names, string(it.Key()[1:]))
	}
	err = it.Close()
	return
}

func (s *Store) Flush() error {
	return s.db.Flush()
}

func (s *Store) Close() error {
	s.cache.Purge()
	return s.db.Close()
}

// DB exposes the underlying pebble handle for metrics collection.
func (s *Store) DB() *pebble.DB { return s.db }
