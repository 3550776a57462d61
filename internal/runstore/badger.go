package runstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Badger is a Store that spills runs to a badger database, for inputs that should not be
// held in memory twice.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens a badger store under dir. An empty dir keeps the database in memory.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open run store %q: %w", dir, err)
	}
	return &Badger{db: db}, nil
}

func runKey(file, run int) []byte {
	return []byte(fmt.Sprintf("run/%06d/%06d", file, run))
}

func (b *Badger) Put(file, run int, vals []int32) error {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(file, run), buf)
	})
}

func (b *Badger) Get(file, run int) ([]int32, error) {
	var vals []int32
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(file, run))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			if len(v)%4 != 0 {
				return fmt.Errorf("run %d/%d: stored value of %d bytes", file, run, len(v))
			}
			vals = make([]int32, len(v)/4)
			for i := range vals {
				vals[i] = int32(binary.LittleEndian.Uint32(v[4*i:]))
			}
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return vals, err
}

func (b *Badger) Delete(file, run int) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(runKey(file, run))
	})
}

func (b *Badger) Close() error { return b.db.Close() }
