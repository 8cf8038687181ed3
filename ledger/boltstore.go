package ledger

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketMeta = []byte("meta")
	bucketTxs  = []byte("txs")

	keyPolicy  = []byte("policy")
	keyBalance = []byte("balance")
)

// openTimeout bounds how long OpenBoltStore waits for the file lock held by
// another process.
const openTimeout = 2 * time.Second

// BoltStore persists the ledger in a bbolt database. Every method runs in its
// own bbolt transaction, so Commit writes the record and balance atomically.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("ledger: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketTxs} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("ledger: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// indexKey encodes a record index as an 8-byte big-endian key for sorted storage.
func indexKey(i uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, i)
	return k
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func readBalance(meta *bbolt.Bucket) (uint64, error) {
	v := meta.Get(keyBalance)
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("%w: balance is %d bytes", ErrCorrupt, len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func writeBalance(meta *bbolt.Bucket, balance uint64) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, balance)
	if err := meta.Put(keyBalance, v); err != nil {
		return fmt.Errorf("boltstore: put balance: %w", err)
	}
	return nil
}

// putExisting overwrites a record that must already exist.
func putExisting(b *bbolt.Bucket, rec *Record) error {
	key := indexKey(rec.Index)
	if b.Get(key) == nil {
		return fmt.Errorf("%w: index %d", ErrNotFound, rec.Index)
	}
	data, err := encodeGob(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := b.Put(key, data); err != nil {
		return fmt.Errorf("boltstore: put record %d: %w", rec.Index, err)
	}
	return nil
}

// SetPolicy records the owner policy. It fails with ErrPolicyExists on a
// second call.
func (s *BoltStore) SetPolicy(p *Policy) error {
	if p == nil {
		return fmt.Errorf("%w: policy", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta.Get(keyPolicy) != nil {
			return ErrPolicyExists
		}
		data, err := encodeGob(p)
		if err != nil {
			return fmt.Errorf("encode policy: %w", err)
		}
		if err := meta.Put(keyPolicy, data); err != nil {
			return fmt.Errorf("boltstore: put policy: %w", err)
		}
		return nil
	})
}

// Policy returns the stored owner policy.
func (s *BoltStore) Policy() (*Policy, error) {
	var p Policy
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyPolicy)
		if data == nil {
			return ErrNoPolicy
		}
		if err := decodeGob(data, &p); err != nil {
			return fmt.Errorf("%w: policy: %w", ErrCorrupt, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Append stores rec under the bucket's next sequence number.
func (s *BoltStore) Append(rec *Record) (uint64, error) {
	if rec == nil {
		return 0, fmt.Errorf("%w: record", ErrNilParam)
	}
	var index uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketTxs)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("boltstore: next sequence: %w", err)
		}
		c := rec.Clone()
		c.Index = seq - 1
		data, err := encodeGob(c)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		if err := b.Put(indexKey(c.Index), data); err != nil {
			return fmt.Errorf("boltstore: append record: %w", err)
		}
		index = c.Index
		return nil
	})
	if err != nil {
		return 0, err
	}
	return index, nil
}

// Get retrieves the record at index.
func (s *BoltStore) Get(index uint64) (*Record, error) {
	var rec Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketTxs).Get(indexKey(index))
		if data == nil {
			return fmt.Errorf("%w: index %d", ErrNotFound, index)
		}
		if err := decodeGob(data, &rec); err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrCorrupt, index, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Put overwrites an existing record.
func (s *BoltStore) Put(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("%w: record", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putExisting(tx.Bucket(bucketTxs), rec)
	})
}

// Commit overwrites rec and the balance in a single bbolt transaction.
func (s *BoltStore) Commit(rec *Record, balance uint64) error {
	if rec == nil {
		return fmt.Errorf("%w: record", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := putExisting(tx.Bucket(bucketTxs), rec); err != nil {
			return err
		}
		return writeBalance(tx.Bucket(bucketMeta), balance)
	})
}

// Count returns the number of appended records.
func (s *BoltStore) Count() (uint64, error) {
	var n uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketTxs).Sequence()
		return nil
	})
	return n, err
}

// List returns all records in index order.
func (s *BoltStore) List() ([]*Record, error) {
	var recs []*Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTxs).ForEach(func(k, v []byte) error {
			var rec Record
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("%w: record %x: %w", ErrCorrupt, k, err)
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: list records: %w", err)
	}
	return recs, nil
}

// Balance returns the held balance.
func (s *BoltStore) Balance() (uint64, error) {
	var bal uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		bal, err = readBalance(tx.Bucket(bucketMeta))
		return err
	})
	return bal, err
}

// Credit adds amount to the stored balance.
func (s *BoltStore) Credit(amount uint64) (uint64, error) {
	var bal uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		cur, err := readBalance(meta)
		if err != nil {
			return err
		}
		if amount > math.MaxUint64-cur {
			return fmt.Errorf("%w: %d + %d", ErrOverflow, cur, amount)
		}
		bal = cur + amount
		return writeBalance(meta, bal)
	})
	if err != nil {
		return 0, err
	}
	return bal, nil
}
