package bolt

import (
	"context"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/utafrali/catalog-admin/internal/storage"
	"github.com/utafrali/catalog-admin/pkg/database"
)

// DefaultBucket is the bucket all keys live in.
const DefaultBucket = "catalog"

// Store implements storage.Store on a single bbolt bucket. Each Set is one
// read-write transaction, so a crash never leaves a half-written value.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

var _ storage.Store = (*Store)(nil)

// New creates the bucket if needed and returns a store over it.
func New(db *bbolt.DB, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return &Store{db: db, bucket: []byte(bucket)}, nil
}

// Get returns a copy of the value under key, or storage.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) (value []byte, err error) {
	_, end := database.TraceOp(ctx, "bolt", "get", key)
	defer func() { end(err) }()

	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return storage.ErrKeyNotFound
		}
		// v is only valid for the life of the transaction.
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set replaces the value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) (err error) {
	_, end := database.TraceOp(ctx, "bolt", "put", key)
	defer func() { end(err) }()

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("bolt put %s: %w", key, err)
	}
	return nil
}

// Ping verifies the database file is open and readable.
func (s *Store) Ping(context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return fmt.Errorf("bucket %s missing", s.bucket)
		}
		return nil
	})
}
