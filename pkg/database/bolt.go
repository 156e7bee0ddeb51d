package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltConfig holds the on-disk location of an embedded bbolt database.
type BoltConfig struct {
	Path        string
	OpenTimeout time.Duration
}

// OpenBolt opens (creating if needed) the bbolt file at cfg.Path, making any
// missing parent directories. bbolt holds an exclusive file lock, so a second
// process opening the same file waits up to OpenTimeout and then fails.
func OpenBolt(cfg BoltConfig) (*bolt.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("open bolt: empty path")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open bolt: create dir %s: %w", dir, err)
		}
	}

	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = time.Second
	}

	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", cfg.Path, err)
	}
	return db, nil
}
