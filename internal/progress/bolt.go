package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("progress")

// BoltStore persists progress records in a bbolt database, one record
// per book path. The database is single-owner: one reader session per
// process, no cross-process locking.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens the progress database at dbPath, creating the file and
// its directory if needed.
func OpenBolt(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for progress database: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create progress bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Get returns the stored position for bookPath. A missing record is not
// an error: reading starts from the beginning.
func (s *BoltStore) Get(bookPath string) (Position, error) {
	var pos Position
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(bookPath))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &pos)
	})
	if err != nil {
		return Position{}, fmt.Errorf("failed to read progress for %s: %w", bookPath, err)
	}
	return pos, nil
}

// Put upserts the position for bookPath. Last write wins.
func (s *BoltStore) Put(bookPath string, pos Position) error {
	v, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("failed to encode progress record: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(bookPath), v)
	})
	if err != nil {
		return fmt.Errorf("failed to write progress for %s: %w", bookPath, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BoltStore)(nil)
