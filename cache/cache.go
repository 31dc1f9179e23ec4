package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("extractions")

// TablePreview is the row-limited stored form of one unified table.
type TablePreview struct {
	TableNumber int        `json:"tableNumber"`
	Columns     []string   `json:"columns"`
	SampleRows  [][]string `json:"sampleRows"`
	TotalRows   int        `json:"totalRows"`
}

// Preview is what the cache stores per key: enough to answer preview and
// status queries without re-running extraction.
type Preview struct {
	TablesFound int            `json:"tablesFound"`
	Method      string         `json:"method"`
	Tables      []TablePreview `json:"tables"`
}

type entry struct {
	CreatedAt time.Time     `json:"createdAt"`
	TTL       time.Duration `json:"ttl"`
	Preview   Preview       `json:"preview"`
}

// ResultCache is a content-addressed preview store. Keys derive from the
// subject's path, modification time and extraction parameters, so touching
// the file retires every prior entry for it; that is the only invalidation.
// Expired entries read as misses and are overwritten in place.
type ResultCache struct {
	dbPath     string
	db         *bolt.DB
	defaultTTL time.Duration
	mu         sync.RWMutex
}

// Open initializes the cache database, creating the directory and bucket as
// needed.
func Open(dbPath string, defaultTTL time.Duration) (*ResultCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for cache: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &ResultCache{dbPath: dbPath, db: db, defaultTTL: defaultTTL}, nil
}

// Key derives the content address for a subject and parameter set.
func Key(subjectPath string, mtime time.Time, params any) string {
	paramBytes, _ := json.Marshal(params)
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d|%s", subjectPath, mtime.UnixNano(), paramBytes)))
	return hex.EncodeToString(sum[:])
}

// Get returns the stored preview, or false on a miss. Entries past their
// TTL behave exactly like keys that were never written.
func (c *ResultCache) Get(subjectPath string, mtime time.Time, params any) (*Preview, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var stored *entry
	c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		v := b.Get([]byte(Key(subjectPath, mtime, params)))
		if v == nil {
			return nil
		}
		var e entry
		if err := json.Unmarshal(v, &e); err != nil {
			return nil
		}
		stored = &e
		return nil
	})

	if stored == nil || time.Since(stored.CreatedAt) >= stored.TTL {
		return nil, false
	}
	return &stored.Preview, true
}

// Put stores a preview under the subject's content address, overwriting any
// prior entry for the same key. A non-positive ttl falls back to the cache
// default.
func (c *ResultCache) Put(subjectPath string, mtime time.Time, params any, preview *Preview, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(entry{
		CreatedAt: time.Now(),
		TTL:       ttl,
		Preview:   *preview,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put([]byte(Key(subjectPath, mtime, params)), data)
	})
}

// Close closes the underlying database.
func (c *ResultCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
