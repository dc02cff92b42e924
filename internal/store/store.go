// Package store persists whole collections as JSON blobs in a bbolt file.
//
// Every logical collection lives under one fixed key and is always read and
// written as a unit. Read-modify-write cycles run inside a single bbolt write
// transaction, so concurrent writers serialize instead of losing updates.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"
)

// SchemaVersion is written into every envelope
const SchemaVersion = 1

// Fixed keys
const (
	KeyContacts             = "contacts"
	KeyGroups               = "groups"
	KeyABTests              = "abtests"
	KeySession              = "session"
	KeyRememberedIdentifier = "remembered_identifier"
	keyCampaignCachePrefix  = "campaign_cache:"
)

var bucketData = []byte("data")

// ErrUnsupportedVersion is returned for envelopes written by a newer schema
var ErrUnsupportedVersion = errors.New("unsupported storage schema version")

// CampaignCacheKey returns the cache key of a user's campaign list
func CampaignCacheKey(userID int64) string {
	return fmt.Sprintf("%s%d", keyCampaignCachePrefix, userID)
}

// DB is the local key-value store
type DB struct {
	bolt *bolt.DB
}

// Tx is a read or write transaction spanning any number of collections
type Tx struct {
	tx *bolt.Tx
}

// Open opens (creating if needed) the store at path
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketData)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &DB{bolt: db}, nil
}

// Close closes the underlying file
func (db *DB) Close() error {
	return db.bolt.Close()
}

// Path returns the file path of the store
func (db *DB) Path() string {
	return db.bolt.Path()
}

// View runs fn in a read-only transaction
func (db *DB) View(ctx context.Context, fn func(*Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.bolt.View(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// Update runs fn in a read-write transaction. All writes made by fn are
// committed together or not at all.
func (db *DB) Update(ctx context.Context, fn func(*Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.bolt.Update(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// Delete removes a key
func (db *DB) Delete(ctx context.Context, key string) error {
	return db.Update(ctx, func(tx *Tx) error {
		return tx.tx.Bucket(bucketData).Delete([]byte(key))
	})
}

type envelope struct {
	Version int             `json:"version"`
	Items   json.RawMessage `json:"items"`
}

func (tx *Tx) get(key string) []byte {
	return tx.tx.Bucket(bucketData).Get([]byte(key))
}

func (tx *Tx) put(key string, items any) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	data, err := json.Marshal(envelope{Version: SchemaVersion, Items: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return tx.tx.Bucket(bucketData).Put([]byte(key), data)
}

// decode reads a versioned envelope, or a bare legacy JSON value
func decode(key string, data []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Version > 0 {
		if env.Version > SchemaVersion {
			return fmt.Errorf("%s: %w: %d", key, ErrUnsupportedVersion, env.Version)
		}
		if len(env.Items) == 0 || string(env.Items) == "null" {
			return nil
		}
		data = env.Items
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}
