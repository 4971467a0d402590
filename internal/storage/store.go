package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// Collection names a partition of the store.
type Collection string

const (
	CollectionEntries   Collection = "entries"
	CollectionTemplates Collection = "templates"
	CollectionSettings  Collection = "settings"
)

// Collections lists every collection the schema creates.
var Collections = []Collection{CollectionEntries, CollectionTemplates, CollectionSettings}

// Validate rejects names outside Collections. Collection names are used as
// table names, so nothing else may reach a query.
func (c Collection) Validate() error {
	for _, known := range Collections {
		if c == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", common.ErrUnknownCollection, string(c))
}

// Record is one key/value pair of a collection.
type Record struct {
	Key   string
	Value []byte
}

// Store is the raw key/value contract. It knows nothing about encryption.
type Store interface {
	// Put inserts or replaces the value stored under key.
	Put(ctx context.Context, c Collection, key string, value []byte) error

	// Get returns the value stored under key or common.ErrNotFound.
	Get(ctx context.Context, c Collection, key string) ([]byte, error)

	// List returns all records of the collection ordered by key.
	List(ctx context.Context, c Collection) ([]Record, error)
}

// TxStore is a Store that can group operations into one transaction.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
