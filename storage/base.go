package storage

import (
	"time"

	"cine-catalog/catalog"
)

// StorageInterface is the snapshot store: saved after each refresh and
// restored into the catalog at startup.
type StorageInterface interface {
	Initialize() error
	SaveSnapshot(items []catalog.Item) error
	LoadSnapshot() ([]catalog.Item, error)
	RestoreInto(store *catalog.Store) (int, error)
	Close() error
}

var _ StorageInterface = (*SQLiteStorage)(nil)

// RefreshRecord is one entry of the refresh log.
type RefreshRecord struct {
	Items     int
	Movies    int
	Series    int
	CreatedAt time.Time
}
