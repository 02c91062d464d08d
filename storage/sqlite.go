package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cine-catalog/catalog"
	"cine-catalog/logging"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage keeps the last good catalog on disk. It gives no
// consistency guarantees beyond a single transaction per save.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	dataPath string
}

func NewSQLiteStorage(dataPath string) *SQLiteStorage {
	dbPath := filepath.Join(dataPath, "cine_catalog.db")
	return &SQLiteStorage{
		dbPath:   dbPath,
		dataPath: dataPath,
	}
}

func (s *SQLiteStorage) Initialize() error {
	if err := os.MkdirAll(s.dataPath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	mm, err := s.Migrations()
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	if err := mm.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger := logging.WithComponent("storage")
	logger.Info().
		Str("event", "storage.ready").
		Str("path", s.dbPath).
		Msg("SQLite database initialized")
	return nil
}

// SaveSnapshot replaces the stored catalog with items and appends a refresh
// log entry, all in one transaction.
func (s *SQLiteStorage) SaveSnapshot(items []catalog.Item) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM titles`); err != nil {
		return fmt.Errorf("failed to clear titles: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO titles (id, title, year, rating, genre, synopsis, image, kind, language, external_id, saved_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var movies, series int
	for _, it := range items {
		var year any
		if it.Year > 0 {
			year = it.Year
		}
		if _, err := stmt.Exec(it.ID, it.Title, year, it.Rating, it.Genre, it.Synopsis, it.Image,
			string(it.Kind), it.Language, it.ExternalID); err != nil {
			return fmt.Errorf("failed to insert title %d: %w", it.ID, err)
		}
		switch it.Kind {
		case catalog.KindMovie:
			movies++
		case catalog.KindSeries:
			series++
		}
	}

	if _, err := tx.Exec(`INSERT INTO refresh_log (items, movies, series) VALUES (?, ?, ?)`,
		len(items), movies, series); err != nil {
		return fmt.Errorf("failed to write refresh log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored catalog ordered by ID.
func (s *SQLiteStorage) LoadSnapshot() ([]catalog.Item, error) {
	rows, err := s.db.Query(`
	SELECT id, title, year, rating, genre, synopsis, image, kind, language, external_id
	FROM titles
	ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		var (
			it   catalog.Item
			year sql.NullInt64
			kind string
		)
		if err := rows.Scan(&it.ID, &it.Title, &year, &it.Rating, &it.Genre, &it.Synopsis, &it.Image,
			&kind, &it.Language, &it.ExternalID); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		if year.Valid {
			it.Year = int(year.Int64)
		}
		it.Kind = catalog.Kind(kind)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read titles: %w", err)
	}
	return items, nil
}

// RestoreInto loads the saved catalog into store and returns how many items
// were restored. An empty snapshot leaves store untouched.
func (s *SQLiteStorage) RestoreInto(store *catalog.Store) (int, error) {
	items, err := s.LoadSnapshot()
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	if err := store.Replace(items); err != nil {
		return 0, fmt.Errorf("failed to restore snapshot: %w", err)
	}
	return len(items), nil
}

// LastRefreshes returns up to limit refresh log entries, newest first.
func (s *SQLiteStorage) LastRefreshes(limit int) ([]RefreshRecord, error) {
	rows, err := s.db.Query(`
	SELECT items, movies, series, created_at
	FROM refresh_log
	ORDER BY id DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh log: %w", err)
	}
	defer rows.Close()

	var out []RefreshRecord
	for rows.Next() {
		var r RefreshRecord
		if err := rows.Scan(&r.Items, &r.Movies, &r.Series, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan refresh log: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStats counts stored titles, in total and per kind.
func (s *SQLiteStorage) GetStats() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM titles GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count titles: %w", err)
	}
	defer rows.Close()

	stats := map[string]int{"total": 0, "movies": 0, "series": 0}
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("failed to scan title count: %w", err)
		}
		stats["total"] += count
		switch catalog.Kind(kind) {
		case catalog.KindMovie:
			stats["movies"] = count
		case catalog.KindSeries:
			stats["series"] = count
		}
	}
	return stats, rows.Err()
}

// Migrations returns a migration manager for the open database.
func (s *SQLiteStorage) Migrations() (*MigrationManager, error) {
	if s.db == nil {
		return nil, errors.New("storage is not initialized")
	}
	mm := NewMigrationManager(s.db)
	if err := mm.Initialize(); err != nil {
		return nil, err
	}
	return mm, nil
}
