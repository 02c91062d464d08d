package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"cine-catalog/logging"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

// MigrationManager applies the embedded schema migrations to a database.
type MigrationManager struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMigrationManager(db *sql.DB) *MigrationManager {
	return &MigrationManager{db: db, logger: logging.WithComponent("storage")}
}

// Initialize points goose at the embedded files and the sqlite dialect. It
// must be called before any other method.
func (m *MigrationManager) Initialize() error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

func (m *MigrationManager) Up() error {
	return m.run("up", goose.Up)
}

func (m *MigrationManager) Down() error {
	return m.run("down", goose.Down)
}

// Reset rolls back every migration, dropping the snapshot tables.
func (m *MigrationManager) Reset() error {
	return m.run("reset", goose.Reset)
}

// Status prints the state of each migration through the goose logger.
func (m *MigrationManager) Status() error {
	if err := goose.Status(m.db, migrationsDir); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

func (m *MigrationManager) Version() (int64, error) {
	version, err := goose.GetDBVersion(m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to get database version: %w", err)
	}
	return version, nil
}

// Run executes one named command: up, down, reset or status.
func (m *MigrationManager) Run(command string) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "reset":
		return m.Reset()
	case "status":
		return m.Status()
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}

type gooseFunc func(db *sql.DB, dir string, opts ...goose.OptionsFunc) error

func (m *MigrationManager) run(command string, fn gooseFunc) error {
	if m.db == nil {
		return errors.New("migrations need an open database")
	}
	if err := fn(m.db, migrationsDir); err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	version, _ := goose.GetDBVersion(m.db)
	m.logger.Info().
		Str("event", "migrate."+command).
		Int64("version", version).
		Msg("database migrations applied")
	return nil
}
