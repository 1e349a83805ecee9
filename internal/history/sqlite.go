package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Registers the "sqlite" driver
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// unexported constants.
const (
	dbDirPermissions = 0o750
)

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	max int
}

// OpenSQLite opens (creating if needed) the history database at path and
// applies any pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	err := os.MkdirAll(filepath.Dir(path), dbDirPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(time.Minute)

	err = migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, max: MaxRecords}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	migrations, err := iofs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	_, err = provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Append inserts record and evicts everything beyond the newest MaxRecords,
// in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, record Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	var errorMessage sql.NullString
	if record.ErrorMessage != "" {
		errorMessage = sql.NullString{String: record.ErrorMessage, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sync_records (id, timestamp_ns, files_transferred, success, error_message)
		 VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.Timestamp.UnixNano(), record.FilesTransferred, record.Success, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to insert history record %s: %w", record.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM sync_records
		 WHERE seq NOT IN (SELECT seq FROM sync_records ORDER BY seq DESC LIMIT ?)`,
		s.max)
	if err != nil {
		return fmt.Errorf("failed to evict old history records: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit history record: %w", err)
	}

	return nil
}

// List returns the stored records, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp_ns, files_transferred, success, error_message
		 FROM sync_records ORDER BY seq DESC LIMIT ?`, s.max)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	records := make([]Record, 0)

	for rows.Next() {
		var (
			record       Record
			timestampNS  int64
			errorMessage sql.NullString
		)

		err = rows.Scan(&record.ID, &timestampNS, &record.FilesTransferred, &record.Success, &errorMessage)
		if err != nil {
			return nil, fmt.Errorf("failed to read history row: %w", err)
		}

		record.Timestamp = time.Unix(0, timestampNS)
		record.ErrorMessage = errorMessage.String
		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return records, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}

	return nil
}
