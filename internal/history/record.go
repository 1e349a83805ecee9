// Package history keeps the bounded log of finished sync runs.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Exported constants.
const (
	// MaxRecords is the number of records kept; older ones are evicted
	MaxRecords = 50
)

// Record describes the outcome of one full sync run. Records are never modified.
type Record struct {
	ID               string
	Timestamp        time.Time
	FilesTransferred int
	Success          bool
	ErrorMessage     string // Empty on success
}

// Store persists records, newest first, keeping at most MaxRecords.
type Store interface {
	Append(ctx context.Context, record Record) error
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// NewRecord builds a record. A nil runErr marks the run successful.
func NewRecord(id string, timestamp time.Time, filesTransferred int, runErr error) Record {
	record := Record{
		ID:               id,
		Timestamp:        timestamp,
		FilesTransferred: filesTransferred,
		Success:          runErr == nil,
	}

	if runErr != nil {
		record.ErrorMessage = runErr.Error()
	}

	return record
}

// NewRecordFromRun builds a record with a fresh random ID.
func NewRecordFromRun(now time.Time, filesTransferred int, runErr error) Record {
	return NewRecord(uuid.NewString(), now, filesTransferred, runErr)
}
