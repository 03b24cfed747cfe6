// Package store provides the month-partitioned message log on top of a
// key-value substrate.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/memoya/internal/model"
)

const (
	// DefaultPrefix is prepended to every "YYYY-MM" partition label.
	DefaultPrefix = "@memoya_messages_"
	// DefaultLegacyKey holds the pre-partitioning message array.
	DefaultLegacyKey = "@memoya_messages"
	// DefaultHorizon is how many recent months id lookups scan.
	DefaultHorizon = 12
)

var (
	// ErrInvalidMonth is returned for a partition label that is not "YYYY-MM".
	ErrInvalidMonth = errors.New("invalid month label")
	// ErrFutureMonth is returned for a message dated after the current month.
	// Id lookups walk back from the current month and would never reach it.
	ErrFutureMonth = errors.New("message dated after the current month")
)

// StorageError wraps a failure reported by the substrate.
type StorageError struct {
	Op  string // "get", "set", "remove", "keys"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError reports a partition whose persisted value is not a message array.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error %s: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Outcome distinguishes an applied id-targeted mutation from a miss.
type Outcome int

const (
	Applied Outcome = iota
	NotFound
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "not_found"
}

// Result is returned by id-targeted operations. Month is the partition label
// that held the message when Outcome is Applied.
type Result struct {
	Outcome Outcome `json:"-"`
	Month   string  `json:"month,omitempty"`
}

// Found reports whether the operation located the message.
func (r Result) Found() bool { return r.Outcome == Applied }

// MarshalJSON renders the outcome as a string.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Month == "" {
		return []byte(fmt.Sprintf(`{"outcome":%q}`, r.Outcome)), nil
	}
	return []byte(fmt.Sprintf(`{"outcome":%q,"month":%q}`, r.Outcome, r.Month)), nil
}

// Patch is a shallow merge applied by UpdateByID. Nil fields are left alone.
// ID and Timestamp are deliberately absent: a message never changes partition.
type Patch struct {
	Text                 *string
	Type                 *model.MessageType
	IsMemory             *bool
	IsFavorite           *bool
	IsDeleted            *bool
	DeletedAt            *time.Time
	ClearDeletedAt       bool
	IsPermanentlyDeleted *bool
}

func (p Patch) apply(m *model.Message) {
	if p.Text != nil {
		m.Text = *p.Text
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.IsMemory != nil {
		m.IsMemory = *p.IsMemory
	}
	if p.IsFavorite != nil {
		m.IsFavorite = *p.IsFavorite
	}
	if p.IsDeleted != nil {
		m.IsDeleted = *p.IsDeleted
	}
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		m.DeletedAt = &t
	}
	if p.ClearDeletedAt {
		m.DeletedAt = nil
	}
	if p.IsPermanentlyDeleted != nil {
		m.IsPermanentlyDeleted = *p.IsPermanentlyDeleted
	}
}

// MigrationReport summarizes a legacy migration run.
type MigrationReport struct {
	Migrated   int      `json:"migrated"`
	Skipped    int      `json:"skipped"`
	Partitions []string `json:"partitions"`
}

// Store defines the partitioned message log.
type Store interface {
	// Append stores a message in the partition of its timestamp.
	Append(ctx context.Context, msg model.Message) (model.Message, error)

	// UpdateByID merges patch into the first message with id inside the horizon.
	UpdateByID(ctx context.Context, id string, patch Patch) (Result, error)

	SoftDelete(ctx context.Context, id string) (Result, error)
	Restore(ctx context.Context, id string) (Result, error)
	MarkPermanentlyDeleted(ctx context.Context, id string) (Result, error)

	// Purge physically removes the message from its partition.
	Purge(ctx context.Context, id string) (Result, error)

	// Get finds a message by id inside the horizon.
	Get(ctx context.Context, id string) (*model.Message, Result, error)

	// Paginate loads the most recent monthsToLoad partitions, oldest message first.
	Paginate(ctx context.Context, monthsToLoad int) ([]model.Message, error)

	// ListPartitions returns every stored month label, most recent first.
	ListPartitions(ctx context.Context) ([]string, error)

	HasMore(ctx context.Context, monthsLoaded int) (bool, error)

	// Deleted lists soft-deleted messages inside the horizon, newest first.
	Deleted(ctx context.Context) ([]model.Message, error)

	MigrateLegacy(ctx context.Context) (MigrationReport, error)

	Clear(ctx context.Context) error
}
