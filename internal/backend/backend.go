// Package backend opens the record store selected by DATA_BACKEND together
// with the optional change-event publisher.
package backend

import (
	"context"
	"fmt"

	"tally/internal/config"
	"tally/internal/records"
	"tally/internal/services"
)

// Type names a record store implementation.
type Type string

const (
	Memory   Type = config.BackendMemory
	SQLite   Type = config.BackendSQLite
	Postgres Type = config.BackendPostgres
	Sheets   Type = config.BackendSheets
)

func (t Type) String() string { return string(t) }

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Postgres, Sheets:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{Memory, SQLite, Postgres, Sheets}
}

// Config holds what the factory needs to open a backend.
type Config struct {
	Type Type

	SQLiteDBPath string
	PostgresDSN  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// SeedDir holds seed_records.json for the memory backend.
	SeedDir string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(c.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", c.DataBackend)
	}
	return Config{
		Type:                     t,
		SQLiteDBPath:             c.SQLiteDBPath,
		PostgresDSN:              c.PostgresDSN,
		AMQPURL:                  c.AMQPURL,
		AMQPExchange:             c.AMQPExchange,
		AMQPQueue:                c.AMQPQueue,
		GoogleSpreadsheetID:      c.GoogleSpreadsheetID,
		GoogleSheetName:          c.GoogleSheetName,
		GoogleServiceAccountJSON: c.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: c.CredentialsFile(),
		SeedDir:                  c.SeedDir,
	}, nil
}

// Result is an opened backend. Publisher is nil when no events are sent.
type Result struct {
	Type      Type
	Store     records.Store
	Publisher services.Publisher

	closers []func() error
	pinger  func(context.Context) error
}

// Ping checks the store connection where the store has one.
func (r *Result) Ping(ctx context.Context) error {
	if r.pinger == nil {
		return nil
	}
	return r.pinger(ctx)
}

// Close releases the publisher and the store, in that order.
func (r *Result) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}
