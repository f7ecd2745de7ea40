// Package records defines the ports to the sales_records table and the wire
// mapping between stored rows and core.Record.
package records

import (
	"context"
	"errors"

	"tally/internal/core"
)

// ErrNotFound is returned by Update and Delete for an unknown id.
var ErrNotFound = errors.New("record not found")

// Ports for outbound adapters.
type (
	Lister interface {
		// List returns every stored record.
		List(ctx context.Context) ([]core.Record, error)
	}

	Inserter interface {
		// Insert stores all rows or none of them.
		Insert(ctx context.Context, rows []core.Record) error
	}

	Updater interface {
		// Update replaces the editable fields of the record with id.
		Update(ctx context.Context, id string, d core.Draft) error
	}

	Deleter interface {
		Delete(ctx context.Context, id string) error
	}

	Store interface {
		Lister
		Inserter
		Updater
		Deleter
	}
)
