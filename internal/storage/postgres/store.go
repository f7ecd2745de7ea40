// Package postgres stores sales records in the hosted sales_records table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tally/internal/core"
	"tally/internal/records"
)

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
}

// Store implements records.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	db   dbtx
}

var _ records.Store = (*Store)(nil)

// Open connects to dsn, pings the server and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if err := Migrate(dsn); err != nil {
		pool.Close()
		return nil, err
	}
	return New(pool), nil
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Numeric columns are cast to text so the decimal values arrive unrounded.
const selectRecords = `SELECT id, sale_date, company_name, aggregate_type,
	aggregate_quantity::text AS aggregate_quantity,
	driver_name, plate_number, hauler, cash_po_number, dr_is_inv_number, loaded_by,
	amount::text AS amount, payment_type
FROM sales_records
ORDER BY sale_date, created_at`

func (s *Store) List(ctx context.Context) ([]core.Record, error) {
	rows, err := s.db.Query(ctx, selectRecords)
	if err != nil {
		return nil, fmt.Errorf("query sales records: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect sales records: %w", err)
	}
	out := make([]core.Record, 0, len(maps))
	for _, m := range maps {
		out = append(out, records.Decode(m))
	}
	return out, nil
}

const insertRecord = `INSERT INTO sales_records (
	id, sale_date, company_name, aggregate_type, aggregate_quantity,
	driver_name, plate_number, hauler, cash_po_number, dr_is_inv_number,
	loaded_by, amount, payment_type
) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12::numeric, $13)`

// Insert sends every row in one batch inside a transaction.
func (s *Store) Insert(ctx context.Context, rows []core.Record) error {
	if len(rows) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(insertRecord,
				r.ID, r.SaleDate.UTC(), r.CompanyName, r.AggregateType,
				r.AggregateQuantity.String(), r.DriverName, r.PlateNumber, r.Hauler,
				r.CashPONumber, r.DRISInvNumber, r.LoadedBy, r.Amount.String(),
				string(r.PaymentType),
			)
		}
		br := tx.SendBatch(ctx, batch)
		for _, r := range rows {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert sales record %s: %w", r.ID, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}
		slog.InfoContext(ctx, "Sales records saved to Postgres", "count", len(rows))
		return nil
	})
}

const updateRecord = `UPDATE sales_records SET
	aggregate_type = $1, aggregate_quantity = $2::numeric, amount = $3::numeric,
	payment_type = $4, driver_name = $5, plate_number = $6, dr_is_inv_number = $7,
	hauler = $8, loaded_by = $9, company_name = $10, updated_at = now()
WHERE id = $11`

func (s *Store) Update(ctx context.Context, id string, d core.Draft) error {
	tag, err := s.db.Exec(ctx, updateRecord,
		d.AggregateType, d.AggregateQuantity.String(), d.Amount.String(),
		string(d.PaymentType), d.DriverName, d.PlateNumber, d.DRISInvNumber,
		d.Hauler, d.LoadedBy, d.CompanyName, id,
	)
	if err != nil {
		return fmt.Errorf("update sales record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM sales_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sales record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrNotFound
	}
	return nil
}

// IsUniqueViolation reports whether err came from a duplicate id.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
