package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tally/internal/core"
	"tally/internal/records"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores sales records in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ records.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const selectRecords = `SELECT id, sale_date, company_name, aggregate_type, aggregate_quantity,
	driver_name, plate_number, hauler, cash_po_number, dr_is_inv_number, loaded_by,
	amount, payment_type
FROM sales_records
ORDER BY sale_date, rowid`

// List implements records.Lister. Rows go through the wire decoder so
// damaged values are defaulted rather than failing the whole list.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, selectRecords)
	if err != nil {
		return nil, fmt.Errorf("query sales records: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	var out []core.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, records.Decode(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales records: %w", err)
	}
	return out, nil
}

const insertRecord = `INSERT INTO sales_records (
	id, sale_date, company_name, aggregate_type, aggregate_quantity,
	driver_name, plate_number, hauler, cash_po_number, dr_is_inv_number,
	loaded_by, amount, payment_type
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Insert implements records.Inserter inside one transaction.
func (r *SQLiteRepository) Insert(ctx context.Context, rows []core.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range rows {
		_, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.SaleDate.UTC().Format(time.RFC3339),
			rec.CompanyName,
			rec.AggregateType,
			rec.AggregateQuantity.String(),
			rec.DriverName,
			rec.PlateNumber,
			rec.Hauler,
			rec.CashPONumber,
			rec.DRISInvNumber,
			rec.LoadedBy,
			rec.Amount.String(),
			string(rec.PaymentType),
		)
		if err != nil {
			return fmt.Errorf("insert sales record %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Sales records saved to SQLite", "count", len(rows))
	return nil
}

const updateRecord = `UPDATE sales_records SET
	aggregate_type = ?, aggregate_quantity = ?, amount = ?, payment_type = ?,
	driver_name = ?, plate_number = ?, dr_is_inv_number = ?, hauler = ?,
	loaded_by = ?, company_name = ?,
	updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
WHERE id = ?`

// Update implements records.Updater.
func (r *SQLiteRepository) Update(ctx context.Context, id string, d core.Draft) error {
	res, err := r.db.ExecContext(ctx, updateRecord,
		d.AggregateType,
		d.AggregateQuantity.String(),
		d.Amount.String(),
		string(d.PaymentType),
		d.DriverName,
		d.PlateNumber,
		d.DRISInvNumber,
		d.Hauler,
		d.LoadedBy,
		d.CompanyName,
		id,
	)
	if err != nil {
		return fmt.Errorf("update sales record %s: %w", id, err)
	}
	return expectOne(res)
}

// Delete implements records.Deleter.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sales_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sales record %s: %w", id, err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}
