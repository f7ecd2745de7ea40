package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/records"
	"tally/internal/report"
)

// ErrNotLoaded is returned when an operation needs the snapshot and the
// store could not be read.
var ErrNotLoaded = errors.New("records not loaded yet")

type DashboardConfig struct {
	Location  *time.Location
	PageSize  int
	CacheSize int
	CacheTTL  time.Duration

	// ReloadTimeout bounds a shared reload, which outlives the caller
	// that started it.
	ReloadTimeout time.Duration
	Now           func() time.Time
	Logger        *log.Logger
}

func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		Location:      time.UTC,
		PageSize:      report.DefaultPageSize,
		CacheSize:     64,
		CacheTTL:      10 * time.Minute,
		ReloadTimeout: 30 * time.Second,
		Now:           time.Now,
	}
}

func NewDashboard(svc *RecordService, cfg DashboardConfig) *Dashboard {
	def := DefaultDashboardConfig()
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.ReloadTimeout <= 0 {
		cfg.ReloadTimeout = def.ReloadTimeout
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &Dashboard{
		svc:     svc,
		cfg:     cfg,
		logger:  logger.WithComponent(log.ComponentDashboard),
		reports: cache.NewLRUCache[report.Summary](cfg.CacheSize, cfg.CacheTTL),
	}
}

// Reports exposes the summary cache for periodic cleanup.
func (d *Dashboard) Reports() cache.Cleaner { return d.reports }

func (d *Dashboard) PageSize() int { return d.cfg.PageSize }

func (d *Dashboard) Location() *time.Location { return d.cfg.Location }

// Now is the current time in the dashboard's location.
func (d *Dashboard) Now() time.Time { return d.cfg.Now().In(d.cfg.Location) }

// Reload replaces the snapshot with a fresh List. Concurrent callers share
// one store call, which runs on its own deadline so a caller giving up
// does not fail the others.
func (d *Dashboard) Reload(ctx context.Context) error {
	ch := d.reloads.DoChan("reload", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.ReloadTimeout)
		defer cancel()
		return d.fetch(fctx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			d.logger.LogFields(ctx, slog.LevelError, "Failed to load records",
				log.NewFields().WithOperation(log.OpReload).WithErrorType(log.ErrorTypeStore).WithError(res.Err))
			return res.Err
		}
		d.logger.DebugContext(ctx, "Records reloaded", log.FieldRows, d.Count(),
			"shared", res.Shared, "replaced", res.Val)
		return nil
	}
}

// fetch lists the store and installs the result unless a mutation was
// applied after the list started. It reports whether it replaced the
// snapshot.
func (d *Dashboard) fetch(ctx context.Context) (bool, error) {
	d.mu.RLock()
	since := d.mutations
	d.mu.RUnlock()

	list, err := d.svc.List(ctx)
	if err != nil {
		return false, err
	}
	localize(list, d.cfg.Location)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mutations != since {
		return false, nil
	}
	d.snapshot = list
	d.version++
	d.loaded = true
	return true, nil
}

// mutate edits the snapshot in place and invalidates derived reports.
func (d *Dashboard) mutate(fn func([]core.Record) []core.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshot = fn(d.snapshot)
	localize(d.snapshot, d.cfg.Location)
	d.mutations++
	d.version++
}

// localize moves sale dates into loc so that filtering and day grouping
// agree on calendar days whatever zone the store returned.
func localize(list []core.Record, loc *time.Location) {
	for i := range list {
		list[i].SaleDate = list[i].SaleDate.In(loc)
	}
}

// Loaded reports whether the first reload has succeeded.
func (d *Dashboard) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

func (d *Dashboard) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.snapshot)
}

// Records returns a copy of the snapshot.
func (d *Dashboard) Records() []core.Record {
	list, _ := d.view()
	return list
}

func (d *Dashboard) view() ([]core.Record, uint64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]core.Record, len(d.snapshot))
	copy(out, d.snapshot)
	return out, d.version
}

// Record looks up id in the snapshot.
func (d *Dashboard) Record(id string) (core.Record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.snapshot {
		if r.ID == id {
			return r, true
		}
	}
	return core.Record{}, false
}

// Summary computes the report for a period. Results are cached per
// snapshot version, so a mutation never serves a stale summary.
func (d *Dashboard) Summary(kind core.Period, ref time.Time) report.Summary {
	list, version := d.view()
	now := d.Now()
	ref = ref.In(d.cfg.Location)
	key := fmt.Sprintf("%d|%s|%s|%s", version, kind, ref.Format(time.DateOnly), now.Format(time.DateOnly))
	if s, ok := d.reports.Get(key); ok {
		return s
	}
	s := report.Build(list, kind, ref, now)
	d.reports.Set(key, s)
	return s
}

// Filtered returns the records of a period in store order.
func (d *Dashboard) Filtered(kind core.Period, ref time.Time) []core.Record {
	list, _ := d.view()
	return report.Filter(list, kind, ref.In(d.cfg.Location), d.Now())
}

// Page returns one tally sheet page of a period, newest first. page is
// clamped into range.
func (d *Dashboard) Page(kind core.Period, ref time.Time, page int) report.Page {
	filtered := d.Filtered(kind, ref)
	page = report.ClampPage(page, report.PageCount(len(filtered), d.cfg.PageSize))
	return report.Paginate(filtered, d.cfg.PageSize, page)
}

// AddDelivery validates and stores one entry form submission, then
// reloads. It returns the stored rows.
func (d *Dashboard) AddDelivery(ctx context.Context, delivery core.Delivery) ([]core.Record, error) {
	rows, err := d.svc.Create(ctx, delivery)
	if err != nil {
		return nil, err
	}
	d.mutate(func(list []core.Record) []core.Record { return append(list, rows...) })
	d.reconcile(ctx, log.OpCreate)
	return rows, nil
}

// Import stores already expanded rows, e.g. generated seed data.
func (d *Dashboard) Import(ctx context.Context, rows []core.Record) error {
	if err := d.svc.Insert(ctx, rows); err != nil {
		return err
	}
	d.mutate(func(list []core.Record) []core.Record { return append(list, rows...) })
	d.reconcile(ctx, log.OpSeed)
	return nil
}

// SaveEdit sends draft to the store. On failure the snapshot is left as
// it was. On success the draft is applied locally and the snapshot is
// refetched; a failed refetch keeps the local edit.
func (d *Dashboard) SaveEdit(ctx context.Context, id string, draft core.Draft) error {
	current, ok := d.Record(id)
	if !ok {
		// The event carries the full row, so it has to come from the store.
		if _, err := d.fetch(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrNotLoaded, err)
		}
		if current, ok = d.Record(id); !ok {
			return fmt.Errorf("update record %s: %w", id, records.ErrNotFound)
		}
	}
	updated, err := d.svc.Update(ctx, current, draft)
	if err != nil {
		return err
	}
	d.mutate(func(list []core.Record) []core.Record {
		for i := range list {
			if list[i].ID == id {
				list[i] = updated
			}
		}
		return list
	})
	d.reconcile(ctx, log.OpUpdate)
	return nil
}

// Delete removes id from the store, then from the snapshot.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	if err := d.svc.Delete(ctx, id); err != nil {
		return err
	}
	d.mutate(func(list []core.Record) []core.Record {
		out := list[:0]
		for _, r := range list {
			if r.ID != id {
				out = append(out, r)
			}
		}
		return out
	})
	d.reconcile(ctx, log.OpDelete)
	return nil
}

// reconcile refetches after a mutation. It never joins a reload already
// in flight, since that one may have read the store before the write.
func (d *Dashboard) reconcile(ctx context.Context, op string) {
	replaced, err := d.fetch(ctx)
	if err != nil {
		d.logger.WarnContext(ctx, "Keeping local state after failed reload",
			log.FieldOperation, op, log.FieldError, err)
		return
	}
	if !replaced {
		d.logger.DebugContext(ctx, "Reload superseded by a newer mutation", log.FieldOperation, op)
	}
}
