package backend

import (
	"context"
	"fmt"

	"tally/internal/amqp"
	"tally/internal/log"
	"tally/internal/records/google"
	"tally/internal/records/memory"
	"tally/internal/storage"
	"tally/internal/storage/postgres"
)

// Factory opens backends based on configuration.
type Factory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Open creates the store for cfg.Type and, for the database backends, an
// AMQP publisher when AMQPURL is set. A publisher that cannot connect is
// skipped with a warning.
func (f *Factory) Open(ctx context.Context, cfg Config) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch cfg.Type {
	case SQLite:
		res, err = f.openSQLite(cfg)
	case Postgres:
		res, err = f.openPostgres(ctx, cfg)
	case Sheets:
		res, err = f.openSheets(ctx, cfg)
	case Memory:
		res = f.openMemory(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	res.Type = cfg.Type

	// The sheets backend is the mirror itself.
	if cfg.AMQPURL != "" && cfg.Type != Sheets {
		f.attachPublisher(res, cfg)
	}
	return res, nil
}

func (f *Factory) openSQLite(cfg Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{
		Store:   repo,
		pinger:  repo.Ping,
		closers: []func() error{repo.Close},
	}, nil
}

func (f *Factory) openPostgres(ctx context.Context, cfg Config) (*Result, error) {
	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
	}
	f.logger.Info("Initialized Postgres backend")
	return &Result{
		Store:  store,
		pinger: store.Ping,
		closers: []func() error{func() error {
			store.Close()
			return nil
		}},
	}, nil
}

func (f *Factory) openSheets(ctx context.Context, cfg Config) (*Result, error) {
	cli, err := google.Open(ctx, google.Settings{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return &Result{Store: cli}, nil
}

func (f *Factory) openMemory(cfg Config) *Result {
	dir := cfg.SeedDir
	if dir == "" {
		dir = "data"
	}
	store := memory.NewFromFiles(dir)
	f.logger.Info("Initialized memory backend", "data_directory", dir)
	return &Result{Store: store}
}

func (f *Factory) attachPublisher(res *Result, cfg Config) {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return
	}
	res.Publisher = client
	res.closers = append(res.closers, client.Close)
	f.logger.Info("Initialized AMQP publisher", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
}
