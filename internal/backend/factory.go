package backend

import (
	"context"
	"fmt"
	"log/slog"

	"ledgerbook/internal/amqp"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/ledger/memory"
	"ledgerbook/internal/services"
	"ledgerbook/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateLedger implements Factory.CreateLedger
func (f *DefaultFactory) CreateLedger(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		l   ledger.Ledger
		err error
	)
	switch config.Type {
	case CSVBackend:
		l, err = f.createCSVLedger(config)
	case TextBackend:
		l = ledger.NewTextFile(config.TextPath)
		f.logger.Info("Initialized text ledger", "path", config.TextPath)
	case SQLiteBackend:
		l, err = f.createSQLiteLedger(config)
	case MemoryBackend:
		l = f.createMemoryLedger(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	svc := services.NewLedgerService(l, f.createPublisher(config))
	return &Result{
		Ledger:  l,
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}

// createCSVLedger creates the file with its header when it does not exist yet.
func (f *DefaultFactory) createCSVLedger(config Config) (ledger.Ledger, error) {
	csv := ledger.NewCSVFile(config.CSVPath)
	if err := csv.EnsureHeader(); err != nil {
		return nil, fmt.Errorf("failed to initialize CSV ledger: %w", err)
	}
	f.logger.Info("Initialized CSV ledger", "path", config.CSVPath)
	return csv, nil
}

func (f *DefaultFactory) createSQLiteLedger(config Config) (ledger.Ledger, error) {
	repo, err := storage.NewSQLiteLedger(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite ledger: %w", err)
	}
	f.logger.Info("Initialized SQLite ledger", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createMemoryLedger(config Config) ledger.Ledger {
	if config.TextPath == "" {
		f.logger.Info("Initialized empty memory ledger")
		return memory.New()
	}
	f.logger.Info("Initialized memory ledger", "seed_file", config.TextPath)
	return memory.NewFromFile(config.TextPath)
}

// createPublisher connects to the broker when configured. A broker that is
// down at startup only disables events.
func (f *DefaultFactory) createPublisher(config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
