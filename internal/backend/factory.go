package backend

import (
	"context"
	"fmt"

	"faxina/internal/amqp"
	"faxina/internal/log"
	"faxina/internal/services"
	"faxina/internal/storage"
	"faxina/internal/storage/memory"
)

// DefaultFactory opens storage and the optional event publisher
type DefaultFactory struct {
	logger *log.Logger
	// dialer opens the event publisher; tests replace it.
	dialer func(url, exchange, queue string, logger *log.Logger) (services.EventPublisher, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		dialer: dialAMQP,
	}
}

func dialAMQP(url, exchange, queue string, logger *log.Logger) (services.EventPublisher, error) {
	client, err := amqp.NewClient(url, exchange, queue, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// CreateBackend validates config and opens the backend it names
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo storage.Repository
		err  error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err = f.createSQLiteRepository(config)
	case MemoryBackend:
		repo = memory.NewStore()
		f.logger.Info("Initialized memory backend; data is lost on exit")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{Repository: repo}
	if config.AMQPURL != "" {
		publisher, err := f.dialer(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			// Events are best effort; the API still works without them.
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events",
				log.FieldError, err.Error())
		} else {
			result.Publisher = publisher
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteRepository(config Config) (storage.Repository, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}
