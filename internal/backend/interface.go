package backend

import (
	"errors"
	"slices"
	"fmt"

	"faxina/internal/services"
	"faxina/internal/storage"
)

// Result holds the opened repository and, when change events are enabled,
// the publisher. Publisher is a nil interface otherwise, never a typed nil.
type Result struct {
	Repository storage.Repository
	Publisher  services.EventPublisher
}

// PaymentService builds the service over the opened backend.
func (r *Result) PaymentService(opts ...services.Option) *services.PaymentService {
	if r.Publisher != nil {
		opts = append([]services.Option{services.WithPublisher(r.Publisher)}, opts...)
	}
	return services.NewPaymentService(r.Repository, opts...)
}

// Close releases the publisher and the repository.
func (r *Result) Close() error {
	var errs []error
	if r.Publisher != nil {
		if err := r.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if r.Repository != nil {
		if err := r.Repository.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Change events; an empty URL disables them
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}
