package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"faxina/internal/core"
	"faxina/internal/log"
	"faxina/internal/storage"
)

// EventPublisher announces payment changes to other processes.
type EventPublisher interface {
	PublishPaymentUpsert(ctx context.Context, id string) error
	PublishPaymentDelete(ctx context.Context, id string) error
	Close() error
}

// ListResult is either month buckets or a flat record list; Grouped says
// which one is set.
type ListResult struct {
	Grouped bool
	Buckets []core.MonthBucket
	Records []core.Payment
	Filter  core.Filter
}

// PaymentService is the only write path for payments. It validates input
// through the core model, stores through the repository and publishes a
// change event on a best-effort basis.
type PaymentService struct {
	repo      storage.Repository
	publisher EventPublisher
	now       func() time.Time
	loc       *time.Location
	logger    *log.Logger
	structLog *log.StructuredLogger
}

type Option func(*PaymentService)

// WithPublisher enables change events. A nil publisher disables them.
func WithPublisher(p EventPublisher) Option {
	return func(s *PaymentService) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *PaymentService) { s.now = now }
}

// WithLocation sets the zone whose calendar day counts as "today".
func WithLocation(loc *time.Location) Option {
	return func(s *PaymentService) { s.loc = loc }
}

func WithLogger(l *log.Logger) Option {
	return func(s *PaymentService) { s.logger = l }
}

func NewPaymentService(repo storage.Repository, opts ...Option) *PaymentService {
	s := &PaymentService{
		repo:   repo,
		now:    time.Now,
		loc:    time.UTC,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentPayment)
	s.structLog = log.NewStructuredLogger(s.logger)
	return s
}

// Today is the provider's current calendar day.
func (s *PaymentService) Today() core.Date {
	return core.Today(s.now(), s.loc)
}

func (s *PaymentService) Create(ctx context.Context, d core.Draft) (core.Payment, error) {
	p, err := core.NewPayment(d, s.Today())
	if err != nil {
		return core.Payment{}, err
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	stored, err := s.repo.Insert(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("save payment: %w", err)
	}
	s.structLog.LogPaymentChanged(ctx, log.OpCreate, stored)
	s.publishUpsert(ctx, stored.ID)
	return stored, nil
}

func (s *PaymentService) Get(ctx context.Context, id string) (core.Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Payment{}, fmt.Errorf("get payment: %w", core.ErrNotFound)
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// Update applies a partial change. Unknown IDs fail with core.ErrNotFound
// before the patch is validated.
func (s *PaymentService) Update(ctx context.Context, id string, patch core.Patch) (core.Payment, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return core.Payment{}, err
	}
	next, err := current.Apply(patch, s.Today())
	if err != nil {
		return core.Payment{}, err
	}
	next.UpdatedAt = s.now().UTC()

	stored, err := s.repo.Update(ctx, next)
	if err != nil {
		return core.Payment{}, fmt.Errorf("update payment: %w", err)
	}
	s.structLog.LogPaymentChanged(ctx, log.OpUpdate, stored)
	s.publishUpsert(ctx, stored.ID)
	return stored, nil
}

func (s *PaymentService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("delete payment: %w", core.ErrNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	s.logger.InfoContext(ctx, "Payment deleted", log.FieldPaymentID, id, log.FieldOperation, log.OpDelete)
	s.publishDelete(ctx, id)
	return nil
}

// List returns every payment in descending month buckets when params is
// empty, and the matching payments ordered by service date otherwise.
func (s *PaymentService) List(ctx context.Context, params core.FilterParams) (ListResult, error) {
	records, filter, err := s.Select(ctx, params)
	if err != nil {
		return ListResult{}, err
	}
	if !filter.Active() {
		return ListResult{Grouped: true, Buckets: core.GroupByMonth(records, core.Descending), Filter: filter}, nil
	}
	return ListResult{Records: records, Filter: filter}, nil
}

// Period returns ascending month buckets, or a flat list when groupByMonth
// is false. Either end of the range may be left open.
func (s *PaymentService) Period(ctx context.Context, params core.FilterParams, groupByMonth bool) (ListResult, error) {
	records, filter, err := s.Select(ctx, params)
	if err != nil {
		return ListResult{}, err
	}
	if groupByMonth {
		return ListResult{Grouped: true, Buckets: core.GroupByMonth(records, core.Ascending), Filter: filter}, nil
	}
	return ListResult{Records: records, Filter: filter}, nil
}

// Select resolves params and returns the matching payments ordered by
// service date. The filter's date envelope is pushed down to storage.
func (s *PaymentService) Select(ctx context.Context, params core.FilterParams) ([]core.Payment, core.Filter, error) {
	filter, err := core.ResolveFilter(params)
	if err != nil {
		return nil, core.Filter{}, err
	}
	from, to := filter.Bounds()
	if from != nil && to != nil && from.After(*to) {
		return []core.Payment{}, filter, nil
	}

	candidates, err := s.repo.List(ctx, storage.Range{From: from, To: to})
	if err != nil {
		return nil, filter, fmt.Errorf("list payments: %w", err)
	}
	records := filter.Select(candidates)
	core.SortByServiceDate(records)
	return records, filter, nil
}

// Ping reports whether storage answers.
func (s *PaymentService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *PaymentService) publishUpsert(ctx context.Context, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPaymentUpsert(ctx, id); err != nil {
		s.structLog.LogError(ctx, "Failed to publish payment event", err, log.OpPublish,
			log.NewFields().WithPaymentID(id))
	}
}

func (s *PaymentService) publishDelete(ctx context.Context, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPaymentDelete(ctx, id); err != nil {
		s.structLog.LogError(ctx, "Failed to publish payment delete event", err, log.OpPublish,
			log.NewFields().WithPaymentID(id))
	}
}

// Close closes both storage and the event publisher.
func (s *PaymentService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close payment service: %w", errors.Join(errs...))
	}
	return nil
}
