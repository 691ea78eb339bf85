package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"faxina/internal/core"
	"faxina/internal/log"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Range narrows List to service dates inside [From, To]. Nil bounds are open.
type Range struct {
	From *core.Date
	To   *core.Date
}

// Repository is the persistence gateway for payments. Implementations
// assign IDs on Insert, return core.ErrNotFound for unknown IDs and wrap
// every backend failure with core.ErrStorageUnavailable.
type Repository interface {
	Insert(ctx context.Context, p core.Payment) (core.Payment, error)
	Get(ctx context.Context, id string) (core.Payment, error)
	Update(ctx context.Context, p core.Payment) (core.Payment, error)
	Delete(ctx context.Context, id string) error
	// List returns payments ordered by service date, then creation time.
	List(ctx context.Context, r Range) ([]core.Payment, error)
	Ping(ctx context.Context) error
	Close() error
}

// Fixed-width so created_at sorts correctly as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, p core.Payment) (core.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	if err := r.queries.InsertPayment(ctx, toRow(p)); err != nil {
		return core.Payment{}, unavailable("insert payment", err)
	}
	r.logger.DebugContext(ctx, "Payment saved to SQLite", log.NewFields().WithPayment(p).ToSlice()...)
	return p, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Payment, error) {
	row, err := r.queries.GetPayment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, fmt.Errorf("get payment %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Payment{}, unavailable("get payment", err)
	}
	return fromRow(row)
}

func (r *SQLiteRepository) Update(ctx context.Context, p core.Payment) (core.Payment, error) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	n, err := r.queries.UpdatePayment(ctx, toRow(p))
	if err != nil {
		return core.Payment{}, unavailable("update payment", err)
	}
	if n == 0 {
		return core.Payment{}, fmt.Errorf("update payment %s: %w", p.ID, core.ErrNotFound)
	}
	return r.Get(ctx, p.ID)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	n, err := r.queries.DeletePayment(ctx, id)
	if err != nil {
		return unavailable("delete payment", err)
	}
	if n == 0 {
		return fmt.Errorf("delete payment %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, rng Range) ([]core.Payment, error) {
	var params ListPaymentsParams
	if rng.From != nil {
		params.From = rng.From.String()
	}
	if rng.To != nil {
		params.To = rng.To.String()
	}

	rows, err := r.queries.ListPayments(ctx, params)
	if err != nil {
		return nil, unavailable("list payments", err)
	}

	payments := make([]core.Payment, 0, len(rows))
	for _, row := range rows {
		p, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorageUnavailable, err)
}

func toRow(p core.Payment) PaymentRow {
	row := PaymentRow{
		ID:            p.ID,
		ServiceDate:   p.ServiceDate.String(),
		AmountCents:   p.Amount.Cents,
		PaymentStatus: string(p.PaymentStatus),
		Note:          p.Note,
		ClientName:    p.ClientName,
		CreatedAt:     p.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:     p.UpdatedAt.UTC().Format(timestampLayout),
	}
	if p.ServiceCompleted {
		row.ServiceCompleted = 1
	}
	if p.PaymentDate != nil {
		row.PaymentDate = sql.NullString{String: p.PaymentDate.String(), Valid: true}
	}
	return row
}

func fromRow(row PaymentRow) (core.Payment, error) {
	p := core.Payment{
		ID:               row.ID,
		Amount:           core.Money{Cents: row.AmountCents},
		ServiceCompleted: row.ServiceCompleted != 0,
		PaymentStatus:    core.PaymentStatus(row.PaymentStatus),
		Note:             row.Note,
		ClientName:       row.ClientName,
	}

	var err error
	if p.ServiceDate, err = core.ParseDate(row.ServiceDate); err != nil {
		return core.Payment{}, unavailable("decode payment "+row.ID, err)
	}
	if row.PaymentDate.Valid {
		d, err := core.ParseDate(row.PaymentDate.String)
		if err != nil {
			return core.Payment{}, unavailable("decode payment "+row.ID, err)
		}
		p.PaymentDate = &d
	}
	if p.CreatedAt, err = time.Parse(timestampLayout, row.CreatedAt); err != nil {
		return core.Payment{}, unavailable("decode payment "+row.ID, err)
	}
	if p.UpdatedAt, err = time.Parse(timestampLayout, row.UpdatedAt); err != nil {
		return core.Payment{}, unavailable("decode payment "+row.ID, err)
	}
	return p, nil
}
