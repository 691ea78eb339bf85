package worker

import (
	"context"
	"errors"
	"fmt"

	"faxina/internal/amqp"
	"faxina/internal/core"
	"faxina/internal/log"
	"faxina/internal/sheets"
	"faxina/internal/storage"
)

// SyncWorker copies payments from storage into a PaymentMirror. Events only
// carry IDs, so every upsert re-reads the record and the mirror always ends
// up with the stored state, whatever order events arrive in.
type SyncWorker struct {
	repo   storage.Repository
	mirror sheets.PaymentMirror
	logger *log.Logger
}

func NewSyncWorker(repo storage.Repository, mirror sheets.PaymentMirror, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		repo:   repo,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent satisfies amqp.Handler.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.PaymentEvent) error {
	w.logger.InfoContext(ctx, "Processing payment event",
		log.FieldPaymentID, event.ID,
		log.FieldAction, event.Action,
		"timestamp", event.Timestamp)

	switch event.Action {
	case amqp.ActionUpsert:
		return w.syncOne(ctx, event.ID)
	case amqp.ActionDelete:
		if err := w.mirror.DeletePayment(ctx, event.ID); err != nil {
			return fmt.Errorf("delete %s from mirror: %w", event.ID, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", event.Action)
	}
}

func (w *SyncWorker) syncOne(ctx context.Context, id string) error {
	p, err := w.repo.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the upsert was published; the delete event may
		// already have been handled.
		w.logger.InfoContext(ctx, "Payment gone before sync, removing from mirror", log.FieldPaymentID, id)
		if err := w.mirror.DeletePayment(ctx, id); err != nil {
			return fmt.Errorf("delete %s from mirror: %w", id, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get payment from storage: %w", err)
	}

	if err := w.mirror.UpsertPayment(ctx, p); err != nil {
		return fmt.Errorf("upsert %s to mirror: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Synced payment to mirror",
		log.FieldPaymentID, p.ID,
		log.FieldServiceDate, p.ServiceDate.String(),
		log.FieldAmountCents, p.Amount.Cents)
	return nil
}

// FullSync pushes every stored payment to the mirror. It is run at worker
// startup to recover from events missed while the worker was down. Failed
// rows are logged and counted; the first failure is returned at the end.
func (w *SyncWorker) FullSync(ctx context.Context) error {
	payments, err := w.repo.List(ctx, storage.Range{})
	if err != nil {
		return fmt.Errorf("list payments for full sync: %w", err)
	}

	var firstErr error
	synced, failed := 0, 0
	for _, p := range payments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.mirror.UpsertPayment(ctx, p); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync payment during full sync",
				log.FieldPaymentID, p.ID, log.FieldError, err.Error())
			if firstErr == nil {
				firstErr = fmt.Errorf("upsert %s to mirror: %w", p.ID, err)
			}
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Full sync completed",
		"total", len(payments),
		"synced", synced,
		"errors", failed)
	return firstErr
}
