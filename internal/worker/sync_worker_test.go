package worker

import (
	"context"
	"errors"
	"testing"

	"faxina/internal/amqp"
	"faxina/internal/core"
	mirrormem "faxina/internal/sheets/memory"
	"faxina/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingMirror struct{ err error }

func (f failingMirror) UpsertPayment(context.Context, core.Payment) error { return f.err }
func (f failingMirror) DeletePayment(context.Context, string) error       { return f.err }

func seed(t *testing.T, store *memory.Store, date core.Date, cents int64) core.Payment {
	t.Helper()
	p, err := store.Insert(context.Background(), core.Payment{
		ServiceDate:   date,
		Amount:        core.Money{Cents: cents},
		PaymentStatus: core.Unpaid,
	})
	require.NoError(t, err)
	return p
}

func TestSyncWorker_HandleEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mirror := mirrormem.New()
	w := NewSyncWorker(store, mirror, nil)

	p := seed(t, store, core.NewDate(2024, 3, 15), 15000)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewPaymentEvent(p.ID, amqp.ActionUpsert)))
	row, ok := mirror.Row(p.ID)
	require.True(t, ok)
	assert.Equal(t, "150,00", row[2])

	p.Amount = core.Money{Cents: 18000}
	_, err := store.Update(ctx, p)
	require.NoError(t, err)
	require.NoError(t, w.HandleEvent(ctx, amqp.NewPaymentEvent(p.ID, amqp.ActionUpsert)))
	row, _ = mirror.Row(p.ID)
	assert.Equal(t, "180,00", row[2])

	require.NoError(t, w.HandleEvent(ctx, amqp.NewPaymentEvent(p.ID, amqp.ActionDelete)))
	_, ok = mirror.Row(p.ID)
	assert.False(t, ok)
}

func TestSyncWorker_UpsertOfDeletedPaymentRemovesRow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mirror := mirrormem.New()
	w := NewSyncWorker(store, mirror, nil)

	p := seed(t, store, core.NewDate(2024, 3, 15), 15000)
	require.NoError(t, mirror.UpsertPayment(ctx, p))
	require.NoError(t, store.Delete(ctx, p.ID))

	require.NoError(t, w.HandleEvent(ctx, amqp.NewPaymentEvent(p.ID, amqp.ActionUpsert)))
	_, ok := mirror.Row(p.ID)
	assert.False(t, ok)
}

func TestSyncWorker_Errors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := seed(t, store, core.NewDate(2024, 3, 15), 15000)

	boom := errors.New("quota exceeded")
	w := NewSyncWorker(store, failingMirror{err: boom}, nil)
	assert.ErrorIs(t, w.HandleEvent(ctx, amqp.NewPaymentEvent(p.ID, amqp.ActionUpsert)), boom)
	assert.ErrorIs(t, w.HandleEvent(ctx, amqp.NewPaymentEvent(p.ID, amqp.ActionDelete)), boom)
	assert.Error(t, w.HandleEvent(ctx, &amqp.PaymentEvent{ID: p.ID, Action: "archive"}))

	store.FailWith(errors.New("disk gone"))
	w = NewSyncWorker(store, mirrormem.New(), nil)
	assert.ErrorIs(t, w.HandleEvent(ctx, amqp.NewPaymentEvent(p.ID, amqp.ActionUpsert)), core.ErrStorageUnavailable)
}

func TestSyncWorker_FullSync(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mirror := mirrormem.New()

	seed(t, store, core.NewDate(2024, 3, 22), 18000)
	seed(t, store, core.NewDate(2024, 3, 15), 15000)

	require.NoError(t, NewSyncWorker(store, mirror, nil).FullSync(ctx))
	rows := mirror.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "15/03/2024", rows[1][1], "mirror is filled in service date order")
	assert.Equal(t, "22/03/2024", rows[2][1])

	boom := errors.New("quota exceeded")
	assert.ErrorIs(t, NewSyncWorker(store, failingMirror{err: boom}, nil).FullSync(ctx), boom)
}
