package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"faxina/internal/config"
	"faxina/internal/core"
	"faxina/internal/log"
	"faxina/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct{ closed bool }

func (p *stubPublisher) PublishPaymentUpsert(context.Context, string) error { return nil }
func (p *stubPublisher) PublishPaymentDelete(context.Context, string) error { return nil }
func (p *stubPublisher) Close() error {
	p.closed = true
	return nil
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", AMQPURL: "amqp://localhost", AMQPExchange: "e", AMQPQueue: "q"}
	got, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", AMQPURL: "amqp://localhost", AMQPExchange: "e", AMQPQueue: "q"}, got)

	_, err = FromAppConfig(&config.Config{DataBackend: "mongo"})
	assert.ErrorContains(t, err, `"mongo" (must be one of sqlite, memory)`)
	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: "sheets"}.Validate())
	assert.Error(t, Config{Type: MemoryBackend, AMQPURL: "amqp://x"}.Validate())
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateBackend_Memory(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	assert.Nil(t, res.Publisher, "no AMQP URL means no publisher")

	svc := res.PaymentService()
	p, err := svc.Create(context.Background(), core.Draft{ServiceDate: "2024-03-15", Amount: "100"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faxina.db")
	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	require.NoError(t, res.Repository.Ping(context.Background()))
}

func TestCreateBackend_AMQP(t *testing.T) {
	cfg := Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "faxina", AMQPQueue: "events"}

	t.Run("dial failure leaves a nil publisher", func(t *testing.T) {
		f := NewFactory(nil)
		f.dialer = func(string, string, string, *log.Logger) (services.EventPublisher, error) {
			return nil, errors.New("connection refused")
		}
		res, err := f.CreateBackend(context.Background(), cfg)
		require.NoError(t, err)
		assert.Nil(t, res.Publisher)
	})

	t.Run("publisher is closed with the backend", func(t *testing.T) {
		pub := &stubPublisher{}
		f := NewFactory(nil)
		f.dialer = func(string, string, string, *log.Logger) (services.EventPublisher, error) {
			return pub, nil
		}
		res, err := f.CreateBackend(context.Background(), cfg)
		require.NoError(t, err)
		assert.Same(t, pub, res.Publisher)

		require.NoError(t, res.Close())
		assert.True(t, pub.closed)
	})
}
