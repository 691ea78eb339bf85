package memory

import (
	"context"
	"sync"

	"faxina/internal/core"
	"faxina/internal/sheets"
)

// Mirror is an in-memory sheets.PaymentMirror that keeps rows in insertion
// order, the way a spreadsheet would.
type Mirror struct {
	mu   sync.Mutex
	ids  []string
	rows map[string][]string
}

var _ sheets.PaymentMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[string][]string)}
}

func (m *Mirror) UpsertPayment(_ context.Context, p core.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		m.ids = append(m.ids, p.ID)
	}
	m.rows[p.ID] = sheets.Row(p)
	return nil
}

func (m *Mirror) DeletePayment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return nil
	}
	delete(m.rows, id)
	for i, v := range m.ids {
		if v == id {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			break
		}
	}
	return nil
}

// Rows returns a copy of the mirrored rows, header first.
func (m *Mirror) Rows() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := [][]string{append([]string(nil), sheets.Header...)}
	for _, id := range m.ids {
		out = append(out, append([]string(nil), m.rows[id]...))
	}
	return out
}

// Row returns the mirrored row for id.
func (m *Mirror) Row(id string) ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	return append([]string(nil), r...), ok
}
