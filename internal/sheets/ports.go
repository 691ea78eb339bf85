package sheets

import (
	"context"
	"strings"

	"faxina/internal/core"
)

// PaymentMirror keeps an external copy of the payments table, one row per
// payment keyed by ID.
type PaymentMirror interface {
	UpsertPayment(ctx context.Context, p core.Payment) error
	DeletePayment(ctx context.Context, id string) error
}

// Header is the first row of a mirrored sheet. The column names match the
// spreadsheet importer, so an exported sheet can be imported back.
var Header = []string{"ID", "DATA", "VALOR", "REALIZADA", "PAGA", "DATA DE PAGAMENTO", "OBSERVAÇÃO", "CLIENTE"}

// Row renders p in Header order using the provider's notation: DD/MM/YYYY
// dates and a decimal comma.
func Row(p core.Payment) []string {
	completed := "NÃO"
	if p.ServiceCompleted {
		completed = "SIM"
	}
	paid, paidOn := "", ""
	if p.IsPaid() {
		paid = "PAGA"
		if p.PaymentDate != nil {
			paidOn = p.PaymentDate.Display()
		}
	}
	return []string{
		p.ID,
		p.ServiceDate.Display(),
		strings.Replace(core.FormatAmount(p.Amount.Cents), ".", ",", 1),
		completed,
		paid,
		paidOn,
		p.Note,
		p.ClientName,
	}
}
