// Package report renders payment selections for sharing: a printable PDF
// and a WhatsApp message.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"faxina/internal/core"

	"github.com/phpdave11/gofpdf"
)

const (
	margin     = 20.0
	rowHeight  = 8.0
	footerText = "Relatório gerado pelo Sistema Faxina"
)

var (
	tableHeaders = []string{"#", "Data", "Valor", "Realizada", "Paga", "Data Pagamento"}
	colWidths    = []float64{15, 30, 35, 25, 25, 40}
)

// Options describes the report surroundings. Labels are the active filter
// chips; GeneratedAt should already be in the provider's time zone.
type Options struct {
	Title       string
	GeneratedAt time.Time
	Labels      []string
}

// WritePDF renders payments, in the order given, as an A4 report.
func WritePDF(w io.Writer, payments []core.Payment, opts Options) error {
	if opts.Title == "" {
		opts.Title = "Relatório de Faxinas"
	}
	stats := core.Summarize(payments)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(opts.Title, true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(127, 140, 141)
		pdf.CellFormat(0, 5, tr(footerText), "", 0, "C", false, 0, "")
		pdf.SetX(margin)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(44, 62, 80)
	pdf.CellFormat(0, 10, tr(opts.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(52, 73, 94)
	pdf.CellFormat(0, 8, "Sistema Faxina", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pageW, _ := pdf.GetPageSize()
	pdf.SetDrawColor(189, 195, 199)
	pdf.SetLineWidth(0.5)
	pdf.Line(margin, pdf.GetY(), pageW-margin, pdf.GetY())
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	info := []string{
		"Data de Geração: " + opts.GeneratedAt.Format("02/01/2006 15:04"),
		"Total de Registros: " + strconv.Itoa(stats.Count),
		"Valor Total: " + stats.Total.Display(),
	}
	for _, l := range opts.Labels {
		info = append(info, "Filtro: "+l)
	}
	for _, line := range info {
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	writeTable(pdf, tr, payments)
	pdf.Ln(10)
	writeStats(pdf, tr, stats)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, payments []core.Payment) {
	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFillColor(52, 73, 94)
		for i, h := range tableHeaders {
			pdf.CellFormat(colWidths[i], rowHeight, tr(h), "", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
	}
	header()

	_, pageH := pdf.GetPageSize()
	for i, p := range payments {
		if pdf.GetY()+rowHeight > pageH-25 {
			pdf.AddPage()
			header()
		}
		fill := i%2 == 0
		pdf.SetFillColor(248, 249, 250)
		for c, cell := range tableRow(i, p) {
			pdf.CellFormat(colWidths[c], rowHeight, tr(cell), "", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

func tableRow(i int, p core.Payment) []string {
	paidOn := "N/A"
	if p.PaymentDate != nil {
		paidOn = p.PaymentDate.Display()
	}
	return []string{
		strconv.Itoa(i + 1),
		p.ServiceDate.Display(),
		p.Amount.Display(),
		yesNo(p.ServiceCompleted),
		yesNo(p.IsPaid()),
		paidOn,
	}
}

func writeStats(pdf *gofpdf.Fpdf, tr func(string) string, s core.Stats) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(44, 62, 80)
	pdf.CellFormat(0, 9, tr("RESUMO ESTATÍSTICO"), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, line := range statLines(s) {
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}
}

func statLines(s core.Stats) []string {
	return []string{
		fmt.Sprintf("Total de Faxinas: %d", s.Count),
		fmt.Sprintf("Faxinas Realizadas: %d (%d%%)", s.CompletedCount, s.CompletedPercent),
		fmt.Sprintf("Faxinas Pagas: %d (%d%%)", s.PaidCount, s.PaidPercent),
		"Valor Total: " + s.Total.Display(),
		"Valor Recebido: " + s.Received.Display(),
		"Valor Pendente: " + s.Pending.Display(),
		"Valor Médio: " + s.Average.Display(),
	}
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
