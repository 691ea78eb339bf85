// Package importer loads payments from the provider's legacy spreadsheet.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"faxina/internal/core"
	"faxina/internal/log"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column headers, compared case-insensitively after trimming.
const (
	colDate      = "DATA"
	colCompleted = "REALIZADA"
	colAmount    = "VALOR"
	colPaid      = "PAGA"
	colPaidOn    = "DATA DE PAGAMENTO"
	colNote      = "OBSERVAÇÃO"
	colClient    = "CLIENTE"
)

var ErrNoHeader = errors.New("no header row with DATA and VALOR columns")

// Creator is the write path rows go through. Today is the provider's
// current calendar day in the configured time zone.
type Creator interface {
	Create(ctx context.Context, d core.Draft) (core.Payment, error)
	Today() core.Date
}

type Options struct {
	Sheet  string // defaults to the first sheet
	DryRun bool   // validate only, nothing is written
}

// RowError reports a spreadsheet row that was not imported. Line is the
// 1-based row number as shown by spreadsheet applications.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Line, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

type Result struct {
	Rows     int // data rows seen, blank rows excluded
	Imported int // created, or valid under DryRun
	Errors   []RowError
}

type Importer struct {
	creator Creator
	logger  *log.Logger
}

func New(creator Creator, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.Discard()
	}
	return &Importer{creator: creator, logger: logger.WithComponent(log.ComponentImport)}
}

// Import reads an xlsx workbook and creates one payment per data row.
// Invalid rows are collected in Result.Errors and do not stop the run;
// the returned error is reserved for unreadable input and storage outages.
func (im *Importer) Import(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return Result{}, fmt.Errorf("sheet %q not found in workbook", sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	drafts, res, err := ParseRows(rows)
	if err != nil {
		return Result{}, err
	}
	im.logger.InfoContext(ctx, "Parsed spreadsheet",
		"sheet", sheet,
		"rows", res.Rows,
		"invalid", len(res.Errors),
		"dry_run", opts.DryRun)

	today := im.creator.Today()
	for _, d := range drafts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if opts.DryRun {
			if _, err := core.NewPayment(d.Draft, today); err != nil {
				res.Errors = append(res.Errors, RowError{Line: d.Line, Err: err})
				continue
			}
			res.Imported++
			continue
		}

		p, err := im.creator.Create(ctx, d.Draft)
		if errors.Is(err, core.ErrStorageUnavailable) {
			return res, fmt.Errorf("row %d: %w", d.Line, err)
		}
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: d.Line, Err: err})
			continue
		}
		res.Imported++
		im.logger.DebugContext(ctx, "Imported row", "line", d.Line, log.FieldPaymentID, p.ID)
	}

	im.logger.InfoContext(ctx, "Import finished",
		log.FieldCount, res.Imported,
		"errors", len(res.Errors),
		"dry_run", opts.DryRun)
	return res, nil
}

// LineDraft is a parsed data row and where it came from.
type LineDraft struct {
	Line  int
	Draft core.Draft
}

// ParseRows converts raw sheet rows into drafts. Rows above the header are
// ignored, as are blank rows. Rows without a service date or an amount are
// reported in Result.Errors. Only Rows and Errors of the result are filled.
func ParseRows(rows [][]string) ([]LineDraft, Result, error) {
	var res Result

	headerAt, cols := -1, map[string]int(nil)
	for i, row := range rows {
		if c := headerColumns(row); c != nil {
			headerAt, cols = i, c
			break
		}
	}
	if headerAt < 0 {
		return nil, res, ErrNoHeader
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var drafts []LineDraft
	for i := headerAt + 1; i < len(rows); i++ {
		row, line := rows[i], i+1
		if blank(row) {
			continue
		}
		res.Rows++

		d, err := rowDraft(func(name string) string { return cell(row, name) })
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: line, Err: err})
			continue
		}
		drafts = append(drafts, LineDraft{Line: line, Draft: d})
	}
	return drafts, res, nil
}

func rowDraft(cell func(string) string) (core.Draft, error) {
	raw := cell(colDate)
	if raw == "" {
		return core.Draft{}, fmt.Errorf("%w: missing DATA", core.ErrInvalidDate)
	}
	date, err := parseSheetDate(raw)
	if err != nil {
		return core.Draft{}, err
	}

	raw = cell(colAmount)
	if raw == "" {
		return core.Draft{}, fmt.Errorf("%w: missing VALOR", core.ErrInvalidAmount)
	}
	amount, err := parseSheetAmount(raw)
	if err != nil {
		return core.Draft{}, err
	}

	d := core.Draft{
		ServiceDate:      date.String(),
		Amount:           amount,
		ServiceCompleted: isYes(cell(colCompleted)),
		PaymentStatus:    string(core.Unpaid),
		Note:             cell(colNote),
		ClientName:       cell(colClient),
	}
	if isPaid(cell(colPaid)) {
		d.PaymentStatus = string(core.Paid)
		if raw := cell(colPaidOn); raw != "" {
			paidOn, err := parseSheetDate(raw)
			if err != nil {
				return core.Draft{}, fmt.Errorf("DATA DE PAGAMENTO: %w", err)
			}
			d.PaymentDate = paidOn.String()
		}
	}
	return d, nil
}

func headerColumns(row []string) map[string]int {
	cols := make(map[string]int)
	for i, v := range row {
		name := strings.ToUpper(strings.TrimSpace(v))
		if _, dup := cols[name]; name != "" && !dup {
			cols[name] = i
		}
	}
	_, hasDate := cols[colDate]
	_, hasAmount := cols[colAmount]
	if !hasDate || !hasAmount {
		return nil
	}
	return cols
}

// parseSheetDate accepts DD/MM/YYYY text, ISO dates (optionally followed
// by a time) and Excel serial numbers.
func parseSheetDate(s string) (core.Date, error) {
	switch {
	case strings.Contains(s, "/"):
		t, err := time.Parse("2/1/2006", s)
		if err != nil {
			return core.Date{}, fmt.Errorf("%w: %q is not DD/MM/YYYY", core.ErrInvalidDate, s)
		}
		return core.DateOf(t), nil
	case strings.Contains(s, "-"):
		if len(s) > 10 {
			s = s[:10]
		}
		return core.ParseDate(s)
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < 1 {
		return core.Date{}, fmt.Errorf("%w: %q is not a date", core.ErrInvalidDate, s)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: serial %q: %v", core.ErrInvalidDate, s, err)
	}
	return core.DateOf(t), nil
}

// parseSheetAmount turns "R$ 1.500,00", "150" or a raw float cell such as
// "149.99999999" into a canonical two-decimal reais string. A comma marks
// pt-BR notation, where dots group thousands; otherwise a dot is the
// decimal separator, as in raw numeric cells.
func parseSheetAmount(s string) (string, error) {
	clean := strings.NewReplacer("R$", "", " ", "", "\u00a0", "").Replace(s)
	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", core.ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("%w: %q is negative", core.ErrInvalidAmount, s)
	}
	return d.StringFixed(2), nil
}

func isYes(s string) bool {
	switch strings.ToUpper(s) {
	case "SIM", "S", "X", "REALIZADA", "TRUE", "1":
		return true
	}
	return false
}

func isPaid(s string) bool {
	switch strings.ToUpper(s) {
	case "PAGA", "PAGO", "SIM", "S", "X", "PAID", "TRUE", "1":
		return true
	}
	return false
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
