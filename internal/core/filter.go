package core

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the pt-BR name of month m (1-12).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// FilterParams holds the raw query values a client may send. Empty fields
// are inactive.
type FilterParams struct {
	Date      string // YYYY-MM-DD
	Month     string // 1-12, requires Year
	Year      string
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive of the whole day
	Client    string // case-insensitive substring of ClientName
	Status    string // PAID, UNPAID, REALIZADA, PENDING (or PAGA, PENDENTE)
}

func (p FilterParams) IsEmpty() bool {
	return p == FilterParams{}
}

// Filter is a resolved selection over payments. Every active criterion
// must hold for a payment to match.
type Filter struct {
	from, to *Date
	client   string
	status   string
	labels   []string
	active   bool
}

// ResolveFilter validates params and builds the selection. Date criteria
// collapse into one inclusive envelope; an envelope that ends up empty
// matches nothing.
func ResolveFilter(params FilterParams) (Filter, error) {
	var (
		f    Filter
		errs ValidationErrors
	)
	p := trimParams(params)

	if p.Date != "" {
		d, err := ParseDate(p.Date)
		if err != nil {
			errs.add("date", filterError(err))
		} else {
			f.narrow(&d, &d)
			f.label("Data: " + d.Display())
		}
	}

	year, hasYear := 0, p.Year != ""
	if hasYear {
		y, err := strconv.Atoi(p.Year)
		if err != nil || y < 1 || y > 9999 {
			errs.add("year", fmt.Errorf("%w: year %q is not valid", ErrInvalidFilter, p.Year))
			hasYear = false
		}
		year = y
	}

	switch {
	case p.Month != "":
		m, err := strconv.Atoi(p.Month)
		if err != nil || m < 1 || m > 12 {
			errs.add("month", fmt.Errorf("%w: month %q is not between 1 and 12", ErrInvalidFilter, p.Month))
			break
		}
		if p.Year == "" {
			errs.add("month", fmt.Errorf("%w: month requires a year", ErrInvalidFilter))
			break
		}
		if hasYear {
			first := NewDate(year, m, 1)
			last := first.LastOfMonth()
			f.narrow(&first, &last)
			f.label(fmt.Sprintf("Mês: %s/%d", MonthName(m), year))
		}
	case hasYear:
		first, last := NewDate(year, 1, 1), NewDate(year, 12, 31)
		f.narrow(&first, &last)
		f.label(fmt.Sprintf("Ano: %d", year))
	}

	var start, end *Date
	if p.StartDate != "" {
		d, err := ParseDate(p.StartDate)
		if err != nil {
			errs.add("startDate", filterError(err))
		} else {
			start = &d
		}
	}
	if p.EndDate != "" {
		d, err := ParseDate(p.EndDate)
		if err != nil {
			errs.add("endDate", filterError(err))
		} else {
			end = &d
		}
	}
	if start != nil && end != nil && start.After(*end) {
		errs.add("startDate", fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidFilter, start, end))
	} else if start != nil || end != nil {
		f.narrow(start, end)
		f.label(rangeLabel(start, end))
	}

	if p.Client != "" {
		f.client = fold(p.Client)
		f.active = true
		f.label("Cliente: " + p.Client)
	}

	if p.Status != "" {
		status, label, ok := resolveStatus(p.Status)
		if !ok {
			errs.add("status", fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, p.Status))
		} else {
			f.status = status
			f.active = true
			f.label("Status: " + label)
		}
	}

	if len(errs) > 0 {
		return Filter{}, errs
	}
	return f, nil
}

// Active reports whether any criterion is set.
func (f Filter) Active() bool { return f.active }

// Bounds returns the inclusive date envelope; nil means unbounded. Stores
// use it to narrow what they read before Match runs.
func (f Filter) Bounds() (from, to *Date) { return f.from, f.to }

// Labels are the pt-BR descriptions of the active criteria.
func (f Filter) Labels() []string { return f.labels }

// Match reports whether p satisfies every criterion.
func (f Filter) Match(p Payment) bool {
	if f.from != nil && p.ServiceDate.Before(*f.from) {
		return false
	}
	if f.to != nil && p.ServiceDate.After(*f.to) {
		return false
	}
	if f.client != "" && !strings.Contains(fold(p.ClientName), f.client) {
		return false
	}
	switch f.status {
	case "":
	case string(Paid), string(Unpaid):
		if string(p.PaymentStatus) != f.status {
			return false
		}
	default:
		if string(p.DisplayStatus()) != f.status {
			return false
		}
	}
	return true
}

// Predicate exposes Match as a function value.
func (f Filter) Predicate() func(Payment) bool { return f.Match }

// Select returns the payments that match, keeping their order.
func (f Filter) Select(payments []Payment) []Payment {
	out := make([]Payment, 0, len(payments))
	for _, p := range payments {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func (f *Filter) narrow(from, to *Date) {
	f.active = true
	if from != nil && (f.from == nil || from.After(*f.from)) {
		d := *from
		f.from = &d
	}
	if to != nil && (f.to == nil || to.Before(*f.to)) {
		d := *to
		f.to = &d
	}
}

func (f *Filter) label(s string) { f.labels = append(f.labels, s) }

func rangeLabel(start, end *Date) string {
	switch {
	case start != nil && end != nil:
		return fmt.Sprintf("Período: %s - %s", start.Display(), end.Display())
	case start != nil:
		return "A partir de: " + start.Display()
	default:
		return "Até: " + end.Display()
	}
}

func resolveStatus(s string) (status, label string, ok bool) {
	switch strings.ToUpper(s) {
	case "PAID", "PAGA", "PAGO":
		return string(Paid), "Paga", true
	case "UNPAID", "NAO_PAGA", "NÃO PAGA":
		return string(Unpaid), "Não paga", true
	case "REALIZADA":
		return string(DisplayCompleted), "Realizada", true
	case "PENDING", "PENDENTE":
		return string(DisplayPending), "Pendente", true
	}
	return "", "", false
}

func filterError(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
}

// fold builds a fresh Caser per call; casers keep state between calls.
func fold(s string) string {
	return cases.Fold().String(s)
}

func trimParams(p FilterParams) FilterParams {
	return FilterParams{
		Date:      strings.TrimSpace(p.Date),
		Month:     strings.TrimSpace(p.Month),
		Year:      strings.TrimSpace(p.Year),
		StartDate: strings.TrimSpace(p.StartDate),
		EndDate:   strings.TrimSpace(p.EndDate),
		Client:    strings.TrimSpace(p.Client),
		Status:    strings.TrimSpace(p.Status),
	}
}
