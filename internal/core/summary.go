package core

import (
	"cmp"
	"slices"
)

// SortOrder selects how month buckets are ordered.
type SortOrder int

const (
	// Descending puts the most recent month first (all-payments view).
	Descending SortOrder = iota
	// Ascending puts the oldest month first (period and report views).
	Ascending
)

// MonthBucket groups the payments of one calendar month.
type MonthBucket struct {
	MonthKey       string // YYYY-MM
	Records        []Payment
	TotalAmount    Money
	Count          int
	CompletedCount int
	PaidCount      int
}

// Stats is the statistical summary printed on reports.
type Stats struct {
	Count            int
	CompletedCount   int
	PaidCount        int
	CompletedPercent int
	PaidPercent      int
	Total            Money
	Received         Money
	Pending          Money
	Average          Money
}

// SortByServiceDate orders payments by service date, oldest first. Records
// on the same day keep their creation order.
func SortByServiceDate(payments []Payment) {
	slices.SortStableFunc(payments, func(a, b Payment) int {
		if c := a.ServiceDate.Compare(b.ServiceDate); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// GroupByMonth buckets payments by MonthKey. Totals are exact sums of
// centavos. Records inside a bucket are ordered by service date. Duplicate
// IDs are kept as given.
func GroupByMonth(payments []Payment, order SortOrder) []MonthBucket {
	buckets := make([]MonthBucket, 0)
	index := make(map[string]int)

	sorted := slices.Clone(payments)
	SortByServiceDate(sorted)

	for _, p := range sorted {
		key := p.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, MonthBucket{MonthKey: key})
		}
		b := &buckets[i]
		b.Records = append(b.Records, p)
		b.TotalAmount.Cents += p.Amount.Cents
		b.Count++
		if p.ServiceCompleted {
			b.CompletedCount++
		}
		if p.IsPaid() {
			b.PaidCount++
		}
	}

	slices.SortFunc(buckets, func(a, b MonthBucket) int {
		if order == Ascending {
			return cmp.Compare(a.MonthKey, b.MonthKey)
		}
		return cmp.Compare(b.MonthKey, a.MonthKey)
	})
	return buckets
}

// Summarize computes report statistics. Percentages are rounded to the
// nearest integer; the average is truncated to whole centavos.
func Summarize(payments []Payment) Stats {
	var s Stats
	for _, p := range payments {
		s.Count++
		s.Total.Cents += p.Amount.Cents
		if p.ServiceCompleted {
			s.CompletedCount++
		}
		if p.IsPaid() {
			s.PaidCount++
			s.Received.Cents += p.Amount.Cents
		} else {
			s.Pending.Cents += p.Amount.Cents
		}
	}
	if s.Count > 0 {
		s.CompletedPercent = percent(s.CompletedCount, s.Count)
		s.PaidPercent = percent(s.PaidCount, s.Count)
		s.Average.Cents = s.Total.Cents / int64(s.Count)
	}
	return s
}

func percent(part, whole int) int {
	return (part*200 + whole) / (whole * 2)
}
