package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolveFilterNoParams(t *testing.T) {
	f, err := ResolveFilter(FilterParams{Client: "  "})
	if err != nil {
		t.Fatal(err)
	}
	if f.Active() {
		t.Fatalf("blank params must be inactive")
	}
	if !f.Match(payment("1999-01-01", 0)) {
		t.Fatalf("inactive filter must accept everything")
	}
}

func TestResolveFilterShapes(t *testing.T) {
	cases := []struct {
		name   string
		params FilterParams
		in     []string
		out    []string
		label  string
	}{
		{
			name:   "exact date",
			params: FilterParams{Date: "2024-03-15"},
			in:     []string{"2024-03-15"},
			out:    []string{"2024-03-14", "2024-03-16"},
			label:  "Data: 15/03/2024",
		},
		{
			name:   "month and year",
			params: FilterParams{Month: "2", Year: "2024"},
			in:     []string{"2024-02-01", "2024-02-29"},
			out:    []string{"2024-01-31", "2024-03-01", "2023-02-10"},
			label:  "Mês: Fevereiro/2024",
		},
		{
			name:   "year",
			params: FilterParams{Year: "2023"},
			in:     []string{"2023-01-01", "2023-12-31"},
			out:    []string{"2022-12-31", "2024-01-01"},
			label:  "Ano: 2023",
		},
		{
			name:   "range is inclusive of its end day",
			params: FilterParams{StartDate: "2024-03-01", EndDate: "2024-03-31"},
			in:     []string{"2024-03-01", "2024-03-31"},
			out:    []string{"2024-02-29", "2024-04-01"},
			label:  "Período: 01/03/2024 - 31/03/2024",
		},
		{
			name:   "open start",
			params: FilterParams{EndDate: "2024-03-31"},
			in:     []string{"2000-01-01", "2024-03-31"},
			out:    []string{"2024-04-01"},
			label:  "Até: 31/03/2024",
		},
		{
			name:   "open end",
			params: FilterParams{StartDate: "2024-03-01"},
			in:     []string{"2024-03-01", "2030-01-01"},
			out:    []string{"2024-02-29"},
			label:  "A partir de: 01/03/2024",
		},
	}
	for _, tc := range cases {
		f, err := ResolveFilter(tc.params)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		for _, d := range tc.in {
			if !f.Match(payment(d, 1)) {
				t.Fatalf("%s: expected %s to match", tc.name, d)
			}
		}
		for _, d := range tc.out {
			if f.Match(payment(d, 1)) {
				t.Fatalf("%s: expected %s not to match", tc.name, d)
			}
		}
		if !reflect.DeepEqual(f.Labels(), []string{tc.label}) {
			t.Fatalf("%s: unexpected labels %v", tc.name, f.Labels())
		}
	}
}

func TestResolveFilterCombinesWithAnd(t *testing.T) {
	f, err := ResolveFilter(FilterParams{Year: "2024", Client: "silva", Status: "PAID"})
	if err != nil {
		t.Fatal(err)
	}
	match := payment("2024-06-01", 1)
	match.ClientName = "Dona Maria SILVA"
	match.PaymentStatus = Paid
	if !f.Match(match) {
		t.Fatalf("expected match")
	}

	wrongYear := match
	wrongYear.ServiceDate = NewDate(2023, 6, 1)
	wrongClient := match
	wrongClient.ClientName = "Souza"
	unpaid := match
	unpaid.PaymentStatus = Unpaid
	for _, p := range []Payment{wrongYear, wrongClient, unpaid} {
		if f.Match(p) {
			t.Fatalf("expected %+v to be excluded", p)
		}
	}

	from, to := f.Bounds()
	if from == nil || to == nil || from.String() != "2024-01-01" || to.String() != "2024-12-31" {
		t.Fatalf("unexpected bounds %v %v", from, to)
	}
}

func TestResolveFilterIntersectsDates(t *testing.T) {
	f, err := ResolveFilter(FilterParams{Year: "2024", StartDate: "2024-11-15", EndDate: "2025-02-01"})
	if err != nil {
		t.Fatal(err)
	}
	from, to := f.Bounds()
	if from.String() != "2024-11-15" || to.String() != "2024-12-31" {
		t.Fatalf("unexpected envelope %s..%s", from, to)
	}

	disjoint, err := ResolveFilter(FilterParams{Date: "2024-01-01", Year: "2023"})
	if err != nil {
		t.Fatal(err)
	}
	if disjoint.Match(payment("2024-01-01", 1)) || disjoint.Match(payment("2023-06-01", 1)) {
		t.Fatalf("disjoint criteria must match nothing")
	}
}

func TestResolveFilterStatus(t *testing.T) {
	paid := payment("2024-01-01", 1)
	paid.PaymentStatus = Paid
	done := payment("2024-01-01", 1)
	done.ServiceCompleted = true
	pending := payment("2024-01-01", 1)

	cases := map[string][]bool{ // paid, done, pending
		"PAID":      {true, false, false},
		"paga":      {true, false, false},
		"UNPAID":    {false, true, true},
		"REALIZADA": {false, true, false},
		"pending":   {false, false, true},
		"PENDENTE":  {false, false, true},
	}
	for status, want := range cases {
		f, err := ResolveFilter(FilterParams{Status: status})
		if err != nil {
			t.Fatalf("%s: %v", status, err)
		}
		got := []bool{f.Match(paid), f.Match(done), f.Match(pending)}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: got %v want %v", status, got, want)
		}
	}
}

func TestResolveFilterRejects(t *testing.T) {
	cases := []struct {
		params FilterParams
		field  string
	}{
		{FilterParams{Date: "15/03/2024"}, "date"},
		{FilterParams{Date: "0000-01-01"}, "date"},
		{FilterParams{Month: "3"}, "month"},
		{FilterParams{Month: "13", Year: "2024"}, "month"},
		{FilterParams{Year: "two"}, "year"},
		{FilterParams{StartDate: "2024-02-30"}, "startDate"},
		{FilterParams{EndDate: "tomorrow"}, "endDate"},
		{FilterParams{StartDate: "2024-04-01", EndDate: "2024-03-01"}, "startDate"},
		{FilterParams{Status: "LATE"}, "status"},
	}
	for _, tc := range cases {
		_, err := ResolveFilter(tc.params)
		if !errors.Is(err, ErrInvalidFilter) {
			t.Fatalf("%+v: expected ErrInvalidFilter, got %v", tc.params, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("%+v: expected field %s, got %v", tc.params, tc.field, err)
		}
	}
}

func TestFilterSelectKeepsOrder(t *testing.T) {
	f, err := ResolveFilter(FilterParams{Month: "1", Year: "2024"})
	if err != nil {
		t.Fatal(err)
	}
	in := []Payment{payment("2024-01-20", 1), payment("2024-02-01", 1), payment("2024-01-05", 1)}
	got := f.Select(in)
	if len(got) != 2 || got[0].ServiceDate.Day != 20 || got[1].ServiceDate.Day != 5 {
		t.Fatalf("unexpected selection %+v", got)
	}
}
