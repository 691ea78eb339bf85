package core

import (
	"errors"
	"testing"
)

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"150", 15000, true},
		{"150.5", 15050, true},
		{"150.50", 15050, true},
		{"150,50", 15050, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"0.01", 1, true},
		{"10.00", 1000, true},
		{"1000.00", 100000, true},
		{"007.10", 710, true},
		{"100000000.00", MaxAmountCents, true},
		{"100000000,00", MaxAmountCents, true},
		{"100000000.01", 0, false},
		{"92233720368547758.07", 0, false},
		{"99999999999999999999", 0, false},
		{"-5.00", 0, false},
		{"+5.00", 0, false},
		{"abc", 0, false},
		{"5.123", 0, false},
		{"1.2.3", 0, false},
		{"1,2.3", 0, false},
		{"1.000,00", 0, false},
		{"1e3", 0, false},
		{".50", 0, false},
		{"5.", 0, false},
		{"5 00", 0, false},
		{"", 0, false},
		{"   ", 0, false},
	}
	for _, tc := range cases {
		got, err := NormalizeAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got)
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestNormalizeAmountNoMagnitudeThreshold(t *testing.T) {
	// 1000.00 and 10.00 scale by the same factor.
	small, err := NormalizeAmount("10.00")
	if err != nil {
		t.Fatal(err)
	}
	large, err := NormalizeAmount("1000.00")
	if err != nil {
		t.Fatal(err)
	}
	if small != 1000 || large != 100000 || large != small*100 {
		t.Fatalf("unexpected scaling: 10.00 -> %d, 1000.00 -> %d", small, large)
	}
	for in, want := range map[string]int64{"999.99": 99999, "1000": 100000, "1000.01": 100001, "5000": 500000} {
		got, err := NormalizeAmount(in)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("%q normalized to %d, want %d", in, got, want)
		}
	}
}

func TestFormatAmountRoundTrip(t *testing.T) {
	for _, s := range []string{"0.00", "0.01", "0.10", "1.00", "150.00", "150.50", "999.99", "1000.00", "123456789.99"} {
		cents, err := NormalizeAmount(s)
		if err != nil {
			t.Fatalf("%q: %v", s, err)
		}
		if got := FormatAmount(cents); got != s {
			t.Fatalf("round trip of %q gave %q", s, got)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := map[int64]string{
		0:         "R$ 0,00",
		5:         "R$ 0,05",
		15000:     "R$ 150,00",
		150000:    "R$ 1.500,00",
		123456789: "R$ 1.234.567,89",
		-2550:     "-R$ 25,50",
	}
	for in, want := range cases {
		if got := FormatCurrency(in); got != want {
			t.Fatalf("FormatCurrency(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestMaxAmountSumsStayPositive(t *testing.T) {
	cents, err := NormalizeAmount("100000000.00")
	if err != nil {
		t.Fatal(err)
	}
	d := NewDate(2024, 1, 10)
	in := []Payment{
		{ServiceDate: d, Amount: Money{Cents: cents}, PaymentStatus: Unpaid},
		{ServiceDate: d, Amount: Money{Cents: cents}, PaymentStatus: Unpaid},
	}

	buckets := GroupByMonth(in, Descending)
	if len(buckets) != 1 || buckets[0].TotalAmount.Cents != 2*MaxAmountCents {
		t.Fatalf("unexpected buckets %+v", buckets)
	}
	if got := buckets[0].TotalAmount.Display(); got != "R$ 200.000.000,00" {
		t.Fatalf("bucket total displayed as %q", got)
	}
	s := Summarize(in)
	if s.Total.Cents != 2*MaxAmountCents || s.Pending.Cents != 2*MaxAmountCents {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("expected zero to be valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := (Money{Cents: MaxAmountCents + 1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount above the maximum, got %v", err)
	}
}
