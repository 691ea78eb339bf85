package core

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Unpaid PaymentStatus = "UNPAID"
	Paid   PaymentStatus = "PAID"
)

const (
	DisplayPaid      DisplayStatus = "PAID"
	DisplayCompleted DisplayStatus = "REALIZADA"
	DisplayPending   DisplayStatus = "PENDING"
)

const (
	MaxNoteLength       = 500
	MaxClientNameLength = 120
)

type (
	PaymentStatus string
	DisplayStatus string

	// Payment is one cleaning visit and what was received for it.
	Payment struct {
		ID               string
		ServiceDate      Date
		Amount           Money
		ServiceCompleted bool
		PaymentStatus    PaymentStatus
		PaymentDate      *Date // set iff PaymentStatus == Paid
		Note             string
		ClientName       string
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	// Draft carries the raw fields of a payment being created. Amount is
	// reais text; an empty Amount is rejected, never read as zero.
	Draft struct {
		ServiceDate      string
		Amount           string
		ServiceCompleted bool
		PaymentStatus    string
		PaymentDate      string
		Note             string
		ClientName       string
	}

	// Patch carries a partial update. Nil fields are left untouched.
	Patch struct {
		ServiceDate      *string
		Amount           *string
		ServiceCompleted *bool
		PaymentStatus    *string
		PaymentDate      *string
		Note             *string
		ClientName       *string
	}
)

// ParsePaymentStatus accepts PAID or UNPAID in any case. Empty input means
// UNPAID.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(Unpaid):
		return Unpaid, nil
	case string(Paid):
		return Paid, nil
	}
	return "", fmt.Errorf("%w: %q (expected PAID or UNPAID)", ErrInvalidStatus, s)
}

func (s PaymentStatus) Validate() error {
	if s != Paid && s != Unpaid {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
	return nil
}

func (p Payment) IsPaid() bool { return p.PaymentStatus == Paid }

// MonthKey is the YYYY-MM bucket of the service date.
func (p Payment) MonthKey() string { return p.ServiceDate.MonthKey() }

// DisplayStatus resolves PAID over REALIZADA over PENDING.
func (p Payment) DisplayStatus() DisplayStatus {
	switch {
	case p.PaymentStatus == Paid:
		return DisplayPaid
	case p.ServiceCompleted:
		return DisplayCompleted
	default:
		return DisplayPending
	}
}

// Validate checks every stored invariant and reports all failures.
func (p Payment) Validate() error {
	var errs ValidationErrors
	if err := p.ServiceDate.Validate(); err != nil {
		errs.add("serviceDate", err)
	}
	if err := p.Amount.Validate(); err != nil {
		errs.add("amountReais", err)
	}
	if err := p.PaymentStatus.Validate(); err != nil {
		errs.add("paymentStatus", err)
	}
	switch {
	case p.PaymentStatus == Paid && p.PaymentDate == nil:
		errs.add("paymentDate", fmt.Errorf("%w: paid payments need a payment date", ErrInvalidDate))
	case p.PaymentStatus != Paid && p.PaymentDate != nil:
		errs.add("paymentDate", fmt.Errorf("%w: unpaid payments cannot have a payment date", ErrInvalidDate))
	case p.PaymentDate != nil:
		if err := p.PaymentDate.Validate(); err != nil {
			errs.add("paymentDate", err)
		}
	}
	if utf8.RuneCountInString(p.Note) > MaxNoteLength {
		errs.add("note", fmt.Errorf("%w: note exceeds %d characters", ErrFieldTooLong, MaxNoteLength))
	}
	if utf8.RuneCountInString(p.ClientName) > MaxClientNameLength {
		errs.add("clientName", fmt.Errorf("%w: client name exceeds %d characters", ErrFieldTooLong, MaxClientNameLength))
	}
	return errs.orNil()
}

// NewPayment turns a draft into a payment ready for storage. today is the
// provider's current calendar day and becomes the payment date of a paid
// draft that doesn't carry one. The ID is left for the store to assign.
func NewPayment(d Draft, today Date) (Payment, error) {
	var (
		p    Payment
		errs ValidationErrors
		err  error
	)

	if strings.TrimSpace(d.ServiceDate) == "" {
		errs.add("serviceDate", fmt.Errorf("%w: service date is required", ErrInvalidDate))
	} else if p.ServiceDate, err = ParseDate(strings.TrimSpace(d.ServiceDate)); err != nil {
		errs.add("serviceDate", err)
	}
	if p.Amount, err = ParseMoney(d.Amount); err != nil {
		errs.add("amountReais", err)
	}
	if p.PaymentStatus, err = ParsePaymentStatus(d.PaymentStatus); err != nil {
		errs.add("paymentStatus", err)
	}
	supplied, err := parseOptionalDate(d.PaymentDate)
	if err != nil {
		errs.add("paymentDate", err)
	}
	if len(errs) > 0 {
		return Payment{}, errs
	}

	p.ServiceCompleted = d.ServiceCompleted
	p.Note = strings.TrimSpace(d.Note)
	p.ClientName = strings.TrimSpace(d.ClientName)
	p.reconcilePaymentDate(supplied, today)

	if err := p.Validate(); err != nil {
		return Payment{}, err
	}
	return p, nil
}

// Apply returns a copy of p with the patch applied. The payment date is
// reconciled with the resulting status: unpaid always clears it, paid
// keeps the supplied date, then the existing one, then today.
func (p Payment) Apply(patch Patch, today Date) (Payment, error) {
	var (
		out      = p
		errs     ValidationErrors
		supplied *Date
		err      error
	)

	if patch.ServiceDate != nil {
		if out.ServiceDate, err = ParseDate(strings.TrimSpace(*patch.ServiceDate)); err != nil {
			errs.add("serviceDate", err)
		}
	}
	if patch.Amount != nil {
		if out.Amount, err = ParseMoney(*patch.Amount); err != nil {
			errs.add("amountReais", err)
		}
	}
	if patch.ServiceCompleted != nil {
		out.ServiceCompleted = *patch.ServiceCompleted
	}
	if patch.PaymentStatus != nil {
		if out.PaymentStatus, err = ParsePaymentStatus(*patch.PaymentStatus); err != nil {
			errs.add("paymentStatus", err)
		}
	}
	if patch.PaymentDate != nil {
		if supplied, err = parseOptionalDate(*patch.PaymentDate); err != nil {
			errs.add("paymentDate", err)
		}
	}
	if patch.Note != nil {
		out.Note = strings.TrimSpace(*patch.Note)
	}
	if patch.ClientName != nil {
		out.ClientName = strings.TrimSpace(*patch.ClientName)
	}
	if len(errs) > 0 {
		return p, errs
	}

	out.reconcilePaymentDate(supplied, today)
	if err := out.Validate(); err != nil {
		return p, err
	}
	return out, nil
}

func (p *Payment) reconcilePaymentDate(supplied *Date, today Date) {
	if p.PaymentStatus != Paid {
		p.PaymentDate = nil
		return
	}
	switch {
	case supplied != nil:
		p.PaymentDate = supplied
	case p.PaymentDate != nil:
		// keep
	default:
		t := today
		p.PaymentDate = &t
	}
}

func parseOptionalDate(s string) (*Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
