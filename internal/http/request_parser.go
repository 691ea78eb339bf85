// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the payment JSON body and the filter query parameters.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"faxina/internal/core"
)

const maxBodyBytes = 64 << 10

// amountField accepts amountReais as a JSON string ("150.50") or a JSON
// number literal (150.5). The literal text is kept, never converted to a
// float, so normalization sees exactly what the client sent.
type amountField struct {
	set   bool
	value string
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		a.set, a.value = false, ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.set, a.value = true, s
		return nil
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		// "-" is kept so the amount rule reports the negative value.
		a.set, a.value = true, string(data)
		return nil
	}
	return fmt.Errorf("amountReais must be a string or a number")
}

// paymentRequest is the record input JSON. Absent and null fields are nil,
// which a partial update leaves untouched.
type paymentRequest struct {
	ServiceDate      *string     `json:"serviceDate"`
	AmountReais      amountField `json:"amountReais"`
	ServiceCompleted *bool       `json:"serviceCompleted"`
	PaymentStatus    *string     `json:"paymentStatus"`
	PaymentDate      *string     `json:"paymentDate"`
	Note             *string     `json:"note"`
	ClientName       *string     `json:"clientName"`
}

// decodePaymentRequest reads one JSON object from the body. Unknown fields,
// such as the legacy "valor", are rejected.
func decodePaymentRequest(r *http.Request) (paymentRequest, error) {
	var req paymentRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return req, fmt.Errorf("%w: could not read body", errBadRequest)
	}
	if len(body) > maxBodyBytes {
		return req, fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxBodyBytes)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, fmt.Errorf("%w: body is empty", errBadRequest)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: %s", errBadRequest, describeJSONError(err))
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return req, fmt.Errorf("%w: body must hold a single JSON object", errBadRequest)
	}
	return req, nil
}

func describeJSONError(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q has the wrong type", typeErr.Field)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "truncated JSON"
	}
	return err.Error()
}

// Draft builds a creation draft. Missing fields are empty, which the
// payment rules report where they are required.
func (p paymentRequest) Draft() core.Draft {
	d := core.Draft{
		ServiceDate:   deref(p.ServiceDate),
		Amount:        p.AmountReais.value,
		PaymentStatus: deref(p.PaymentStatus),
		PaymentDate:   deref(p.PaymentDate),
		Note:          sanitizeInput(deref(p.Note)),
		ClientName:    sanitizeInput(deref(p.ClientName)),
	}
	if p.ServiceCompleted != nil {
		d.ServiceCompleted = *p.ServiceCompleted
	}
	return d
}

// Patch builds a partial update from the fields that were present.
func (p paymentRequest) Patch() core.Patch {
	patch := core.Patch{
		ServiceDate:      p.ServiceDate,
		ServiceCompleted: p.ServiceCompleted,
		PaymentStatus:    p.PaymentStatus,
		PaymentDate:      p.PaymentDate,
	}
	if p.AmountReais.set {
		v := p.AmountReais.value
		patch.Amount = &v
	}
	if p.Note != nil {
		v := sanitizeInput(*p.Note)
		patch.Note = &v
	}
	if p.ClientName != nil {
		v := sanitizeInput(*p.ClientName)
		patch.ClientName = &v
	}
	return patch
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ParseFilterParams extracts the filter query parameters.
func ParseFilterParams(query url.Values) core.FilterParams {
	get := func(key string) string { return sanitizeInput(query.Get(key)) }
	return core.FilterParams{
		Date:      get("date"),
		Month:     get("month"),
		Year:      get("year"),
		StartDate: get("startDate"),
		EndDate:   get("endDate"),
		Client:    get("client"),
		Status:    get("status"),
	}
}

// parseBoolParam returns def when key is absent.
func parseBoolParam(query url.Values, key string, def bool) (bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s must be true or false", errBadRequest, key)
	}
	return b, nil
}

// sanitizeInput removes control characters (except tab and newlines) and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
