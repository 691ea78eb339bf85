// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses and the wire
// shapes of payments and month buckets.

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"faxina/internal/core"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Message sets a {"message": msg} body.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	return b.Body(map[string]string{"message": msg})
}

// Write encodes the body before touching w, so an encoding failure still
// produces a clean 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) error {
	var buf bytes.Buffer
	if b.body != nil {
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(b.body); err != nil {
			http.Error(w, `{"error":"internal_error","message":"could not encode response"}`, http.StatusInternalServerError)
			return err
		}
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if buf.Len() > 0 {
		_, err := w.Write(buf.Bytes())
		return err
	}
	return nil
}

type paymentResponse struct {
	ID               string    `json:"id"`
	ServiceDate      string    `json:"serviceDate"`
	AmountCents      int64     `json:"amountCents"`
	AmountReais      string    `json:"amountReais"`
	AmountDisplay    string    `json:"amountDisplay"`
	ServiceCompleted bool      `json:"serviceCompleted"`
	PaymentStatus    string    `json:"paymentStatus"`
	PaymentDate      *string   `json:"paymentDate"`
	Note             string    `json:"note"`
	ClientName       string    `json:"clientName"`
	MonthKey         string    `json:"monthKey"`
	DisplayStatus    string    `json:"displayStatus"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toPaymentResponse(p core.Payment) paymentResponse {
	out := paymentResponse{
		ID:               p.ID,
		ServiceDate:      p.ServiceDate.String(),
		AmountCents:      p.Amount.Cents,
		AmountReais:      p.Amount.Reais(),
		AmountDisplay:    p.Amount.Display(),
		ServiceCompleted: p.ServiceCompleted,
		PaymentStatus:    string(p.PaymentStatus),
		Note:             p.Note,
		ClientName:       p.ClientName,
		MonthKey:         p.MonthKey(),
		DisplayStatus:    string(p.DisplayStatus()),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.PaymentDate != nil {
		s := p.PaymentDate.String()
		out.PaymentDate = &s
	}
	return out
}

func toPaymentResponses(payments []core.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out
}

type bucketResponse struct {
	MonthKey       string            `json:"monthKey"`
	Records        []paymentResponse `json:"records"`
	TotalAmount    int64             `json:"totalAmount"`
	TotalDisplay   string            `json:"totalDisplay"`
	Count          int               `json:"count"`
	CompletedCount int               `json:"completedCount"`
	PaidCount      int               `json:"paidCount"`
}

func toBucketResponses(buckets []core.MonthBucket) []bucketResponse {
	out := make([]bucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bucketResponse{
			MonthKey:       b.MonthKey,
			Records:        toPaymentResponses(b.Records),
			TotalAmount:    b.TotalAmount.Cents,
			TotalDisplay:   b.TotalAmount.Display(),
			Count:          b.Count,
			CompletedCount: b.CompletedCount,
			PaidCount:      b.PaidCount,
		})
	}
	return out
}

// Result shapes announced in the X-Result-Shape header.
const (
	HeaderResultShape = "X-Result-Shape"
	ShapeGrouped      = "grouped"
	ShapeFlat         = "flat"
)

type groupedResponse struct {
	Buckets []bucketResponse `json:"buckets"`
	Filters []string         `json:"filters"`
}

type flatResponse struct {
	Records []paymentResponse `json:"records"`
	Count   int               `json:"count"`
	Filters []string          `json:"filters"`
}

// listResponse turns a service result into a builder with the matching
// shape header set.
func listResponse(buckets []core.MonthBucket, records []core.Payment, grouped bool, labels []string) *JSONResponseBuilder {
	if labels == nil {
		labels = []string{}
	}
	if grouped {
		return NewJSONResponse().
			Header(HeaderResultShape, ShapeGrouped).
			Body(groupedResponse{Buckets: toBucketResponses(buckets), Filters: labels})
	}
	return NewJSONResponse().
		Header(HeaderResultShape, ShapeFlat).
		Body(flatResponse{Records: toPaymentResponses(records), Count: len(records), Filters: labels})
}
