package http

import (
	"net/http"
	"sync/atomic"
)

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	req, err := decodePaymentRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.payments.Create(r.Context(), req.Draft())
	if err != nil {
		writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.created, 1)

	_ = NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/payments/"+p.ID).
		Body(toPaymentResponse(p)).
		Write(w)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := s.payments.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = NewJSONResponse().Body(toPaymentResponse(p)).Write(w)
}

// handleUpdatePayment serves both PUT and PATCH; either way only the
// fields present in the body change.
func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	req, err := decodePaymentRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.payments.Update(r.Context(), r.PathValue("id"), req.Patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.updated, 1)

	_ = NewJSONResponse().Body(toPaymentResponse(p)).Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.payments.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.deleted, 1)

	_ = NewJSONResponse().Message("payment deleted").Write(w)
}

// handleListPayments returns month buckets, newest first, when no filter is
// given and the matching records otherwise.
func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	res, err := s.payments.List(r.Context(), ParseFilterParams(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = listResponse(res.Buckets, res.Records, res.Grouped, res.Filter.Labels()).Write(w)
}

// handlePeriod takes optional startDate and endDate. Buckets are
// ascending; groupByMonth=false returns a flat list.
func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	groupByMonth, err := parseBoolParam(query, "groupByMonth", true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.payments.Period(r.Context(), ParseFilterParams(query), groupByMonth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = listResponse(res.Buckets, res.Records, res.Grouped, res.Filter.Labels()).Write(w)
}
