package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"faxina/internal/log"
	"faxina/internal/report"
)

// handleReportPDF renders the filtered payments as a PDF. The document is
// built in memory first so a failure still gets a JSON error.
func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	records, filter, err := s.payments.Select(r.Context(), ParseFilterParams(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := s.now().In(s.loc)
	var buf bytes.Buffer
	if err := report.WritePDF(&buf, records, report.Options{
		Title:       s.reportTitle,
		GeneratedAt: now,
		Labels:      filter.Labels(),
	}); err != nil {
		writeError(w, r, fmt.Errorf("render pdf: %w", err))
		return
	}
	atomic.AddInt64(&s.appMetrics.reports, 1)

	log.FromContext(r.Context()).WithComponent(log.ComponentReport).InfoContext(r.Context(), "PDF report generated",
		log.FieldOperation, log.OpReport,
		log.FieldCount, len(records))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="relatorio-faxina-%s.pdf"`, now.Format("2006-01-02")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type whatsAppResponse struct {
	Message string `json:"message"`
	Link    string `json:"link"`
}

// handleReportWhatsApp builds the share message for the filtered payments.
// phone overrides the configured default; with neither, the link opens the
// contact picker.
func (s *Server) handleReportWhatsApp(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	records, filter, err := s.payments.Select(r.Context(), ParseFilterParams(query))
	if err != nil {
		writeError(w, r, err)
		return
	}

	phone := sanitizeInput(query.Get("phone"))
	if phone == "" {
		phone = s.whatsAppPhone
	}
	message := report.WhatsAppMessage(records, filter.Labels(), s.now().In(s.loc))
	atomic.AddInt64(&s.appMetrics.reports, 1)

	_ = NewJSONResponse().Body(whatsAppResponse{
		Message: message,
		Link:    report.WhatsAppLink(phone, message),
	}).Write(w)
}
