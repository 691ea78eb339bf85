package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"faxina/internal/services"
	"faxina/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := services.NewPaymentService(store, services.WithClock(func() time.Time { return fixedNow }))
	srv := NewServer(Options{Addr: ":0", Now: func() time.Time { return fixedNow }}, svc, nil)
	t.Cleanup(srv.limiter.Stop)
	return srv, store
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func create(t *testing.T, srv *Server, body string) paymentResponse {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/payments", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[paymentResponse](t, rr)
}

func TestHealthAndReady(t *testing.T) {
	srv, store := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	store.FailWith(errors.New("disk gone"))
	rr := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk gone")
}

func TestCreatePayment(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/payments",
		`{"serviceDate":"2024-03-15","amountReais":"150.50","serviceCompleted":true,"paymentStatus":"PAID","clientName":"Ana"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	p := decode[paymentResponse](t, rr)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "/api/payments/"+p.ID, rr.Header().Get("Location"))
	assert.Equal(t, int64(15050), p.AmountCents)
	assert.Equal(t, "150.50", p.AmountReais)
	assert.Equal(t, "R$ 150,50", p.AmountDisplay)
	assert.Equal(t, "2024-03", p.MonthKey)
	assert.Equal(t, "PAID", p.DisplayStatus)
	require.NotNil(t, p.PaymentDate)
	assert.Equal(t, "2024-03-20", *p.PaymentDate, "paid without a date is paid today")
}

func TestCreatePayment_NumberAmount(t *testing.T) {
	srv, _ := newTestServer(t)
	p := create(t, srv, `{"serviceDate":"2024-03-15","amountReais":150.5}`)
	assert.Equal(t, int64(15050), p.AmountCents)
	assert.Equal(t, "PENDING", p.DisplayStatus)
	assert.Nil(t, p.PaymentDate)
}

func TestCreatePayment_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
		field    string
	}{
		{"negative amount", `{"serviceDate":"2024-03-15","amountReais":"-5.00"}`, 422, CodeInvalidAmount, "amountReais"},
		{"negative number amount", `{"serviceDate":"2024-03-15","amountReais":-5}`, 422, CodeInvalidAmount, "amountReais"},
		{"text amount", `{"serviceDate":"2024-03-15","amountReais":"abc"}`, 422, CodeInvalidAmount, "amountReais"},
		{"three decimals", `{"serviceDate":"2024-03-15","amountReais":"5.123"}`, 422, CodeInvalidAmount, "amountReais"},
		{"missing amount", `{"serviceDate":"2024-03-15"}`, 422, CodeInvalidAmount, "amountReais"},
		{"bad date", `{"serviceDate":"15/03/2024","amountReais":"10"}`, 422, CodeInvalidDate, "serviceDate"},
		{"mixed failures", `{"serviceDate":"nope","amountReais":"x"}`, 422, CodeValidationFailed, ""},
		{"legacy valor field", `{"serviceDate":"2024-03-15","valor":15000}`, 400, CodeBadRequest, ""},
		{"malformed json", `{"serviceDate":`, 400, CodeBadRequest, ""},
		{"two objects", `{"amountReais":"1"}{"amountReais":"2"}`, 400, CodeBadRequest, ""},
		{"bool amount", `{"serviceDate":"2024-03-15","amountReais":true}`, 400, CodeBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := newTestServer(t)
			rr := do(t, srv, http.MethodPost, "/api/payments", tt.body)
			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())

			body := decode[errorBody](t, rr)
			assert.Equal(t, tt.wantErr, body.Error)
			if tt.field != "" {
				require.NotEmpty(t, body.Details)
				assert.Equal(t, tt.field, body.Details[0].Field)
			}
			assert.Zero(t, store.Len())
		})
	}
}

func TestCreatePayment_EmptyBody(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/payments", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreatePayment_StorageUnavailable(t *testing.T) {
	srv, store := newTestServer(t)
	store.FailWith(errors.New("database is locked"))

	rr := do(t, srv, http.MethodPost, "/api/payments", `{"serviceDate":"2024-03-15","amountReais":"10"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, CodeStorageUnavailable, body.Error)
	assert.NotContains(t, rr.Body.String(), "locked")
}

func TestGetUpdateDeletePayment(t *testing.T) {
	srv, store := newTestServer(t)
	created := create(t, srv, `{"serviceDate":"2024-03-15","amountReais":"100","paymentStatus":"PAID","paymentDate":"2024-03-16"}`)

	rr := do(t, srv, http.MethodGet, "/api/payments/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, created.ID, decode[paymentResponse](t, rr).ID)

	rr = do(t, srv, http.MethodPatch, "/api/payments/"+created.ID, `{"paymentStatus":"UNPAID","note":"voltar sexta"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[paymentResponse](t, rr)
	assert.Nil(t, updated.PaymentDate, "unpaid clears the payment date")
	assert.Equal(t, "voltar sexta", updated.Note)
	assert.Equal(t, int64(10000), updated.AmountCents, "absent fields are untouched")

	rr = do(t, srv, http.MethodPut, "/api/payments/"+created.ID, `{"amountReais":"5.123"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, srv, http.MethodDelete, "/api/payments/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "payment deleted", decode[map[string]string](t, rr)["message"])
	assert.Zero(t, store.Len())

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rr = do(t, srv, method, "/api/payments/"+created.ID, "")
		assert.Equal(t, http.StatusNotFound, rr.Code, method)
		assert.Equal(t, CodeNotFound, decode[errorBody](t, rr).Error)
	}
	rr = do(t, srv, http.MethodPatch, "/api/payments/missing", `{"amountReais":"abc"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code, "unknown id wins over invalid patch")
}

func TestListPayments(t *testing.T) {
	srv, _ := newTestServer(t)
	create(t, srv, `{"serviceDate":"2024-01-10","amountReais":"100","serviceCompleted":true}`)
	create(t, srv, `{"serviceDate":"2024-01-20","amountReais":"50","paymentStatus":"PAID","clientName":"Ana"}`)
	create(t, srv, `{"serviceDate":"2024-02-05","amountReais":"80"}`)

	rr := do(t, srv, http.MethodGet, "/api/payments", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ShapeGrouped, rr.Header().Get(HeaderResultShape))
	grouped := decode[groupedResponse](t, rr)
	require.Len(t, grouped.Buckets, 2)
	assert.Equal(t, "2024-02", grouped.Buckets[0].MonthKey, "newest month first")
	jan := grouped.Buckets[1]
	assert.Equal(t, int64(15000), jan.TotalAmount)
	assert.Equal(t, "R$ 150,00", jan.TotalDisplay)
	assert.Equal(t, 2, jan.Count)
	assert.Equal(t, 1, jan.CompletedCount)
	assert.Equal(t, 1, jan.PaidCount)

	rr = do(t, srv, http.MethodGet, "/api/payments?month=1&year=2024", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ShapeFlat, rr.Header().Get(HeaderResultShape))
	flat := decode[flatResponse](t, rr)
	assert.Equal(t, 2, flat.Count)
	assert.Equal(t, "2024-01-10", flat.Records[0].ServiceDate)
	assert.NotEmpty(t, flat.Filters)

	rr = do(t, srv, http.MethodGet, "/api/payments?client=ana&status=PAID", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[flatResponse](t, rr).Count)

	rr = do(t, srv, http.MethodGet, "/api/payments?month=13&year=2024", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeInvalidFilter, decode[errorBody](t, rr).Error)
}

func TestListPayments_RangeInclusive(t *testing.T) {
	srv, _ := newTestServer(t)
	create(t, srv, `{"serviceDate":"2024-03-31","amountReais":"100"}`)
	create(t, srv, `{"serviceDate":"2024-04-01","amountReais":"100"}`)

	rr := do(t, srv, http.MethodGet, "/api/payments?startDate=2024-03-01&endDate=2024-03-31", "")
	require.Equal(t, http.StatusOK, rr.Code)
	flat := decode[flatResponse](t, rr)
	require.Equal(t, 1, flat.Count)
	assert.Equal(t, "2024-03-31", flat.Records[0].ServiceDate)
}

func TestPeriod(t *testing.T) {
	srv, _ := newTestServer(t)
	create(t, srv, `{"serviceDate":"2024-01-10","amountReais":"100"}`)
	create(t, srv, `{"serviceDate":"2024-02-05","amountReais":"80"}`)

	rr := do(t, srv, http.MethodGet, "/api/payments/period?startDate=2024-01-01&endDate=2024-12-31", "")
	require.Equal(t, http.StatusOK, rr.Code)
	grouped := decode[groupedResponse](t, rr)
	require.Len(t, grouped.Buckets, 2)
	assert.Equal(t, "2024-01", grouped.Buckets[0].MonthKey, "period buckets are ascending")

	rr = do(t, srv, http.MethodGet, "/api/payments/period?startDate=2024-01-01&endDate=2024-12-31&groupByMonth=false", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ShapeFlat, rr.Header().Get(HeaderResultShape))

	rr = do(t, srv, http.MethodGet, "/api/payments/period?startDate=2024-02-01", "")
	require.Equal(t, http.StatusOK, rr.Code)
	grouped = decode[groupedResponse](t, rr)
	require.Len(t, grouped.Buckets, 1, "an open end bound keeps everything after the start")
	assert.Equal(t, "2024-02", grouped.Buckets[0].MonthKey)

	rr = do(t, srv, http.MethodGet, "/api/payments/period?startDate=2024-03-01&endDate=2024-01-01", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, CodeInvalidFilter, body.Error)
	assert.Equal(t, "startDate", body.Details[0].Field)

	rr = do(t, srv, http.MethodGet, "/api/payments/period?startDate=2024-01-01&endDate=2024-02-01&groupByMonth=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReports(t *testing.T) {
	srv, _ := newTestServer(t)
	create(t, srv, `{"serviceDate":"2024-03-15","amountReais":"150","paymentStatus":"PAID"}`)

	rr := do(t, srv, http.MethodGet, "/api/payments/report.pdf?month=3&year=2024", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "relatorio-faxina-2024-03-20.pdf")
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF-"))

	rr = do(t, srv, http.MethodGet, "/api/payments/report/whatsapp?month=3&year=2024&phone=%2B55%2011%2099999-0000", "")
	require.Equal(t, http.StatusOK, rr.Code)
	share := decode[whatsAppResponse](t, rr)
	assert.Contains(t, share.Message, "RELATÓRIO FAXINA")
	assert.True(t, strings.HasPrefix(share.Link, "https://wa.me/5511999990000?text="), share.Link)

	rr = do(t, srv, http.MethodGet, "/api/payments/report.pdf?status=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewPaymentService(store)
	srv := NewServer(Options{RateLimitPerMinute: 1}, svc, nil)
	t.Cleanup(srv.limiter.Stop)

	body := `{"serviceDate":"2024-03-15","amountReais":"10"}`
	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/payments", body).Code)

	rr := do(t, srv, http.MethodPost, "/api/payments", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, CodeRateLimited, decode[errorBody](t, rr).Error)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/payments", "").Code)
}

func TestRateLimitPerForwardedClient(t *testing.T) {
	svc := services.NewPaymentService(memory.NewStore())
	srv := NewServer(Options{RateLimitPerMinute: 1, TrustedProxies: []string{"198.18.0.0/15", "bogus"}}, svc, nil)
	t.Cleanup(srv.limiter.Stop)

	post := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(`{"serviceDate":"2024-03-15","amountReais":"10"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		req.RemoteAddr = "198.18.0.1:4321"
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusCreated, post("203.0.113.10"))
	assert.Equal(t, http.StatusCreated, post("203.0.113.11"), "each forwarded client has its own budget")
	assert.Equal(t, http.StatusTooManyRequests, post("203.0.113.10"))
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/payments", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	create(t, srv, `{"serviceDate":"2024-03-15","amountReais":"10"}`)

	rr := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "payments_created_total 1")
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}
