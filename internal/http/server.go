package http

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/cors"

	"faxina/internal/core"
	"faxina/internal/log"
	"faxina/internal/middleware/ratelimit"
	"faxina/internal/middleware/security"
	"faxina/internal/middleware/trace"
	"faxina/internal/services"
)

// PaymentService is what the handlers need from the service layer.
type PaymentService interface {
	Create(ctx context.Context, d core.Draft) (core.Payment, error)
	Get(ctx context.Context, id string) (core.Payment, error)
	Update(ctx context.Context, id string, patch core.Patch) (core.Payment, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params core.FilterParams) (services.ListResult, error)
	Period(ctx context.Context, params core.FilterParams, groupByMonth bool) (services.ListResult, error)
	Select(ctx context.Context, params core.FilterParams) ([]core.Payment, core.Filter, error)
	Ping(ctx context.Context) error
}

// Options configures the server. Zero values fall back to defaults.
type Options struct {
	Addr               string
	AllowedOrigins     []string
	RateLimitPerMinute int
	TrustedProxies     []string // extra CIDRs whose X-Forwarded-For is honored
	ReportTitle        string
	WhatsAppPhone      string
	Location           *time.Location
	Now                func() time.Time
}

type Server struct {
	http.Server
	payments PaymentService
	logger   *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	reportTitle   string
	whatsAppPhone string
	loc           *time.Location
	now           func() time.Time

	appMetrics *appMetrics
}

// NewServer wires the payment routes behind the middleware chain:
// CORS, security headers, tracing, request logging, suspicious request
// detection and rate limiting of writes.
func NewServer(opts Options, payments PaymentService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReportTitle == "" {
		opts.ReportTitle = "Relatório de Faxinas"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		payments:      payments,
		logger:        logger.WithComponent(log.ComponentHTTP),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:      security.NewDetector(logger),
		reportTitle:   opts.ReportTitle,
		whatsAppPhone: opts.WhatsAppPhone,
		loc:           opts.Location,
		now:           opts.Now,
		appMetrics:    &appMetrics{uptime: time.Now()},
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err.Error())
		}
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/payments", s.handleCreatePayment)
	mux.HandleFunc("GET /api/payments", s.handleListPayments)
	mux.HandleFunc("GET /api/payments/period", s.handlePeriod)
	mux.HandleFunc("GET /api/payments/report.pdf", s.handleReportPDF)
	mux.HandleFunc("GET /api/payments/report/whatsapp", s.handleReportWhatsApp)
	mux.HandleFunc("GET /api/payments/{id}", s.handleGetPayment)
	mux.HandleFunc("PUT /api/payments/{id}", s.handleUpdatePayment)
	mux.HandleFunc("PATCH /api/payments/{id}", s.handleUpdatePayment)
	mux.HandleFunc("DELETE /api/payments/{id}", s.handleDeletePayment)

	onLimit := func(w http.ResponseWriter, r *http.Request) { writeError(w, r, errRateLimited) }

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, onLimit,
		http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)(handler)
	handler = s.detector.Middleware(handler)
	handler = log.Middleware(logger, trace.RequestIDFromRequest)(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, HeaderResultShape, "Content-Disposition"},
		MaxAge:         300,
	}).Handler(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
