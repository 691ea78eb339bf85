package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"faxina/internal/backend"
	"faxina/internal/cli"
	apphttp "faxina/internal/http"
	"faxina/internal/log"
	"faxina/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err.Error())
		}
	}()

	payments := res.PaymentService(
		services.WithLocation(cfg.Location()),
		services.WithLogger(logger),
	)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		ReportTitle:        cfg.ReportTitle,
		WhatsAppPhone:      cfg.WhatsAppPhone,
		Location:           cfg.Location(),
	}, payments, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting faxina server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", res.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
