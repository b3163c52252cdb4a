package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sei/sei-backend/internal/docextract/events"
	"github.com/sei/sei-backend/internal/docextract/fields"
	"github.com/sei/sei-backend/internal/docextract/handler"
	"github.com/sei/sei-backend/internal/docextract/service"
	"github.com/sei/sei-backend/internal/docextract/storage"
	"github.com/sei/sei-backend/internal/docextract/textextract"
	"github.com/sei/sei-backend/pkg/config"
	"github.com/sei/sei-backend/pkg/httputil"
	"github.com/sei/sei-backend/pkg/i18n"
	"github.com/sei/sei-backend/pkg/logger"
	"github.com/sei/sei-backend/pkg/messaging"
)

const serviceName = "docextract-service"

func main() {
	// Load and validate configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().
		Int("workers", cfg.Extraction.Workers).
		Dur("parse_timeout", cfg.Extraction.ParseTimeout).
		Int64("max_upload_bytes", cfg.Extraction.MaxUploadBytes).
		Bool("expose_error_details", cfg.Server.ExposeErrorDetails).
		Msg("starting Document Extraction Service")

	if cfg.Server.ExposeErrorDetails && !cfg.Server.IsDevelopment() {
		log.Warn().Msg("error details are exposed in responses")
	}

	// Audit events are optional
	var (
		rmq       *messaging.RabbitMQ
		publisher messaging.EventPublisher
	)
	if cfg.RabbitMQ.Enabled() {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		pub, err := messaging.NewPublisher(rmq, cfg.RabbitMQ.Exchange, serviceName, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		publisher = pub
	} else {
		log.Info().Msg("RabbitMQ not configured, audit events disabled")
	}

	// Initialize components
	registry := textextract.NewRegistry(
		textextract.NewPDFExtractor(cfg.Extraction.MaxTextBytes),
		textextract.NewPlainTextExtractor(cfg.Extraction.MaxTextBytes),
		textextract.NewSpreadsheetExtractor(cfg.Extraction.MaxTextBytes, cfg.Extraction.MaxUnzipBytes),
	)

	jobs := storage.NewJobStore(cfg.Jobs.TTL)
	defer jobs.Close()

	auditor := events.NewAuditor(publisher, log)
	svc := service.NewService(registry, fields.DefaultTable, jobs, auditor, cfg.Extraction, log)
	docHandler := handler.NewHandler(svc, cfg.Extraction.MaxUploadBytes, cfg.Server.ExposeErrorDetails, log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log, cfg.Server.ExposeErrorDetails))
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders: []string{"X-Request-ID", httputil.ErrorCodeHeader, "Content-Language"},
		MaxAge:         300,
	}))

	// i18n middleware - extract locale from Accept-Language header
	r.Use(i18n.Middleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":            "healthy",
			"service":           serviceName,
			"formats":           svc.Formats(),
			"jobs":              jobs.Len(),
			"abandoned_workers": svc.AbandonedWorkers(),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.WriteJSON(w, http.StatusOK, health)
	})

	// Document routes
	docHandler.Routes(r)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Hand queued audit events to the broker before the connection closes
	if err := auditor.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("audit events dropped on shutdown")
	}

	log.Info().Msg("server stopped")
}
