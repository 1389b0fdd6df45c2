package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/cristianadrielbraun/posterqr/internal/config"
	"github.com/cristianadrielbraun/posterqr/internal/editor"
	"github.com/cristianadrielbraun/posterqr/internal/export"
	"github.com/cristianadrielbraun/posterqr/internal/handlers"
	"github.com/cristianadrielbraun/posterqr/internal/logger"
	"github.com/cristianadrielbraun/posterqr/internal/metrics"
	"github.com/cristianadrielbraun/posterqr/internal/placement"
	"github.com/cristianadrielbraun/posterqr/internal/qrrender"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	boot, err := logger.New(os.Getenv("LOG_ENV"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"), boot)
	if err != nil {
		boot.Fatal("load config", zap.Error(err))
	}
	log, err := logger.New(cfg.LogEnv, cfg.LogLevel)
	if err != nil {
		boot.Fatal("init logger", zap.Error(err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	enc, err := qrrender.NewEncoder(cfg.QREncoder)
	if err != nil {
		return err
	}
	renderer, err := qrrender.NewRenderer(enc, cfg.RenderCacheSize)
	if err != nil {
		return err
	}
	bg, err := placement.ParseColor(cfg.ExportBackground)
	if err != nil {
		return err
	}

	sessions, err := editor.NewRegistry(cfg.MaxSessions, editor.Options{
		Renderer: renderer,
		Export: export.Options{
			Density:    cfg.ExportDensity,
			Background: bg,
			Filename:   cfg.ExportFilename,
			Observer:   m,
		},
		Logger:         log,
		MaxImagePixels: cfg.MaxImagePixels,
	}, func(n int) { m.ActiveSessions.Set(float64(n)) })
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	handlers.New(handlers.Options{
		Sessions:       sessions,
		Renderer:       renderer,
		Metrics:        m,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         log,
	}).Register(r)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("posterqr listening",
			zap.String("addr", srv.Addr),
			zap.String("qr_encoder", enc.Name()),
			zap.Float64("export_density", cfg.ExportDensity),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Shutdown timeout exceeded, closing connections")
			srv.Close()
		}
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
