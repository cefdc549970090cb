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

	"hcm-apartment-pricing/api"
	"hcm-apartment-pricing/config"
	"hcm-apartment-pricing/metrics"
	"hcm-apartment-pricing/models"
	"hcm-apartment-pricing/services"
	"hcm-apartment-pricing/storage"
	"hcm-apartment-pricing/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := utils.NewLoggerWith(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== HCM Apartment Pricing starting ===")
	logger.Info("Config: dataset %s | addr %s | seed %d | postgres %t",
		cfg.DatasetPath, cfg.HTTPAddr, cfg.RandomSeed, cfg.PostgresEnabled())

	server := api.NewServer(logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed: %v", err)
			stop()
		}
	}()

	pipeline := services.NewPipeline(cfg.RandomSeed, logger)
	serving, err := run(cfg, pipeline, logger)
	if err != nil {
		logger.Error("Startup pipeline failed: %v", err)
		shutdown(httpServer, cfg.ShutdownTimeout, logger)
		os.Exit(1)
	}
	server.Publish(serving)

	export(ctx, cfg, serving.Listings(), logger)
	pipeline.Insights().Print(serving.Summary(), serving.Districts(), serving.Comparison())

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	shutdown(httpServer, cfg.ShutdownTimeout, logger)
}

// run loads the dataset and builds the serving context.
func run(cfg *config.Config, pipeline *services.Pipeline, logger *utils.Logger) (*services.ServingContext, error) {
	start := time.Now()

	ds, err := storage.NewDatasetReader().ReadFile(cfg.DatasetPath)
	if err != nil {
		metrics.RecordPipeline(time.Since(start), err)
		return nil, err
	}
	logger.Info("Loaded %d raw rows with %d columns from %s", len(ds.Rows), len(ds.Columns), cfg.DatasetPath)

	serving, err := pipeline.Run(ds)
	metrics.RecordPipeline(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	metrics.CleanListings.Set(float64(serving.Summary().TotalListings))
	metrics.ModelR2.WithLabelValues("serving").Set(serving.R2())
	for _, m := range serving.Comparison().Metrics {
		metrics.ModelR2.WithLabelValues(m.Name).Set(m.R2)
	}
	return serving, nil
}

// export writes the clean dataset to the configured optional sinks. Sink
// failures are logged and never stop the server.
func export(ctx context.Context, cfg *config.Config, listings []*models.Listing, logger *utils.Logger) {
	var writers []storage.ListingWriter

	if cfg.CleanCSVPath != "" {
		w, err := storage.NewCSVWriter(cfg.CleanCSVPath)
		if err != nil {
			logger.Error("Failed to create CSV writer: %v", err)
		} else {
			writers = append(writers, w)
		}
	}
	if cfg.PostgresEnabled() {
		w, err := storage.NewPostgresWriter(ctx, cfg.DSN(), logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
		} else {
			writers = append(writers, w)
		}
	}

	for _, w := range writers {
		if err := w.Write(ctx, listings); err != nil {
			logger.Error("Clean dataset export failed: %v", err)
		} else {
			logger.Info("Exported %d clean listings (%T)", len(listings), w)
		}
		if err := w.Close(); err != nil {
			logger.Warn("Closing export sink: %v", err)
		}
	}
}

func shutdown(srv *http.Server, timeout time.Duration, logger *utils.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown: %v", err)
		return
	}
	logger.Info("HTTP server stopped")
}
