package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AngelCh415/adreport/internal/advisor"
	"github.com/AngelCh415/adreport/internal/config"
	"github.com/AngelCh415/adreport/internal/httpx"
	"github.com/AngelCh415/adreport/internal/ingest"
	"github.com/AngelCh415/adreport/internal/pipeline"
	"github.com/AngelCh415/adreport/internal/telemetry"
)

func main() {
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	th, err := advisor.LoadThresholds(cfg.ThresholdsFile)
	if err != nil {
		logger.Error("thresholds", slog.String("file", cfg.ThresholdsFile), slog.String("err", err.Error()))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pl := pipeline.New(logger, th, telemetry.NewProm(reg))
	f := ingest.NewFetcher(ingest.NewHTTPClient(cfg.HTTPTimeout), cfg.MaxUploadBytes)

	r := httpx.NewRouter(logger, pl, f, reg, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port), slog.Int64("max_upload_bytes", cfg.MaxUploadBytes))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
