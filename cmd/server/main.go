package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/api"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/infra/archive"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/infra/config"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/infra/ffmpeg"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/infra/imaging"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/infra/metrics"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/infra/tracing"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/usecase"
	"github.com/sgtao/stapp-mpeg4-clipper/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting mpeg4-clipper")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Infra adapters
	decoder := ffmpeg.NewDecoder(cfg.FFmpegLogLevel, log)
	encoder := imaging.NewPNGEncoder()

	// Use case wiring
	cache := usecase.NewSessionCache(decoder, encoder, usecase.SessionOptions{
		TempDir:    cfg.TempDir,
		VideoCodec: cfg.ClipVideoCodec,
		AudioCodec: cfg.ClipAudioCodec,
	}, log)
	svc := usecase.NewClipperService(
		cache,
		usecase.NewBatchExtractor(log),
		usecase.NewSelectionLedger(),
		archive.NewZipWriter(),
		archive.NewCSVWriter(),
		cfg.MinFrameScale,
		log,
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log)

	// HTTP API
	srv := api.NewServer(api.ServerConfig{
		Port:           cfg.HTTPPort,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Service:        svc,
		Logger:         log,
	})

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
		metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info("mpeg4-clipper started", zap.String("addr", srv.Addr()))

	if err := srv.Start(); err != nil {
		log.Error("http server error", zap.Error(err))
	}

	// Drop the session and its temp files before exiting.
	svc.Evict()
	log.Info("mpeg4-clipper stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
