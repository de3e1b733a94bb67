package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trendlab/faber/internal/api"
	"github.com/trendlab/faber/internal/api/handler"
	"github.com/trendlab/faber/internal/api/job"
	"github.com/trendlab/faber/internal/backtest"
	"github.com/trendlab/faber/internal/collector"
	"github.com/trendlab/faber/internal/collector/yahoo"
	"github.com/trendlab/faber/internal/config"
	"github.com/trendlab/faber/internal/logger"
	"github.com/trendlab/faber/internal/metrics"
	"github.com/trendlab/faber/internal/storage/archive"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Faber HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// newArchiveStore builds the archive backend from config, or nil when
// archiving is disabled.
func newArchiveStore(cfg *config.Config) (archive.Store, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	switch cfg.Archive.Type {
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
	default:
		return archive.NewLocalFS(cfg.Archive.Path)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.Must(cfg.Log.Level, cfg.Log.Development)
	defer log.Sync()

	log.Info("starting Faber server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	reg := metrics.NewRegistry()

	provider := collector.Instrument(yahoo.New(collector.Config{
		BaseURL: cfg.Collector.BaseURL,
		Timeout: cfg.Collector.TimeoutSeconds,
	}), reg)

	backtester := backtest.New(provider,
		backtest.WithCache(backtest.NewCache(cfg.Backtest.CacheSize)),
		backtest.WithCacheObserver(reg.RecordCacheLookup))

	jobs := job.NewStore(cfg.Server.MaxJobs,
		time.Duration(cfg.Server.JobTTLHours)*time.Hour)

	store, err := newArchiveStore(cfg)
	if err != nil {
		return fmt.Errorf("creating archive store: %w", err)
	}

	bounds := handler.WindowBounds{
		Default: cfg.Backtest.DefaultSMAWindow,
		Min:     cfg.Backtest.MinSMAWindow,
		Max:     cfg.Backtest.MaxSMAWindow,
	}
	backtests := handler.NewBacktestHandler(jobs, backtester, bounds, store, reg, log)
	indexes := handler.NewIndexesHandler(cfg.IndexItems())

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	server := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		MetricsPath: metricsPath,
	}, backtests, indexes, reg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down Faber server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
