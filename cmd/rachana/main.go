// Command rachana runs the Sinhala essay-grading dashboard: an HTTP API
// over per-student aggregation and fairness-report reduction, plus an
// offline aggregation mode for batch jobs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/chamikara/rachana/infrastructure/metrics"
	"github.com/chamikara/rachana/infrastructure/remote"
	"github.com/chamikara/rachana/infrastructure/store"
	"github.com/chamikara/rachana/internal/analytics"
	"github.com/chamikara/rachana/internal/api"
	"github.com/chamikara/rachana/internal/application"
	"github.com/chamikara/rachana/internal/domain"
	"github.com/chamikara/rachana/internal/ports"
)

func main() {
	root := &cobra.Command{
		Use:   "rachana",
		Short: "Sinhala essay-grading dashboard",
	}

	root.AddCommand(newServeCmd(), newAggregateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(config, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	return cmd
}

func loadConfig(path string) (application.Config, error) {
	if path == "" {
		return application.DefaultConfig(), nil
	}
	return application.LoadConfig(path)
}

func runServer(config application.Config, configPath string) error {
	logger, err := buildLogger(config.Logging)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, store.Config{
		User:            config.Database.User,
		Password:        config.Database.Password,
		Host:            config.Database.Host,
		Port:            config.Database.Port,
		Database:        config.Database.Name,
		MaxOpenConns:    store.DefaultConfig().MaxOpenConns,
		MaxIdleConns:    store.DefaultConfig().MaxIdleConns,
		ConnMaxLifetime: store.DefaultConfig().ConnMaxLifetime,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	collector := metrics.NewPrometheusMetrics()

	grader, err := buildGrader(config.Grader, collector)
	if err != nil {
		return err
	}
	if grader == nil {
		logger.Warn("no grading API key configured, uploads will be stored ungraded")
	}

	aggregator, err := analytics.NewStudentAggregator(config.Analytics.Aggregator)
	if err != nil {
		return err
	}
	reducer, err := analytics.NewReportReducer(config.Analytics.Reducer)
	if err != nil {
		return err
	}

	ocr, err := remote.NewOCRQualityEstimator(remote.DefaultOCRQualityConfig())
	if err != nil {
		return err
	}

	service, err := application.NewDashboardService(application.ServiceParams{
		Uploads:    db,
		Reports:    db,
		Grader:     grader,
		OCR:        ocr,
		Aggregator: aggregator,
		Reducer:    reducer,
		Thresholds: config.Analytics.Bias,
		PageSize:   config.Server.PageSize,
		Logger:     logger,
		Metrics:    collector,
	})
	if err != nil {
		return err
	}

	if configPath != "" {
		stopWatch, err := watchAnalyticsConfig(ctx, configPath, config, service, logger)
		if err != nil {
			return err
		}
		defer stopWatch()
	}

	server := api.NewServer(service, config.Analytics.DefaultMode, logger)
	return server.Run(ctx, config.Server.Addr)
}

// watchAnalyticsConfig reloads the config file on change and applies the
// analytics policies to the running service. Other sections (listener,
// database, grader) still require a restart.
func watchAnalyticsConfig(
	ctx context.Context,
	path string,
	current application.Config,
	service *application.DashboardService,
	logger *zap.Logger,
) (func(), error) {
	loader := application.NewFileConfigLoader(path, logger)

	return loader.Watch(ctx, &current, func(fresh any) {
		next, ok := fresh.(*application.Config)
		if !ok {
			return
		}
		if err := next.Validate(); err != nil {
			logger.Warn("ignoring invalid configuration change", zap.Error(err))
			return
		}
		if err := service.ApplyAnalyticsConfig(next.Analytics); err != nil {
			logger.Warn("failed to apply analytics configuration change", zap.Error(err))
		}
	})
}

// buildGrader assembles the grading client with its middleware chain, or
// returns nil when no API key is configured.
func buildGrader(cfg application.GraderConfig, collector ports.MetricsCollector) (ports.GraderClient, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, nil
	}

	middleware := []remote.Middleware{
		remote.TracingMiddleware("rachana-dashboard"),
		remote.MetricsMiddleware(collector),
		remote.RetryMiddleware(cfg.MaxRetries, cfg.RetryBaseDelay, cfg.RetryMaxDelay),
		remote.CircuitBreakerMiddleware(cfg.CircuitMaxFailures, cfg.CircuitCooldown),
	}
	if cfg.RequestsPerSecond > 0 {
		middleware = append(middleware,
			remote.RateLimitMiddleware(rate.Limit(cfg.RequestsPerSecond), cfg.Burst))
	}
	if cfg.Timeout > 0 {
		middleware = append(middleware, remote.TimeoutMiddleware(cfg.Timeout))
	}

	client, err := remote.NewClient(cfg.Provider, remote.ClientConfig{
		APIKey:     apiKey,
		Model:      cfg.Model,
		Middleware: middleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create grading client: %w", err)
	}
	return client, nil
}

func buildLogger(cfg application.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}

func newAggregateCmd() *cobra.Command {
	var (
		inputPath string
		policy    string
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate a JSON file of upload records into student summaries",
		Long: "Reads an array of upload records from a JSON file, folds them into " +
			"ranked per-student summaries, and writes the result to stdout. " +
			"Useful for batch jobs and for inspecting exports without a database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate(cmd, inputPath, policy)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to JSON file of upload records")
	cmd.Flags().StringVar(&policy, "invalid-records", "strict", "invalid record policy: strict or skip")
	cmd.MarkFlagRequired("input")
	return cmd
}

func runAggregate(cmd *cobra.Command, inputPath, policy string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var records []domain.UploadRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}

	config := analytics.DefaultAggregatorConfig()
	config.InvalidRecords = analytics.InvalidRecordPolicy(policy)

	aggregator, err := analytics.NewStudentAggregator(config)
	if err != nil {
		return err
	}

	start := time.Now()
	summaries, err := aggregator.Aggregate(records)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summaries); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "aggregated %d records into %d students in %s\n",
		len(records), len(summaries), time.Since(start).Round(time.Millisecond))
	return nil
}
