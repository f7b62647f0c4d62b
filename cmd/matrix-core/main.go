// cmd/matrix-core/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"matrix-core/internal/analysis"
	"matrix-core/internal/api"
	"matrix-core/internal/catalog"
	"matrix-core/internal/common/aws"
	"matrix-core/internal/common/camunda"
	"matrix-core/internal/common/config"
	"matrix-core/internal/common/database"
	"matrix-core/internal/common/logger"
	"matrix-core/internal/common/observability"
	"matrix-core/internal/connections"
	"matrix-core/internal/notify"
	"matrix-core/internal/search"
	"matrix-core/internal/taxid"
	"matrix-core/internal/users"

	// Matching workers
	brc "matrix-core/internal/workers/matching/build-recommendations"
	cui "matrix-core/internal/workers/matching/classify-user-intent"
	cb "matrix-core/internal/workers/matching/crisis-board"
	ere "matrix-core/internal/workers/matching/extract-request-entities"
	rp "matrix-core/internal/workers/matching/rank-partners"

	// Partner and connection workers
	nc "matrix-core/internal/workers/connection/notify-connection"
	upw "matrix-core/internal/workers/partner/update-partner-workload"
	vti "matrix-core/internal/workers/partner/verify-tax-id"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting matrix-core",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel exporter unavailable", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch, optional ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.GetURL() != "" {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, partner search falls back to SQL", zap.Error(err))
			esClient = nil
		} else {
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Repositories and services ---
	partnerRepo := catalog.NewRepository(pg.DB, rdb.Client, time.Duration(cfg.Cache.PartnerTTL)*time.Second, log)
	userRepo := users.NewRepository(pg.DB, rdb.Client, time.Duration(cfg.Cache.UserTTL)*time.Second, log)
	connRepo := connections.NewRepository(pg.DB, log)
	taxService := taxid.NewService(cfg.TaxID, rdb.Client, log)

	analysisService, err := analysis.NewService(
		cfg.Matching,
		partnerRepo,
		userRepo,
		analysis.NewStore(rdb.Client, cfg.Matching.AnalysisTTL()),
		log,
	)
	if err != nil {
		zapLog.Fatal("invalid matching configuration", zap.Error(err))
	}

	notifier := newNotifier(ctx, cfg, log, zapLog)
	directory := notify.NewDirectory(userRepo, partnerRepo)

	health := map[string]database.Pinger{
		"postgres": pg,
		"redis":    rdb,
	}

	deps := api.Deps{
		Users:         userRepo,
		Partners:      partnerRepo,
		Connections:   connRepo,
		Analysis:      analysisService,
		TaxID:         taxService,
		Notifier:      notifier,
		Recipients:    directory,
		Health:        health,
		Observability: obs,
	}
	if esClient != nil {
		deps.Index = search.NewPartnerIndex(esClient.Client, cfg.Database.Elasticsearch.PartnerIndex, log)
		health["elasticsearch"] = esClient
	}

	// --- Init Zeebe client, optional ---
	var workers []*camunda.Worker
	var zeebe *camunda.Client
	if cfg.Camunda.BrokerAddress != "" {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
			return err
		}, 5, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Warn("zeebe unavailable, running without workers", zap.Error(err))
			zeebe = nil
		}
	}

	if zeebe != nil {
		deps.Processes = zeebe
		health["zeebe"] = database.PingFunc(zeebe.HealthCheck)

		zbc := zeebe.GetClient()
		start := func(taskType string, maxJobs int, timeout time.Duration, h camunda.JobHandler) {
			workers = append(workers, camunda.StartWorker(zbc, taskType,
				camunda.WorkerOptions{MaxJobsActive: maxJobs, Timeout: timeout}, h, zapLog))
		}

		if c := ere.LoadConfig(cfg); c.Enabled {
			start(ere.TaskType, c.MaxJobsActive, c.Timeout, ere.NewHandler(c, log, obs))
		}
		if c := cui.LoadConfig(cfg); c.Enabled {
			start(cui.TaskType, c.MaxJobsActive, c.Timeout, cui.NewHandler(c, log, obs))
		}
		if c := rp.LoadConfig(cfg); c.Enabled {
			start(rp.TaskType, c.MaxJobsActive, c.Timeout, rp.NewHandler(c, partnerRepo, analysisService.Scorer(), log, obs))
		}
		if c := brc.LoadConfig(cfg); c.Enabled {
			start(brc.TaskType, c.MaxJobsActive, c.Timeout, brc.NewHandler(c, log, obs))
		}
		if c := cb.LoadConfig(cfg); c.Enabled {
			start(cb.TaskType, c.MaxJobsActive, c.Timeout, cb.NewHandler(c, analysisService, log, obs))
		}
		if c := vti.LoadConfig(cfg); c.Enabled {
			start(vti.TaskType, c.MaxJobsActive, c.Timeout, vti.NewHandler(c, taxService, partnerRepo, log, obs))
		}
		if c := upw.LoadConfig(cfg); c.Enabled {
			start(upw.TaskType, c.MaxJobsActive, c.Timeout, upw.NewHandler(c, partnerRepo, log, obs))
		}
		if c := nc.LoadConfig(cfg); c.Enabled {
			start(nc.TaskType, c.MaxJobsActive, c.Timeout, nc.NewHandler(c, connRepo, directory, notifier, log, obs))
		}
		zapLog.Info("workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP API ---
	server := api.NewServer(cfg, deps, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("error closing Zeebe client", zap.Error(err))
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("meter provider shutdown failed", zap.Error(err))
	}

	zapLog.Info("matrix-core stopped")
}

// newNotifier builds the SES/SNS notifier for the enabled channels. A channel
// whose client cannot be configured is left disabled.
func newNotifier(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) *notify.Notifier {
	region := cfg.Notifications.AWS.Region

	var sesClient notify.SESService
	if cfg.Notifications.Email.Enabled {
		c, err := aws.NewSESClient(ctx, region)
		if err != nil {
			zapLog.Warn("SES client unavailable, email disabled", zap.Error(err))
		} else {
			sesClient = c
		}
	}

	var snsClient notify.SNSService
	if cfg.Notifications.SMS.Enabled {
		c, err := aws.NewSNSClient(ctx, region)
		if err != nil {
			zapLog.Warn("SNS client unavailable, SMS disabled", zap.Error(err))
		} else {
			snsClient = c
		}
	}

	return notify.New(cfg.Notifications, sesClient, snsClient, log)
}
