// cmd/notifier/main.go
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

	"go.uber.org/zap"

	"assignment-notifier/internal/audit"
	awsclient "assignment-notifier/internal/common/aws"
	"assignment-notifier/internal/common/camunda"
	"assignment-notifier/internal/common/config"
	"assignment-notifier/internal/common/database"
	"assignment-notifier/internal/common/logger"
	"assignment-notifier/internal/common/observability"
	"assignment-notifier/internal/common/scheduler"
	"assignment-notifier/internal/dispatcher"
	"assignment-notifier/internal/email"
	"assignment-notifier/internal/gateway"
	"assignment-notifier/internal/queue"
	"assignment-notifier/internal/recipients"
	"assignment-notifier/internal/templates"

	enq "assignment-notifier/internal/workers/dispatch/enqueue-notification"
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
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting assignment notifier...", zap.String("version", cfg.App.Version))

	loc, _ := cfg.Notifications.Location()
	sentinel, _ := cfg.Notifications.Sentinel()

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	tracing, err := observability.NewTracing(cfg.App.Name, cfg.App.Version, cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	obs.AttachTracing(tracing)

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

	// --- Notification pipeline ---
	recipientResolver := recipients.NewResolver(&recipients.Config{
		ExcludedGroup:  cfg.Notifications.ExcludedGroup,
		SuppressionTTL: time.Duration(cfg.Notifications.SuppressionTTL) * time.Second,
	}, pg.DB, rdb.Client, log)

	auditOpts := []audit.Option{}
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		auditOpts = append(auditOpts, audit.WithMirror(audit.NewElasticMirror(esClient.Client, cfg.Notifications.AuditIndex)))
		zapLog.Info("Elasticsearch audit mirror enabled", zap.String("index", cfg.Notifications.AuditIndex))
	}

	auditWriter := audit.NewWriter(&audit.Config{
		Location:  loc,
		Sentinel:  sentinel,
		CreatedBy: cfg.Notifications.CreatedBy,
	}, pg.DB, recipientResolver, log, auditOpts...)

	gw, err := newGateway(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("push gateway init failed", zap.Error(err))
	}
	zapLog.Info("Push gateway ready", zap.String("provider", gw.Name()))

	mailer, err := newEmailNotifier(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("email init failed", zap.Error(err))
	}

	d := dispatcher.New(
		templates.NewResolver(loc, nil),
		recipientResolver,
		gw,
		auditWriter,
		log,
		dispatcher.WithTracer(tracing.Tracer("assignment-notifier/dispatcher")),
	)

	q := queue.New(queue.WithObservability(obs))
	w := queue.NewWorker(q, d, log,
		queue.WithJobTimeout(config.GetDuration(cfg.Notifications.DispatchTimeout)),
		queue.WithWorkerObservability(obs),
	)
	if err := w.Start(ctx); err != nil {
		zapLog.Fatal("delivery worker failed to start", zap.Error(err))
	}

	// --- Batch producers ---
	sched := scheduler.New(loc, log, scheduler.WithLocker(scheduler.NewRedisLocker(rdb.Client), 30*time.Minute))
	if err := registerTasks(sched, cfg, pg.DB, q, mailer, auditWriter, log); err != nil {
		zapLog.Fatal("scheduler registration failed", zap.Error(err))
	}
	if err := sched.Start(ctx); err != nil && !errors.Is(err, scheduler.ErrNoTasks) {
		zapLog.Fatal("scheduler failed to start", zap.Error(err))
	}

	// --- Workflow producer ---
	var zc *camunda.Client
	var jobWorker *camunda.CamundaWorker
	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, enq.TaskType) {
		err = retryWithBackoff(func() error {
			var err error
			zc, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}

		wcfg := config.GetWorkerConfig(cfg, enq.TaskType)
		handler := enq.NewHandler(&enq.Config{Timeout: config.GetDuration(wcfg.Timeout)}, q, log)
		jobWorker = camunda.NewWorker(zc.GetClient(), enq.TaskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, zapLog)
	}

	// --- Health & Metrics Server ---
	checks := []readinessCheck{
		{name: "postgres", check: pg.Ping},
		{name: "redis", check: rdb.Ping},
	}
	if zc != nil {
		checks = append(checks, readinessCheck{name: "zeebe", check: zc.HealthCheck})
	}
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newOpsMux(w, checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Notifications.ShutdownTimeout))
	defer cancel()

	if jobWorker != nil {
		jobWorker.Stop()
	}
	sched.Stop()
	if err := w.Stop(shutdownCtx); err != nil {
		zapLog.Warn("delivery worker did not stop in time", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if zc != nil {
		if err := zc.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Assignment notifier stopped gracefully")
}

func newGateway(ctx context.Context, cfg *config.Config, log logger.Logger) (gateway.Gateway, error) {
	switch cfg.Push.Provider {
	case "fcm":
		return gateway.NewFCM(&gateway.FCMConfig{
			Endpoint:  cfg.Push.FCM.Endpoint,
			ServerKey: cfg.Push.FCM.ServerKey,
			Timeout:   config.GetDuration(cfg.Push.Timeout),
		}, log), nil
	case "sns":
		client, err := awsclient.NewSNSClient(ctx, cfg.Push.SNS.Region)
		if err != nil {
			return nil, err
		}
		return gateway.NewSNS(client, log), nil
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.Push.Provider)
	}
}

func newEmailNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (email.Notifier, error) {
	if !cfg.Email.Enabled {
		return email.Noop{}, nil
	}
	client, err := awsclient.NewSESClient(ctx, cfg.Email.Region)
	if err != nil {
		return nil, err
	}
	return email.NewSESNotifier(&email.Config{
		FromEmail:  cfg.Email.FromEmail,
		Recipients: cfg.Email.Recipients,
	}, client, log), nil
}
