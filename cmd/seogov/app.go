package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/Strob0t/seogov/internal/adapter/contentscan"
	"github.com/Strob0t/seogov/internal/adapter/filesource"
	"github.com/Strob0t/seogov/internal/adapter/logsink"
	"github.com/Strob0t/seogov/internal/adapter/memory"
	sgnats "github.com/Strob0t/seogov/internal/adapter/nats"
	"github.com/Strob0t/seogov/internal/adapter/natskv"
	"github.com/Strob0t/seogov/internal/adapter/notifysink"
	sgotel "github.com/Strob0t/seogov/internal/adapter/otel"
	"github.com/Strob0t/seogov/internal/adapter/postgres"
	"github.com/Strob0t/seogov/internal/adapter/ristretto"
	"github.com/Strob0t/seogov/internal/adapter/tiered"
	"github.com/Strob0t/seogov/internal/adapter/ws"
	"github.com/Strob0t/seogov/internal/config"
	"github.com/Strob0t/seogov/internal/domain/budget"
	"github.com/Strob0t/seogov/internal/domain/policy"
	"github.com/Strob0t/seogov/internal/domain/review"
	"github.com/Strob0t/seogov/internal/domain/schedule"
	"github.com/Strob0t/seogov/internal/port/cache"
	"github.com/Strob0t/seogov/internal/port/database"
	"github.com/Strob0t/seogov/internal/port/notifier"
	"github.com/Strob0t/seogov/internal/port/outbox"
	"github.com/Strob0t/seogov/internal/port/source"
	"github.com/Strob0t/seogov/internal/port/telemetry"
	"github.com/Strob0t/seogov/internal/port/ticketsink"
	"github.com/Strob0t/seogov/internal/resilience"
	"github.com/Strob0t/seogov/internal/service"
)

// app is the wired engine shared by the server and the CLI commands.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *sgotel.Metrics
	store   database.Store
	queue   *sgnats.Queue // nil when NATS is disabled
	hub     *ws.Hub

	ledger     *service.LedgerService
	triage     *service.TriageService
	sentinel   *service.SentinelService
	governance *service.GovernanceService
	scheduler  *service.Scheduler

	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.metrics, err = sgotel.NewMetrics(); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	obs := telemetry.Observer{Logger: log, Recorder: a.metrics}

	if a.store, err = a.openStore(ctx); err != nil {
		return nil, err
	}

	if cfg.NATS.Enabled {
		a.queue, err = sgnats.Connect(ctx, cfg.NATS.URL,
			sgnats.WithStream(cfg.NATS.Stream),
			sgnats.WithMaxRetries(cfg.NATS.MaxRetries),
			sgnats.WithLogger(log),
		)
		if err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		q := a.queue
		a.closers = append(a.closers, func() {
			if err := q.Drain(); err != nil {
				log.Warn("nats drain", "error", err)
			}
		})
	}

	a.hub = ws.NewHub(log, originHosts(cfg.Server.CORSOrigin)...)
	a.closers = append(a.closers, a.hub.Close)

	onBreaker := func(name string, from, to resilience.State) {
		a.metrics.BreakerStateChanged(name, from.String(), to.String())
		log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}

	// Sources
	var scanner source.ContentScanner
	if len(cfg.Sources.ScanURLs) > 0 {
		scanCache, err := a.openCache(ctx)
		if err != nil {
			return nil, err
		}
		breaker := resilience.NewBreaker("contentscan", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
		breaker.OnStateChange(onBreaker)
		scanner = contentscan.New(contentscan.Config{
			URLs:        cfg.Sources.ScanURLs,
			Keyword:     cfg.Sources.ScanKeyword,
			Timeout:     cfg.Sources.ScanTimeout,
			Concurrency: cfg.Sources.ScanConcurrency,
		},
			contentscan.WithCache(scanCache, cfg.Cache.ScanTTL),
			contentscan.WithBreaker(breaker),
			contentscan.WithLogger(log),
		)
	}
	src := filesource.New(cfg.Sources.SnapshotFile, scanner, log)

	// Notifications
	notifiers, failed := notifier.Configured(cfg.Notify.ProviderSettings())
	for name, err := range failed {
		log.Warn("notifier disabled", "provider", name, "error", err)
	}
	notify := service.NewNotificationService(notifiers, cfg.Notify.Events, obs).
		WithBreakers(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout, onBreaker)

	// Delivery
	var out outbox.Outbox = logsink.New(log)
	tickets := ticketsink.Fanout{notifysink.New(a.store, notify, a.hub)}
	cycleNotifiers := []service.CycleNotifier{notify}
	if a.queue != nil {
		qout := service.NewQueueOutbox(a.queue)
		out = qout
		tickets = append(tickets, qout)
		cycleNotifiers = append(cycleNotifiers, qout)
	}

	// Policy files fall back to the built-in defaults.
	prices, err := budget.LoadPrices(cfg.Budget.PricesFile)
	if err != nil {
		log.Warn("using default prices", "error", err)
	}
	thresholds, err := policy.LoadFromFile(cfg.Sentinel.ThresholdsFile)
	if err != nil {
		log.Warn("using default thresholds", "error", err)
	}
	templates, err := review.LoadTemplates(cfg.Reviews.TemplatesFile)
	if err != nil {
		log.Warn("using default templates", "error", err)
	}
	contacts := review.Contacts{Priority: cfg.Reviews.PriorityContact, General: cfg.Reviews.GeneralContact}

	// Services
	a.ledger = service.NewLedgerService(cfg.Budget.Monthly, prices, a.store, obs)
	if err := a.ledger.Load(ctx); err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	a.triage = service.NewTriageService(templates, contacts, out, cfg.Reviews.Workers, obs)
	a.sentinel = service.NewSentinelService(thresholds, tickets, out, obs)
	a.governance = service.NewGovernanceService(a.ledger, a.triage, a.sentinel, src, src, a.store, out, a.hub, obs)
	a.governance.SetApprovalTTL(cfg.Approvals.TTL)
	a.governance.SetCycleNotifier(cycleNotifiers...)

	sched, err := schedule.Parse(cfg.Scheduler.Schedule)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	a.scheduler = service.NewScheduler(a.governance, sched, obs)

	log.Info("engine ready",
		"storage", cfg.Storage.Driver,
		"nats", a.queue != nil,
		"notifiers", notify.NotifierCount(),
		"scan_urls", len(cfg.Sources.ScanURLs),
		"monthly_budget", cfg.Budget.Monthly,
	)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (database.Store, error) {
	if a.cfg.Storage.Driver != "postgres" {
		a.log.Warn("using in-memory storage; state is lost on restart")
		return memory.NewStore(), nil
	}

	if err := postgres.RunMigrations(ctx, a.cfg.Postgres.DSN); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	pool, err := postgres.NewPool(ctx, a.cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	a.log.Info("postgres connected")
	return postgres.NewStore(pool), nil
}

// openCache returns the scan cache: ristretto alone, or ristretto in front
// of a NATS KV bucket when NATS is enabled.
func (a *app) openCache(ctx context.Context) (cache.Cache, error) {
	l1, err := ristretto.New(a.cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return nil, fmt.Errorf("l1 cache: %w", err)
	}
	a.closers = append(a.closers, l1.Close)
	if a.queue == nil {
		return l1, nil
	}

	kv, err := a.queue.KeyValue(ctx, a.cfg.Cache.L2Bucket, a.cfg.Cache.L2TTL)
	if err != nil {
		return nil, fmt.Errorf("l2 cache: %w", err)
	}
	return tiered.New(l1, natskv.New(kv, "scan"), a.cfg.Cache.ScanTTL), nil
}

// originHosts turns the configured CORS origin into websocket origin
// patterns.
func originHosts(origin string) []string {
	if origin == "" {
		return nil
	}
	if origin == "*" {
		return []string{"*"}
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
