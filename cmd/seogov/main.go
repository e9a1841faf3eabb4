// Command seogov runs the SEO governance engine: an HTTP API with a cycle
// scheduler by default, or a one-shot CLI command.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	sghttp "github.com/Strob0t/seogov/internal/adapter/http"
	sgotel "github.com/Strob0t/seogov/internal/adapter/otel"
	"github.com/Strob0t/seogov/internal/config"
	"github.com/Strob0t/seogov/internal/logger"
	"github.com/Strob0t/seogov/internal/middleware"
)

func main() {
	args := os.Args[1:]
	var err error
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		err = runCommand(args[0], args[1:])
	} else {
		err = serve(args)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "seogov:", err)
		os.Exit(1)
	}
}

func serve(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, path, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closer := logger.New(cfg.Logging)
	defer closer.Close()
	slog.SetDefault(log)
	log.Info("config loaded",
		"file", path,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"storage", cfg.Storage.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := sgotel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn("otel shutdown", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// --- Background work ---

	if a.queue != nil {
		unsubscribe, err := a.triage.SubscribeLifecycle(ctx, a.queue)
		if err != nil {
			return fmt.Errorf("lifecycle subscriber: %w", err)
		}
		defer unsubscribe()
	}
	if cfg.Scheduler.Enabled {
		go a.scheduler.Run(ctx)
		log.Info("scheduler started", "schedule", cfg.Scheduler.Schedule)
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(1, 5)
	defer limiter.StartCleanup(time.Minute, 10*time.Minute)()

	handlers := &sghttp.Handlers{
		Governance: a.governance,
		Ledger:     a.ledger,
		Triage:     a.triage,
		Sentinel:   a.sentinel,
		Scheduler:  a.scheduler,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(sgotel.HTTPMiddleware(cfg.OTel.ServiceName))
	r.Use(sghttp.Logger(log))
	r.Use(chimw.Recoverer)
	r.Use(sghttp.SecurityHeaders)
	r.Use(sghttp.CORS(cfg.Server.CORSOrigin))
	sghttp.MountRoutes(r, handlers, limiter.Handler, a.hub.HandleWS)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute, // a triggered cycle answers when it finishes
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
