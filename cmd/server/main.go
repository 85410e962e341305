package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"coachdesk/internal/adapters/api"
	"coachdesk/internal/adapters/connectivity"
	web "coachdesk/internal/adapters/http"
	"coachdesk/internal/adapters/notify"
	"coachdesk/internal/adapters/storage"
	queueStorePkg "coachdesk/internal/adapters/storage/queue"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/views"
	"coachdesk/internal/config"
	"coachdesk/internal/domain/access"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	timedDB := storage.NewTimedDB(db)
	queueStore := queueStorePkg.NewSQLiteStore(timedDB)

	crm := api.New(cfg.CRMBaseURL, cfg.CRMToken)

	notifier := notify.NewLogNotifier(cfg.NotifyGranted)
	drainer := orchestrators.NewQueueDrainer(queueStore, orchestrators.CRMExecutors(crm), notifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The monitor starts offline, so the first successful probe drains the
	// queue left over from the previous run.
	monitor := connectivity.NewMonitor(crm, cfg.ProbeInterval)
	monitor.OnOnline(func(ctx context.Context) {
		if _, err := drainer.Drain(ctx); err != nil {
			slog.Error("queue_event", "event", "drain_failed", "error", err)
		}
	})
	go monitor.Start(ctx)

	// Periodic drain as a safety net for entries queued while online.
	go func() {
		ticker := time.NewTicker(cfg.DrainInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !monitor.Online() {
					continue
				}
				if _, err := drainer.Drain(ctx); err != nil {
					slog.Error("queue_event", "event", "drain_failed", "error", err)
				}
			}
		}
	}()

	deps := &web.Deps{
		CRM:       crm,
		Stores:    &web.Stores{QueueStore: queueStore},
		Monitor:   monitor,
		Drainer:   drainer,
		View:      views.NewCalendarView(time.Now(), cfg.Location),
		Lock:      newLock(cfg),
		Location:  cfg.Location,
		ActorRole: cfg.ActorRole,
	}
	mux := web.NewMux(cfg.StaticDir, deps, cfg.CSRFKey, cfg.TrustedOrigins)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server_event", "event", "shutdown_failed", "error", err)
		}
	}()

	log.Printf("CoachDesk %s starting on %s (env=%s, crm=%s)", version, cfg.ListenAddr, cfg.Env, cfg.CRMBaseURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

// newLock builds the local unlock gate. Without a configured passcode the
// dashboard runs unlocked.
func newLock(cfg config.Config) *access.Lock {
	lock := &access.Lock{}
	if cfg.Passcode != "" {
		if err := lock.SetPasscode(cfg.Passcode); err != nil {
			log.Fatalf("invalid COACHDESK_PASSCODE: %v", err)
		}
	}
	return lock
}
