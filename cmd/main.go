// jobmate-harvester-service
//
// Harvests job postings from employer careers sites into the jobs table.
//
//	harvester serve          supervisor: HTTP + gRPC API, cron schedules,
//	                         one child process per run
//	harvester run --url ...  one harvest run; progress goes to scraper_status
//
// The run process reports its outcome through its progress row. It exits 1
// on error, except for a cooperative stop.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"jobmate/harvester-service/internal/adapters"
	"jobmate/harvester-service/internal/api"
	"jobmate/harvester-service/internal/browser"
	"jobmate/harvester-service/internal/config"
	"jobmate/harvester-service/internal/db"
	"jobmate/harvester-service/internal/events"
	"jobmate/harvester-service/internal/grpcserver"
	"jobmate/harvester-service/internal/lifecycle"
	"jobmate/harvester-service/internal/logger"
	"jobmate/harvester-service/internal/normalize"
	"jobmate/harvester-service/internal/notify"
	"jobmate/harvester-service/internal/scheduler"
	"jobmate/harvester-service/internal/scraper"
	"jobmate/harvester-service/internal/store"
	"jobmate/harvester-service/internal/supervisor"
)

const usage = "usage: harvester serve | harvester run --url <url> [--adapter kind] [--name platform] [--company-id n] [--save] [--test] [--experience-fallback general|no_experience]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[harvester-service] Config error: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[harvester-service] Logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "serve":
		err = serve(ctx, cfg, log)
	case "run":
		err = run(ctx, cfg, log, os.Args[2:])
		if errors.Is(err, scraper.ErrStopped) {
			err = nil
		}
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error("harvester exited with error", "command", os.Args[1], "error", err)
		log.Sync()
		os.Exit(1)
	}
}

// ── Storage ─────────────────────────────────────────────────────────────────

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		log.Info("connecting to PostgreSQL")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s := store.NewPostgres(pool)
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		log.Info("opening SQLite", "path", cfg.SQLitePath)
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		s := store.NewSQLite(sqlDB)
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return store.NewMemory(), nil
	}
}

// ── serve ───────────────────────────────────────────────────────────────────

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("memory storage is not shared with run processes; progress will stay empty")
	}
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := adapters.NewRegistry()
	bridge, err := lifecycle.New(st, reg, lifecycle.Options{
		Binary:      cfg.HarvesterBin,
		InitTimeout: cfg.RunInitTimeout,
	}, log)
	if err != nil {
		return err
	}
	svc := supervisor.NewService(st, st, bridge, reg, cfg.Sources)

	sched := scheduler.New(cfg.Sources, bridge, reg, st, log)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(api.NewHandler(svc, log)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	gs := grpc.NewServer()
	grpcserver.Register(gs, grpcserver.NewServer(svc))

	errc := make(chan error, 2)
	go func() {
		log.Info("HTTP listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info("gRPC listening", "port", cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil {
			errc <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errc:
	}

	// ── Graceful shutdown ───────────────────────────────────────────────────
	log.Info("shutting down; run processes keep going")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Warn("HTTP shutdown error", "error", serr)
	}
	gs.GracefulStop()
	return err
}

// ── run ─────────────────────────────────────────────────────────────────────

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) error {
	rc, err := lifecycle.ParseArgs(args)
	if err != nil {
		return err
	}
	reg := adapters.NewRegistry()
	platform, err := reg.Platform(rc)
	if err != nil {
		return err
	}
	log = log.With("platform", platform)

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	// from here on a setup error still leaves a terminal row behind
	fail := func(err error) error {
		return scraper.FailBeforeRun(ctx, st, platform, err, time.Now())
	}

	fallback, err := normalize.ParseExperienceFallback(rc.ExperienceFallback)
	if err != nil {
		return fail(err)
	}

	var fetcher scraper.Fetcher
	if cfg.BrowserFetch {
		bf, err := browser.New(browser.Options{Headless: true, Timeout: cfg.FetchTimeout})
		if err != nil {
			return fail(err)
		}
		defer func() {
			if err := bf.Close(); err != nil {
				log.Warn("browser close failed", "error", err)
			}
		}()
		fetcher = bf
	} else {
		fetcher = scraper.NewHTTPFetcher(scraper.HTTPOptions{
			Timeout:    cfg.FetchTimeout,
			RatePerSec: cfg.FetchRatePerSec,
		})
	}

	adapter, err := reg.Build(rc, fetcher)
	if err != nil {
		return fail(err)
	}

	observers := []scraper.Observer{scraper.NewLogObserver(log)}
	if cfg.RedisURL != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, progress events disabled", "error", err)
		} else {
			defer rdb.Close()
			observers = append(observers, events.NewRedisObserver(rdb, log))
		}
	}
	if cfg.TelegramEnabled() {
		bot, err := notify.NewBot(cfg.TelegramToken)
		if err != nil {
			log.Warn("telegram unavailable, run summary disabled", "error", err)
		} else {
			observers = append(observers, notify.NewTelegramObserver(bot, cfg.TelegramChatID, log))
		}
	}

	runner := scraper.NewRunner(platform, rc, scraper.Deps{
		Adapter:    adapter,
		Normalizer: normalize.New(cfg.Attribution, fallback),
		Progress:   st,
		Jobs:       st,
		Stop:       scraper.ProgressStopSignal{Store: st},
		Observers:  observers,
		Logger:     log,
	})
	final, err := runner.Run(ctx)
	log.Info("run finished", "status", final.Status, "current", final.Current, "total", final.Total)
	return err
}
