package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/mileswise/internal/config"
	"github.com/dukerupert/mileswise/internal/database"
	"github.com/dukerupert/mileswise/internal/logging"
	"github.com/dukerupert/mileswise/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default ./mileswise.yaml if present)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "mileswise: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.SeedDemo {
		seeded, err := database.SeedDemo(db)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		if seeded {
			logger.Info("loaded demo data")
		}
	}

	srv := server.New(db, cfg, logger)
	if err := srv.EnsureAdmin(); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("mileswise running", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Hub().CloseAll()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return every(ctx, time.Hour, func() {
			n, err := srv.SessionStore().DeleteExpired()
			if err != nil {
				logger.Error("delete expired sessions", "error", err)
				return
			}
			if n > 0 {
				logger.Info("deleted expired sessions", "count", n)
			}
		})
	})

	g.Go(func() error {
		return every(ctx, 5*time.Minute, srv.RateLimiter().Cleanup)
	})

	g.Go(func() error {
		return srv.ArchiveManager().RunCleanup(ctx, 24*time.Hour)
	})

	return g.Wait()
}

// every calls fn on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}
