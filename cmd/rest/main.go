package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"desirefinder-be/internal/bootstrap"
	"desirefinder-be/internal/config"
	"desirefinder-be/internal/server"
	"desirefinder-be/internal/tracer"
	"desirefinder-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDB(cfg.Database.Connection, database.PoolConfig{
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogSQL:          cfg.Database.LogSQL,
	})
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg)
	if err != nil {
		log.Panicf("Unable to bootstrap container: %v", err)
	}
	defer container.Close()

	shutdownTracer := tracer.InitTracer(ctx, cfg.Tracing, container.Logger)

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run background workers and the server until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		container.SessionRegistry.Run(gctx, cfg.Session.ReapInterval)
		return nil
	})
	g.Go(func() error {
		if err := container.ConsumerService.Consume(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		container.Logger.Info("SERVER", "Shutting down", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return shutdownTracer(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		container.Logger.Error("SERVER", "Stopped with error", map[string]interface{}{"error": err.Error()})
	}
}
