package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/gatherly/gathering-api/internal/archive"
	"github.com/gatherly/gathering-api/internal/config"
	"github.com/gatherly/gathering-api/internal/domain/poll"
	"github.com/gatherly/gathering-api/internal/logger"
	"github.com/gatherly/gathering-api/internal/server"
	"github.com/gatherly/gathering-api/internal/services"
	"github.com/gatherly/gathering-api/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logger.Get().Error("gathering api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	log := logger.Get()
	log.Info("starting gathering api", "environment", cfg.Environment, "storage", cfg.Storage.Type)

	storageType, err := storage.ValidateStorageType(cfg.Storage.Type)
	if err != nil {
		return err
	}
	container, err := storage.NewFactory(storageType).CreateContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archiver poll.ResultArchiver
	if cfg.Archive.Enabled {
		a, err := archive.New(cfg.Archive)
		if err != nil {
			return err
		}
		if err := a.EnsureBucket(ctx); err != nil {
			return err
		}
		archiver = a
	}

	polls := poll.NewPollService(container.Polls(), archiver)
	directory := services.NewDirectoryService(container.Directory())
	srv := server.New(cfg, container, polls, directory)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("gathering api stopped cleanly")
	return nil
}
