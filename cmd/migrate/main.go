package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/gatherly/gathering-api/internal/config"
	"github.com/gatherly/gathering-api/internal/logger"
	"github.com/gatherly/gathering-api/internal/storage/migrations"
	"github.com/gatherly/gathering-api/internal/storage/postgres"
)

func main() {
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	rollback := flags.Bool("rollback", false, "roll back the last applied migration")
	status := flags.Bool("status", false, "list migrations and whether they are applied")
	analyze := flags.Bool("analyze", false, "print table statistics and tuning hints for the ledger tables")
	logLevel := flags.String("log-level", "", "override the configured log level")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	log := logger.Migration()

	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer postgres.Close(db)

	switch {
	case *status:
		list, err := migrations.Status(db)
		if err != nil {
			log.Error("failed to read migration status", "error", err)
			os.Exit(1)
		}
		for _, m := range list {
			state := "pending"
			if m.Applied {
				state = "applied"
			}
			fmt.Printf("%s  %-28s %s\n", m.ID, m.Name, state)
		}

	case *analyze:
		report, err := postgres.NewStatsReporter(db).Report(context.Background())
		if err != nil {
			log.Error("failed to collect statistics", "error", err)
			os.Exit(1)
		}
		for _, t := range report.Tables {
			fmt.Printf("%-20s rows=%-8d table=%-10s index=%-10s seq=%d idx=%d\n",
				t.TableName, t.LiveRows, t.TableSize, t.IndexSize, t.SeqScans, t.IndexScans)
		}
		fmt.Printf("connections %d/%d (%.1f%%)\n",
			report.Connections.TotalConnections, report.Connections.MaxConnections, report.Connections.ConnectionsPercent)
		for _, h := range report.Hints {
			fmt.Printf("[%s] %s %s\n", h.Priority, h.Table, h.Suggestion)
		}

	case *rollback:
		log.Info("rolling back last migration")
		err := migrations.RollbackMigration(db)
		if errors.Is(err, migrations.ErrNothingToRollback) {
			log.Warn("nothing to roll back")
			return
		}
		if err != nil {
			log.Error("migration rollback failed", "error", err)
			os.Exit(1)
		}
		log.Info("migration rollback completed")

	default:
		log.Info("running migrations")
		if err := migrations.RunMigrations(db); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations completed")
	}
}
