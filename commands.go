package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"careerhub-backend/config"
	"careerhub-backend/controllers/authentication"
	"careerhub-backend/errors"
	"careerhub-backend/logger"
	"careerhub-backend/server"
	"careerhub-backend/services/ai"
	"careerhub-backend/services/events"
	"careerhub-backend/services/export"
	"careerhub-backend/services/functions"
	"careerhub-backend/services/importer"
	"careerhub-backend/services/monitor"
	"careerhub-backend/services/notion"
	"careerhub-backend/services/questionbank"
	"careerhub-backend/services/securitycheck"
	"careerhub-backend/services/storage"
	"careerhub-backend/worker"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "careerhub",
	Short: "CareerHub backend: data API, auth and functions",
	Long: `CareerHub backend.

Available commands:
  serve    - Run the HTTP API
  worker   - Process queued document exports
  migrate  - Create or update the database schema`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := logger.Initialize(c.Log.JSON, c.Log.Level); err != nil {
			return errors.Wrap(err, "initialize logger")
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process queued document exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runWorker(ctx, cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		logger.ComponentLogger("migrate").Infow("schema up to date", "driver", cfg.DB.Driver)
		return closeDB(db)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to careerhub.yaml")
	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd)
}

func openDB(c *config.Config) (*gorm.DB, error) {
	db, err := config.InitDB(c.DB)
	if err != nil {
		return nil, err
	}
	if err := config.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	return sqlDB.Close()
}

// services are the long-lived collaborators shared by serve and worker.
type services struct {
	db      *gorm.DB
	broker  events.Broker
	exports *export.Service
	imports *importer.Service
}

func (s *services) Close() {
	_ = s.broker.Close()
	_ = closeDB(s.db)
}

func buildServices(ctx context.Context, c *config.Config) (*services, error) {
	log := logger.ComponentLogger("main")

	db, err := openDB(c)
	if err != nil {
		return nil, err
	}
	objects, err := storage.New(ctx, c.S3)
	if err != nil {
		_ = closeDB(db)
		return nil, err
	}
	broker, err := events.New(c.RabbitMQ.URL, logger.ComponentLogger("events"))
	if err != nil {
		_ = closeDB(db)
		return nil, err
	}
	log.Infow("services ready",
		"db_driver", c.DB.Driver,
		"s3_bucket", c.S3.Bucket,
		"rabbitmq", c.RabbitMQ.URL != "",
	)
	return &services{
		db:      db,
		broker:  broker,
		exports: export.NewService(db, objects, broker),
		imports: importer.NewService(db, objects),
	}, nil
}

func serve(ctx context.Context, c *config.Config) error {
	svc, err := buildServices(ctx, c)
	if err != nil {
		return err
	}
	defer svc.Close()

	completer, err := ai.New(ctx, c.AI)
	if err != nil {
		return err
	}
	registry := functions.NewRegistry(svc.db, c.Function)
	functions.RegisterBuiltins(registry, functions.Deps{
		DB:      svc.db,
		AI:      completer,
		Bank:    questionbank.Default(),
		Exports: svc.exports,
		Imports: svc.imports,
	})

	mon, err := monitor.New(c.Monitor, c.BaseURL)
	if err != nil {
		return err
	}

	h := server.NewHandler(server.Deps{
		Config:    c,
		DB:        svc.db,
		Auth:      authentication.NewHandler(svc.db, c, config.NewSessionStore(c.Session)),
		Broker:    svc.broker,
		Notion:    notion.New(c.Notion),
		Functions: registry,
		Exports:   svc.exports,
		Imports:   svc.imports,
		Security:  securitycheck.New(c.Security),
		Monitor:   mon,
	})
	return server.Run(ctx, ":"+c.Port, h, logger.ComponentLogger("server"))
}

func runWorker(ctx context.Context, c *config.Config) error {
	svc, err := buildServices(ctx, c)
	if err != nil {
		return err
	}
	defer svc.Close()

	conn, ok := svc.broker.(*events.AMQP)
	if !ok {
		return errors.WithHint(errors.New("worker needs a message broker"), "set RABBITMQ_URL")
	}
	return worker.NewPool(svc.exports, c.Worker.Concurrency).Consume(ctx, conn.Connection())
}
