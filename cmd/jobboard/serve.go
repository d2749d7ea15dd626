package main

import (
	"fmt"

	"github.com/jonathan/job-board/internal/config"
	"github.com/jonathan/job-board/internal/db"
	"github.com/jonathan/job-board/internal/logging"
	"github.com/jonathan/job-board/internal/metrics"
	"github.com/jonathan/job-board/internal/server"
	"github.com/jonathan/job-board/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveHost       string
	servePort       int
	serveSkipSchema bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the job board REST API under /api/v1.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a YAML config file")
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Host to listen on")
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveSkipSchema, "skip-schema", false, "Do not create missing tables on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, serveConfigPath, serveHost, servePort)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	pwCfg, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	if !serveSkipSchema {
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return err
		}
		logger.Debug("database schema ensured")
	}

	srv, err := server.New(server.Options{
		Config:     cfg,
		DB:         server.NewDBClient(database),
		JWT:        jwtCfg,
		Password:   pwCfg,
		RateLimit:  ratelimit.LoadConfig(),
		Logger:     logger,
		Metrics:    metrics.New(),
		OnShutdown: database.Close,
	})
	if err != nil {
		database.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
