package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/hiretree/internal/config"
	"github.com/jonathan/hiretree/internal/db"
	"github.com/jonathan/hiretree/internal/ingestion"
	"github.com/jonathan/hiretree/internal/server"
	"github.com/jonathan/hiretree/internal/store"
	"github.com/jonathan/hiretree/internal/types"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start the HTTP API server. Settings come from the environment (PORT, DATABASE_URL, PARSER_URL, GEMINI_API_KEY, JWT_SECRET, ...).`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return srv.Run(ctx)
}

// buildServer assembles the stores, the optional database and the collaborators.
func buildServer(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger) (*server.Server, func(), error) {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load JWT config: %w", err)
	}
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load password config: %w", err)
	}

	cleanup := func() {}
	var (
		jobs    *store.JobStore
		resumes *store.ResumeStore
		users   store.UserStore
	)

	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, data is kept in memory only")
		jobs = store.NewJobStore(nil)
		resumes = store.NewResumeStore(nil)
		users = store.NewMemoryUsers()
	} else {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		cleanup = database.Close
		if err := database.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}

		savedJobs, savedResumes, err := loadSnapshot(ctx, database)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		jobs = store.NewJobStore(database)
		jobs.Restore(savedJobs)
		resumes = store.NewResumeStore(database)
		resumes.Restore(savedResumes)
		users = database
		logger.Info("restored data from database", "jobs", len(savedJobs), "resumes", len(savedResumes))
	}

	var documents ingestion.DocumentParser = ingestion.NoDocumentParser{}
	switch {
	case cfg.ParserURL != "":
		documents = ingestion.NewHTTPDocumentParser(cfg.ParserURL, cfg.ParserTimeout)
	case cfg.GeminiAPIKey != "":
		gemini, err := ingestion.NewGeminiDocumentParser(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closeDB := cleanup
		cleanup = func() {
			_ = gemini.Close()
			closeDB()
		}
		documents = gemini
		logger.Info("parsing uploaded resumes with Gemini", "model", cfg.GeminiModel)
	default:
		logger.Warn("no document parser configured, uploads will store an empty profile")
	}

	srv, err := server.New(cfg, server.Deps{
		Jobs:      jobs,
		Resumes:   resumes,
		Users:     server.NewUserService(users, passwordConfig),
		Tokens:    server.NewJWTService(jwtConfig),
		Documents: documents,
		Logger:    logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create server: %w", err)
	}
	return srv, cleanup, nil
}

func loadSnapshot(ctx context.Context, database *db.DB) ([]types.Job, []types.Resume, error) {
	var (
		jobs    []types.Job
		resumes []types.Resume
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		jobs, err = database.LoadJobs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		resumes, err = database.LoadResumes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to restore data: %w", err)
	}
	return jobs, resumes, nil
}
