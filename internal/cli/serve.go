package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/andika/docchat/internal/config"
	"github.com/andika/docchat/internal/httpapi"
	"github.com/andika/docchat/internal/logger"
	"github.com/andika/docchat/internal/tracing"
	"github.com/andika/docchat/pkg/chat"
	"github.com/andika/docchat/pkg/completion"
	"github.com/andika/docchat/pkg/extract"
	"github.com/andika/docchat/pkg/prompt"
	"github.com/andika/docchat/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP service",
	Long: `Run the chat HTTP service in the foreground. The service answers
POST /chat requests, serves the static frontend, and exposes health and
metrics endpoints.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	lg, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer lg.Close()

	if err := config.NewValidator().Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := tracing.Init(tracing.Config{
		ServiceName:    "docchat",
		ServiceVersion: version,
		SampleRatio:    cfg.Tracing.SampleRatio,
	}); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(ctx)
	}()

	log.Info().
		Str("provider", cfg.AI.Provider).
		Str("model", cfg.AI.Model).
		Int("port", cfg.Server.Port).
		Msg("Starting docchat")

	// Persona source
	var persona prompt.PersonaProvider
	if cfg.Prompt.PersonaFile != "" {
		fp, err := prompt.NewFilePersona(cfg.Prompt.PersonaFile, lg.GetZerolog())
		if err != nil {
			return fmt.Errorf("failed to load persona file: %w", err)
		}
		defer fp.Stop()
		persona = fp
	}

	// Completion client
	client, err := completion.NewClient(completion.Config{
		Provider:   cfg.AI.Provider,
		Model:      cfg.AI.Model,
		APIKey:     cfg.AI.APIKey,
		MaxRetries: cfg.AI.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	// Session store and reaper
	store := session.NewStore(cfg.Session.HistoryLimit)
	reaper := session.NewReaper(store, cfg.Session.TTL, cfg.Session.SweepInterval)
	if err := reaper.Start(); err != nil {
		return fmt.Errorf("failed to start session reaper: %w", err)
	}
	defer reaper.Stop()

	// Orchestrator
	orchestrator, err := chat.New(chat.Config{
		Store:     store,
		Builder:   prompt.NewBuilder(persona),
		Client:    client,
		Extractor: extract.NewDocumentExtractor(),
		Logger:    lg.GetZerolog(),
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	// HTTP server
	server, err := httpapi.NewServer(httpapi.Config{
		Port:         cfg.Server.Port,
		PublicDir:    cfg.Server.PublicDir,
		UploadDir:    cfg.Uploads.Dir,
		Orchestrator: orchestrator,
		Logger:       lg.GetZerolog(),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Upload scratch sweeper
	sweeper, err := httpapi.NewUploadSweeper(cfg.Uploads.Dir, cfg.Uploads.SweepSchedule, cfg.Uploads.MaxAge, lg.GetZerolog())
	if err != nil {
		return fmt.Errorf("failed to create upload sweeper: %w", err)
	}
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start upload sweeper: %w", err)
	}
	defer sweeper.Stop()

	log.Info().Msgf("Server running at http://localhost:%d", cfg.Server.Port)

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	return server.Stop()
}
