package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvview/internal/config"
	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/history"
	"github.com/JonMunkholm/csvview/internal/logging"
	"github.com/JonMunkholm/csvview/internal/web"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Port    int
	EnvFile string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the web server. Settings come from the environment, after loading
a .env file when present. --port overrides SERVER_PORT.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "listen port (overrides SERVER_PORT)")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load if present")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	// Overload: the file wins over the inherited environment.
	if err := godotenv.Overload(opts.EnvFile); err != nil {
		slog.Info("no .env file found, using environment variables", "path", opts.EnvFile)
	} else {
		slog.Info("loaded .env file", "path", opts.EnvFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	if ctx == nil {
		ctx = context.Background()
	}
	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return fmt.Errorf("open upload history: %w", err)
	}
	defer store.Close()
	slog.Info("upload history ready", "backend", store.Backend())

	engine := core.NewEngine(core.NewStore(),
		core.WithLimiter(core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)),
		core.WithHistory(store),
	)
	server := web.NewServer(engine, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Let in-flight decodes finish before the listener closes.
	if status := engine.Limiter().Status(); status.Active > 0 {
		slog.Info("waiting for uploads to complete", "active", status.Active)
		if err := engine.Limiter().WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("uploads did not complete in time", "error", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
