package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cutoutd/internal/catalog"
	"cutoutd/internal/common/fsutil"
	"cutoutd/internal/config"
	"cutoutd/internal/download"
	"cutoutd/internal/httpapi"
	"cutoutd/internal/logging"
	"cutoutd/internal/pipeline"
	"cutoutd/internal/session"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		addr         string
		defaultModel string
		corsEnabled  bool
		corsOrigins  string
		maxBodyBytes int64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Example: `  # Serve on the default port with the builtin catalog
  cutoutd serve

  # Allow a UI dev server to call the API
  cutoutd serve --addr :9090 --cors-enabled --cors-origins http://localhost:5173`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts, cmd.Flags(), os.Getenv)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("default-model") {
				cfg.DefaultModel = defaultModel
			}
			if flags.Changed("cors-enabled") {
				cfg.CORSEnabled = corsEnabled
			}
			if flags.Changed("cors-origins") {
				cfg.CORSAllowedOrigins = config.SplitCSV(corsOrigins)
			}
			if flags.Changed("max-body-bytes") {
				cfg.MaxBodyBytes = maxBodyBytes
			}
			return serve(cmd.Context(), cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", config.DefaultAddr, "HTTP listen address, e.g. :8080")
	f.StringVar(&defaultModel, "default-model", "", "Model selected at startup (defaults to the catalog default)")
	f.BoolVar(&corsEnabled, "cors-enabled", false, "Enable CORS")
	f.StringVar(&corsOrigins, "cors-origins", "", "Comma-separated list of allowed CORS origins")
	f.Int64Var(&maxBodyBytes, "max-body-bytes", config.DefaultMaxBodyBytes, "Maximum request body size in bytes")
	return cmd
}

// initialModel picks the model selected at startup.
func initialModel(cat *catalog.Catalog, want string) (string, error) {
	if want != "" {
		if _, ok := cat.Lookup(want); !ok {
			return "", pipeline.ErrModelNotFound(want)
		}
		return want, nil
	}
	m, ok := cat.DefaultModel()
	if !ok {
		return "", errors.New("catalog has no default model")
	}
	return m.ID, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	httpapi.SetLogger(logger)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	modelsDir, err := fsutil.ExpandHome(cfg.ModelsDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}
	selected, err := initialModel(cat, cfg.DefaultModel)
	if err != nil {
		return err
	}

	sess := session.New(session.Config{
		SelectedModel: selected,
		Publisher:     session.Publishers(logging.NewPublisher(logger), httpapi.MetricsPublisher{}),
	})
	pipe := pipeline.New(pipeline.Config{
		Session:    sess,
		Catalog:    cat,
		ModelsDir:  modelsDir,
		Downloader: download.New(cfg.DownloadBaseURL, cfg.HFToken, cfg.DownloadTimeout(), cfg.ProgressInterval()),
		Logger:     logger.With().Str("component", "pipeline").Logger(),
	})
	defer func() {
		if err := pipe.Close(); err != nil {
			logger.Warn().Err(err).Msg("pipeline close")
		}
	}()
	logger.Warn().Msg("no segmentation runtime linked; processing requests will fail with a dependency error")

	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, nil, nil)
	httpapi.SetVersion(version)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(httpapi.NewService(sess, pipe)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("models_dir", modelsDir).Str("model", selected).Msg("cutoutd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown error")
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}
}
