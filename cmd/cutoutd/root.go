package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cutoutd/internal/catalog"
	"cutoutd/internal/common/fsutil"
	"cutoutd/internal/config"
	"cutoutd/internal/logging"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	modelsDir  string
	modelsFile string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "cutoutd",
		Short: "Background removal session server",
		Long: `cutoutd keeps the state of one interactive background-removal session
and serves it to a rendering layer over HTTP.

Configuration precedence: flags > CUTOUTD_* environment (a .env file in the
working directory is loaded first) > --config file > defaults.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml, .json or .toml)")
	pf.StringVar(&opts.modelsDir, "models-dir", "", "Directory holding downloaded *.onnx models")
	pf.StringVar(&opts.modelsFile, "models-file", "", "Optional catalog file overriding the builtin model list")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newModelsCmd(opts))
	return cmd
}

// resolveConfig merges the config file, the environment and the flags that
// were set explicitly, then applies defaults.
func resolveConfig(opts *options, flags *pflag.FlagSet, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		c, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	cfg, err := cfg.ApplyEnv(getenv)
	if err != nil {
		return cfg, err
	}
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("models-dir", &cfg.ModelsDir, opts.modelsDir)
	set("models-file", &cfg.ModelsFile, opts.modelsFile)
	set("log-level", &cfg.LogLevel, opts.logLevel)
	set("log-format", &cfg.LogFormat, opts.logFormat)
	return cfg.WithDefaults(), nil
}

// loadCatalog returns the builtin catalog unless a catalog file is configured.
func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	if cfg.ModelsFile == "" {
		return catalog.Default(), nil
	}
	path, err := fsutil.ExpandHome(cfg.ModelsFile)
	if err != nil {
		return nil, err
	}
	return catalog.LoadFile(path)
}

func newLogger(cfg config.Config) (zerolog.Logger, error) {
	return logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}
