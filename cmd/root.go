package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/reelmatch/reelmatch/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "reelmatch",
		Short: "Content-based movie recommendations from TMDb descriptions",
		Long: `Reelmatch builds a description similarity index over a TMDb movie dataset
and answers "movies like this one" queries from it, decorated with posters and
metadata from the TMDb API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.Logging.Level = "debug"
			}
			setupLogging(cfg.Logging)
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file (default: $RM_CONFIG_PATH or ./reelmatch.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newBuildCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newRecommendCmd(opts))
	cmd.AddCommand(newDetailsCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newBrowseCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))

	return cmd
}

func setupLogging(cfg config.LoggingConfig) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}
