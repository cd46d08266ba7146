// Command trip-journal serves the trip-journal API and runs the pipeline
// from the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fpang/trip-journal/internal/boot"
	"github.com/fpang/trip-journal/internal/config"
	"github.com/fpang/trip-journal/internal/logging"
)

// Set at build time via -ldflags.
var (
	commitHash string
	buildTime  string
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "trip-journal",
		Short: "Turn a batch of travel photos into a written trip journal",
		Long: `trip-journal orders photos by their capture time, asks a vision model to
describe each one, composes the descriptions into a single travel journal,
and stores the journal with its photos and travel-style tags.

Examples:
  trip-journal serve --http-address :8080
  trip-journal create --owner me --dir ./jeju-2024 --title "제주 3박 4일"
  trip-journal list --owner me
  trip-journal show 12
  trip-journal delete 12 --owner me`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newServeCmd(), newCreateCmd(), newListCmd(), newShowCmd(), newDeleteCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to configuration file")
	flags.String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	flags.String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	flags.Bool("log-pretty", defaults.GetBool("log.pretty"), "Human-readable console logs")
	flags.String("database-driver", defaults.GetString("database.driver"), "Database driver (sqlite, postgres)")
	flags.String("database-dsn", defaults.GetString("database.dsn"), "Database DSN or SQLite file path")
	flags.String("storage-backend", defaults.GetString("storage.backend"), "Blob backend (local, s3)")
	flags.String("storage-root", defaults.GetString("storage.local_root"), "Root directory of the local blob backend")
	flags.String("s3-bucket", defaults.GetString("storage.s3_bucket"), "Bucket of the s3 blob backend")
	flags.String("provider", defaults.GetString("generator.provider"), "Model provider (gemini, openai)")
	flags.String("model", "", "Model name override for the selected provider")
	flags.Int("workers", defaults.GetInt("pipeline.workers"), "Concurrent photo analyses")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.pretty", "log-pretty")
	bindFlag(cmd, "database.driver", "database-driver")
	bindFlag(cmd, "database.dsn", "database-dsn")
	bindFlag(cmd, "storage.backend", "storage-backend")
	bindFlag(cmd, "storage.local_root", "storage-root")
	bindFlag(cmd, "storage.s3_bucket", "s3-bucket")
	bindFlag(cmd, "generator.provider", "provider")
	bindFlag(cmd, "pipeline.workers", "workers")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// loadConfig resolves configuration and initializes logging.
func loadConfig(cmd *cobra.Command) (config.AppConfig, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.AppConfig{}, err
	}
	logging.Init(cfg.LogLevel, cfg.LogPretty)

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.GeminiModel, cfg.OpenAIModel = model, model
	}
	if cfgFile != "" {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("Config file loaded")
	}
	return cfg, nil
}

func identity() boot.Identity {
	return boot.Identity{Name: "trip-journal", CommitHash: commitHash, BuildTime: buildTime}
}
