// Package main is the vinylo command line: terminal voting sessions, pool
// management and an in-memory development backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	service "github.com/okian/vinylo/internal/app"
	"github.com/okian/vinylo/internal/config"
	"github.com/okian/vinylo/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "vinylo",
	Short:             "Rank your album collection one matchup at a time",
	Long:              "vinylo shows two albums from your collection, records which one you prefer and keeps an Elo ranking on the backend.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfg        *config.Config
	userFlag   string
	sourceFlag string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Username (overrides the remembered one)")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "Collection source: lastfm or spotify")
}

// setup loads configuration and initializes logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if userFlag != "" {
		c.Username = userFlag
	}
	if sourceFlag != "" {
		c.Source = sourceFlag
	}
	if err := c.Validate(); err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(logger.Format(c.LogFormat)), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(c.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", c.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	cfg = c
	return nil
}

// withService runs fn with a started application service.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	svc := service.New(*cfg, service.WithLogger(logger.Get().Named("service")))
	if err := svc.Start(cmd.Context()); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()
	return fn(cmd.Context(), svc)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
