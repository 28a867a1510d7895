package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/sqlassist/internal/db"
	"github.com/wuwenbin0122/sqlassist/internal/utils"
)

var envFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sqlcli",
		Short:         "Ask the database questions in plain language",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "path to an env file with the service configuration")

	root.AddCommand(newAskCmd(), newSchemaCmd())
	return root
}

// bootstrap loads configuration and opens the database like the server does,
// logging only warnings so command output stays readable.
func bootstrap(ctx context.Context) (*utils.Config, *db.Database, *zap.SugaredLogger, error) {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, nil, nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	logCfg := cfg.Logging
	logCfg.Level = "warn"
	logger, err := utils.NewLogger(logCfg)
	if err != nil {
		return nil, nil, nil, err
	}

	database, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, database, logger.Sugar(), nil
}
