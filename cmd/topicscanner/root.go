package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"TopicScanner/internal/app"
	"TopicScanner/internal/config"
	"TopicScanner/internal/logging"
)

const configFlag = "config"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "topicscanner",
		Short:        "Harvest, score and curate post ideas",
		Long:         "topicscanner pulls trending items from Hacker News, CoinGecko and Product Hunt, scores them and keeps a curated worklist of post ideas.",
		SilenceUsage: true,
	}
	root.PersistentFlags().String(configFlag, "", "path to YAML config (default $TOPIC_SCANNER_CONFIG)")

	root.AddCommand(
		newServeCmd(),
		newScanCmd(),
		newTopicsCmd(),
		newShowCmd(),
		newStatusCmd(),
		newFactCheckCmd(),
		newDraftCmd(),
		newStatsCmd(),
		newRunsCmd(),
	)
	return root
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return config.Config{}, err
	}
	return config.LoadFrom(path), nil
}

// withApp opens the application for one command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, application *app.Application) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.NewWithFormat(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()
	return fn(ctx, application)
}
