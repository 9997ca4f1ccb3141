package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orientavida/assess-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "assess-cli",
	Short: "Psychometric test authoring engine",
	Long:  "Authors the factor/subfactor/question structure of psychometric tests against a shared store, exports instruments for review, and ranks counselor recommendations from the matching service.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
