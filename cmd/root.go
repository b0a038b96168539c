package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/brandscope/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "brandscope",
	Short: "E-commerce brand exposure analyzer",
	Long:  "Fetches an e-commerce landing page, classifies product categories, derives user segments, generates questions and answers via an LLM, and extracts the brand names the answers mention.",
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
