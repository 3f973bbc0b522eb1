package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dotmap",
	Short: "Dot-density preprocessing for city demographic maps",
	Long:  "Joins census category counts to administrative boundary shapefiles and generates dot-density point tables for a mapping front end.",
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
