package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dshills/docground/internal/config"
	"github.com/dshills/docground/internal/logger"
)

var (
	cfgFile       string
	currentConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "docground",
	Short:        "docground: grounded document retrieval with citations",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		v := config.New()
		if err := v.BindPFlag("log.level", cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
			return fmt.Errorf("bind log-level flag: %w", err)
		}
		if err := v.BindPFlag("db_path", cmd.Root().PersistentFlags().Lookup("db")); err != nil {
			return fmt.Errorf("bind db flag: %w", err)
		}

		cfg, err := config.LoadFrom(v, cfgFile)
		if err != nil {
			return err
		}

		lvl, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger.SetLevel(lvl)

		currentConfig = cfg
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = fmt.Sprintf("%s (built: %s)", version, buildTime)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./docground.yaml or ~/.docground/docground.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("db", "", "path to the SQLite index")
}
