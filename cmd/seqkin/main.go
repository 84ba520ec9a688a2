// Package main provides the seqkin command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagQuiet bool
	flagDebug bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "seqkin",
		Short:   "Inheritance-aware variant filtering for families",
		Long:    "seqkin filters VCF variants on segregation with disease in families:\nde novo, dominant and recessive models, including compound heterozygotes.",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "Suppress progress logging")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Verbose debug logging")

	root.AddCommand(newFilterCmd())
	root.AddCommand(newPopdbCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig loads ~/.seqkin.yaml if present. A missing file is fine.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".seqkin")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// newLogger builds a stderr logger honoring the quiet/debug flags.
func newLogger() *zap.Logger {
	if flagQuiet {
		return zap.NewNop()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if flagDebug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
