package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"syntaxforge/internal/logging"
)

var (
	verbose       bool
	workspace     string
	strategiesDir string
	logger        *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "syntaxforge",
	Short: "syntaxforge - training data preparation for syntactic analysis fine-tuning",
	Long: `syntaxforge prepares fine-tuning datasets that teach a language model
English syntactic analysis.

It manages tag strategies (merge plans over the 17 annotation categories),
generates new strategies for any target category count, transforms annotated
sentences into chunk/POS/role training examples, and assembles validated
JSONL datasets with train/valid/test splits.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if workspace == "" {
			workspace, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve workspace: %w", err)
			}
		}
		if strategiesDir == "" {
			strategiesDir = filepath.Join(workspace, "strategies")
		}
		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("file logging disabled", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&strategiesDir, "strategies-dir", "", "Strategy definitions directory (default: <workspace>/strategies)")

	rootCmd.AddCommand(strategyCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(experimentCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
