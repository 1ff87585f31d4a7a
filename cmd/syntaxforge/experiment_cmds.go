package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"syntaxforge/internal/experiment"
	"syntaxforge/internal/strategy"
)

var (
	expStrategy    string
	expDescription string
	expTrainRatio  float64
	expValidRatio  float64
	expSeed        int64
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Track dataset-generation experiments",
}

var experimentCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an experiment bound to a strategy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// The strategy must exist before an experiment can reference it.
		if _, err := strategy.NewStore(strategiesDir).Get(expStrategy); err != nil {
			return err
		}

		params := experiment.DatasetParams{
			TrainRatio: expTrainRatio,
			ValidRatio: expValidRatio,
			RandomSeed: expSeed,
		}
		cfg, err := experiment.NewManager(workspace).Create(args[0], expStrategy, expDescription, &params)
		if err != nil {
			return err
		}
		logger.Info("experiment created", zap.String("id", cfg.ID), zap.String("strategy", cfg.StrategyName))
		fmt.Printf("Created experiment %s\n", cfg.ID)
		fmt.Printf("  strategy: %s\n", cfg.StrategyName)
		fmt.Printf("  split:    %.2f/%.2f (seed %d)\n", params.TrainRatio, params.ValidRatio, params.RandomSeed)
		return nil
	},
}

var experimentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List experiments, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := experiment.NewManager(workspace).List()
		if err != nil {
			return err
		}
		if len(configs) == 0 {
			fmt.Println("No experiments found")
			return nil
		}
		fmt.Printf("%-44s %-20s %-18s %s\n", "ID", "STRATEGY", "STATUS", "CREATED")
		for _, cfg := range configs {
			fmt.Printf("%-44s %-20s %-18s %s\n", cfg.ID, cfg.StrategyName, cfg.Status, cfg.CreatedAt)
		}
		return nil
	},
}

var experimentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one experiment's config and results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := experiment.NewManager(workspace).Get(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:          %s\n", cfg.ID)
		fmt.Printf("Name:        %s\n", cfg.Name)
		fmt.Printf("Strategy:    %s\n", cfg.StrategyName)
		fmt.Printf("Status:      %s\n", cfg.Status)
		fmt.Printf("Created:     %s\n", cfg.CreatedAt)
		if cfg.LastUpdated != "" {
			fmt.Printf("Updated:     %s\n", cfg.LastUpdated)
		}
		if cfg.Description != "" {
			fmt.Printf("Description: %s\n", cfg.Description)
		}
		fmt.Printf("Split:       %.2f/%.2f (seed %d)\n",
			cfg.DatasetParams.TrainRatio, cfg.DatasetParams.ValidRatio, cfg.DatasetParams.RandomSeed)
		if len(cfg.Results) > 0 {
			fmt.Println("Results:")
			for k, v := range cfg.Results {
				fmt.Printf("  %s: %s\n", k, v)
			}
		}
		return nil
	},
}

func init() {
	experimentCreateCmd.Flags().StringVar(&expStrategy, "strategy", "", "Strategy name the experiment uses (required)")
	experimentCreateCmd.Flags().StringVar(&expDescription, "description", "", "Experiment description")
	experimentCreateCmd.Flags().Float64Var(&expTrainRatio, "train-ratio", 0.8, "Training set ratio")
	experimentCreateCmd.Flags().Float64Var(&expValidRatio, "valid-ratio", 0.15, "Validation set ratio")
	experimentCreateCmd.Flags().Int64Var(&expSeed, "seed", 42, "Shuffle seed for the split")
	_ = experimentCreateCmd.MarkFlagRequired("strategy")

	experimentCmd.AddCommand(experimentCreateCmd)
	experimentCmd.AddCommand(experimentListCmd)
	experimentCmd.AddCommand(experimentShowCmd)
}
