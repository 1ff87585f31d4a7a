package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"syntaxforge/internal/dataset"
	"syntaxforge/internal/experiment"
	"syntaxforge/internal/strategy"
)

var (
	buildInput        string
	buildSQLite       string
	buildTable        string
	buildStrategy     string
	buildOutputDir    string
	buildTrainRatio   float64
	buildValidRatio   float64
	buildSeed         int64
	buildWorkers      int
	buildExperimentID string

	checkSample int
	checkSeed   int64
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build and audit fine-tuning datasets",
}

var datasetBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a train/valid/test JSONL dataset from an annotated corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openSource()
		if err != nil {
			return err
		}
		defer src.Close()

		store := strategy.NewStore(strategiesDir)
		def, err := store.Get(buildStrategy)
		if err != nil {
			return err
		}
		eng, err := strategy.NewEngine(def)
		if err != nil {
			return err
		}

		outDir := buildOutputDir
		if outDir == "" {
			outDir = filepath.Join(workspace, "data_experiments", def.Name)
		}

		builder := dataset.NewBuilder(eng)
		if buildWorkers > 0 {
			builder.WithWorkers(buildWorkers)
		}
		examples, report, err := builder.Build(context.Background(), src)
		if err != nil {
			return err
		}
		fmt.Printf("Rows: %d  built: %d  empty: %d  invalid: %d  filtered: %d\n",
			report.Total, report.Built, report.SkippedEmpty, report.Invalid, report.Filtered)
		if len(examples) == 0 {
			return fmt.Errorf("no valid examples built; check the input data and strategy")
		}

		if diags := dataset.ValidateExamples(examples); len(diags) > 0 {
			for i, d := range diags {
				if i == 10 {
					fmt.Printf("  ... and %d more\n", len(diags)-10)
					break
				}
				fmt.Printf("  %s\n", d)
			}
			return fmt.Errorf("training data validation failed: %d problems", len(diags))
		}

		stats := dataset.CalculateTokenStats(examples)
		fmt.Printf("Tokens: %d total, %.1f avg per example\n", stats.TotalTokens, stats.AvgTokensPerExample)

		splits, err := dataset.Split(examples, buildTrainRatio, buildValidRatio, buildSeed)
		if err != nil {
			return err
		}

		for _, part := range []struct {
			name     string
			examples []dataset.Example
		}{
			{"train.jsonl", splits.Train},
			{"valid.jsonl", splits.Valid},
			{"test_local.jsonl", splits.Test},
		} {
			path := filepath.Join(outDir, part.name)
			n, err := dataset.WriteJSONL(path, part.examples)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d examples to %s\n", n, path)
		}
		logger.Info("dataset built",
			zap.String("strategy", def.Name),
			zap.Int("examples", report.Built),
			zap.String("output", outDir))

		if buildExperimentID != "" {
			mgr := experiment.NewManager(workspace)
			results := map[string]string{
				"total_examples": fmt.Sprintf("%d", report.Built),
				"train_examples": fmt.Sprintf("%d", len(splits.Train)),
				"valid_examples": fmt.Sprintf("%d", len(splits.Valid)),
				"test_examples":  fmt.Sprintf("%d", len(splits.Test)),
				"output_dir":     outDir,
			}
			// Bookkeeping failure never invalidates a finished build.
			if _, err := mgr.UpdateStatus(buildExperimentID, experiment.StatusDatasetGenerated, results); err != nil {
				logger.Warn("could not record experiment results", zap.String("experiment", buildExperimentID), zap.Error(err))
			}
		}
		return nil
	},
}

var datasetCheckCmd = &cobra.Command{
	Use:   "check <file.jsonl> [more files...]",
	Short: "Run a sampled quality audit over JSONL dataset files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for i, path := range args {
			if i > 0 {
				fmt.Println()
			}
			report, err := dataset.CheckFile(path, checkSample, checkSeed)
			if err != nil {
				return err
			}

			fmt.Printf("File:    %s\n", report.Path)
			fmt.Printf("Lines:   %d (sampled %d)\n", report.TotalLines, report.Sampled)
			fmt.Printf("Valid:   %d (%.1f%%)\n", report.Valid, report.Score)
			printIssues(report.Issues)
			if report.Valid > 0 {
				fmt.Printf("Sentence length: avg %.1f, min %d, max %d, median %d\n",
					report.Lengths.Avg, report.Lengths.Min, report.Lengths.Max, report.Lengths.Median)
			}
		}
		return nil
	},
}

func printIssues(issues dataset.QualityIssues) {
	rows := []struct {
		name  string
		count int
	}{
		{"JSON parse errors", issues.ParseErrors},
		{"missing messages", issues.MissingMessages},
		{"wrong message count", issues.WrongMessageCount},
		{"wrong roles", issues.WrongRoles},
		{"empty content", issues.EmptyContent},
		{"assistant JSON errors", issues.BadAssistantJSON},
		{"missing fields", issues.MissingFields},
		{"empty fields", issues.EmptyFields},
		{"extremely long sentences", issues.TooLong},
		{"extremely short sentences", issues.TooShort},
		{"high token count", issues.HighTokenCount},
	}
	for _, row := range rows {
		if row.count > 0 {
			fmt.Printf("  %s: %d\n", row.name, row.count)
		}
	}
}

func openSource() (dataset.Source, error) {
	switch {
	case buildInput != "" && buildSQLite != "":
		return nil, fmt.Errorf("--input and --sqlite are mutually exclusive")
	case buildInput != "":
		return dataset.NewCSVSource(buildInput)
	case buildSQLite != "":
		return dataset.NewSQLiteSource(buildSQLite, buildTable)
	default:
		return nil, fmt.Errorf("an input is required: --input <csv> or --sqlite <db>")
	}
}

func init() {
	datasetBuildCmd.Flags().StringVar(&buildInput, "input", "", "Input CSV file with sentence and tag_info columns")
	datasetBuildCmd.Flags().StringVar(&buildSQLite, "sqlite", "", "Input SQLite database path")
	datasetBuildCmd.Flags().StringVar(&buildTable, "table", "sentences", "Table name for SQLite input")
	datasetBuildCmd.Flags().StringVar(&buildStrategy, "strategy", "", "Strategy name to apply (required)")
	datasetBuildCmd.Flags().StringVar(&buildOutputDir, "output-dir", "", "Output directory (default: <workspace>/data_experiments/<strategy>)")
	datasetBuildCmd.Flags().Float64Var(&buildTrainRatio, "train-ratio", 0.8, "Training set ratio")
	datasetBuildCmd.Flags().Float64Var(&buildValidRatio, "valid-ratio", 0.15, "Validation set ratio")
	datasetBuildCmd.Flags().Int64Var(&buildSeed, "seed", dataset.DefaultSeed, "Shuffle seed for the split")
	datasetBuildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "Transform parallelism (default: GOMAXPROCS)")
	datasetBuildCmd.Flags().StringVar(&buildExperimentID, "experiment", "", "Experiment ID to record results on")
	_ = datasetBuildCmd.MarkFlagRequired("strategy")

	datasetCheckCmd.Flags().IntVar(&checkSample, "sample", 2000, "Lines to sample (0 = all)")
	datasetCheckCmd.Flags().Int64Var(&checkSeed, "seed", dataset.DefaultSeed, "Sampling seed")

	datasetCmd.AddCommand(datasetBuildCmd)
	datasetCmd.AddCommand(datasetCheckCmd)
}
