package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"syntaxforge/internal/strategy"
)

var (
	generateName string
	generateSave bool
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Manage tag classification strategies",
}

var strategyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := strategy.NewStore(strategiesDir)
		reg, err := strategy.NewRegistryFromStore(store)
		if err != nil {
			return err
		}

		infos := reg.List()
		if len(infos) == 0 {
			fmt.Printf("No strategies found in %s\n", strategiesDir)
			return nil
		}
		fmt.Printf("%-28s %-20s %-8s %s\n", "NAME", "TYPE", "GROUPS", "DESCRIPTION")
		for _, info := range infos {
			fmt.Printf("%-28s %-20s %-8d %s\n", info.Name, info.Type, info.Groups, info.Description)
		}
		return nil
	},
}

var strategyShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one strategy's full group mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := strategy.NewStore(strategiesDir)
		def, err := store.Get(args[0])
		if err != nil {
			return err
		}
		printDefinition(def)
		return nil
	},
}

var strategyGenerateCmd = &cobra.Command{
	Use:   "generate <category-count>",
	Short: "Generate a merged strategy for a target category count (2-17)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("category count must be an integer: %q", args[0])
		}

		def, err := strategy.NewGenerator().Generate(n, generateName)
		if err != nil {
			return err
		}
		printDefinition(def)

		if generateSave {
			path, err := strategy.NewStore(strategiesDir).Save(def)
			if err != nil {
				return err
			}
			logger.Info("strategy saved", zap.String("name", def.Name), zap.String("path", path))
			fmt.Printf("\nSaved to %s\n", path)
		}
		return nil
	},
}

func printDefinition(def *strategy.Definition) {
	fmt.Printf("Name:        %s\n", def.Name)
	fmt.Printf("Version:     %s\n", def.Version)
	fmt.Printf("Type:        %s\n", def.StrategyType)
	if def.Description != "" {
		fmt.Printf("Description: %s\n", def.Description)
	}
	fmt.Printf("Groups:      %d\n\n", len(def.TagMapping.SyntaxGroups))
	for _, g := range def.TagMapping.SyntaxGroups {
		if g.Rule.IsList() {
			fmt.Printf("  %-16s %s\n", g.Name, strings.Join(g.Rule.Categories, ", "))
			continue
		}
		fmt.Printf("  %-16s %s ~ [%s]\n", g.Name, g.Rule.OriginalCategory, strings.Join(g.Rule.Patterns, ", "))
	}
}

func init() {
	strategyGenerateCmd.Flags().StringVar(&generateName, "name", "", "Strategy name (default: dynamic_<N>cats)")
	strategyGenerateCmd.Flags().BoolVar(&generateSave, "save", false, "Save the generated strategy to the strategies directory")

	strategyCmd.AddCommand(strategyListCmd)
	strategyCmd.AddCommand(strategyShowCmd)
	strategyCmd.AddCommand(strategyGenerateCmd)
}
