package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/filtering"
	"github.com/spigell/teacherlink-search/internal/store"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manage the saved candidate filters",
}

var filtersShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved filters",
	Run: func(_ *cobra.Command, _ []string) {
		withStore(func(ctx context.Context, s store.FilterStore, logger *zap.Logger) error {
			criteria, err := store.LoadOrEmpty(ctx, s)
			if err != nil {
				return err
			}

			pretty, _ := json.MarshalIndent(criteria, "", "  ")
			fmt.Println(string(pretty))

			for _, status := range filtering.Describe(filtering.FromCriteria(criteria)) {
				logger.Debug("saved filter",
					zap.String("name", status.Name),
					zap.Bool("required", status.Required),
					zap.String("value", status.Value()),
				)
			}
			return nil
		})
	},
}

var filtersSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Replace the saved filters with the given ones",
	Run: func(cmd *cobra.Command, _ []string) {
		flags, _ := cmd.Flags().GetStringArray("filter")
		withStore(func(ctx context.Context, s store.FilterStore, logger *zap.Logger) error {
			criteria, err := parseFilterFlags(flags)
			if err != nil {
				return err
			}
			if err := s.Save(ctx, criteria); err != nil {
				return err
			}
			logger.Info("filters saved", zap.Strings("filters", criteria.ActiveKeys()))
			return nil
		})
	},
}

var filtersClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the saved filters",
	Run: func(_ *cobra.Command, _ []string) {
		withStore(func(ctx context.Context, s store.FilterStore, logger *zap.Logger) error {
			if err := s.Clear(ctx); err != nil {
				return err
			}
			logger.Info("saved filters cleared")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(filtersCmd)
	filtersCmd.AddCommand(filtersShowCmd, filtersSaveCmd, filtersClearCmd)

	filtersSaveCmd.Flags().StringArrayP("filter", "f", nil, "filter as key=value, repeatable")
	filtersSaveCmd.MarkFlagRequired("filter")
}

func withStore(fn func(ctx context.Context, s store.FilterStore, logger *zap.Logger) error) {
	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	s, err := newStore(config, logger)
	if err != nil {
		logger.Fatal("creating filter store", zap.Error(err))
	}
	defer store.Close(s)

	if err := fn(context.Background(), s, logger); err != nil {
		logger.Fatal("managing filters", zap.Error(err))
	}
}
