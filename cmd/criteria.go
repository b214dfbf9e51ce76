package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/filtering"
	"github.com/spigell/teacherlink-search/internal/store"
)

// parseFilterFlags turns repeated key=value flags into criteria. Repeating a key adds values.
func parseFilterFlags(flags []string) (filtering.Criteria, error) {
	values := make(map[string][]any)
	order := make([]string, 0)

	for _, flag := range flags {
		key, value, ok := strings.Cut(flag, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return filtering.Criteria{}, fmt.Errorf("filter %q must look like key=value", flag)
		}
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = append(values[key], strings.TrimSpace(value))
	}

	m := make(map[string]any, len(values))
	for _, key := range order {
		if len(values[key]) == 1 {
			m[key] = values[key][0]
			continue
		}
		m[key] = values[key]
	}

	criteria, err := filtering.CriteriaFromMap(m)
	if err != nil {
		return filtering.Criteria{}, err
	}
	if err := criteria.Validate(); err != nil {
		return filtering.Criteria{}, err
	}
	return criteria, nil
}

// resolveCriteria picks the filters for a run: explicit flags, then saved filters when asked for,
// then the configured defaults.
func resolveCriteria(ctx context.Context, flags []string, useSaved bool, filterStore store.FilterStore, config *Config, logger *zap.Logger) (filtering.Criteria, error) {
	if len(flags) > 0 {
		return parseFilterFlags(flags)
	}

	if useSaved {
		saved, err := store.LoadOrEmpty(ctx, filterStore)
		if err != nil {
			return filtering.Criteria{}, fmt.Errorf("loading saved filters: %w", err)
		}
		if !saved.IsEmpty() {
			logger.Info("using saved filters", zap.Strings("filters", saved.ActiveKeys()))
			return saved, nil
		}
	}

	return config.defaultCriteria()
}
