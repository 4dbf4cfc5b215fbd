package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/fecaudit/fecaudit/internal/model"
	"github.com/fecaudit/fecaudit/internal/registry"
)

// detectionRules builds the rule set from configuration: the built-in
// defaults, then any detection.* overrides from the config file or
// environment. Unknown threshold names fail loudly.
func detectionRules() (*model.RuleSet, error) {
	rules := model.DefaultRuleSet()
	if overrides := viper.GetStringMap("detection"); len(overrides) > 0 {
		if err := rules.ApplyOverrides(overrides); err != nil {
			return nil, fmt.Errorf("invalid detection configuration: %w", err)
		}
	}
	return rules, nil
}

// openRegistry builds the model registry from configuration. A closer is
// returned for backends holding resources; callers defer it.
func openRegistry() (registry.Registry, func() error, error) {
	path := viper.GetString("registry.path")
	if path == "" {
		return nil, nil, nil
	}

	switch backend := viper.GetString("registry.backend"); backend {
	case "file":
		reg, err := registry.NewFileRegistry(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening file registry: %w", err)
		}
		return reg, func() error { return nil }, nil
	case "sqlite":
		reg, err := registry.NewSQLiteRegistry(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite registry: %w", err)
		}
		return reg, reg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown registry backend: %s", backend)
	}
}
