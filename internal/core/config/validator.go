package config

import (
	"fmt"
	"strings"

	"pyuml/internal/core/errors"
)

var knownKinds = map[string]bool{
	"class":    true,
	"sequence": true,
	"activity": true,
	"state":    true,
}

var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateVersion,
		validateSequence,
		validateKinds,
		validateWatch,
		validateHistory,
		validateLog,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return errors.Wrap(err, errors.CodeValidationError, "invalid configuration")
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateSequence(cfg *Config) error {
	if cfg.Sequence.MaxDepth < 1 || cfg.Sequence.MaxDepth > DefaultMaxDepth {
		return fmt.Errorf("sequence.max_depth must be between 1 and %d, got %d", DefaultMaxDepth, cfg.Sequence.MaxDepth)
	}
	switch cfg.Sequence.ClassInference {
	case InferenceLiteral, InferenceCamelCase:
	default:
		return fmt.Errorf("sequence.class_inference must be one of: %s, %s", InferenceLiteral, InferenceCamelCase)
	}
	return nil
}

func validateKinds(cfg *Config) error {
	for kind := range cfg.Generators {
		if !knownKinds[kind] {
			return fmt.Errorf("generators.%s is not a known diagram type", kind)
		}
	}
	for kind, sources := range cfg.Plan {
		if !knownKinds[kind] {
			return fmt.Errorf("plan.%s is not a known diagram type", kind)
		}
		for i, src := range sources {
			if strings.TrimSpace(src) == "" {
				return fmt.Errorf("plan.%s[%d] must not be empty", kind, i)
			}
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRate < 0 {
		return fmt.Errorf("watch.max_rate must not be negative")
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	return nil
}

func validateLog(cfg *Config) error {
	if cfg.Log.Level != "" && !knownLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be one of: text, json")
	}
	return nil
}
