package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "PYUML_"

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: PYUML_[SECTION]__[KEY] (e.g., PYUML_SEQUENCE__MAX_DEPTH).
func ApplyEnvOverrides(cfg *Config) error {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return fmt.Errorf("loading env overrides: %w", err)
	}
	if len(k.Keys()) == 0 {
		return nil
	}
	for _, key := range k.Keys() {
		slog.Debug("applying env override", "key", key)
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: tagName}); err != nil {
		return fmt.Errorf("decoding env overrides: %w", err)
	}
	return nil
}

func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}
