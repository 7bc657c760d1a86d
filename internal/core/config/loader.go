package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const tagName = "toml"

// Load builds the configuration from defaults, the given file (when it
// exists) and PYUML_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	path = strings.TrimSpace(path)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFile(path, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: tagName}); err != nil {
			return fmt.Errorf("decoding config %s: %w", path, err)
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decoding config %s: %w", path, err)
		}
	}
	return nil
}

// Save writes cfg as TOML, creating parent directories.
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory %q: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

func normalize(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	cfg.Sequence.ClassInference = strings.ToLower(strings.TrimSpace(cfg.Sequence.ClassInference))
	if cfg.Sequence.ClassInference == "" {
		cfg.Sequence.ClassInference = InferenceLiteral
	}
	if cfg.Sequence.MaxDepth == 0 {
		cfg.Sequence.MaxDepth = DefaultMaxDepth
	}
	if strings.TrimSpace(cfg.Output.Extension) == "" {
		cfg.Output.Extension = ".puml"
	}
	if !strings.HasPrefix(cfg.Output.Extension, ".") {
		cfg.Output.Extension = "." + cfg.Output.Extension
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	patterns := make([]string, 0, len(cfg.Analysis.ExcludePatterns))
	for _, p := range cfg.Analysis.ExcludePatterns {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	cfg.Analysis.ExcludePatterns = patterns

	if cfg.Generators == nil {
		cfg.Generators = map[string]map[string]any{}
	}
	normalizedGen := make(map[string]map[string]any, len(cfg.Generators))
	for kind, settings := range cfg.Generators {
		normalizedGen[strings.ToLower(strings.TrimSpace(kind))] = settings
	}
	cfg.Generators = normalizedGen

	if cfg.Plan == nil {
		cfg.Plan = map[string][]string{}
	}
	normalizedPlan := make(map[string][]string, len(cfg.Plan))
	for kind, sources := range cfg.Plan {
		normalizedPlan[strings.ToLower(strings.TrimSpace(kind))] = sources
	}
	cfg.Plan = normalizedPlan
}
