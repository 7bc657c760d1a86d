package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// Merge decodes each layer onto dst in order. dst keeps its current values
// for keys no layer mentions; later layers win on same-named keys.
func Merge(dst any, layers ...map[string]any) error {
	k := koanf.New(".")
	for i, layer := range layers {
		if len(layer) == 0 {
			continue
		}
		if err := k.Load(confmap.Provider(normalizeKeys(layer), "."), nil); err != nil {
			return fmt.Errorf("merge settings layer %d: %w", i, err)
		}
	}
	if len(k.Keys()) == 0 {
		return nil
	}
	if err := k.UnmarshalWithConf("", dst, koanf.UnmarshalConf{Tag: tagName}); err != nil {
		return fmt.Errorf("decode merged settings: %w", err)
	}
	return nil
}

// ResolveAnalyzer applies call-time overrides on top of the config baseline.
func (c *Config) ResolveAnalyzer(overrides map[string]any) (AnalyzerSettings, error) {
	settings := c.AnalyzerDefaults()
	if err := Merge(&settings, overrides); err != nil {
		return AnalyzerSettings{}, err
	}
	if settings.MaxDepth <= 0 || settings.MaxDepth > DefaultMaxDepth {
		settings.MaxDepth = DefaultMaxDepth
	}
	return settings, nil
}

// ResolveGenerator layers defaults, the generators.<kind> table and
// call-time overrides.
func (c *Config) ResolveGenerator(kind string, overrides map[string]any) (GeneratorSettings, error) {
	settings := c.GeneratorDefaults()
	if err := Merge(&settings, c.Generators[strings.ToLower(kind)], overrides); err != nil {
		return GeneratorSettings{}, err
	}
	return settings, nil
}

func normalizeKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		key = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(key, "-", "_")))
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}
