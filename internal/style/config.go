package style

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config selects which ways take part in the graph.
// Points are never filtered here since untagged nodes carry way geometry.
type Config struct {
	Ways *FilterConfig `yaml:"ways,omitempty"`
}

// FilterConfig defines tag rules for a way
type FilterConfig struct {
	// Include lists accepted keys; an empty value list accepts any value
	Include map[string][]string `yaml:"include,omitempty"`
	// Exclude is applied after Include and rejects on the first hit
	Exclude map[string][]string `yaml:"exclude,omitempty"`
	// RequireAny rejects ways carrying none of these keys
	RequireAny []string `yaml:"require_any,omitempty"`
}

// LoadConfig loads a style configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses style YAML
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse style YAML: %w", err)
	}
	return &cfg, nil
}

// Filter checks tags against a FilterConfig
type Filter struct {
	cfg *FilterConfig
}

// NewFilter creates a filter; a nil config accepts everything
func NewFilter(cfg *FilterConfig) *Filter {
	if cfg == nil {
		cfg = &FilterConfig{}
	}
	return &Filter{cfg: cfg}
}

// WayFilter returns the filter for ways, accepting everything when c is nil
func (c *Config) WayFilter() *Filter {
	if c == nil {
		return NewFilter(nil)
	}
	return NewFilter(c.Ways)
}

// Match reports whether a feature with these tags should be kept
func (f *Filter) Match(tags map[string]string) bool {
	if len(f.cfg.RequireAny) > 0 && !hasAnyKey(tags, f.cfg.RequireAny) {
		return false
	}
	if len(f.cfg.Include) > 0 && !matchesRule(tags, f.cfg.Include) {
		return false
	}
	if len(f.cfg.Exclude) > 0 && matchesRule(tags, f.cfg.Exclude) {
		return false
	}
	return true
}

// HasFilter returns true if any rule is configured
func (f *Filter) HasFilter() bool {
	return len(f.cfg.Include) > 0 || len(f.cfg.Exclude) > 0 || len(f.cfg.RequireAny) > 0
}

func hasAnyKey(tags map[string]string, keys []string) bool {
	for _, key := range keys {
		if _, ok := tags[key]; ok {
			return true
		}
	}
	return false
}

// matchesRule reports whether any key in rule is present with an allowed value.
// "*" or an empty value list allows every value.
func matchesRule(tags map[string]string, rule map[string][]string) bool {
	for key, values := range rule {
		tagValue, ok := tags[key]
		if !ok {
			continue
		}
		if len(values) == 0 {
			return true
		}
		for _, v := range values {
			if v == "*" || v == tagValue {
				return true
			}
		}
	}
	return false
}
