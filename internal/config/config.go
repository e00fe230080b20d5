package config

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"

	"github.com/gridops/logsweep/internal/sweep"
)

// Config is the fully parsed and validated sweep configuration.
type Config struct {
	// BasePath is the filesystem tree the rules apply to and the path whose
	// filesystem is probed for free space.
	BasePath string

	// Space holds the free-space targets in bytes.
	Space sweep.SpaceTargets

	// Schedule is the optional cron expression for daemon mode.
	Schedule string

	// Journal is the optional path of the SQLite audit journal.
	Journal string

	// Rules are the cleanup rules, sorted by name. Globs are resolved
	// relative to BasePath.
	Rules []sweep.Rule

	// Checks configures the standalone free-space check command.
	Checks Checks
}

// Checks is the configuration of `logsweep check`.
type Checks struct {
	// Threshold is the default minimum free fraction (0..1).
	Threshold float64
	Paths     []CheckPath
}

// CheckPath is one monitored mount point.
type CheckPath struct {
	Name      string
	Path      string
	Threshold float64
}

type rawConfig struct {
	BasePath string             `mapstructure:"base_path"`
	Space    rawSpace           `mapstructure:"space"`
	Schedule string             `mapstructure:"schedule"`
	Journal  string             `mapstructure:"journal"`
	Cleanup  map[string]rawRule `mapstructure:"cleanup"`
	Checks   rawChecks          `mapstructure:"checks"`
}

type rawSpace struct {
	KeepFree string `mapstructure:"keep_free"`
	Warn     string `mapstructure:"warn"`
}

type rawRule struct {
	Glob       any     `mapstructure:"glob"`
	Stale      string  `mapstructure:"stale"`
	KeepForDir int     `mapstructure:"keep_for_dir"`
	KeepGlobal int     `mapstructure:"keep_global"`
	Importance float64 `mapstructure:"importance"`
}

type rawChecks struct {
	Threshold float64        `mapstructure:"threshold"`
	Paths     map[string]any `mapstructure:"paths"`
}

const defaultCheckThreshold = 0.1

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return build(&raw)
}

func build(raw *rawConfig) (*Config, error) {
	if raw.BasePath == "" {
		return nil, fmt.Errorf("base_path is required")
	}
	if raw.Space.KeepFree == "" {
		return nil, fmt.Errorf("space.keep_free is required")
	}

	keepFree, err := ParseSize(raw.Space.KeepFree)
	if err != nil {
		return nil, fmt.Errorf("space.keep_free: %w", err)
	}
	warn := keepFree
	if raw.Space.Warn != "" {
		if warn, err = ParseSize(raw.Space.Warn); err != nil {
			return nil, fmt.Errorf("space.warn: %w", err)
		}
	}
	if warn > keepFree {
		return nil, fmt.Errorf("space.warn (%d) must not exceed space.keep_free (%d)", warn, keepFree)
	}

	cfg := &Config{
		BasePath: raw.BasePath,
		Space:    sweep.SpaceTargets{KeepFree: keepFree, Warn: warn},
		Schedule: raw.Schedule,
		Journal:  raw.Journal,
	}

	names := make([]string, 0, len(raw.Cleanup))
	for name := range raw.Cleanup {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rule, err := buildRule(name, raw.Cleanup[name], raw.BasePath)
		if err != nil {
			return nil, err
		}
		cfg.Rules = append(cfg.Rules, rule)
	}

	if err := buildChecks(cfg, &raw.Checks); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildRule(name string, raw rawRule, base string) (sweep.Rule, error) {
	rule := sweep.Rule{
		Name:       name,
		KeepPerDir: raw.KeepForDir,
		KeepGlobal: raw.KeepGlobal,
		Importance: raw.Importance,
	}
	if rule.Importance == 0 {
		rule.Importance = 1
	}
	if rule.Importance < 0 {
		return rule, fmt.Errorf("cleanup rule %q: importance must be positive", name)
	}
	if rule.KeepPerDir < 0 || rule.KeepGlobal < 0 {
		return rule, fmt.Errorf("cleanup rule %q: keep counts must be non-negative", name)
	}

	globs, err := globList(raw.Glob)
	if err != nil {
		return rule, fmt.Errorf("cleanup rule %q: %w", name, err)
	}
	if len(globs) == 0 {
		return rule, fmt.Errorf("cleanup rule %q: at least one glob is required", name)
	}
	for _, g := range globs {
		if !filepath.IsAbs(g) {
			g = filepath.Join(base, g)
		}
		rule.Globs = append(rule.Globs, g)
	}

	if raw.Stale == "" {
		return rule, fmt.Errorf("cleanup rule %q: stale is required", name)
	}
	if rule.Stale, err = ParseAge(raw.Stale); err != nil {
		return rule, fmt.Errorf("cleanup rule %q: %w", name, err)
	}
	return rule, nil
}

// globList accepts a single pattern or a list of them.
func globList(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{val}, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("glob entries must be strings")
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return val, nil
	}
	return nil, fmt.Errorf("glob must be a string or a list of strings")
}

func buildChecks(cfg *Config, raw *rawChecks) error {
	cfg.Checks.Threshold = raw.Threshold
	if cfg.Checks.Threshold == 0 {
		cfg.Checks.Threshold = defaultCheckThreshold
	}
	if cfg.Checks.Threshold < 0 || cfg.Checks.Threshold > 1 {
		return fmt.Errorf("checks.threshold must be within 0..1")
	}

	names := make([]string, 0, len(raw.Paths))
	for name := range raw.Paths {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cp := CheckPath{Name: name, Threshold: cfg.Checks.Threshold}
		switch val := raw.Paths[name].(type) {
		case string:
			cp.Path = val
		case map[string]any:
			if p, ok := val["path"].(string); ok {
				cp.Path = p
			}
			if t, ok := val["threshold"].(float64); ok {
				cp.Threshold = t
			}
		default:
			return fmt.Errorf("checks.paths.%s: expected a path or a path/threshold map", name)
		}
		if cp.Path == "" {
			return fmt.Errorf("checks.paths.%s: path is required", name)
		}
		cfg.Checks.Paths = append(cfg.Checks.Paths, cp)
	}
	return nil
}
