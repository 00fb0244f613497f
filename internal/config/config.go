// Package config provides configuration loading and management for conjtrig.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aleksaelezovic/conjtrig/pkg/trig"
)

// Config represents the complete conjtrig configuration
type Config struct {
	Parser  ParserConfig  `yaml:"parser"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ParserConfig configures the TriG parser
type ParserConfig struct {
	// BaseIRI resolves relative IRIs before any @base directive
	BaseIRI string `yaml:"base_iri"`
	// Enforce lists violation classes that reject the offending identifier
	Enforce []string `yaml:"enforce"`
	// ShadowPrefix names shadow namespace aliases and shadow blank node labels
	ShadowPrefix string `yaml:"shadow_prefix"`
	// ShadowMarker is prepended to IRIs of conjectural graph names. Nil keeps the default.
	ShadowMarker *string `yaml:"shadow_marker,omitempty"`
	// ConjNamespace is used for conj:settles when the input declares no conj prefix
	ConjNamespace string `yaml:"conj_namespace"`
	// MirrorSettlements copies statements of SETT blocks into the original graph
	MirrorSettlements *bool `yaml:"mirror_settlements,omitempty"`
	// ScopedBlankNodes prefixes labelled blank nodes with the session id
	ScopedBlankNodes *bool `yaml:"scoped_blank_nodes,omitempty"`
	// CaseInsensitiveDirectives accepts @PREFIX and @BASE in any case
	CaseInsensitiveDirectives *bool `yaml:"case_insensitive_directives,omitempty"`
}

// StoreConfig configures the quad store
type StoreConfig struct {
	// Path is the BadgerDB directory
	Path string `yaml:"path"`
	// BatchSize is the number of statements written per transaction
	BatchSize int `yaml:"batch_size"`
	// InMemory keeps the store in memory (useful for dry runs)
	InMemory *bool `yaml:"in_memory,omitempty"`
	// SyncWrites fsyncs every batch
	SyncWrites *bool `yaml:"sync_writes,omitempty"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// MetricsConfig configures metrics export
type MetricsConfig struct {
	// File receives the metrics in the prometheus text format after each run (empty = disabled)
	File string `yaml:"file"`
}

// Switches are pointers so that a later layer can turn off what an earlier one turned on.

// Bool returns a pointer to v
func Bool(v bool) *bool {
	return &v
}

// Enabled reports whether a switch is set to true
func Enabled(b *bool) bool {
	return b != nil && *b
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Parser: ParserConfig{
			ShadowPrefix:  trig.DefaultShadowPrefix,
			ConjNamespace: trig.DefaultConjNamespace,
		},
		Store: StoreConfig{
			Path:      "conjtrig.db",
			BatchSize: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Parser.ShadowPrefix == "" {
		return fmt.Errorf("parser.shadow_prefix is required")
	}
	if c.Parser.ConjNamespace == "" {
		return fmt.Errorf("parser.conj_namespace is required")
	}
	for _, name := range c.Parser.Enforce {
		if _, err := trig.ParseViolationClass(name); err != nil {
			return fmt.Errorf("parser.enforce: %w", err)
		}
	}
	if c.Store.BatchSize < 0 {
		return fmt.Errorf("store.batch_size must not be negative")
	}
	if c.Store.Path == "" && !Enabled(c.Store.InMemory) {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Options converts the parser section into parser options
func (p ParserConfig) Options() ([]trig.Option, error) {
	var classes []trig.ViolationClass
	for _, name := range p.Enforce {
		class, err := trig.ParseViolationClass(name)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}

	opts := []trig.Option{
		trig.WithEnforced(classes...),
		trig.WithMirrorSettlements(Enabled(p.MirrorSettlements)),
		trig.WithScopedBlankNodes(Enabled(p.ScopedBlankNodes)),
		trig.WithCaseInsensitiveDirectives(Enabled(p.CaseInsensitiveDirectives)),
	}
	if p.BaseIRI != "" {
		opts = append(opts, trig.WithBaseIRI(p.BaseIRI))
	}
	if p.ShadowPrefix != "" {
		opts = append(opts, trig.WithShadowPrefix(p.ShadowPrefix))
	}
	if p.ShadowMarker != nil {
		opts = append(opts, trig.WithShadowMarker(*p.ShadowMarker))
	}
	if p.ConjNamespace != "" {
		opts = append(opts, trig.WithConjNamespace(p.ConjNamespace))
	}
	return opts, nil
}

// ParseLevel parses a log level name
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - config path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// loadLayer reads a YAML file without defaults so that only the fields it sets are merged
func loadLayer(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - config path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values
// and for every switch it sets, false included)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Parser
	if other.Parser.BaseIRI != "" {
		c.Parser.BaseIRI = other.Parser.BaseIRI
	}
	if len(other.Parser.Enforce) > 0 {
		c.Parser.Enforce = other.Parser.Enforce
	}
	if other.Parser.ShadowPrefix != "" {
		c.Parser.ShadowPrefix = other.Parser.ShadowPrefix
	}
	if other.Parser.ShadowMarker != nil {
		marker := *other.Parser.ShadowMarker
		c.Parser.ShadowMarker = &marker
	}
	if other.Parser.ConjNamespace != "" {
		c.Parser.ConjNamespace = other.Parser.ConjNamespace
	}
	mergeBool(&c.Parser.MirrorSettlements, other.Parser.MirrorSettlements)
	mergeBool(&c.Parser.ScopedBlankNodes, other.Parser.ScopedBlankNodes)
	mergeBool(&c.Parser.CaseInsensitiveDirectives, other.Parser.CaseInsensitiveDirectives)

	// Store
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.Store.BatchSize != 0 {
		c.Store.BatchSize = other.Store.BatchSize
	}
	mergeBool(&c.Store.InMemory, other.Store.InMemory)
	mergeBool(&c.Store.SyncWrites, other.Store.SyncWrites)

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}

	// Metrics
	if other.Metrics.File != "" {
		c.Metrics.File = other.Metrics.File
	}
}

func mergeBool(dst **bool, src *bool) {
	if src != nil {
		*dst = Bool(*src)
	}
}
