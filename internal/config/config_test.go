package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
	"github.com/aleksaelezovic/conjtrig/pkg/trig"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, trig.DefaultShadowPrefix, cfg.Parser.ShadowPrefix)
	assert.Equal(t, trig.DefaultConjNamespace, cfg.Parser.ConjNamespace)
	assert.Nil(t, cfg.Parser.ShadowMarker)
	assert.Equal(t, 1000, cfg.Store.BatchSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"missing shadow prefix", func(c *Config) { c.Parser.ShadowPrefix = "" }, true},
		{"missing conj namespace", func(c *Config) { c.Parser.ConjNamespace = "" }, true},
		{"unknown violation class", func(c *Config) { c.Parser.Enforce = []string{"nope"} }, true},
		{"known violation classes", func(c *Config) {
			c.Parser.Enforce = []string{string(trig.ClassIRISyntax), string(trig.ClassRelativeIRI)}
		}, false},
		{"negative batch size", func(c *Config) { c.Store.BatchSize = -1 }, true},
		{"missing store path", func(c *Config) { c.Store.Path = "" }, true},
		{"in-memory store without path", func(c *Config) { c.Store.Path = ""; c.Store.InMemory = Bool(true) }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
parser:
  base_iri: "http://example.org/base/"
  enforce: [iri-syntax]
  shadow_marker: ""
  mirror_settlements: true
store:
  path: /tmp/quads
  batch_size: 50
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://example.org/base/", cfg.Parser.BaseIRI)
	assert.Equal(t, []string{"iri-syntax"}, cfg.Parser.Enforce)
	require.NotNil(t, cfg.Parser.ShadowMarker)
	assert.Equal(t, "", *cfg.Parser.ShadowMarker)
	assert.True(t, Enabled(cfg.Parser.MirrorSettlements))
	assert.Nil(t, cfg.Parser.ScopedBlankNodes)
	// Unset fields keep their defaults
	assert.Equal(t, trig.DefaultShadowPrefix, cfg.Parser.ShadowPrefix)
	assert.Equal(t, "/tmp/quads", cfg.Store.Path)
	assert.Equal(t, 50, cfg.Store.BatchSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parser: [unclosed"), 0600))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	marker := "shadow:"
	cfg := DefaultConfig()
	cfg.Parser.ShadowMarker = &marker
	cfg.Parser.Enforce = []string{"decoding"}
	cfg.Metrics.File = "/tmp/conjtrig.prom"

	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestMerge(t *testing.T) {
	cfg := DefaultConfig()
	marker := ""
	cfg.Merge(&Config{
		Parser: ParserConfig{
			ShadowMarker:     &marker,
			ScopedBlankNodes: Bool(true),
		},
		Store: StoreConfig{BatchSize: 10},
	})

	require.NotNil(t, cfg.Parser.ShadowMarker)
	assert.Equal(t, "", *cfg.Parser.ShadowMarker)
	assert.True(t, Enabled(cfg.Parser.ScopedBlankNodes))
	assert.Equal(t, 10, cfg.Store.BatchSize)
	// Zero values do not override
	assert.Equal(t, trig.DefaultShadowPrefix, cfg.Parser.ShadowPrefix)
	assert.Equal(t, "conjtrig.db", cfg.Store.Path)

	cfg.Merge(nil)
	assert.Equal(t, 10, cfg.Store.BatchSize)
}

func TestMergeTurnsSwitchesOff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(&Config{
		Parser: ParserConfig{MirrorSettlements: Bool(true), ScopedBlankNodes: Bool(true)},
		Store:  StoreConfig{SyncWrites: Bool(true)},
	})
	cfg.Merge(&Config{
		Parser: ParserConfig{MirrorSettlements: Bool(false)},
		Store:  StoreConfig{SyncWrites: Bool(false)},
	})

	assert.False(t, Enabled(cfg.Parser.MirrorSettlements))
	assert.True(t, Enabled(cfg.Parser.ScopedBlankNodes), "unset switches keep the earlier value")
	assert.False(t, Enabled(cfg.Store.SyncWrites))
}

func TestParserOptions(t *testing.T) {
	marker := ""
	pc := ParserConfig{
		BaseIRI:       "http://example.org/",
		Enforce:       []string{"relative-iri"},
		ShadowPrefix:  "shadow-",
		ShadowMarker:  &marker,
		ConjNamespace: "http://conj.example/",
	}
	opts, err := pc.Options()
	require.NoError(t, err)

	collector := rdf.NewCollector()
	p := trig.NewParser(collector, opts...)
	require.NoError(t, p.ParseString(context.Background(), `SETT <g> { <s> <p> <o> }`))

	// base resolution, empty marker and the configured conj namespace all apply
	g := rdf.NewNamedNode("http://example.org/g")
	require.Len(t, collector.Quads, 2)
	last := collector.Quads[1]
	assert.True(t, last.Subject.Equals(g))
	assert.True(t, last.Predicate.Equals(rdf.NewNamedNode("http://conj.example/settles")))
	assert.True(t, last.Object.Equals(g))

	_, err = ParserConfig{Enforce: []string{"bogus"}}.Options()
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLoaderLayers(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()
	nested := filepath.Join(work, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))

	userCfg := DefaultConfig()
	userCfg.Log.Level = "debug"
	userCfg.Store.BatchSize = 5
	userCfg.Parser.MirrorSettlements = Bool(true)
	userCfg.Store.SyncWrites = Bool(true)
	require.NoError(t, userCfg.SaveToFile(filepath.Join(home, UserConfigDir, UserConfigFile)))

	require.NoError(t, os.WriteFile(filepath.Join(work, ProjectConfigFile),
		[]byte("store:\n  batch_size: 7\n  sync_writes: false\n"), 0600))

	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("metrics:\n  file: out.prom\n"), 0600))

	l := NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.home = home
	l.workDir = nested

	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Store.BatchSize)
	assert.Equal(t, "", cfg.Metrics.File)
	assert.False(t, Enabled(cfg.Store.SyncWrites), "project layer turns off a user switch")
	assert.True(t, Enabled(cfg.Parser.MirrorSettlements))

	cfg, err = l.Load(explicit)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Store.BatchSize)
	assert.Equal(t, "out.prom", cfg.Metrics.File)

	_, err = l.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
