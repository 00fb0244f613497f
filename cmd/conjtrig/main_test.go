package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

const sample = `@prefix ex: <http://example.org/> .
ex:a ex:b ex:c .
CONJ ex:g { ex:a ex:b ex:d }
SETT ex:g { ex:a ex:b ex:d }
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := newApp(&out, &errOut).execute(context.Background(), append(args, "--log-level", "error"))
	return out.String(), err
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	a := newApp(io.Discard, io.Discard)
	a.logLevel = "error"
	a.storePath = t.TempDir()
	require.NoError(t, a.setup())
	return a
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.trig")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0600))
	return path
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, "parse", writeSample(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		`<http://example.org/a> <http://example.org/b> <http://example.org/c> .`,
		`<http://example.org/a> <http://example.org/b> <http://example.org/d> <http://example.org/g> .`,
		`<http://example.org/a> <http://example.org/b> <http://example.org/d> <http://example.org/g> .`,
		`<http://example.org/g> <urn:conj:settles> <http://example.org/g> <http://example.org/g> .`,
	}, lines)
}

func TestParseCommandWithMarker(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "conjtrig.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("parser:\n  shadow_marker: \"conj-\"\n"), 0600))

	out, err := run(t, "parse", "--config", cfgPath, writeSample(t))
	require.NoError(t, err)
	assert.Contains(t, out,
		"<http://example.org/g> <urn:conj:settles> <conj-http://example.org/g> <http://example.org/g> .\n")
}

func TestParseCommandFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.trig")
	require.NoError(t, os.WriteFile(path, []byte("GRAPH { <s> <p> <o> }"), 0600))

	_, err := run(t, "parse", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing GRAPH label or subject")
}

func TestLoadGraphsDump(t *testing.T) {
	dir := t.TempDir()
	input := writeSample(t)

	_, err := run(t, "load", "--store", dir, input)
	require.NoError(t, err)

	out, err := run(t, "graphs", "--store", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "<http://example.org/g>")

	out, err = run(t, "dump", "--store", dir, "--graph", "http://example.org/g")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
	assert.Contains(t, out, "<http://example.org/a> <http://example.org/b> <http://example.org/d> <http://example.org/g> .\n")
	assert.Contains(t, out, "<http://example.org/g> <urn:conj:settles> <http://example.org/g> <http://example.org/g> .\n")

	out, err = run(t, "dump", "--store", dir, "--default-graph")
	require.NoError(t, err)
	assert.Equal(t, "<http://example.org/a> <http://example.org/b> <http://example.org/c> .\n", out)
}

func TestMetricsFile(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "conjtrig.prom")
	_, err := run(t, "parse", "--metrics-file", metricsPath, writeSample(t))
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "conjtrig_settlements_total 1")
	assert.Contains(t, string(data), `conjtrig_statements_total{graph="named"} 3`)
}

func TestMetricsFileWrittenOnFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.trig")
	require.NoError(t, os.WriteFile(input, []byte("GRAPH { <http://s> <http://p> <http://o> }"), 0600))
	metricsPath := filepath.Join(dir, "conjtrig.prom")

	_, err := run(t, "parse", "--metrics-file", metricsPath, input)
	require.Error(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `conjtrig_parses_total{result="error"} 1`)
}

func TestReloadRemovesStaleStatements(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	qs, err := a.openStore()
	require.NoError(t, err)
	defer qs.Close()

	path := filepath.Join(t.TempDir(), "doc.trig")
	write := func(content string) {
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	count := func() int64 {
		n, err := qs.Count()
		require.NoError(t, err)
		return n
	}

	write(`<http://s> <http://p> <http://o1> .
[] <http://p> <http://o2> .`)
	loaded, err := a.reload(ctx, qs, path, nil)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, int64(2), count())

	// the blank node gets a new label on every parse, the old one must go
	write(`[] <http://p> <http://o2> .`)
	loaded, err = a.reload(ctx, qs, path, loaded)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count())

	write(`<http://s> <http://p> <http://o3> .
<http://s> <http://p`)
	loaded, err = a.reload(ctx, qs, path, loaded)
	require.Error(t, err)
	assert.Equal(t, int64(2), count(), "nothing is removed after a failed parse")

	write(`<http://s> <http://p> <http://o4> .`)
	_, err = a.reload(ctx, qs, path, loaded)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count())

	ok, err := qs.ContainsQuad(rdf.NewQuad(rdf.NewNamedNode("http://s"), rdf.NewNamedNode("http://p"),
		rdf.NewNamedNode("http://o4"), nil))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfigFlag(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "conjtrig.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("parser:\n  shadow_marker: \"urn:shadow:\"\n"), 0600))

	out, err := run(t, "parse", "--config", cfgPath, writeSample(t))
	require.NoError(t, err)
	assert.Contains(t, out, "<urn:shadow:http://example.org/g>")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.trig")
	require.NoError(t, os.WriteFile(input, []byte(`CONJ <http://g> { [] <http://p> "v" }`), 0600))

	expected := filepath.Join(dir, "expected.nq")
	require.NoError(t, os.WriteFile(expected,
		[]byte("_:anything <http://p> \"v\" <http://g> .\n"), 0600))

	out, err := run(t, "verify", input, expected)
	require.NoError(t, err)
	assert.Equal(t, "ok: 1 statements\n", out)

	wrong := filepath.Join(dir, "wrong.nq")
	require.NoError(t, os.WriteFile(wrong, []byte("_:x <http://p> \"w\" <http://g> .\n"), 0600))
	_, err = run(t, "verify", input, wrong)
	assert.Error(t, err)
}
