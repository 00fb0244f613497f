package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
	"github.com/aleksaelezovic/conjtrig/pkg/trig"
)

const input = `@prefix ex: <http://example.org/> .
ex:a ex:b ex:c .
CONJ ex:g { ex:a ex:b ex:d }
SETT ex:g { ex:a ex:b ex:d }
<rel> ex:b ex:c .
`

func TestParseCounters(t *testing.T) {
	m := New()
	collector := rdf.NewCollector()

	var seen []trig.Violation
	p := trig.NewParser(m.Handler(collector),
		trig.WithViolationHandler(m.ViolationHandler(func(v trig.Violation) { seen = append(seen, v) })))

	start := time.Now()
	err := p.Parse(context.Background(), strings.NewReader(input))
	m.ObserveParse(p.Stats(), err, time.Since(start))
	require.NoError(t, err)

	// two default-graph statements, one conjecture, one settled, one settlement
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statements.WithLabelValues("default")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.statements.WithLabelValues("named")))
	assert.Len(t, collector.Quads, 5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.violations.WithLabelValues(string(trig.ClassRelativeIRI))))
	assert.Len(t, seen, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.conjectures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parses.WithLabelValues("ok")))
}

func TestHandlerPropagatesErrors(t *testing.T) {
	m := New()
	boom := errors.New("boom")
	h := m.Handler(rdf.HandlerFunc(func(*rdf.Quad) error { return boom }))

	q := rdf.NewQuad(rdf.NewNamedNode("http://s"), rdf.NewNamedNode("http://p"), rdf.NewLiteral("o"), nil)
	assert.ErrorIs(t, h.HandleStatement(q), boom)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statements.WithLabelValues("default")))

	assert.NoError(t, m.Handler(nil).HandleStatement(q))
}

func TestObserveParseError(t *testing.T) {
	m := New()
	m.ObserveParse(trig.Stats{}, errors.New("failed"), time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parses.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.parses.WithLabelValues("ok")))
}

func TestWriteToTextfile(t *testing.T) {
	m := New()
	m.ViolationHandler(nil)(trig.Violation{Class: trig.ClassDecoding})

	path := filepath.Join(t.TempDir(), "conjtrig.prom")
	require.NoError(t, m.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `conjtrig_violations_total{class="decoding"} 1`)
}

func TestConjecturesAccumulateOverParses(t *testing.T) {
	m := New()
	m.ObserveParse(trig.Stats{Conjectures: 2}, nil, time.Millisecond)
	m.ObserveParse(trig.Stats{Conjectures: 2}, nil, time.Millisecond)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.conjectures))
}
