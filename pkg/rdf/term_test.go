package rdf

import (
	"bytes"
	"errors"
	"testing"
)

func TestIsResource(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want bool
	}{
		{"named node", NewNamedNode("http://example.org/a"), true},
		{"blank node", NewBlankNode("b1"), true},
		{"literal", NewLiteral("x"), false},
		{"default graph", NewDefaultGraph(), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsResource(tt.term); got != tt.want {
				t.Errorf("IsResource(%v) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestLiteralEquals(t *testing.T) {
	a := NewLiteralWithDatatype("1", XSDInteger)
	if !a.Equals(NewIntegerLiteral(1)) {
		t.Error("expected typed literals with same datatype to be equal")
	}
	if a.Equals(NewLiteral("1")) {
		t.Error("typed literal must differ from plain literal")
	}
	if NewLiteralWithLanguage("chat", "fr").Equals(NewLiteralWithLanguage("chat", "en")) {
		t.Error("language tags must be compared")
	}
}

func TestNewQuadDefaultsToDefaultGraph(t *testing.T) {
	q := NewQuad(NewNamedNode("s"), NewNamedNode("p"), NewNamedNode("o"), nil)
	if !q.InDefaultGraph() {
		t.Fatalf("expected default graph, got %v", q.Graph)
	}

	named := NewQuad(NewNamedNode("s"), NewNamedNode("p"), NewNamedNode("o"), NewNamedNode("g"))
	if named.InDefaultGraph() {
		t.Fatal("expected named graph")
	}
	if q.Equals(named) {
		t.Error("quads in different graphs must not be equal")
	}
}

func TestFormatNQuad(t *testing.T) {
	tests := []struct {
		name string
		quad *Quad
		want string
	}{
		{
			name: "default graph",
			quad: NewQuad(NewNamedNode("http://ex/s"), NewNamedNode("http://ex/p"), NewLiteral("line\nbreak \"q\""), nil),
			want: `<http://ex/s> <http://ex/p> "line\nbreak \"q\"" .`,
		},
		{
			name: "named graph with language literal",
			quad: NewQuad(NewBlankNode("b0"), NewNamedNode("http://ex/p"), NewLiteralWithLanguage("hi", "en"), NewNamedNode("http://ex/g")),
			want: `_:b0 <http://ex/p> "hi"@en <http://ex/g> .`,
		},
		{
			name: "typed literal",
			quad: NewQuad(NewNamedNode("http://ex/s"), NewNamedNode("http://ex/p"), NewIntegerLiteral(42), nil),
			want: `<http://ex/s> <http://ex/p> "42"^^<http://www.w3.org/2001/XMLSchema#integer> .`,
		},
		{
			name: "xsd:string is implicit",
			quad: NewQuad(NewNamedNode("http://ex/s"), NewNamedNode("http://ex/p"), NewLiteralWithDatatype("x", XSDString), nil),
			want: `<http://ex/s> <http://ex/p> "x" .`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNQuad(tt.quad); got != tt.want {
				t.Errorf("FormatNQuad() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNQuadsWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewNQuadsWriter(&buf)

	quads := []*Quad{
		NewQuad(NewNamedNode("http://ex/a"), NewNamedNode("http://ex/p"), NewNamedNode("http://ex/b"), nil),
		NewQuad(NewNamedNode("http://ex/a"), NewNamedNode("http://ex/p"), NewNamedNode("http://ex/c"), NewNamedNode("http://ex/g")),
	}
	for _, q := range quads {
		if err := w.HandleStatement(q); err != nil {
			t.Fatalf("HandleStatement failed: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	want := "<http://ex/a> <http://ex/p> <http://ex/b> .\n" +
		"<http://ex/a> <http://ex/p> <http://ex/c> <http://ex/g> .\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
	if w.Count() != 2 {
		t.Errorf("expected count 2, got %d", w.Count())
	}
}

func TestCollectorGraph(t *testing.T) {
	c := NewCollector()
	g := NewNamedNode("http://ex/g")
	_ = c.HandleStatement(NewQuad(NewNamedNode("s"), NewNamedNode("p"), NewNamedNode("o"), nil))
	_ = c.HandleStatement(NewQuad(NewNamedNode("s"), NewNamedNode("p"), NewNamedNode("o2"), g))

	if n := len(c.Graph(nil)); n != 1 {
		t.Errorf("expected 1 default graph quad, got %d", n)
	}
	if n := len(c.Graph(g)); n != 1 {
		t.Errorf("expected 1 quad in named graph, got %d", n)
	}
}

func TestTeeStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	second := NewCollector()
	h := Tee(HandlerFunc(func(*Quad) error { return boom }), second)

	err := h.HandleStatement(NewQuad(NewNamedNode("s"), NewNamedNode("p"), NewNamedNode("o"), nil))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(second.Quads) != 0 {
		t.Error("second handler must not be called after an error")
	}
}
