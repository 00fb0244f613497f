package nquads

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

func TestParseNQuads(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int // number of quads expected
		wantErr  bool
	}{
		{
			name:     "simple triple (N-Triples format)",
			input:    "<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n",
			expected: 1,
		},
		{
			name:     "quad with named graph",
			input:    "<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/g> .\n",
			expected: 1,
		},
		{
			name: "multiple quads",
			input: `<http://example.org/s1> <http://example.org/p1> "literal1" .
<http://example.org/s2> <http://example.org/p2> "literal2"^^<http://www.w3.org/2001/XMLSchema#string> <http://example.org/g> .
<http://example.org/s3> <http://example.org/p3> "hello"@en .
`,
			expected: 3,
		},
		{
			name: "blank nodes",
			input: `_:b1 <http://example.org/p> "value" .
<http://example.org/s> <http://example.org/p> _:b2 _:graph .
`,
			expected: 2,
		},
		{
			name:     "comments and blank lines",
			input:    "# header\n\n<http://s> <http://p> <http://o> . # trailing\n",
			expected: 1,
		},
		{
			name:    "literal subject",
			input:   `"s" <http://p> <http://o> .`,
			wantErr: true,
		},
		{
			name:    "blank node predicate",
			input:   `<http://s> _:p <http://o> .`,
			wantErr: true,
		},
		{
			name:    "missing terminator",
			input:   `<http://s> <http://p> <http://o>`,
			wantErr: true,
		},
		{
			name:    "unclosed IRI",
			input:   `<http://s <http://p> <http://o> .`,
			wantErr: true,
		},
		{
			name:    "bad escape",
			input:   `<http://s> <http://p> "a\qb" .`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quads, err := NewParser(tt.input).Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(quads) != tt.expected {
				t.Errorf("expected %d quads, got %d", tt.expected, len(quads))
			}
		})
	}
}

func TestParseTerms(t *testing.T) {
	input := `<http://x/café> <http://p> "line\nbreak \"q\" \U0001F600"@en-GB _:g1 .`
	quads, err := NewParser(input).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("expected 1 quad, got %d", len(quads))
	}

	q := quads[0]
	if want := rdf.NewNamedNode("http://x/café"); !q.Subject.Equals(want) {
		t.Errorf("subject = %s, want %s", q.Subject, want)
	}
	if want := rdf.NewLiteralWithLanguage("line\nbreak \"q\" \U0001F600", "en-GB"); !q.Object.Equals(want) {
		t.Errorf("object = %s, want %s", q.Object, want)
	}
	if want := rdf.NewBlankNode("g1"); !q.Graph.Equals(want) {
		t.Errorf("graph = %s, want %s", q.Graph, want)
	}
}

func TestErrorLine(t *testing.T) {
	input := "<http://s> <http://p> <http://o> .\n<http://s> <http://p> .\n"
	_, err := NewParser(input).Parse()
	if err == nil || !strings.HasPrefix(err.Error(), "line 2:") {
		t.Errorf("expected an error on line 2, got %v", err)
	}
}

// Everything the writer produces must read back to the same statements
func TestWriterRoundTrip(t *testing.T) {
	quads := []*rdf.Quad{
		rdf.NewQuad(rdf.NewNamedNode("conj-http://example.org/g"), rdf.NewNamedNode("urn:conj:settles"),
			rdf.NewNamedNode("http://example.org/g"), rdf.NewNamedNode("http://example.org/g")),
		rdf.NewQuad(rdf.NewBlankNode("reserved-b"), rdf.NewNamedNode("http://p"),
			rdf.NewLiteral("tab\there \\ \"quoted\"\r\n"), nil),
		rdf.NewQuad(rdf.NewNamedNode("http://s"), rdf.NewNamedNode("http://p"),
			rdf.NewLiteralWithDatatype("1.5", rdf.XSDDecimal), rdf.NewBlankNode("g")),
		rdf.NewQuad(rdf.NewNamedNode("http://s"), rdf.NewNamedNode("http://p"),
			rdf.NewLiteralWithLanguage("bonjour", "fr"), nil),
	}

	var buf bytes.Buffer
	w := rdf.NewNQuadsWriter(&buf)
	for _, q := range quads {
		if err := w.HandleStatement(q); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != len(quads) {
		t.Fatalf("expected %d quads, got %d", len(quads), len(got))
	}
	for i := range quads {
		if !quads[i].Equals(got[i]) {
			t.Errorf("quad %d: wrote %s, read %s", i, quads[i], got[i])
		}
	}
}
