package encoding

import (
	"testing"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

func roundTrip(t *testing.T, term rdf.Term) rdf.Term {
	t.Helper()
	enc := NewTermEncoder()
	dec := NewTermDecoder()

	encoded, str, err := enc.EncodeTerm(term)
	if err != nil {
		t.Fatalf("EncodeTerm(%s): %v", term, err)
	}
	decoded, err := dec.DecodeTerm(encoded, str)
	if err != nil {
		t.Fatalf("DecodeTerm(%s): %v", term, err)
	}
	return decoded
}

func TestRoundTrip(t *testing.T) {
	terms := []rdf.Term{
		rdf.NewNamedNode("http://example.org/g"),
		rdf.NewNamedNode("conj-http://example.org/g"),
		rdf.NewBlankNode("42"),
		rdf.NewBlankNode("007"),
		rdf.NewBlankNode("reserved-b1"),
		rdf.NewBlankNode("genid-0a1b2c3d4e5f-7"),
		rdf.NewLiteral(""),
		rdf.NewLiteral("short"),
		rdf.NewLiteral("exactly sixteen!"),
		rdf.NewLiteral("a string well over sixteen bytes"),
		rdf.NewLiteral("nul\x00inside"),
		rdf.NewLiteralWithLanguage("chat", "fr"),
		rdf.NewLiteralWithLanguage("a@b", "en-GB"),
		rdf.NewIntegerLiteral(-12),
		rdf.NewLiteralWithDatatype("+12", rdf.XSDInteger),
		rdf.NewLiteralWithDatatype("0012", rdf.XSDInteger),
		rdf.NewLiteralWithDatatype("99999999999999999999999", rdf.XSDInteger),
		rdf.NewBooleanLiteral(true),
		rdf.NewBooleanLiteral(false),
		rdf.NewLiteralWithDatatype("1", rdf.XSDBoolean),
		rdf.NewLiteralWithDatatype("1.50", rdf.XSDDecimal),
		rdf.NewLiteralWithDatatype("1.0E3", rdf.XSDDouble),
		rdf.NewLiteralWithDatatype("plain", rdf.XSDString),
		rdf.NewLiteralWithDatatype("x", rdf.NewNamedNode("http://example.org/dt")),
		rdf.NewDefaultGraph(),
	}

	for _, term := range terms {
		if got := roundTrip(t, term); !got.Equals(term) {
			t.Errorf("round trip of %s gave %s", term, got)
		}
	}
}

func TestInlineEncoding(t *testing.T) {
	enc := NewTermEncoder()

	tests := []struct {
		term     rdf.Term
		wantType rdf.TermType
		inline   bool
	}{
		{rdf.NewNamedNode("http://x"), rdf.TermTypeNamedNode, false},
		{rdf.NewBlankNode("5"), rdf.TermTypeBlankNode, true},
		{rdf.NewBlankNode("b5"), rdf.TermTypeBlankNode, false},
		{rdf.NewLiteral("tiny"), rdf.TermTypeStringLiteral, true},
		{rdf.NewLiteral("seventeen bytes!!"), rdf.TermTypeStringLiteral, false},
		{rdf.NewLiteralWithLanguage("x", "en"), rdf.TermTypeLangStringLiteral, false},
		{rdf.NewIntegerLiteral(7), rdf.TermTypeIntegerLiteral, true},
		{rdf.NewLiteralWithDatatype("07", rdf.XSDInteger), rdf.TermTypeTypedLiteral, false},
		{rdf.NewBooleanLiteral(true), rdf.TermTypeBooleanLiteral, true},
		{rdf.NewLiteralWithDatatype("1.5", rdf.XSDDecimal), rdf.TermTypeTypedLiteral, false},
		{rdf.NewDefaultGraph(), rdf.TermTypeDefaultGraph, true},
	}

	for _, tt := range tests {
		encoded, str, err := enc.EncodeTerm(tt.term)
		if err != nil {
			t.Fatalf("EncodeTerm(%s): %v", tt.term, err)
		}
		if got := GetTermType(encoded); got != tt.wantType {
			t.Errorf("%s: type %d, want %d", tt.term, got, tt.wantType)
		}
		if inline := str == nil; inline != tt.inline {
			t.Errorf("%s: inline = %v, want %v", tt.term, inline, tt.inline)
		}
	}
}

func TestDistinctTermsDistinctKeys(t *testing.T) {
	enc := NewTermEncoder()
	terms := []rdf.Term{
		rdf.NewNamedNode("http://example.org/g"),
		rdf.NewNamedNode("conj-http://example.org/g"),
		rdf.NewBlankNode("g"),
		rdf.NewLiteral("g"),
		rdf.NewLiteralWithDatatype("g", rdf.XSDString),
		rdf.NewLiteralWithLanguage("g", "en"),
	}

	seen := make(map[EncodedTerm]rdf.Term)
	for _, term := range terms {
		encoded, _, err := enc.EncodeTerm(term)
		if err != nil {
			t.Fatal(err)
		}
		if prev, ok := seen[encoded]; ok {
			t.Errorf("%s and %s share an encoding", prev, term)
		}
		seen[encoded] = term
	}
}

func TestHash128Deterministic(t *testing.T) {
	enc := NewTermEncoder()
	if enc.Hash128("http://x") != enc.Hash128("http://x") {
		t.Error("hash must be deterministic")
	}
	if enc.Hash128("http://x") == enc.Hash128("conj-http://x") {
		t.Error("distinct strings should not collide")
	}
}

func TestDecodeErrors(t *testing.T) {
	dec := NewTermDecoder()

	var encoded EncodedTerm
	encoded[0] = byte(rdf.TermTypeNamedNode)
	if _, err := dec.DecodeTerm(encoded, nil); err == nil {
		t.Error("named node without string must fail")
	}

	encoded[0] = 0xff
	if _, err := dec.DecodeTerm(encoded, nil); err == nil {
		t.Error("unknown type must fail")
	}

	encoded[0] = byte(rdf.TermTypeTypedLiteral)
	s := "no separator"
	if _, err := dec.DecodeTerm(encoded, &s); err == nil {
		t.Error("typed literal without separator must fail")
	}

	if _, _, err := NewTermEncoder().EncodeTerm(nil); err == nil {
		t.Error("nil term must fail")
	}
}

func TestEncodeQuadKey(t *testing.T) {
	enc := NewTermEncoder()
	a, _, _ := enc.EncodeTerm(rdf.NewNamedNode("http://a"))
	b, _, _ := enc.EncodeTerm(rdf.NewDefaultGraph())

	key := enc.EncodeQuadKey(a, b)
	if len(key) != 2*EncodedTermSize {
		t.Fatalf("key length %d", len(key))
	}
	if string(key[:EncodedTermSize]) != string(a[:]) || string(key[EncodedTermSize:]) != string(b[:]) {
		t.Error("key must concatenate terms in order")
	}
}
