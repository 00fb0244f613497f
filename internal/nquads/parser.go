// Package nquads reads N-Quads documents, the format conjtrig writes. It is used
// to check parser output against expected statement sets.
package nquads

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// Parser is an N-Quads parser: <subject> <predicate> <object> [<graph>] .
// Lines without a graph term belong to the default graph.
type Parser struct {
	input  string
	pos    int
	length int
	line   int
}

// NewParser creates a new N-Quads parser
func NewParser(input string) *Parser {
	return &Parser{
		input:  input,
		length: len(input),
		line:   1,
	}
}

// ReadAll parses every statement from r
func ReadAll(r io.Reader) ([]*rdf.Quad, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read n-quads: %w", err)
	}
	return NewParser(string(data)).Parse()
}

// Parse parses the N-Quads document and returns quads
func (p *Parser) Parse() ([]*rdf.Quad, error) {
	var quads []*rdf.Quad
	for {
		p.skipWhitespaceAndComments()
		if p.pos >= p.length {
			return quads, nil
		}
		quad, err := p.parseQuad()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
		quads = append(quads, quad)
	}
}

// skipWhitespaceAndComments skips whitespace and comments, counting lines
func (p *Parser) skipWhitespaceAndComments() {
	for p.pos < p.length {
		switch p.input[p.pos] {
		case '\n':
			p.line++
			p.pos++
		case ' ', '\t', '\r':
			p.pos++
		case '#':
			for p.pos < p.length && p.input[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

// parseQuad parses a quad: subject predicate object [graph] .
func (p *Parser) parseQuad() (*rdf.Quad, error) {
	subject, err := p.parseTerm()
	if err != nil {
		return nil, fmt.Errorf("error parsing subject: %w", err)
	}
	if !rdf.IsResource(subject) {
		return nil, fmt.Errorf("subject must be an IRI or blank node, got %s", subject)
	}

	p.skipWhitespaceAndComments()
	predicate, err := p.parseTerm()
	if err != nil {
		return nil, fmt.Errorf("error parsing predicate: %w", err)
	}
	if _, ok := predicate.(*rdf.NamedNode); !ok {
		return nil, fmt.Errorf("predicate must be an IRI, got %s", predicate)
	}

	p.skipWhitespaceAndComments()
	object, err := p.parseTerm()
	if err != nil {
		return nil, fmt.Errorf("error parsing object: %w", err)
	}

	p.skipWhitespaceAndComments()

	// Optional graph (4th position)
	var graph rdf.Term
	if p.pos < p.length && (p.input[p.pos] == '<' || p.input[p.pos] == '_') {
		graph, err = p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("error parsing graph: %w", err)
		}
		p.skipWhitespaceAndComments()
	}

	if p.pos >= p.length || p.input[p.pos] != '.' {
		return nil, fmt.Errorf("expected '.' at end of quad")
	}
	p.pos++

	return rdf.NewQuad(subject, predicate, object, graph), nil
}

// parseTerm parses an RDF term (IRI, blank node, or literal)
func (p *Parser) parseTerm() (rdf.Term, error) {
	if p.pos >= p.length {
		return nil, io.ErrUnexpectedEOF
	}

	switch ch := p.input[p.pos]; ch {
	case '<':
		iri, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return rdf.NewNamedNode(iri), nil
	case '_':
		return p.parseBlankNode()
	case '"':
		return p.parseLiteral()
	default:
		return nil, fmt.Errorf("unexpected character %q", ch)
	}
}

// parseIRI parses an IRI enclosed in < >, decoding \u and \U escapes
func (p *Parser) parseIRI() (string, error) {
	if p.pos >= p.length || p.input[p.pos] != '<' {
		return "", fmt.Errorf("expected '<' at start of IRI")
	}
	p.pos++

	var iri strings.Builder
	for p.pos < p.length {
		ch := p.input[p.pos]
		switch ch {
		case '>':
			p.pos++
			return iri.String(), nil
		case '\\':
			r, err := p.parseUnicodeEscape()
			if err != nil {
				return "", err
			}
			iri.WriteRune(r)
		case ' ', '\n':
			return "", fmt.Errorf("unexpected whitespace in IRI")
		default:
			iri.WriteByte(ch)
			p.pos++
		}
	}
	return "", fmt.Errorf("unclosed IRI")
}

// parseUnicodeEscape decodes \uXXXX or \UXXXXXXXX at the current position
func (p *Parser) parseUnicodeEscape() (rune, error) {
	if p.pos+1 >= p.length {
		return 0, fmt.Errorf("unexpected end of input in escape sequence")
	}
	size := 0
	switch p.input[p.pos+1] {
	case 'u':
		size = 4
	case 'U':
		size = 8
	default:
		return 0, fmt.Errorf("invalid escape \\%c", p.input[p.pos+1])
	}
	start := p.pos + 2
	if start+size > p.length {
		return 0, fmt.Errorf("truncated unicode escape")
	}
	code, err := strconv.ParseUint(p.input[start:start+size], 16, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return 0, fmt.Errorf("invalid unicode escape %q", p.input[p.pos:start+size])
	}
	p.pos = start + size
	return rune(code), nil
}

// parseBlankNode parses a blank node
func (p *Parser) parseBlankNode() (rdf.Term, error) {
	if p.pos+1 >= p.length || p.input[p.pos+1] != ':' {
		return nil, fmt.Errorf("expected ':' after '_' in blank node")
	}
	p.pos += 2

	start := p.pos
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '<' || ch == '"' {
			break
		}
		p.pos++
	}
	// A label may contain dots but not end with one
	for p.pos > start && p.input[p.pos-1] == '.' {
		p.pos--
	}
	if p.pos == start {
		return nil, fmt.Errorf("empty blank node label")
	}
	return rdf.NewBlankNode(p.input[start:p.pos]), nil
}

// parseLiteral parses a literal value
func (p *Parser) parseLiteral() (rdf.Term, error) {
	p.pos++ // skip opening '"'

	var value strings.Builder
	for {
		if p.pos >= p.length {
			return nil, fmt.Errorf("unclosed string literal")
		}
		ch := p.input[p.pos]
		if ch == '"' {
			p.pos++
			break
		}
		if ch == '\n' {
			return nil, fmt.Errorf("unescaped newline in string literal")
		}
		if ch != '\\' {
			value.WriteByte(ch)
			p.pos++
			continue
		}

		if p.pos+1 >= p.length {
			return nil, fmt.Errorf("unexpected end of input in escape sequence")
		}
		switch esc := p.input[p.pos+1]; esc {
		case 't':
			value.WriteByte('\t')
		case 'b':
			value.WriteByte('\b')
		case 'n':
			value.WriteByte('\n')
		case 'r':
			value.WriteByte('\r')
		case 'f':
			value.WriteByte('\f')
		case '"', '\'', '\\':
			value.WriteByte(esc)
		case 'u', 'U':
			r, err := p.parseUnicodeEscape()
			if err != nil {
				return nil, err
			}
			value.WriteRune(r)
			continue
		default:
			return nil, fmt.Errorf("invalid escape \\%c", esc)
		}
		p.pos += 2
	}

	// Language tag or datatype
	if p.pos < p.length && p.input[p.pos] == '@' {
		p.pos++
		start := p.pos
		for p.pos < p.length {
			ch := p.input[p.pos]
			if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' {
				p.pos++
				continue
			}
			break
		}
		if p.pos == start {
			return nil, fmt.Errorf("empty language tag")
		}
		return rdf.NewLiteralWithLanguage(value.String(), p.input[start:p.pos]), nil
	}
	if strings.HasPrefix(p.input[p.pos:], "^^") {
		p.pos += 2
		datatypeIRI, err := p.parseIRI()
		if err != nil {
			return nil, fmt.Errorf("error parsing datatype: %w", err)
		}
		return rdf.NewLiteralWithDatatype(value.String(), rdf.NewNamedNode(datatypeIRI)), nil
	}

	return rdf.NewLiteral(value.String()), nil
}
