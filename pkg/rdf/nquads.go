package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// NQuadsWriter is a pass-through Handler serializing every statement as one N-Quads line.
type NQuadsWriter struct {
	w     *bufio.Writer
	count int64
}

// NewNQuadsWriter creates a writer emitting to w. Call Flush when the parse is done.
func NewNQuadsWriter(w io.Writer) *NQuadsWriter {
	return &NQuadsWriter{w: bufio.NewWriter(w)}
}

func (n *NQuadsWriter) HandleStatement(q *Quad) error {
	if _, err := n.w.WriteString(FormatNQuad(q)); err != nil {
		return fmt.Errorf("failed to write statement: %w", err)
	}
	if err := n.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write statement: %w", err)
	}
	n.count++
	return nil
}

// Count returns the number of statements written so far
func (n *NQuadsWriter) Count() int64 {
	return n.count
}

// Flush writes any buffered output
func (n *NQuadsWriter) Flush() error {
	return n.w.Flush()
}

// FormatNQuad renders a quad as a single N-Quads statement, without a trailing newline.
func FormatNQuad(q *Quad) string {
	var b strings.Builder
	b.WriteString(FormatTerm(q.Subject))
	b.WriteByte(' ')
	b.WriteString(FormatTerm(q.Predicate))
	b.WriteByte(' ')
	b.WriteString(FormatTerm(q.Object))
	if !q.InDefaultGraph() {
		b.WriteByte(' ')
		b.WriteString(FormatTerm(q.Graph))
	}
	b.WriteString(" .")
	return b.String()
}

// FormatTerm renders a term in N-Triples syntax
func FormatTerm(term Term) string {
	switch t := term.(type) {
	case *NamedNode:
		return "<" + escapeIRI(t.IRI) + ">"
	case *BlankNode:
		return "_:" + t.ID
	case *Literal:
		escaped := `"` + escapeString(t.Value) + `"`
		if t.Language != "" {
			return escaped + "@" + t.Language
		}
		if t.Datatype != nil && t.Datatype.IRI != XSDString.IRI {
			return escaped + "^^<" + escapeIRI(t.Datatype.IRI) + ">"
		}
		return escaped
	case nil:
		return ""
	default:
		return term.String()
	}
}

// escapeString escapes a literal lexical form using the N-Triples escape rules:
// named escapes for \t \b \n \r \f \" \\ and \uXXXX for the remaining control characters.
func escapeString(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\t':
			builder.WriteString(`\t`)
		case '\b':
			builder.WriteString(`\b`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\f':
			builder.WriteString(`\f`)
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		default:
			if r < 0x20 || r == 0x7F || r == 0xFFFE || r == 0xFFFF {
				fmt.Fprintf(&builder, `\u%04X`, r)
			} else {
				builder.WriteRune(r)
			}
		}
	}

	return builder.String()
}

// escapeIRI escapes the characters that cannot appear raw between angle brackets
func escapeIRI(iri string) string {
	if !strings.ContainsAny(iri, "<>\"{}|^`\\ ") {
		return iri
	}
	var builder strings.Builder
	for _, r := range iri {
		switch r {
		case '<', '>', '"', '{', '}', '|', '^', '`', '\\', ' ':
			fmt.Fprintf(&builder, `\u%04X`, r)
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
