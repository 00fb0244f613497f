package encoding

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
	"github.com/aleksaelezovic/conjtrig/pkg/store"
	"github.com/zeebo/xxh3"
)

const (
	// Maximum size for inline strings (16 bytes of UTF-8)
	MaxInlineStringSize = 16

	// EncodedTermSize mirrors store.EncodedTermSize
	EncodedTermSize = store.EncodedTermSize

	// typedSeparator splits the datatype IRI from the lexical form in a hashed typed literal
	typedSeparator = "\x00"
)

// EncodedTerm is the fixed-width key form of a term
type EncodedTerm = store.EncodedTerm

// TermEncoder encodes terms for the quad indexes. Encoding is lossless: every
// term decodes back to an equal term, so shadow IRIs and labels survive storage
// exactly as the parser produced them.
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxhash3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.HashString128(s)
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes an RDF term into a fixed-size byte array
// Returns the encoded term and optionally a string to store in id2str table
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, *string, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return e.hashed(rdf.TermTypeNamedNode, t.IRI)
	case *rdf.BlankNode:
		return e.encodeBlankNode(t)
	case *rdf.Literal:
		return e.encodeLiteral(t)
	case *rdf.DefaultGraph:
		var encoded EncodedTerm
		encoded[0] = byte(rdf.TermTypeDefaultGraph)
		return encoded, nil, nil
	default:
		var encoded EncodedTerm
		return encoded, nil, fmt.Errorf("unknown term type: %T", term)
	}
}

// hashed encodes s by its hash; the caller stores s in the id2str table
func (e *TermEncoder) hashed(termType rdf.TermType, s string) (EncodedTerm, *string, error) {
	var encoded EncodedTerm
	encoded[0] = byte(termType)
	hash := e.Hash128(s)
	copy(encoded[1:], hash[:])
	return encoded, &s, nil
}

func (e *TermEncoder) encodeBlankNode(node *rdf.BlankNode) (EncodedTerm, *string, error) {
	// Canonical numeric IDs are stored inline (big endian)
	if num, err := strconv.ParseUint(node.ID, 10, 64); err == nil && strconv.FormatUint(num, 10) == node.ID {
		var encoded EncodedTerm
		encoded[0] = byte(rdf.TermTypeBlankNode)
		binary.BigEndian.PutUint64(encoded[1:9], num)
		return encoded, nil, nil
	}
	return e.hashed(rdf.TermTypeBlankNode, node.ID)
}

func (e *TermEncoder) encodeLiteral(lit *rdf.Literal) (EncodedTerm, *string, error) {
	if lit.Language != "" {
		// Language tags never contain '@', so the last one splits the pair
		return e.hashed(rdf.TermTypeLangStringLiteral, lit.Value+"@"+lit.Language)
	}

	if lit.Datatype == nil {
		return e.encodeStringLiteral(lit)
	}

	switch lit.Datatype.IRI {
	case rdf.XSDInteger.IRI:
		if value, err := strconv.ParseInt(lit.Value, 10, 64); err == nil && strconv.FormatInt(value, 10) == lit.Value {
			var encoded EncodedTerm
			encoded[0] = byte(rdf.TermTypeIntegerLiteral)
			binary.BigEndian.PutUint64(encoded[1:9], uint64(value)) // #nosec G115 - intentional bit-pattern conversion for binary encoding
			return encoded, nil, nil
		}
	case rdf.XSDBoolean.IRI:
		if lit.Value == "true" || lit.Value == "false" {
			var encoded EncodedTerm
			encoded[0] = byte(rdf.TermTypeBooleanLiteral)
			if lit.Value == "true" {
				encoded[1] = 1
			}
			return encoded, nil, nil
		}
	}

	// Non-canonical lexical forms and every other datatype keep their exact text
	return e.hashed(rdf.TermTypeTypedLiteral, lit.Datatype.IRI+typedSeparator+lit.Value)
}

func (e *TermEncoder) encodeStringLiteral(lit *rdf.Literal) (EncodedTerm, *string, error) {
	if len(lit.Value) <= MaxInlineStringSize && !strings.Contains(lit.Value, "\x00") {
		// Inline small strings, zero padded
		var encoded EncodedTerm
		encoded[0] = byte(rdf.TermTypeStringLiteral)
		copy(encoded[1:], lit.Value)
		return encoded, nil, nil
	}
	return e.hashed(rdf.TermTypeStringLiteral, lit.Value)
}

// EncodeQuadKey concatenates encoded terms into an index key
// Returns a big-endian byte array for lexicographic sorting
func (e *TermEncoder) EncodeQuadKey(terms ...EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// GetTermType extracts the type from an encoded term
func GetTermType(encoded EncodedTerm) rdf.TermType {
	return rdf.TermType(encoded[0])
}
