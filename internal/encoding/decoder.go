package encoding

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// TermDecoder handles decoding of RDF terms
type TermDecoder struct{}

// NewTermDecoder creates a new term decoder
func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// DecodeTerm decodes an encoded term back to an rdf.Term
// For hashed terms the id2str string must be provided as stringValue
func (d *TermDecoder) DecodeTerm(encoded EncodedTerm, stringValue *string) (rdf.Term, error) {
	termType := GetTermType(encoded)

	switch termType {
	case rdf.TermTypeNamedNode:
		if stringValue == nil {
			return nil, fmt.Errorf("string value required for named node")
		}
		return rdf.NewNamedNode(*stringValue), nil

	case rdf.TermTypeBlankNode:
		if stringValue != nil {
			return rdf.NewBlankNode(*stringValue), nil
		}
		numericID := binary.BigEndian.Uint64(encoded[1:9])
		return rdf.NewBlankNode(strconv.FormatUint(numericID, 10)), nil

	case rdf.TermTypeStringLiteral:
		if stringValue != nil {
			return rdf.NewLiteral(*stringValue), nil
		}
		// Inline strings are zero padded
		endIdx := 1
		for endIdx < EncodedTermSize && encoded[endIdx] != 0 {
			endIdx++
		}
		return rdf.NewLiteral(string(encoded[1:endIdx])), nil

	case rdf.TermTypeLangStringLiteral:
		if stringValue == nil {
			return nil, fmt.Errorf("string value required for language-tagged literal")
		}
		i := strings.LastIndexByte(*stringValue, '@')
		if i < 0 {
			return nil, fmt.Errorf("malformed language-tagged literal %q", *stringValue)
		}
		return rdf.NewLiteralWithLanguage((*stringValue)[:i], (*stringValue)[i+1:]), nil

	case rdf.TermTypeTypedLiteral:
		if stringValue == nil {
			return nil, fmt.Errorf("string value required for typed literal")
		}
		datatype, value, ok := strings.Cut(*stringValue, typedSeparator)
		if !ok {
			return nil, fmt.Errorf("malformed typed literal %q", *stringValue)
		}
		return rdf.NewLiteralWithDatatype(value, rdf.NewNamedNode(datatype)), nil

	case rdf.TermTypeIntegerLiteral:
		value := int64(binary.BigEndian.Uint64(encoded[1:9])) // #nosec G115 - intentional bit-pattern conversion for binary decoding
		return rdf.NewIntegerLiteral(value), nil

	case rdf.TermTypeBooleanLiteral:
		return rdf.NewBooleanLiteral(encoded[1] != 0), nil

	case rdf.TermTypeDefaultGraph:
		return rdf.NewDefaultGraph(), nil

	default:
		return nil, fmt.Errorf("unknown term type: %d", termType)
	}
}
