package rdf

import (
	"fmt"
	"strconv"
)

// TermType represents the type of an RDF term
type TermType byte

const (
	// Core RDF types
	TermTypeNamedNode TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral
	TermTypeDefaultGraph

	// Literal subtypes, used by the storage encoding
	TermTypeStringLiteral
	TermTypeLangStringLiteral
	TermTypeTypedLiteral
	TermTypeIntegerLiteral
	TermTypeBooleanLiteral
)

// Term represents an RDF term (IRI, blank node, literal or the default graph)
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool
}

// NamedNode represents an IRI
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (n *NamedNode) Type() TermType {
	return TermTypeNamedNode
}

func (n *NamedNode) String() string {
	return fmt.Sprintf("<%s>", n.IRI)
}

func (n *NamedNode) Equals(other Term) bool {
	if on, ok := other.(*NamedNode); ok {
		return n.IRI == on.IRI
	}
	return false
}

// BlankNode represents a blank node
type BlankNode struct {
	ID string
}

func NewBlankNode(id string) *BlankNode {
	return &BlankNode{ID: id}
}

func (b *BlankNode) Type() TermType {
	return TermTypeBlankNode
}

func (b *BlankNode) String() string {
	return fmt.Sprintf("_:%s", b.ID)
}

func (b *BlankNode) Equals(other Term) bool {
	if ob, ok := other.(*BlankNode); ok {
		return b.ID == ob.ID
	}
	return false
}

// Literal represents an RDF literal
type Literal struct {
	Value    string
	Language string     // for language-tagged strings
	Datatype *NamedNode // for typed literals
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value}
}

func NewLiteralWithLanguage(value, language string) *Literal {
	return &Literal{Value: value, Language: language}
}

func NewLiteralWithDatatype(value string, datatype *NamedNode) *Literal {
	return &Literal{Value: value, Datatype: datatype}
}

func (l *Literal) Type() TermType {
	return TermTypeLiteral
}

func (l *Literal) String() string {
	result := strconv.Quote(l.Value)
	if l.Language != "" {
		result += "@" + l.Language
	} else if l.Datatype != nil {
		result += "^^" + l.Datatype.String()
	}
	return result
}

func (l *Literal) Equals(other Term) bool {
	ol, ok := other.(*Literal)
	if !ok {
		return false
	}
	if l.Value != ol.Value || l.Language != ol.Language {
		return false
	}
	if l.Datatype == nil || ol.Datatype == nil {
		return l.Datatype == nil && ol.Datatype == nil
	}
	return l.Datatype.Equals(ol.Datatype)
}

// DefaultGraph represents the default graph
type DefaultGraph struct{}

func NewDefaultGraph() *DefaultGraph {
	return &DefaultGraph{}
}

func (d *DefaultGraph) Type() TermType {
	return TermTypeDefaultGraph
}

func (d *DefaultGraph) String() string {
	return "DEFAULT"
}

func (d *DefaultGraph) Equals(other Term) bool {
	_, ok := other.(*DefaultGraph)
	return ok
}

// IsResource reports whether t can be a subject or a graph name (an IRI or a blank node).
func IsResource(t Term) bool {
	switch t.(type) {
	case *NamedNode, *BlankNode:
		return true
	}
	return false
}

// Quad represents an RDF statement: subject, predicate, object and graph context.
// Statements outside any graph block carry the DefaultGraph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

func NewQuad(subject, predicate, object, graph Term) *Quad {
	if graph == nil {
		graph = NewDefaultGraph()
	}
	return &Quad{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Graph:     graph,
	}
}

// InDefaultGraph reports whether the quad has no named context.
func (q *Quad) InDefaultGraph() bool {
	return q.Graph == nil || q.Graph.Type() == TermTypeDefaultGraph
}

func (q *Quad) Equals(other *Quad) bool {
	if other == nil {
		return false
	}
	return q.Subject.Equals(other.Subject) &&
		q.Predicate.Equals(other.Predicate) &&
		q.Object.Equals(other.Object) &&
		q.InDefaultGraph() == other.InDefaultGraph() &&
		(q.InDefaultGraph() || q.Graph.Equals(other.Graph))
}

func (q *Quad) String() string {
	if q.InDefaultGraph() {
		return fmt.Sprintf("%s %s %s .", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

// Well-known vocabulary
const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
)

var (
	RDFType  = NewNamedNode(RDFNamespace + "type")
	RDFFirst = NewNamedNode(RDFNamespace + "first")
	RDFRest  = NewNamedNode(RDFNamespace + "rest")
	RDFNil   = NewNamedNode(RDFNamespace + "nil")

	XSDString  = NewNamedNode(XSDNamespace + "string")
	XSDInteger = NewNamedNode(XSDNamespace + "integer")
	XSDDecimal = NewNamedNode(XSDNamespace + "decimal")
	XSDDouble  = NewNamedNode(XSDNamespace + "double")
	XSDBoolean = NewNamedNode(XSDNamespace + "boolean")
)

func NewIntegerLiteral(value int64) *Literal {
	return NewLiteralWithDatatype(strconv.FormatInt(value, 10), XSDInteger)
}

func NewBooleanLiteral(value bool) *Literal {
	return NewLiteralWithDatatype(strconv.FormatBool(value), XSDBoolean)
}
