package trig

import (
	"strings"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// Base triple grammar shared by every block kind: subjects, predicate-object lists,
// collections, anonymous blank nodes and literals.

// parseTriples parses one "subject predicateObjectList" unit and clears the
// accumulated subject, predicate and object afterwards.
func (p *Parser) parseTriples() error {
	p.conjectural = false
	defer func() {
		p.subject, p.predicate, p.object = nil, nil, nil
	}()

	if p.sc.Peek() != '[' {
		if err := p.parseSubject(); err != nil {
			return err
		}
		p.sc.SkipWSC()
		return p.parsePredicateObjectList()
	}

	// '[' starts either an empty anonymous node used as subject or a blank node property list
	p.sc.Read()
	if p.sc.SkipWSC() == ']' {
		p.sc.Read()
		p.subject = p.newBlankNode()
		p.sc.SkipWSC()
		return p.parsePredicateObjectList()
	}

	p.sc.Unread('[')
	subject, err := p.parseImplicitBlank()
	if err != nil {
		return err
	}
	p.subject = subject
	// a property list may stand alone as a statement
	if c := p.sc.SkipWSC(); c != '.' && c != '}' && c != eof {
		return p.parsePredicateObjectList()
	}
	return nil
}

func (p *Parser) parseSubject() error {
	switch p.sc.Peek() {
	case '(':
		subject, err := p.parseCollection()
		if err != nil {
			return err
		}
		p.subject = subject
		return nil
	case '[':
		subject, err := p.parseImplicitBlank()
		if err != nil {
			return err
		}
		p.subject = subject
		return nil
	}

	value, err := p.parseValue()
	if err != nil {
		return err
	}
	if value == nil {
		return p.fatalf("Illegal subject value: identifier rejected")
	}
	if !rdf.IsResource(value) {
		return p.fatalf("Illegal subject value: %s", value)
	}
	p.subject = value
	return nil
}

func (p *Parser) parsePredicateObjectList() error {
	pred, err := p.parsePredicate()
	if err != nil {
		return err
	}
	p.predicate = pred
	p.sc.SkipWSC()
	if err := p.parseObjectList(); err != nil {
		return err
	}

	for p.sc.SkipWSC() == ';' {
		p.sc.Read()
		c := p.sc.SkipWSC()
		if c == '.' || c == ']' || c == '}' {
			break
		}
		if c == ';' {
			// empty predicate-object pair
			continue
		}
		pred, err := p.parsePredicate()
		if err != nil {
			return err
		}
		p.predicate = pred
		p.sc.SkipWSC()
		if err := p.parseObjectList(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseObjectList() error {
	if err := p.parseObject(); err != nil {
		return err
	}
	for p.sc.SkipWSC() == ',' {
		p.sc.Read()
		p.sc.SkipWSC()
		if err := p.parseObject(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parsePredicate() (rdf.Term, error) {
	// Check for the special case "a" (rdf:type)
	c1 := p.sc.Read()
	if c1 == 'a' {
		c2 := p.sc.Read()
		if isWhitespace(c2) || strings.ContainsRune("<[(\"'#", c2) {
			p.sc.Unread(c2)
			return rdf.RDFType, nil
		}
		p.sc.Unread(c2)
	}
	p.sc.Unread(c1)

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, p.fatalf("Illegal predicate value: identifier rejected")
	}
	if _, ok := value.(*rdf.NamedNode); !ok {
		return nil, p.fatalf("Illegal predicate value: %s", value)
	}
	return value, nil
}

// parseObject parses one object and emits the statement it completes
func (p *Parser) parseObject() error {
	var (
		object rdf.Term
		err    error
	)
	switch p.sc.Peek() {
	case '(':
		object, err = p.parseCollection()
	case '[':
		object, err = p.parseImplicitBlank()
	default:
		object, err = p.parseValue()
		if err == nil && object == nil {
			err = p.fatalf("Illegal object value: identifier rejected")
		}
	}
	if err != nil {
		return err
	}
	p.object = object
	return p.reportStatement(p.subject, p.predicate, p.object)
}

// parseValue parses an IRI, prefixed name, blank node label, literal or number.
// A nil term with a nil error means the identifier was rejected by an enforced violation.
func (p *Parser) parseValue() (rdf.Term, error) {
	c := p.sc.Peek()
	switch {
	case c == '<':
		return p.parseURI()
	case c == ':' || isPrefixStartChar(c):
		return p.parseQNameOrBoolean()
	case c == '_':
		return p.parseNodeID()
	case c == '"' || c == '\'':
		return p.parseQuotedLiteral()
	case isDigit(c) || c == '.' || c == '+' || c == '-':
		return p.parseNumber()
	case c == eof:
		return nil, p.eofError()
	default:
		p.sc.Read()
		return nil, p.fatalf("Expected an RDF value here, found '%c'", c)
	}
}

// parseImplicitBlank parses "[ predicateObjectList ]" and returns the new blank node.
// The statements inside are emitted before the enclosing one.
func (p *Parser) parseImplicitBlank() (rdf.Term, error) {
	if err := p.verify(p.sc.Read(), "["); err != nil {
		return nil, err
	}
	bnode := p.newBlankNode()

	c := p.sc.SkipWSC()
	if c == ']' {
		p.sc.Read()
		return bnode, nil
	}

	oldSubject, oldPredicate := p.subject, p.predicate
	p.subject = bnode
	if err := p.parsePredicateObjectList(); err != nil {
		return nil, err
	}
	if err := p.verify(p.sc.SkipWSC(), "]"); err != nil {
		return nil, err
	}
	p.sc.Read()
	p.subject, p.predicate = oldSubject, oldPredicate
	return bnode, nil
}

// parseCollection parses "( object* )" into an rdf:first/rdf:rest list
func (p *Parser) parseCollection() (rdf.Term, error) {
	if err := p.verify(p.sc.Read(), "("); err != nil {
		return nil, err
	}
	if p.sc.SkipWSC() == ')' {
		p.sc.Read()
		return rdf.RDFNil, nil
	}

	listRoot := p.newBlankNode()
	oldSubject, oldPredicate := p.subject, p.predicate

	p.subject, p.predicate = listRoot, rdf.RDFFirst
	if err := p.parseObject(); err != nil {
		return nil, err
	}

	node := listRoot
	for p.sc.SkipWSC() != ')' {
		next := p.newBlankNode()
		if err := p.reportStatement(node, rdf.RDFRest, next); err != nil {
			return nil, err
		}
		p.subject, p.predicate = next, rdf.RDFFirst
		if err := p.parseObject(); err != nil {
			return nil, err
		}
		node = next
	}
	p.sc.Read()

	if err := p.reportStatement(node, rdf.RDFRest, rdf.RDFNil); err != nil {
		return nil, err
	}
	p.subject, p.predicate = oldSubject, oldPredicate
	return listRoot, nil
}

// parseQuotedLiteral parses a string with an optional language tag or datatype
func (p *Parser) parseQuotedLiteral() (rdf.Term, error) {
	label, err := p.parseQuotedString()
	if err != nil {
		return nil, err
	}

	switch p.sc.Peek() {
	case '@':
		p.sc.Read()
		c := p.sc.Read()
		if c == eof {
			return nil, p.eofError()
		}
		if !isLanguageStartChar(c) {
			return nil, p.fatalf("Expected a letter, found '%c'", c)
		}
		var lang strings.Builder
		lang.WriteRune(c)
		c = p.sc.Read()
		for isLanguageChar(c) {
			lang.WriteRune(c)
			c = p.sc.Read()
		}
		p.sc.Unread(c)
		return rdf.NewLiteralWithLanguage(label, lang.String()), nil

	case '^':
		p.sc.Read()
		if err := p.verify(p.sc.Read(), "^"); err != nil {
			return nil, err
		}
		datatype, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		dt, ok := datatype.(*rdf.NamedNode)
		if !ok || dt == nil {
			return nil, p.fatalf("Illegal datatype value: %v", datatype)
		}
		return rdf.NewLiteralWithDatatype(label, dt), nil
	}

	return rdf.NewLiteral(label), nil
}

// parseQuotedString reads a short or triple-quoted string and returns its decoded content
func (p *Parser) parseQuotedString() (string, error) {
	quote := p.sc.Read()
	if err := p.verify(quote, "\"'"); err != nil {
		return "", err
	}

	c2 := p.sc.Read()
	if c2 == quote {
		c3 := p.sc.Read()
		if c3 == quote {
			return p.parseLongString(quote)
		}
		// empty string
		p.sc.Unread(c3)
		return "", nil
	}
	p.sc.Unread(c2)

	var b strings.Builder
	for {
		c := p.sc.Read()
		switch c {
		case eof:
			return "", p.eofError()
		case quote:
			return b.String(), nil
		case '\n', '\r':
			return "", p.fatalf("Illegal carriage return or new line in literal")
		case '\\':
			r, err := p.readStringEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		default:
			b.WriteRune(c)
		}
	}
}

func (p *Parser) parseLongString(quote rune) (string, error) {
	var b strings.Builder
	for {
		c := p.sc.Read()
		switch c {
		case eof:
			return "", p.eofError()
		case '\\':
			r, err := p.readStringEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		case quote:
			// the last three quotes of a run close the string
			run := 1
			for p.sc.Peek() == quote {
				p.sc.Read()
				run++
			}
			if run >= 3 {
				b.WriteString(strings.Repeat(string(quote), run-3))
				return b.String(), nil
			}
			b.WriteString(strings.Repeat(string(quote), run))
		default:
			b.WriteRune(c)
		}
	}
}

// readStringEscape decodes the escape following a '\' in a string literal
func (p *Parser) readStringEscape() (rune, error) {
	c := p.sc.Read()
	switch c {
	case eof:
		return 0, p.eofError()
	case 't':
		return '\t', nil
	case 'b':
		return '\b', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case '"', '\'', '\\':
		return c, nil
	case 'u', 'U':
		digits := 4
		if c == 'U' {
			digits = 8
		}
		hex := make([]rune, 0, digits)
		for i := 0; i < digits; i++ {
			h := p.sc.Read()
			if h == eof {
				return 0, p.eofError()
			}
			if !isHex(h) {
				return 0, p.fatalf("Illegal unicode escape sequence: \\%c%s%c", c, string(hex), h)
			}
			hex = append(hex, h)
		}
		r, err := decodeCodePoint(string(hex))
		if err != nil {
			return 0, p.fatalErr(err, "Illegal unicode escape sequence")
		}
		return r, nil
	default:
		return 0, p.fatalf("Illegal escape sequence: \\%c", c)
	}
}

// parseNumber parses integer, decimal and double literals
func (p *Parser) parseNumber() (rdf.Term, error) {
	var b strings.Builder
	datatype := rdf.XSDInteger
	digits := 0

	c := p.sc.Read()
	if c == '+' || c == '-' {
		b.WriteRune(c)
		c = p.sc.Read()
	}
	for isDigit(c) {
		b.WriteRune(c)
		digits++
		c = p.sc.Read()
	}

	if c == '.' {
		next := p.sc.Peek()
		exponentNext := (next == 'e' || next == 'E') && digits > 0
		if isDigit(next) || exponentNext {
			// a '.' followed by anything else ends the statement instead
			b.WriteRune(c)
			datatype = rdf.XSDDecimal
			c = p.sc.Read()
			for isDigit(c) {
				b.WriteRune(c)
				digits++
				c = p.sc.Read()
			}
		}
	}

	if digits == 0 {
		return nil, p.fatalf("Illegal number: '%s%c'", b.String(), c)
	}

	if c == 'e' || c == 'E' {
		datatype = rdf.XSDDouble
		b.WriteRune(c)
		c = p.sc.Read()
		if c == '+' || c == '-' {
			b.WriteRune(c)
			c = p.sc.Read()
		}
		if !isDigit(c) {
			return nil, p.fatalf("Exponent value missing")
		}
		for isDigit(c) {
			b.WriteRune(c)
			c = p.sc.Read()
		}
	}
	p.sc.Unread(c)

	return rdf.NewLiteralWithDatatype(b.String(), datatype), nil
}
