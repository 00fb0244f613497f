package trig

import (
	"log/slog"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// blockMode selects how the graph name of a block is resolved and what happens when it closes
type blockMode int

const (
	modePlain blockMode = iota // GRAPH or unlabelled block
	modeConj                   // graph name is registered as conjectural
	modeSett                   // as modeConj, plus a settlement statement on close
)

func (m blockMode) String() string {
	switch m {
	case modeConj:
		return "CONJ"
	case modeSett:
		return "SETT"
	default:
		return "GRAPH"
	}
}

// parseBlock parses an optional graph name followed by a { ... } block. Without a block
// the name, if any, becomes the subject of ordinary default graph triples. keyword is set
// when the unit was introduced by GRAPH, CONJ or SETT, in which case both the name and the
// block are required.
func (p *Parser) parseBlock(mode blockMode, keyword bool) error {
	var name rdf.Term
	p.original = nil

	c := p.sc.Read()
	c2 := p.sc.Peek()
	switch {
	case c == '[':
		p.sc.SkipWSC()
		c2 = p.sc.Read()
		if c2 == ']' {
			name = p.newBlankNode()
			p.sc.SkipWSC()
		} else {
			p.sc.Unread(c2)
			p.sc.Unread(c)
		}
		c = p.sc.Read()

	case c == '<' || isPrefixStartChar(c) || (c == ':' && c2 != '-') || (c == '_' && c2 == ':'):
		p.sc.Unread(c)
		value, err := p.parseGraphName(mode)
		if err != nil {
			return err
		}
		name = value
		p.sc.SkipWSC()
		c = p.sc.Read()
	}

	if keyword && (name == nil || c != '{') {
		return p.fatalf("Missing GRAPH label or subject")
	}

	if c != '{' {
		// not a graph block: parse ordinary default graph triples
		p.context = nil
		p.sc.Unread(c)
		if name != nil {
			p.subject = name
			err := p.parsePredicateObjectList()
			p.subject, p.predicate, p.object = nil, nil, nil
			if err != nil {
				return err
			}
		} else if err := p.parseTriples(); err != nil {
			return err
		}
		return p.expectTerminator()
	}

	p.context = name
	if mode == modeSett && name != nil {
		original := p.original
		if original == nil {
			original = name
		}
		p.settle = &settlement{original: original, shadow: name}
	}
	p.original = nil

	if err := p.parseBlockBody(); err != nil {
		return err
	}

	if p.settle != nil {
		if err := p.emitSettlement(); err != nil {
			return err
		}
	}
	p.context = nil
	return nil
}

// parseGraphName resolves the name of a block. In CONJ and SETT mode the name is
// conjectural and its original form is left in p.original.
func (p *Parser) parseGraphName(mode blockMode) (rdf.Term, error) {
	p.original = nil
	p.conjectural = mode != modePlain
	value, err := p.parseValue()
	p.conjectural = false
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, p.fatalf("Illegal graph name: identifier rejected")
	}
	if !rdf.IsResource(value) {
		return nil, p.fatalf("Illegal graph name: %s", value)
	}
	p.logger.Debug("graph name", slog.String("mode", mode.String()), slog.String("name", value.String()))
	return value, nil
}

// parseBlockBody parses triples separated by '.' up to and including the closing '}'
func (p *Parser) parseBlockBody() error {
	c := p.sc.SkipWSC()
	if c != '}' {
		if err := p.parseTriples(); err != nil {
			return err
		}
		c = p.sc.SkipWSC()
		for c == '.' {
			p.sc.Read()
			c = p.sc.SkipWSC()
			if c == '}' {
				break
			}
			if err := p.parseTriples(); err != nil {
				return err
			}
			c = p.sc.SkipWSC()
		}
		if err := p.verify(c, "}"); err != nil {
			return err
		}
	}
	p.sc.Read()
	return nil
}

// expectTerminator consumes the '.' ending a default graph triples unit
func (p *Parser) expectTerminator() error {
	c := p.sc.SkipWSC()
	if err := p.verify(c, "."); err != nil {
		return err
	}
	p.sc.Read()
	return nil
}
