package trig

import (
	"strings"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// keywordWindow is the number of code points inspected to classify a statement unit;
// "@prefix" is the longest keyword.
const keywordWindow = 8

// hasKeyword reports whether token starts with kw, ignoring case
func hasKeyword(token []rune, kw string) bool {
	n := len(kw)
	return len(token) >= n && strings.EqualFold(string(token[:n]), kw)
}

// hasPrefixedKeyword reports whether token starts with kw immediately followed by ':',
// which makes it a prefixed name rather than a keyword
func hasPrefixedKeyword(token []rune, kw string) bool {
	return len(token) > len(kw) && hasKeyword(token, kw) && token[len(kw)] == ':'
}

// parseStatement classifies the next unit by its first code points and parses it
func (p *Parser) parseStatement() error {
	p.conjectural = false

	token := make([]rune, 0, keywordWindow)
	for len(token) < keywordWindow {
		c := p.sc.Read()
		if c == eof || isWhitespace(c) {
			p.sc.Unread(c)
			break
		}
		token = append(token, c)
	}

	switch {
	case len(token) > 0 && token[0] == '@':
		if err := p.parseDirective(token); err != nil {
			return err
		}
		p.sc.SkipWSC()
		if err := p.verify(p.sc.Read(), "."); err != nil {
			return err
		}
		return nil

	case hasKeyword(token, "prefix") || hasKeyword(token, "base"):
		// SPARQL-style directives are not terminated by '.'
		if err := p.parseDirective(token); err != nil {
			return err
		}
		p.sc.SkipWSC()
		return nil

	case hasPrefixedKeyword(token, "GRAPH"),
		hasPrefixedKeyword(token, "CONJ"),
		hasPrefixedKeyword(token, "SETT"):
		p.sc.UnreadString(string(token))
		return p.parseBlock(modePlain, false)

	case hasKeyword(token, "GRAPH"):
		return p.parseKeywordBlock(token, len("GRAPH"), modePlain)
	case hasKeyword(token, "CONJ"):
		return p.parseKeywordBlock(token, len("CONJ"), modeConj)
	case hasKeyword(token, "SETT"):
		return p.parseKeywordBlock(token, len("SETT"), modeSett)
	}

	p.sc.UnreadString(string(token))
	return p.parseBlock(modePlain, false)
}

func (p *Parser) parseKeywordBlock(token []rune, kwLen int, mode blockMode) error {
	p.sc.UnreadString(string(token[kwLen:]))
	p.sc.SkipWSC()
	return p.parseBlock(mode, true)
}

// parseDirective parses the body of a @prefix, @base, PREFIX or BASE directive.
// The code points of token following the directive name are pushed back first.
func (p *Parser) parseDirective(token []rune) error {
	directive := string(token)
	switch {
	case strings.HasPrefix(directive, "@prefix"):
		p.sc.UnreadString(string(token[len("@prefix"):]))
		return p.parsePrefixID()
	case strings.HasPrefix(directive, "@base"):
		p.sc.UnreadString(string(token[len("@base"):]))
		return p.parseBase()
	case hasKeyword(token, "prefix"):
		p.sc.UnreadString(string(token[len("prefix"):]))
		return p.parsePrefixID()
	case hasKeyword(token, "base"):
		p.sc.UnreadString(string(token[len("base"):]))
		return p.parseBase()
	case hasKeyword(token, "@prefix"):
		if err := p.checkDirectiveCase(directive); err != nil {
			return err
		}
		p.sc.UnreadString(string(token[len("@prefix"):]))
		return p.parsePrefixID()
	case hasKeyword(token, "@base"):
		if err := p.checkDirectiveCase(directive); err != nil {
			return err
		}
		p.sc.UnreadString(string(token[len("@base"):]))
		return p.parseBase()
	case len(token) <= 1:
		return p.fatalf("Directive name is missing, expected @prefix or @base")
	}
	return p.fatalf("Unknown directive \"%s\"", directive)
}

func (p *Parser) checkDirectiveCase(directive string) error {
	if !p.opts.CaseInsensitiveDirectives {
		return p.fatalf("Cannot strictly support case-insensitive directive %s", directive)
	}
	p.reportViolation(ClassDirectiveCase, "Directive %s is not lower case", directive)
	return nil
}

// parsePrefixID parses "prefix: <iri>" and records the namespace
func (p *Parser) parsePrefixID() error {
	p.sc.SkipWSC()

	var prefix strings.Builder
	for {
		c := p.sc.Read()
		if c == ':' {
			p.sc.Unread(c)
			break
		}
		if isWhitespace(c) {
			break
		}
		if c == eof {
			return p.eofError()
		}
		prefix.WriteRune(c)
	}

	p.sc.SkipWSC()
	if err := p.verify(p.sc.Read(), ":"); err != nil {
		return err
	}
	p.sc.SkipWSC()

	ns, err := p.parseURI()
	if err != nil {
		return err
	}
	if ns == nil {
		return p.fatalf("Illegal namespace IRI for prefix '%s'", prefix.String())
	}
	p.ns.Set(prefix.String(), ns.(*rdf.NamedNode).IRI)
	return nil
}

func (p *Parser) parseBase() error {
	p.sc.SkipWSC()
	base, err := p.parseURI()
	if err != nil {
		return err
	}
	if base == nil {
		return p.fatalf("Illegal base IRI")
	}
	p.base = base.(*rdf.NamedNode).IRI
	return nil
}
