package trig

import (
	"log/slog"
	"strings"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// takeConjectural returns and clears the conjectural flag. Only the first identifier
// resolved after a CONJ/SETT keyword is conjectural.
func (p *Parser) takeConjectural() bool {
	conj := p.conjectural
	p.conjectural = false
	return conj
}

func (p *Parser) register(spelling string) {
	if p.registry.Register(spelling) {
		p.logger.Debug("conjecture registered", slog.String("spelling", spelling))
	}
}

// parseURI reads an <...> IRI. It returns a nil term when the IRI violates an enforced class.
func (p *Parser) parseURI() (rdf.Term, error) {
	if err := p.verify(p.sc.Read(), "<"); err != nil {
		return nil, err
	}

	var raw strings.Builder
	var last rune
	suppress := false
	for {
		c := p.sc.Read()
		if c == '>' {
			break
		}
		if c == eof {
			return nil, p.eofError()
		}
		if c == ' ' {
			suppress = p.reportViolation(ClassIRISyntax, "IRI included an unencoded space: '%c'", c) || suppress
		}
		raw.WriteRune(c)
		last = c

		if c == '\\' {
			// escapes the next character, which might be a '>'
			c = p.sc.Read()
			if c == eof {
				return nil, p.eofError()
			}
			if c != 'u' && c != 'U' {
				suppress = p.reportViolation(ClassIRISyntax, "IRI includes string escapes: '\\%c'", c) || suppress
			}
			raw.WriteRune(c)
			last = c
		}
	}

	spelling := "<" + raw.String() + ">"
	conj := p.takeConjectural()
	if conj {
		p.register(spelling)
	}
	shadow := conj || p.registry.Contains(spelling)

	if last == '.' {
		suppress = p.reportViolation(ClassIRISyntax, "IRI must not end in a '.'") || suppress
	}
	if suppress {
		return nil, nil
	}

	iri, err := decodeUnicodeEscapes(raw.String())
	if err != nil && p.reportViolation(ClassDecoding, "%s", err.Error()) {
		return nil, nil
	}
	iri, ok := p.resolve(iri)
	if !ok {
		return nil, nil
	}

	original := rdf.NewNamedNode(iri)
	if conj {
		p.original = original
	}
	if shadow {
		return rdf.NewNamedNode(p.opts.ShadowMarker + iri), nil
	}
	return original, nil
}

// resolve makes iri absolute against the active base. ok is false when the IRI is relative,
// there is no base and relative IRIs are enforced.
func (p *Parser) resolve(iri string) (string, bool) {
	if hasScheme(iri) {
		return iri, true
	}
	if p.base == "" {
		enforced := p.reportViolation(ClassRelativeIRI, "Relative IRI with no base: <%s>", iri)
		return iri, !enforced
	}
	return resolveIRI(p.base, iri), true
}

// parseQNameOrBoolean reads a prefixed name, or the boolean keywords true and false
func (p *Parser) parseQNameOrBoolean() (rdf.Term, error) {
	// First character should be a ':' or a letter
	c := p.sc.Read()
	if c == eof {
		return nil, p.eofError()
	}
	if c != ':' && !isPrefixStartChar(c) {
		if p.reportViolation(ClassRelativeIRI, "Expected a ':' or a letter, found '%c'", c) {
			return nil, nil
		}
	}

	var prefix string
	if c != ':' {
		// c is the first letter of the prefix
		var b strings.Builder
		b.WriteRune(c)
		trailingDots := 0
		c = p.sc.Read()
		for isPrefixChar(c) {
			b.WriteRune(c)
			if c == '.' {
				trailingDots++
			} else {
				trailingDots = 0
			}
			c = p.sc.Read()
		}
		prefix = b.String()
		if trailingDots > 0 {
			// '.' is a legal prefix name char, but can not appear at the end
			p.sc.Unread(c)
			for i := 1; i < trailingDots; i++ {
				p.sc.Unread('.')
			}
			c = '.'
			prefix = prefix[:len(prefix)-trailingDots]
		}

		if c != ':' {
			switch prefix {
			case "true", "false":
				p.sc.Unread(c)
				return rdf.NewBooleanLiteral(prefix == "true"), nil
			}
		}
		if err := p.verify(c, ":"); err != nil {
			return nil, err
		}
	}

	// c == ':', read optional local name
	local, err := p.parseLocalName()
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(local); i++ {
		if local[i] == '%' {
			if i > len(local)-3 || !isHex(rune(local[i+1])) || !isHex(rune(local[i+2])) {
				return nil, p.fatalf("Found incomplete percent-encoded sequence: %s", local)
			}
		}
	}

	nsIRI, ok := p.ns.Get(prefix)
	if !ok {
		return nil, p.fatalf("Namespace prefix '%s' used but not defined", prefix)
	}

	spelling := prefix + ":" + local
	conj := p.takeConjectural()
	if conj {
		p.register(spelling)
		p.original = rdf.NewNamedNode(nsIRI + local)
	}
	if conj || p.registry.Contains(spelling) {
		_, shadowIRI, _ := p.ns.shadow(prefix, p.opts.ShadowPrefix, p.opts.ShadowMarker)
		return rdf.NewNamedNode(shadowIRI + local), nil
	}
	return rdf.NewNamedNode(nsIRI + local), nil
}

// parseLocalName reads the local part of a prefixed name. A trailing '.' is not part
// of the name and is pushed back.
func (p *Parser) parseLocalName() (string, error) {
	c := p.sc.Read()
	if !isNameStartChar(c) {
		p.sc.Unread(c)
		return "", nil
	}

	var local []rune
	trailingDots := 0
	for isNameChar(c) || (len(local) == 0 && isNameStartChar(c)) {
		if c == '\\' {
			esc, err := p.readLocalEscapedChar()
			if err != nil {
				return "", err
			}
			local = append(local, esc)
			trailingDots = 0
		} else {
			local = append(local, c)
			if c == '.' {
				trailingDots++
			} else {
				trailingDots = 0
			}
		}
		c = p.sc.Read()
	}

	p.sc.Unread(c)
	for i := 0; i < trailingDots; i++ {
		p.sc.Unread('.')
	}
	return string(local[:len(local)-trailingDots]), nil
}

func (p *Parser) readLocalEscapedChar() (rune, error) {
	c := p.sc.Read()
	if c == eof {
		return 0, p.eofError()
	}
	if !isLocalEscapedChar(c) {
		return 0, p.fatalf("found '%c', expected one of: _~.-!$&'()*+,;=/?#@%%", c)
	}
	return c, nil
}

// parseNodeID reads a _:label blank node
func (p *Parser) parseNodeID() (rdf.Term, error) {
	if err := p.verify(p.sc.Read(), "_"); err != nil {
		return nil, err
	}
	if err := p.verify(p.sc.Read(), ":"); err != nil {
		return nil, err
	}

	c := p.sc.Read()
	if c == eof {
		return nil, p.eofError()
	}
	suppress := false
	if !isBlankNodeLabelStartChar(c) {
		suppress = p.reportViolation(ClassBlankNodeLabel, "Expected a letter, found '%c'", c)
	}

	name := []rune{c}
	trailingDots := 0
	c = p.sc.Read()
	for isBlankNodeLabelChar(c) {
		name = append(name, c)
		if c == '.' {
			trailingDots++
		} else {
			trailingDots = 0
		}
		c = p.sc.Read()
	}
	// '.' is a legal label char, but can not appear at the end
	p.sc.Unread(c)
	for i := 0; i < trailingDots; i++ {
		p.sc.Unread('.')
	}
	label := string(name[:len(name)-trailingDots])
	if suppress {
		return nil, nil
	}

	spelling := "_:" + label
	conj := p.takeConjectural()
	if conj {
		p.register(spelling)
		p.original = p.plainBlankNode(label)
	}
	if conj || p.registry.Contains(spelling) {
		return p.labelledBlankNode(p.opts.ShadowPrefix + label), nil
	}
	return p.plainBlankNode(label), nil
}

// plainBlankNode maps a label that is not conjectural. Labels spelled like a shadow label
// are moved into the session scope so they never merge with a conjectural blank node.
func (p *Parser) plainBlankNode(label string) *rdf.BlankNode {
	if prefix := p.opts.ShadowPrefix; prefix != "" && strings.HasPrefix(label, prefix) {
		return rdf.NewBlankNode("genid-" + p.sessionID + "-" + label)
	}
	return p.labelledBlankNode(label)
}
