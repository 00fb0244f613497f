// Package trig parses TriG documents extended with conjecture (CONJ) and settlement (SETT)
// graph blocks and streams the resulting statements to an rdf.Handler.
//
// A conjectural identifier is rewritten into a shadow namespace for the rest of the session,
// wherever it appears afterwards. A settlement block confirms a conjecture and produces one
// synthetic statement linking the original graph name to its shadow form.
//
// A Parser holds session state (namespaces, conjecture registry, active graph) and is not
// safe for concurrent use. Use one Parser per input stream.
package trig

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// Stats summarizes one parse session
type Stats struct {
	Statements  int64
	Conjectures int
	Settlements int64
	Violations  int64
}

// Parser is a TriG parser session with the conjecture/settlement extension
type Parser struct {
	opts    Options
	handler rdf.Handler
	logger  *slog.Logger

	sc       *Scanner
	ns       *Namespaces
	registry *Registry
	base     string

	sessionID string
	bnodeSeq  int

	// graph context of emitted statements, nil for the default graph
	context rdf.Term

	// conjectural is set while resolving a CONJ/SETT graph name: the next identifier
	// resolved is registered and returned in its shadow form
	conjectural bool
	// original is the non-shadow form of the last identifier resolved in conjectural mode
	original rdf.Term
	// settle holds the pending settlement of the SETT block being parsed
	settle *settlement

	subject   rdf.Term
	predicate rdf.Term
	object    rdf.Term

	stats  Stats
	failed error
}

// NewParser creates a parser that sends statements to handler
func NewParser(handler rdf.Handler, opts ...Option) *Parser {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Parser{
		opts:    o,
		handler: handler,
		logger:  o.Logger,
	}
}

// Parse reads a whole document from r. Each call starts a fresh session: namespaces,
// conjectures and blank node scope do not carry over from a previous call.
// A fatal error is returned as *ParseError and leaves the parser unusable.
func (p *Parser) Parse(ctx context.Context, r io.Reader) error {
	if p.failed != nil {
		return fmt.Errorf("%w: %v", ErrSessionFailed, p.failed)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p.reset(r)

	for {
		if err := ctx.Err(); err != nil {
			return p.fail(p.fatalErr(err, "parse canceled"))
		}
		c := p.sc.SkipWSC()
		if c == eof {
			break
		}
		if err := p.parseStatement(); err != nil {
			return p.fail(err)
		}
	}

	if err := p.sc.Err(); err != nil {
		return p.fail(p.fatalErr(err, "failed to read input"))
	}
	p.logger.Debug("parse finished",
		slog.String("session", p.sessionID),
		slog.Int64("statements", p.stats.Statements),
		slog.Int("conjectures", p.stats.Conjectures),
		slog.Int64("settlements", p.stats.Settlements))
	return nil
}

// ParseString is a convenience wrapper around Parse
func (p *Parser) ParseString(ctx context.Context, input string) error {
	return p.Parse(ctx, strings.NewReader(input))
}

// Stats returns counters of the current or last session
func (p *Parser) Stats() Stats {
	s := p.stats
	if p.registry != nil {
		s.Conjectures = p.registry.Len()
	}
	return s
}

// Conjectures returns the spellings registered as conjectural, in registration order
func (p *Parser) Conjectures() []string {
	if p.registry == nil {
		return nil
	}
	return p.registry.Spellings()
}

// Namespaces returns the prefix table of the current or last session, shadow aliases included
func (p *Parser) Namespaces() map[string]string {
	if p.ns == nil {
		return map[string]string{}
	}
	return p.ns.Map()
}

func (p *Parser) reset(r io.Reader) {
	p.sc = NewScanner(r)
	p.ns = NewNamespaces()
	p.registry = NewRegistry()
	p.base = p.opts.BaseIRI
	p.sessionID = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	p.bnodeSeq = 0
	p.context = nil
	p.conjectural = false
	p.original = nil
	p.settle = nil
	p.subject, p.predicate, p.object = nil, nil, nil
	p.stats = Stats{}
}

func (p *Parser) fail(err error) error {
	p.failed = err
	return err
}

// fatalf builds a fatal error at the current scanner position
func (p *Parser) fatalf(format string, args ...any) error {
	line, col := p.sc.Position()
	return &ParseError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) fatalErr(err error, msg string) error {
	line, col := p.sc.Position()
	return &ParseError{Line: line, Column: col, Msg: msg, Err: err}
}

func (p *Parser) eofError() error {
	if err := p.sc.Err(); err != nil {
		return p.fatalErr(err, "failed to read input")
	}
	return p.fatalErr(ErrUnexpectedEOF, ErrUnexpectedEOF.Error())
}

// reportViolation hands a recoverable violation to the configured callback, or logs it.
// It returns true when the class is enforced and the offending value must be suppressed.
func (p *Parser) reportViolation(class ViolationClass, format string, args ...any) bool {
	line, col := p.sc.Position()
	v := Violation{Class: class, Message: fmt.Sprintf(format, args...), Line: line, Column: col}
	p.stats.Violations++
	if p.opts.OnViolation != nil {
		p.opts.OnViolation(v)
		p.logger.Debug("violation", slog.String("class", string(class)), slog.String("message", v.Message),
			slog.Int("line", line), slog.Int("column", col))
	} else {
		p.logger.Warn("violation", slog.String("class", string(class)), slog.String("message", v.Message),
			slog.Int("line", line), slog.Int("column", col))
	}
	return p.opts.Enforced[class]
}

// verify consumes nothing; it fails unless c is one of expected
func (p *Parser) verify(c rune, expected string) error {
	if c == eof {
		return p.eofError()
	}
	if !strings.ContainsRune(expected, c) {
		var want strings.Builder
		for i, e := range expected {
			if i > 0 {
				want.WriteString(" or ")
			}
			fmt.Fprintf(&want, "'%c'", e)
		}
		return p.fatalf("Expected %s, found '%c'", want.String(), c)
	}
	return nil
}

// newBlankNode creates a fresh blank node unique to this session
func (p *Parser) newBlankNode() *rdf.BlankNode {
	p.bnodeSeq++
	return rdf.NewBlankNode(fmt.Sprintf("genid-%s-%d", p.sessionID, p.bnodeSeq))
}

// labelledBlankNode maps a label written in the input to its blank node
func (p *Parser) labelledBlankNode(label string) *rdf.BlankNode {
	if p.opts.ScopeBlankNodes {
		return rdf.NewBlankNode(p.sessionID + "-" + label)
	}
	return rdf.NewBlankNode(label)
}
