package trig

import (
	"log/slog"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// settlement is the pending confirmation of the SETT block being parsed
type settlement struct {
	original rdf.Term // graph name as written, before shadow rewriting
	shadow   rdf.Term // conjectural form, the context of the block's statements
}

// reportStatement emits a statement in the active context and clears the accumulated object
func (p *Parser) reportStatement(subject, predicate, object rdf.Term) error {
	defer func() { p.object = nil }()

	if err := p.emit(subject, predicate, object, p.context); err != nil {
		return err
	}
	if s := p.settle; s != nil && p.opts.MirrorSettlements && !s.original.Equals(s.shadow) {
		return p.emit(subject, predicate, object, s.original)
	}
	return nil
}

func (p *Parser) emit(subject, predicate, object, graph rdf.Term) error {
	q := rdf.NewQuad(subject, predicate, object, graph)
	p.stats.Statements++
	if p.handler == nil {
		return nil
	}
	if err := p.handler.HandleStatement(q); err != nil {
		return p.fatalErr(err, "statement handler failed")
	}
	return nil
}

// settlesPredicate is conj:settles, using the input's own "conj" namespace when declared
func (p *Parser) settlesPredicate() *rdf.NamedNode {
	ns, ok := p.ns.Get(ConjPrefix)
	if !ok {
		ns = p.opts.ConjNamespace
	}
	return rdf.NewNamedNode(ns + "settles")
}

// emitSettlement emits (original, conj:settles, shadow) in the original graph and clears the context
func (p *Parser) emitSettlement() error {
	s := p.settle
	p.settle = nil

	p.context = s.original
	err := p.emit(s.original, p.settlesPredicate(), s.shadow, p.context)
	p.context = nil
	if err != nil {
		return err
	}
	p.stats.Settlements++
	p.logger.Debug("settlement",
		slog.String("original", s.original.String()),
		slog.String("shadow", s.shadow.String()))
	return nil
}
