package store

import (
	"fmt"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// Pattern is a quad pattern. A nil position matches any term; a DefaultGraph
// Graph selects the statements outside named graphs.
type Pattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Graph     rdf.Term
}

// QuadIterator iterates over quads matching a pattern
type QuadIterator interface {
	Next() bool
	Quad() (*rdf.Quad, error)
	Close() error
}

// Match scans the best index for pattern and returns the matching quads
func (s *QuadStore) Match(pattern *Pattern) (QuadIterator, error) {
	if pattern == nil {
		pattern = &Pattern{}
	}
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}

	bound, err := s.encodePattern(pattern)
	if err != nil {
		_ = txn.Rollback() // #nosec G104 - rollback error less important than original error
		return nil, err
	}

	table, keyPattern := selectIndex(bound)
	prefix := buildScanPrefix(bound, keyPattern)

	it, err := txn.Scan(table, prefix, nil)
	if err != nil {
		_ = txn.Rollback() // #nosec G104 - rollback error less important than original error
		return nil, err
	}

	return &quadIterator{
		store:      s,
		txn:        txn,
		it:         it,
		bound:      bound,
		keyPattern: keyPattern,
	}, nil
}

// MatchAll collects every quad matching pattern
func (s *QuadStore) MatchAll(pattern *Pattern) ([]*rdf.Quad, error) {
	it, err := s.Match(pattern)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var quads []*rdf.Quad
	for it.Next() {
		q, err := it.Quad()
		if err != nil {
			return nil, err
		}
		quads = append(quads, q)
	}
	return quads, nil
}

// encodePattern encodes the bound positions of a pattern in S, P, O, G order
func (s *QuadStore) encodePattern(pattern *Pattern) ([4]*EncodedTerm, error) {
	var bound [4]*EncodedTerm
	for i, term := range []rdf.Term{pattern.Subject, pattern.Predicate, pattern.Object, pattern.Graph} {
		if term == nil {
			continue
		}
		enc, _, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return bound, err
		}
		bound[i] = &enc
	}
	return bound, nil
}

// selectIndex chooses the index whose key order puts the most bound positions first.
// KeyPattern maps key position -> SPOG position (S=0, P=1, O=2, G=3).
func selectIndex(bound [4]*EncodedTerm) (Table, []int) {
	sBound := bound[0] != nil
	pBound := bound[1] != nil
	oBound := bound[2] != nil
	gBound := bound[3] != nil

	switch {
	case sBound && pBound:
		return TableSPOG, []int{0, 1, 2, 3} // Key order: S, P, O, G
	case pBound && oBound:
		return TablePOSG, []int{1, 2, 0, 3} // Key order: P, O, S, G
	case oBound && sBound:
		return TableOSPG, []int{2, 0, 1, 3} // Key order: O, S, P, G
	case gBound:
		return TableGSPO, []int{3, 0, 1, 2} // Key order: G, S, P, O
	case sBound:
		return TableSPOG, []int{0, 1, 2, 3}
	case pBound:
		return TablePOSG, []int{1, 2, 0, 3}
	case oBound:
		return TableOSPG, []int{2, 0, 1, 3}
	}
	return TableSPOG, []int{0, 1, 2, 3}
}

// buildScanPrefix concatenates the bound terms in key order up to the first unbound one
func buildScanPrefix(bound [4]*EncodedTerm, keyPattern []int) []byte {
	var prefix []byte
	for _, idx := range keyPattern {
		if bound[idx] == nil {
			break
		}
		prefix = append(prefix, bound[idx][:]...)
	}
	return prefix
}

// quadIterator implements QuadIterator
type quadIterator struct {
	store      *QuadStore
	txn        Transaction
	it         Iterator
	bound      [4]*EncodedTerm
	keyPattern []int
	current    [4]EncodedTerm
	closed     bool
}

// Next advances to the next key matching every bound position. Positions that
// are not part of the scan prefix are checked here.
func (qi *quadIterator) Next() bool {
	if qi.closed {
		return false
	}
	for qi.it.Next() {
		key := qi.it.Key()
		if len(key) < len(qi.keyPattern)*EncodedTermSize {
			continue
		}
		for i, idx := range qi.keyPattern {
			offset := i * EncodedTermSize
			copy(qi.current[idx][:], key[offset:offset+EncodedTermSize])
		}
		if qi.matches() {
			return true
		}
	}
	return false
}

func (qi *quadIterator) matches() bool {
	for i, b := range qi.bound {
		if b != nil && *b != qi.current[i] {
			return false
		}
	}
	return true
}

func (qi *quadIterator) Quad() (*rdf.Quad, error) {
	if qi.closed {
		return nil, fmt.Errorf("iterator closed")
	}

	var terms [4]rdf.Term
	names := [4]string{"subject", "predicate", "object", "graph"}
	for i := range qi.current {
		term, err := qi.store.decodeTerm(qi.txn, qi.current[i])
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", names[i], err)
		}
		terms[i] = term
	}

	return rdf.NewQuad(terms[0], terms[1], terms[2], terms[3]), nil
}

func (qi *quadIterator) Close() error {
	if qi.closed {
		return nil
	}
	qi.closed = true
	_ = qi.it.Close() // #nosec G104 - iterator close error less critical than transaction rollback error
	return qi.txn.Rollback()
}
