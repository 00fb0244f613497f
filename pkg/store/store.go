package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// QuadStore keeps parsed statements in a key-value Storage with four quad indexes.
// Statements of the default graph are stored under the encoded DefaultGraph term.
type QuadStore struct {
	storage Storage
	encoder TermEncoder
	decoder TermDecoder
}

// NewQuadStore creates a quad store over storage
func NewQuadStore(storage Storage, encoder TermEncoder, decoder TermDecoder) *QuadStore {
	return &QuadStore{
		storage: storage,
		encoder: encoder,
		decoder: decoder,
	}
}

// Close closes the underlying storage
func (s *QuadStore) Close() error {
	return s.storage.Close()
}

// Sync makes committed statements durable
func (s *QuadStore) Sync() error {
	return s.storage.Sync()
}

// InsertQuad inserts a quad into the store
func (s *QuadStore) InsertQuad(quad *rdf.Quad) error {
	_, err := s.InsertQuadsBatch([]*rdf.Quad{quad})
	return err
}

// InsertQuadsBatch inserts quads in a single transaction. It returns the number of quads
// that were not already present.
func (s *QuadStore) InsertQuadsBatch(quads []*rdf.Quad) (int, error) {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback() // #nosec G104 - no-op after a successful commit

	added := 0
	for _, quad := range quads {
		ok, err := s.insertQuadInTxn(txn, quad)
		if err != nil {
			return 0, err
		}
		if ok {
			added++
		}
	}

	if err := txn.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return added, nil
}

type encodedQuad struct {
	s, p, o, g EncodedTerm
}

func (s *QuadStore) encodeQuad(quad *rdf.Quad, strings map[EncodedTerm]string) (encodedQuad, error) {
	var eq encodedQuad
	graph := quad.Graph
	if graph == nil {
		graph = rdf.NewDefaultGraph()
	}

	positions := []struct {
		name string
		term rdf.Term
		dst  *EncodedTerm
	}{
		{"subject", quad.Subject, &eq.s},
		{"predicate", quad.Predicate, &eq.p},
		{"object", quad.Object, &eq.o},
		{"graph", graph, &eq.g},
	}
	for _, pos := range positions {
		enc, str, err := s.encoder.EncodeTerm(pos.term)
		if err != nil {
			return eq, fmt.Errorf("failed to encode %s: %w", pos.name, err)
		}
		*pos.dst = enc
		if str != nil && strings != nil {
			strings[enc] = *str
		}
	}
	return eq, nil
}

// insertQuadInTxn inserts a quad within an existing transaction and reports whether it was new
func (s *QuadStore) insertQuadInTxn(txn Transaction, quad *rdf.Quad) (bool, error) {
	strs := make(map[EncodedTerm]string, 4)
	eq, err := s.encodeQuad(quad, strs)
	if err != nil {
		return false, err
	}

	spog := s.encoder.EncodeQuadKey(eq.s, eq.p, eq.o, eq.g)
	if _, err := txn.Get(TableSPOG, spog); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	for enc, str := range strs {
		if err := s.storeString(txn, enc, str); err != nil {
			return false, err
		}
	}

	// Empty value for all index entries
	emptyValue := []byte{}
	if err := txn.Set(TableSPOG, spog, emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(TablePOSG, s.encoder.EncodeQuadKey(eq.p, eq.o, eq.s, eq.g), emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(TableOSPG, s.encoder.EncodeQuadKey(eq.o, eq.s, eq.p, eq.g), emptyValue); err != nil {
		return false, err
	}
	if err := txn.Set(TableGSPO, s.encoder.EncodeQuadKey(eq.g, eq.s, eq.p, eq.o), emptyValue); err != nil {
		return false, err
	}

	if rdf.TermType(eq.g[0]) != rdf.TermTypeDefaultGraph {
		if err := s.incrementGraph(txn, eq.g); err != nil {
			return false, err
		}
	}
	return true, nil
}

// DeleteQuadsBatch removes quads in a single transaction. It returns the number of quads
// that were present. Strings in the id2str table are left in place; other statements may share them.
func (s *QuadStore) DeleteQuadsBatch(quads []*rdf.Quad) (int, error) {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback() // #nosec G104 - no-op after a successful commit

	removed := 0
	for _, quad := range quads {
		ok, err := s.deleteQuadInTxn(txn, quad)
		if err != nil {
			return 0, err
		}
		if ok {
			removed++
		}
	}

	if err := txn.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return removed, nil
}

// deleteQuadInTxn removes a quad from every index and reports whether it was present
func (s *QuadStore) deleteQuadInTxn(txn Transaction, quad *rdf.Quad) (bool, error) {
	eq, err := s.encodeQuad(quad, nil)
	if err != nil {
		return false, err
	}

	spog := s.encoder.EncodeQuadKey(eq.s, eq.p, eq.o, eq.g)
	if _, err := txn.Get(TableSPOG, spog); errors.Is(err, ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	keys := []struct {
		table Table
		key   []byte
	}{
		{TableSPOG, spog},
		{TablePOSG, s.encoder.EncodeQuadKey(eq.p, eq.o, eq.s, eq.g)},
		{TableOSPG, s.encoder.EncodeQuadKey(eq.o, eq.s, eq.p, eq.g)},
		{TableGSPO, s.encoder.EncodeQuadKey(eq.g, eq.s, eq.p, eq.o)},
	}
	for _, k := range keys {
		if err := txn.Delete(k.table, k.key); err != nil {
			return false, err
		}
	}

	if rdf.TermType(eq.g[0]) != rdf.TermTypeDefaultGraph {
		if err := s.decrementGraph(txn, eq.g); err != nil {
			return false, err
		}
	}
	return true, nil
}

// incrementGraph tracks a named graph and the number of statements stored in it
func (s *QuadStore) incrementGraph(txn Transaction, graph EncodedTerm) error {
	var count uint64
	existing, err := txn.Get(TableGraphs, graph[:])
	switch {
	case err == nil && len(existing) == 8:
		count = binary.BigEndian.Uint64(existing)
	case err != nil && !errors.Is(err, ErrNotFound):
		return err
	}

	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, count+1)
	return txn.Set(TableGraphs, graph[:], value)
}

// decrementGraph lowers the statement count of a named graph and forgets the graph at zero
func (s *QuadStore) decrementGraph(txn Transaction, graph EncodedTerm) error {
	existing, err := txn.Get(TableGraphs, graph[:])
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var count uint64
	if len(existing) == 8 {
		count = binary.BigEndian.Uint64(existing)
	}
	if count <= 1 {
		return txn.Delete(TableGraphs, graph[:])
	}
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, count-1)
	return txn.Set(TableGraphs, graph[:], value)
}

// storeString stores a string in the id2str table
func (s *QuadStore) storeString(txn Transaction, encoded EncodedTerm, str string) error {
	// Use the encoded term (which contains the hash) as the key
	key := encoded[1:]
	value := []byte(str)

	// Check if already exists to avoid unnecessary writes
	existing, err := txn.Get(TableID2Str, key)
	if err == nil && bytes.Equal(existing, value) {
		return nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return txn.Set(TableID2Str, key, value)
}

// ContainsQuad checks if a quad exists in the store
func (s *QuadStore) ContainsQuad(quad *rdf.Quad) (bool, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	eq, err := s.encodeQuad(quad, nil)
	if err != nil {
		return false, err
	}

	_, err = txn.Get(TableSPOG, s.encoder.EncodeQuadKey(eq.s, eq.p, eq.o, eq.g))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of quads in the store
func (s *QuadStore) Count() (int64, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	it, err := txn.Scan(TableSPOG, nil, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := int64(0)
	for it.Next() {
		count++
	}
	return count, nil
}

// GraphInfo describes a named graph held by the store
type GraphInfo struct {
	Graph      rdf.Term
	Statements uint64
}

// Graphs lists the named graphs in the store, in key order
func (s *QuadStore) Graphs() ([]GraphInfo, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	it, err := txn.Scan(TableGraphs, nil, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var graphs []GraphInfo
	for it.Next() {
		var enc EncodedTerm
		copy(enc[:], it.Key())
		graph, err := s.decodeTerm(txn, enc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode graph: %w", err)
		}
		value, err := it.Value()
		if err != nil {
			return nil, err
		}
		info := GraphInfo{Graph: graph}
		if len(value) == 8 {
			info.Statements = binary.BigEndian.Uint64(value)
		}
		graphs = append(graphs, info)
	}
	return graphs, nil
}

// decodeTerm decodes an encoded term, looking up its string in the id2str table when needed
func (s *QuadStore) decodeTerm(txn Transaction, encoded EncodedTerm) (rdf.Term, error) {
	var stringValue *string
	str, err := txn.Get(TableID2Str, encoded[1:])
	switch {
	case err == nil:
		strVal := string(str)
		stringValue = &strVal
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return s.decoder.DecodeTerm(encoded, stringValue)
}
