package store

import (
	"github.com/aleksaelezovic/conjtrig/pkg/rdf"
)

// DefaultBatchSize is the number of statements a Loader buffers before writing them
const DefaultBatchSize = 1000

// Loader is an rdf.Handler that writes statements into a QuadStore in batches.
// Call Flush after the parse to write the remaining statements.
type Loader struct {
	store     *QuadStore
	batchSize int
	batch     []*rdf.Quad
	added     int
	seen      int
}

// NewLoader creates a loader writing into store. A batchSize <= 0 uses DefaultBatchSize.
func NewLoader(store *QuadStore, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{
		store:     store,
		batchSize: batchSize,
		batch:     make([]*rdf.Quad, 0, batchSize),
	}
}

func (l *Loader) HandleStatement(q *rdf.Quad) error {
	l.batch = append(l.batch, q)
	l.seen++
	if len(l.batch) >= l.batchSize {
		return l.Flush()
	}
	return nil
}

// Flush writes the buffered statements
func (l *Loader) Flush() error {
	if len(l.batch) == 0 {
		return nil
	}
	added, err := l.store.InsertQuadsBatch(l.batch)
	if err != nil {
		return err
	}
	l.added += added
	l.batch = l.batch[:0]
	return nil
}

// Added returns the number of statements that were new to the store
func (l *Loader) Added() int {
	return l.added
}

// Seen returns the number of statements received
func (l *Loader) Seen() int {
	return l.seen
}
