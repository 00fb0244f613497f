package rdf

// Handler receives statements from a parser, one call per completed triple,
// synchronously and in input order. Returning an error aborts the parse.
type Handler interface {
	HandleStatement(q *Quad) error
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(q *Quad) error

// HandleStatement calls the underlying function.
func (f HandlerFunc) HandleStatement(q *Quad) error { return f(q) }

// Collector is an in-memory graph builder that keeps every statement it receives.
type Collector struct {
	Quads []*Quad
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) HandleStatement(q *Quad) error {
	c.Quads = append(c.Quads, q)
	return nil
}

// Graph returns the statements whose context equals graph. A nil graph selects the default graph.
func (c *Collector) Graph(graph Term) []*Quad {
	var result []*Quad
	for _, q := range c.Quads {
		if graph == nil || graph.Type() == TermTypeDefaultGraph {
			if q.InDefaultGraph() {
				result = append(result, q)
			}
			continue
		}
		if !q.InDefaultGraph() && q.Graph.Equals(graph) {
			result = append(result, q)
		}
	}
	return result
}

// Tee forwards each statement to every handler in order, stopping at the first error.
func Tee(handlers ...Handler) Handler {
	return HandlerFunc(func(q *Quad) error {
		for _, h := range handlers {
			if err := h.HandleStatement(q); err != nil {
				return err
			}
		}
		return nil
	})
}
