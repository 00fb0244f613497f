package trig

// Registry records the spellings of identifiers marked conjectural during a session.
// Entries are never removed: once a spelling is registered, every later occurrence of it
// resolves to its shadow form.
//
// Spellings are kept exactly as written: "<iri text>", "prefix:local" or "_:label".
type Registry struct {
	seen  map[string]struct{}
	order []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// Register adds spelling and reports whether it was not registered before.
func (r *Registry) Register(spelling string) bool {
	if _, ok := r.seen[spelling]; ok {
		return false
	}
	r.seen[spelling] = struct{}{}
	r.order = append(r.order, spelling)
	return true
}

// Contains reports whether spelling is conjectural
func (r *Registry) Contains(spelling string) bool {
	_, ok := r.seen[spelling]
	return ok
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Spellings returns the registered spellings in registration order
func (r *Registry) Spellings() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
