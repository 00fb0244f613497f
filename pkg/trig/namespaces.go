package trig

import "strconv"

// Namespaces maps prefixes to namespace IRIs. The empty prefix is the default namespace.
type Namespaces struct {
	m map[string]string
	// shadows holds the shadow alias of each prefix that had a conjectural member
	shadows map[string]shadowNamespace
}

type shadowNamespace struct {
	alias string
	iri   string
}

func NewNamespaces() *Namespaces {
	return &Namespaces{
		m:       make(map[string]string),
		shadows: make(map[string]shadowNamespace),
	}
}

// Set declares prefix. A shadow alias spelled like prefix is moved to a free name.
func (n *Namespaces) Set(prefix, iri string) {
	n.m[prefix] = iri
	for p, s := range n.shadows {
		if s.alias == prefix {
			s.alias = n.freeAlias(prefix)
			n.shadows[p] = s
		}
	}
}

func (n *Namespaces) Get(prefix string) (string, bool) {
	iri, ok := n.m[prefix]
	return iri, ok
}

// Map returns a copy of the prefix table, shadow aliases included
func (n *Namespaces) Map() map[string]string {
	out := make(map[string]string, len(n.m)+len(n.shadows))
	for k, v := range n.m {
		out[k] = v
	}
	for _, s := range n.shadows {
		out[s.alias] = s.iri
	}
	return out
}

// shadow returns the alias and IRI holding conjectural members of prefix, creating them
// on first use. The alias is aliasPrefix+prefix, or a numbered variant when the input
// declares that name itself, and maps to marker+ns(prefix).
func (n *Namespaces) shadow(prefix, aliasPrefix, marker string) (alias, iri string, ok bool) {
	if s, ok := n.shadows[prefix]; ok {
		return s.alias, s.iri, true
	}
	ns, ok := n.m[prefix]
	if !ok {
		return "", "", false
	}
	s := shadowNamespace{alias: n.freeAlias(aliasPrefix + prefix), iri: marker + ns}
	n.shadows[prefix] = s
	return s.alias, s.iri, true
}

func (n *Namespaces) freeAlias(name string) string {
	for i := 1; ; i++ {
		candidate := name
		if i > 1 {
			candidate = name + strconv.Itoa(i)
		}
		if !n.taken(candidate) {
			return candidate
		}
	}
}

func (n *Namespaces) taken(name string) bool {
	if _, ok := n.m[name]; ok {
		return true
	}
	for _, s := range n.shadows {
		if s.alias == name {
			return true
		}
	}
	return false
}
