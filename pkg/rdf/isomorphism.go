package rdf

import (
	"sort"
	"strings"
)

// Isomorphic reports whether two statement sets are equal up to a renaming of
// blank nodes, graph names included. Generated blank node labels differ between
// parse sessions, so outputs of two sessions are compared with this.
func Isomorphic(expected, actual []*Quad) bool {
	if len(expected) != len(actual) {
		return false
	}

	expectedBlanks := blankNodeLabels(expected)
	actualBlanks := blankNodeLabels(actual)
	if len(expectedBlanks) != len(actualBlanks) {
		return false
	}

	actualSet := make(map[string]bool, len(actual))
	for _, q := range actual {
		actualSet[quadKey(q, nil)] = true
	}

	if len(expectedBlanks) == 0 {
		return verifyMapping(expected, actualSet, nil)
	}

	// Matching highly connected nodes first prunes the search early
	expectedBlanks = sortByDegree(expectedBlanks, expected)
	actualBlanks = sortByDegree(actualBlanks, actual)

	return backtrack(expected, actualSet, expectedBlanks, actualBlanks, map[string]string{}, map[string]bool{}, 0)
}

// blankNodeLabels returns the sorted distinct blank node labels of quads
func blankNodeLabels(quads []*Quad) []string {
	blanks := make(map[string]bool)
	for _, q := range quads {
		for _, t := range []Term{q.Subject, q.Object, q.Graph} {
			if b, ok := t.(*BlankNode); ok {
				blanks[b.ID] = true
			}
		}
	}

	result := make([]string, 0, len(blanks))
	for label := range blanks {
		result = append(result, label)
	}
	sort.Strings(result)
	return result
}

// sortByDegree orders blank nodes by the number of positions they occupy, descending
func sortByDegree(blanks []string, quads []*Quad) []string {
	degrees := make(map[string]int, len(blanks))
	for _, q := range quads {
		for _, t := range []Term{q.Subject, q.Object, q.Graph} {
			if b, ok := t.(*BlankNode); ok {
				degrees[b.ID]++
			}
		}
	}

	sort.SliceStable(blanks, func(i, j int) bool {
		return degrees[blanks[i]] > degrees[blanks[j]]
	})
	return blanks
}

func backtrack(expected []*Quad, actualSet map[string]bool, expectedBlanks, actualBlanks []string,
	mapping map[string]string, usedTargets map[string]bool, index int) bool {

	if index == len(expectedBlanks) {
		return verifyMapping(expected, actualSet, mapping)
	}

	current := expectedBlanks[index]
	for _, candidate := range actualBlanks {
		if usedTargets[candidate] {
			continue
		}

		mapping[current] = candidate
		usedTargets[candidate] = true

		if consistentSoFar(expected, actualSet, mapping) &&
			backtrack(expected, actualSet, expectedBlanks, actualBlanks, mapping, usedTargets, index+1) {
			return true
		}

		delete(mapping, current)
		delete(usedTargets, candidate)
	}
	return false
}

// consistentSoFar checks every expected quad whose blank nodes are all mapped
func consistentSoFar(expected []*Quad, actualSet map[string]bool, mapping map[string]string) bool {
	for _, q := range expected {
		if isMapped(q.Subject, mapping) && isMapped(q.Object, mapping) && isMapped(q.Graph, mapping) {
			if !actualSet[quadKey(q, mapping)] {
				return false
			}
		}
	}
	return true
}

func isMapped(term Term, mapping map[string]string) bool {
	if b, ok := term.(*BlankNode); ok {
		_, exists := mapping[b.ID]
		return exists
	}
	return true
}

// verifyMapping checks that the mapped expected set equals the actual set
func verifyMapping(expected []*Quad, actualSet map[string]bool, mapping map[string]string) bool {
	expectedMapped := make(map[string]bool, len(expected))
	for _, q := range expected {
		key := quadKey(q, mapping)
		if !actualSet[key] {
			return false
		}
		expectedMapped[key] = true
	}
	return len(expectedMapped) == len(actualSet)
}

// quadKey renders a quad as a string, renaming blank nodes through mapping
func quadKey(q *Quad, mapping map[string]string) string {
	var b strings.Builder
	b.WriteString(termKey(q.Subject, mapping))
	b.WriteByte('|')
	b.WriteString(termKey(q.Predicate, mapping))
	b.WriteByte('|')
	b.WriteString(termKey(q.Object, mapping))
	b.WriteByte('|')
	if !q.InDefaultGraph() {
		b.WriteString(termKey(q.Graph, mapping))
	}
	return b.String()
}

func termKey(term Term, mapping map[string]string) string {
	if bn, ok := term.(*BlankNode); ok && mapping != nil {
		if mapped, exists := mapping[bn.ID]; exists {
			return "_:" + mapped
		}
	}
	return FormatTerm(term)
}
