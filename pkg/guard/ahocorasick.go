package guard

import "strings"

// Aho-Corasick multi-pattern automaton over literal seeds extracted from
// pattern regex sources, per §4.2 steps 1-3. No example repo in the
// retrieved corpus implements a failure-link automaton to ground this on
// (see DESIGN.md); this file is written directly from the specification's
// algorithm description using only the standard library.

type acNode struct {
	children map[rune]*acNode
	fail     *acNode
	output   map[string]struct{} // pattern IDs terminating or inherited via failure chain
}

func newACNode() *acNode {
	return &acNode{children: make(map[rune]*acNode), output: make(map[string]struct{})}
}

// ahoCorasick is an immutable automaton; each node's output set carries the
// IDs of the patterns whose seeds end there.
type ahoCorasick struct {
	root *acNode
}

// metaRunes are regex metacharacters stripped during seed extraction.
const metaRunes = `\.^$*+?()[]{}|/`

func stripMeta(source string) string {
	var b strings.Builder
	b.Grow(len(source))
	for _, r := range source {
		if strings.ContainsRune(metaRunes, r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// extractSeeds implements §4.2 step 1 for one pattern.
func extractSeeds(p Pattern) []string {
	cleaned := stripMeta(p.Regex)
	fields := strings.Fields(cleaned)
	seeds := make(map[string]struct{})
	for _, f := range fields {
		if len(f) >= 3 {
			seeds[strings.ToLower(f)] = struct{}{}
		}
	}
	if p.Severity == SeverityCritical {
		full := strings.ToLower(strings.TrimSpace(strings.Join(fields, "")))
		if len(full) >= 5 {
			seeds[full] = struct{}{}
		}
	}
	out := make([]string, 0, len(seeds))
	for s := range seeds {
		out = append(out, s)
	}
	return out
}

// buildAutomaton builds the trie, computes failure links by BFS, and
// propagates output sets along the failure chain, per §4.2 step 2.
func buildAutomaton(patterns []compiledPattern) *ahoCorasick {
	root := newACNode()

	for _, cp := range patterns {
		for _, seed := range extractSeeds(cp.Pattern) {
			node := root
			for _, r := range seed {
				child, ok := node.children[r]
				if !ok {
					child = newACNode()
					node.children[r] = child
				}
				node = child
			}
			node.output[cp.ID] = struct{}{}
		}
	}

	// BFS to compute failure links.
	queue := make([]*acNode, 0)
	root.fail = root
	for _, child := range root.children {
		child.fail = root
		queue = append(queue, child)
	}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for r, child := range node.children {
			queue = append(queue, child)
			failNode := node.fail
			for failNode != root {
				if next, ok := failNode.children[r]; ok {
					child.fail = next
					break
				}
				failNode = failNode.fail
			}
			if child.fail == nil {
				if next, ok := root.children[r]; ok && next != child {
					child.fail = next
				} else {
					child.fail = root
				}
			}
			for id := range child.fail.output {
				child.output[id] = struct{}{}
			}
		}
	}

	return &ahoCorasick{root: root}
}

// acCandidate is a raw hit from the automaton scan, prior to regex
// verification.
type acCandidate struct {
	patternID string
	endIndex  int // rune index, exclusive, into the lowercased scan text
}

// scan walks lowered rune-by-rune, following failure links on mismatch, and
// collects one candidate per (node, pattern) with non-empty output, per
// §4.2 step 3.
func (a *ahoCorasick) scan(lowered []rune) []acCandidate {
	var candidates []acCandidate
	node := a.root
	for i, r := range lowered {
		for node != a.root {
			if _, ok := node.children[r]; ok {
				break
			}
			node = node.fail
		}
		if child, ok := node.children[r]; ok {
			node = child
		} else {
			node = a.root
		}
		if len(node.output) > 0 {
			for id := range node.output {
				candidates = append(candidates, acCandidate{patternID: id, endIndex: i + 1})
			}
		}
	}
	return candidates
}
