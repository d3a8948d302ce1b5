package guard

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// matchOptions configures one Match call; zero value means "no filter, no
// cap".
type matchOptions struct {
	SeverityFilter map[Severity]struct{}
	MaxMatches     int
}

// verifyWindow is the ±character radius around a candidate's end position
// used for regex verification, per §4.2 step 4.
const verifyWindow = 50

// Match runs the compiled matcher over text and returns all verified,
// deduplicated PatternMatch occurrences, per §4.2.
func (cs *CompiledSet) Match(text string, opts matchOptions) []PatternMatch {
	if text == "" || len(cs.patterns) == 0 {
		return nil
	}

	var raw []PatternMatch
	if cs.bypassedAC {
		raw = cs.matchRegexOnly(text)
	} else {
		raw = cs.matchWithAutomaton(text)
	}

	raw = dedupMatches(raw)
	raw = filterAndCap(raw, opts)

	sort.Slice(raw, func(i, j int) bool {
		if raw[i].Index != raw[j].Index {
			return raw[i].Index < raw[j].Index
		}
		return raw[i].Severity.rank() > raw[j].Severity.rank()
	})
	return raw
}

// matchRegexOnly is the small-set bypass path: AC construction cost
// dominates at or below bypassACThreshold patterns, so each regex runs directly.
func (cs *CompiledSet) matchRegexOnly(text string) []PatternMatch {
	var out []PatternMatch
	for _, cp := range cs.patterns {
		for _, loc := range cp.re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if start == end {
				continue // zero-width matches discarded
			}
			out = append(out, PatternMatch{
				PatternID:  cp.ID,
				Index:      start,
				Length:     end - start,
				Matched:    text[start:end],
				Severity:   cp.Severity,
				Category:   cp.Category,
				Confidence: cp.Weight,
			})
		}
	}
	return out
}

// matchWithAutomaton is the AC-seed-scan-then-regex-verify path.
func (cs *CompiledSet) matchWithAutomaton(text string) []PatternMatch {
	runes := []rune(text)
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = toLowerRune(r)
	}

	byID := make(map[string]compiledPattern, len(cs.patterns))
	for _, cp := range cs.patterns {
		byID[cp.ID] = cp
	}

	candidates := cs.automaton.scan(lowered)
	var out []PatternMatch
	for _, c := range candidates {
		cp, ok := byID[c.patternID]
		if !ok {
			continue
		}
		m, ok := verifyCandidate(runes, c, cp)
		if !ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// verifyCandidate re-runs the original regex on a bounded window around the
// candidate's end position and translates a hit back into absolute
// coordinates, per §4.2 step 4.
func verifyCandidate(runes []rune, c acCandidate, cp compiledPattern) (PatternMatch, bool) {
	lo := c.endIndex - verifyWindow
	if lo < 0 {
		lo = 0
	}
	hi := c.endIndex + verifyWindow
	if hi > len(runes) {
		hi = len(runes)
	}
	window := string(runes[lo:hi])

	loc := cp.re.FindStringIndex(window)
	if loc == nil {
		return PatternMatch{}, false
	}
	if loc[0] == loc[1] {
		return PatternMatch{}, false // zero-width
	}

	startRune := lo + utf8.RuneCountInString(window[:loc[0]])
	matched := window[loc[0]:loc[1]]
	length := utf8.RuneCountInString(matched)

	return PatternMatch{
		PatternID:  cp.ID,
		Index:      startRune,
		Length:     length,
		Matched:    matched,
		Severity:   cp.Severity,
		Category:   cp.Category,
		Confidence: cp.Weight,
	}, true
}

func toLowerRune(r rune) rune {
	return []rune(strings.ToLower(string(r)))[0]
}

// dedupMatches removes duplicate (pattern_id, index, matched) triples, per
// §4.2 step 5.
func dedupMatches(matches []PatternMatch) []PatternMatch {
	seen := make(map[string]struct{}, len(matches))
	out := make([]PatternMatch, 0, len(matches))
	for _, m := range matches {
		key := m.PatternID + "\x00" + itoa(m.Index) + "\x00" + m.Matched
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

// filterAndCap applies the optional severity filter and max_matches cap,
// per §4.2 step 6.
func filterAndCap(matches []PatternMatch, opts matchOptions) []PatternMatch {
	if len(opts.SeverityFilter) > 0 {
		filtered := make([]PatternMatch, 0, len(matches))
		for _, m := range matches {
			if _, ok := opts.SeverityFilter[m.Severity]; ok {
				filtered = append(filtered, m)
			}
		}
		matches = filtered
	}
	if opts.MaxMatches <= 0 || len(matches) <= opts.MaxMatches {
		return matches
	}
	ordered := append([]PatternMatch(nil), matches...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Severity.rank() != ordered[j].Severity.rank() {
			return ordered[i].Severity.rank() > ordered[j].Severity.rank()
		}
		return ordered[i].Confidence > ordered[j].Confidence
	})
	return ordered[:opts.MaxMatches]
}
