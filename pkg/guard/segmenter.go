package guard

import (
	"regexp"
	"strings"
)

// markerPattern is a single combined regex (one alternation of named
// groups) so detection costs one O(n) scan rather than O(n·k) across k
// marker kinds, per the design notes in §9.
var markerPattern = regexp.MustCompile(
	`(?i)(?P<sys1>#\s*system\s*[:\]])` +
		`|(?P<sys2>\[\s*inst\s*\])` +
		`|(?P<sys3>\[\s*instruction\s*\])` +
		`|(?P<sys4>\[\s*system\s*\])` +
		`|(?P<sys5><\|im_start\|>)` +
		`|(?P<sys6><\|system\|>)` +
		`|(?P<usr1><\|user\|>)` +
		`|(?P<usr2><\|human\|>)` +
		`|(?P<tool1>` + "```[\\s\\S]*?```" + `)` +
		`|(?P<tool2>\[\s*tool_output\s*\])`,
)

// markerPostTrust maps a matched named group to the trust level that
// applies to text *after* that marker.
var markerPostTrust = map[string]TrustLevel{
	"sys1": TrustSystem, "sys2": TrustSystem, "sys3": TrustSystem,
	"sys4": TrustSystem, "sys5": TrustSystem, "sys6": TrustSystem,
	"usr1": TrustUser, "usr2": TrustUser,
	"tool1": TrustToolOutput, "tool2": TrustToolOutput,
}

type markerHit struct {
	start, end int
	postTrust  TrustLevel
}

func findMarkers(text string) []markerHit {
	names := markerPattern.SubexpNames()
	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	hits := make([]markerHit, 0, len(matches))
	for _, m := range matches {
		for gi := 1; gi < len(names); gi++ {
			if names[gi] == "" {
				continue
			}
			s, e := m[2*gi], m[2*gi+1]
			if s < 0 {
				continue
			}
			hits = append(hits, markerHit{start: s, end: e, postTrust: markerPostTrust[names[gi]]})
			break
		}
	}
	return hits
}

// Segment splits normalized text into ordered, trust-tagged TrustSegments,
// per §4.3.
func Segment(text string, defaultTrust TrustLevel) []TrustSegment {
	hits := findMarkers(text)
	if len(hits) == 0 {
		return []TrustSegment{{Content: text, Trust: defaultTrust, Risk: 0, Source: SourceSingleSegment}}
	}

	var segments []TrustSegment
	current := defaultTrust
	pos := 0
	for _, h := range hits {
		if h.start > pos {
			segments = append(segments, TrustSegment{
				Content: text[pos:h.start],
				Trust:   current,
				Risk:    0,
				Source:  SourceSegmentation,
			})
		}
		segments = append(segments, TrustSegment{
			Content: text[h.start:h.end],
			Trust:   TrustUntrusted,
			Risk:    80,
			Source:  SourceContextMarker,
		})
		current = h.postTrust
		pos = h.end
	}
	if pos < len(text) {
		segments = append(segments, TrustSegment{
			Content: text[pos:],
			Trust:   current,
			Risk:    0,
			Source:  SourceSegmentation,
		})
	}

	return mergeSegments(segments)
}

// mergeSegments implements the §4.3 merging pass: adjacent segments with
// equal trust, same source, and both risk < 50 are concatenated with a
// single space.
func mergeSegments(segments []TrustSegment) []TrustSegment {
	if len(segments) < 2 {
		return segments
	}
	out := make([]TrustSegment, 0, len(segments))
	out = append(out, segments[0])
	for _, seg := range segments[1:] {
		last := &out[len(out)-1]
		if last.Trust == seg.Trust && last.Source == seg.Source && last.Risk < 50 && seg.Risk < 50 {
			last.Content = last.Content + " " + seg.Content
			if last.Metadata == nil {
				last.Metadata = map[string]string{}
			}
			last.Metadata["merged"] = "true"
			continue
		}
		out = append(out, seg)
	}
	return out
}

// TrustMixingRisk inspects a segment list and computes the additive
// trust-mixing contribution, per §4.3.
func TrustMixingRisk(segments []TrustSegment) int {
	if len(segments) == 0 {
		return 0
	}

	var risk int
	trustsPresent := make(map[TrustLevel]struct{})
	for _, s := range segments {
		trustsPresent[s.Trust] = struct{}{}
	}

	_, hasSystem := trustsPresent[TrustSystem]
	_, hasUntrusted := trustsPresent[TrustUntrusted]
	if hasSystem && hasUntrusted {
		risk += 30
	}
	if len(trustsPresent) > 3 {
		risk += 20
	}
	for _, s := range segments {
		if s.Source == SourceContextMarker && s.Risk >= 50 {
			risk += 40
			break
		}
	}

	inverted := false
	for i := 1; i < len(segments); i++ {
		if segments[i].Trust.rank() < segments[i-1].Trust.rank() {
			inverted = true
			break
		}
	}
	if inverted {
		risk += 25
	}

	if risk > 100 {
		risk = 100
	}
	return risk
}

// ConcatSegments reproduces the text a segment list was built from.
func ConcatSegments(segments []TrustSegment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Content)
	}
	return b.String()
}
