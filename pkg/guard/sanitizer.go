package guard

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/awnumar/memguard"
)

// compiledRule pairs a SanitizeRule with its compiled regex.
type compiledRule struct {
	SanitizeRule
	re *regexp.Regexp
}

// markerTokenPattern matches any sanitizer-generated marker token, used to
// carve out already-sanitized spans before a second pass, enforcing the
// idempotence requirement of §4.5.
var markerTokenPattern = regexp.MustCompile(
	`\[REDACTED(?::[a-zA-Z_]+)?\]|\[NEUTRALIZED:[^\]]*\]|\[[A-Z_]+_REMOVED\]|\[MULTIPLE_REDACTIONS\]`,
)

// redactionMarkerPattern finds runs of adjacent redaction-shaped markers for
// the final-cleanup coalescing step.
var redactionMarkerPattern = regexp.MustCompile(
	`(?:\[REDACTED(?::[a-zA-Z_]+)?\]|\[NEUTRALIZED:[^\]]*\]|\[[A-Z_]+_(?:REMOVED|REDACTED)\])(?:\s*(?:\[REDACTED(?::[a-zA-Z_]+)?\]|\[NEUTRALIZED:[^\]]*\]|\[[A-Z_]+_(?:REMOVED|REDACTED)\])){1,}`,
)

// Sanitizer applies the compiled rule set in the order fixed by §4.5.
type Sanitizer struct {
	rules  []compiledRule
	logger diagnosticLogger
}

// compileRules compiles a rule list, dropping any whose regex fails, sorted
// by descending priority then registration order.
func compileRules(rules []SanitizeRule, logger diagnosticLogger) []compiledRule {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		r.registrationOrder = i
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			if logger != nil {
				logger.Warnf("guard: dropping sanitize rule %q: invalid regex: %v", r.ID, err)
			}
			continue
		}
		compiled = append(compiled, compiledRule{SanitizeRule: r, re: re})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		if compiled[i].Priority != compiled[j].Priority {
			return compiled[i].Priority > compiled[j].Priority
		}
		return compiled[i].registrationOrder < compiled[j].registrationOrder
	})
	return compiled
}

// NewSanitizer builds a Sanitizer from a rule list.
func NewSanitizer(rules []SanitizeRule, logger diagnosticLogger) *Sanitizer {
	return &Sanitizer{rules: compileRules(rules, logger), logger: logger}
}

// orderedFor computes the rule order for one result, per §4.5 "rule
// application order": rules matching any present match category first (in
// descending priority), then all remaining rules (in descending priority).
func (s *Sanitizer) orderedFor(categories map[string]struct{}) []compiledRule {
	var first, rest []compiledRule
	for _, r := range s.rules {
		if _, ok := categories[r.Category]; ok {
			first = append(first, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(first, rest...)
}

// Sanitize applies every rule in order to text, given the categories
// present in the triggering match list, and runs the final cleanup pass.
func (s *Sanitizer) Sanitize(text string, matchCategories []string) string {
	categories := make(map[string]struct{}, len(matchCategories))
	for _, c := range matchCategories {
		categories[c] = struct{}{}
	}

	out := text
	for _, r := range s.orderedFor(categories) {
		func() {
			// A rule that panics is skipped; the text keeps its prior value.
			defer func() {
				if p := recover(); p != nil && s.logger != nil {
					s.logger.Warnf("guard: skipping sanitize rule %q: %v: %v", r.ID, ErrSanitizerFailure, p)
				}
			}()
			out = applyRule(out, r)
		}()
	}
	return finalCleanup(out)
}

// applyRule applies one rule's action, skipping the marker-shaped spans
// already produced by prior rules in this pass so a rule cannot match its
// own (or an earlier rule's) replacement token.
func applyRule(text string, r compiledRule) string {
	protected := markerTokenPattern.FindAllStringIndex(text, -1)

	var b strings.Builder
	last := 0
	locs := r.re.FindAllStringIndex(text, -1)
	for _, loc := range locs {
		if withinAny(loc, protected) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(renderAction(r, text[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func withinAny(loc []int, spans [][]int) bool {
	for _, s := range spans {
		if loc[0] >= s[0] && loc[1] <= s[1] {
			return true
		}
	}
	return false
}

// renderAction computes the replacement text for one matched span under a
// rule's action, per §4.5's action semantics. Raw sensitive bytes are
// copied into a short-lived memguard enclave and wiped once the
// replacement has been computed, so they do not linger in ordinary heap
// memory (A5).
func renderAction(r compiledRule, matched string) string {
	enclave, err := memguard.NewEnclave([]byte(matched))
	var guarded *memguard.LockedBuffer
	if err == nil {
		guarded, _ = enclave.Open()
	}
	defer func() {
		if guarded != nil {
			guarded.Destroy()
		}
	}()

	switch r.Action {
	case ActionRemove:
		return ""
	case ActionReplace:
		repl := r.Replacement
		if repl == "" {
			repl = "[REDACTED]"
		}
		return r.re.ReplaceAllString(matched, repl)
	case ActionQuote:
		escaped := strings.ReplaceAll(matched, `"`, `\"`)
		return `"` + escaped + `"`
	case ActionNeutralize:
		preview := matched
		if len([]rune(preview)) > 20 {
			preview = string([]rune(preview)[:20])
		}
		return fmt.Sprintf("[NEUTRALIZED: %s…]", preview)
	default:
		return matched
	}
}

var (
	whitespaceRunPattern = regexp.MustCompile(`[ \t]+`)
	emptyBracketPattern  = regexp.MustCompile(`\[\s*\]`)
)

// finalCleanup implements §4.5 step 3: collapse whitespace runs, trim,
// delete empty bracket tokens, and coalesce runs of adjacent redaction
// markers into a single [MULTIPLE_REDACTIONS] token.
func finalCleanup(s string) string {
	s = whitespaceRunPattern.ReplaceAllString(s, " ")
	s = emptyBracketPattern.ReplaceAllString(s, "")
	s = redactionMarkerPattern.ReplaceAllString(s, "[MULTIPLE_REDACTIONS]")
	return strings.TrimSpace(s)
}

// ValidationIssue names one reason a sanitized string is still unsafe.
type ValidationIssue string

const (
	IssueResidualContextMarker ValidationIssue = "residual_context_marker"
	IssueResidualOverrideVerb  ValidationIssue = "residual_override_verb"
	IssueResidualZeroWidth     ValidationIssue = "residual_zero_width"
)

var residualOverrideVerbPattern = regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions?`)

// ValidateSanitized reports whether a sanitized string is actually safe to
// hand downstream, per §4.5's validation helper.
func ValidateSanitized(s string) (safe bool, issues []ValidationIssue) {
	if len(findMarkers(s)) > 0 {
		issues = append(issues, IssueResidualContextMarker)
	}
	if residualOverrideVerbPattern.MatchString(s) {
		issues = append(issues, IssueResidualOverrideVerb)
	}
	for _, r := range s {
		if _, ok := zeroWidthRunes[r]; ok {
			issues = append(issues, IssueResidualZeroWidth)
			break
		}
	}
	return len(issues) == 0, issues
}
