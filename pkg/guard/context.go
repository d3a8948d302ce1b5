package guard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var configValidator = validator.New()

// Context owns a GuardConfig, the effective pattern list, the compiled
// matcher, metrics counters, and custom sanitization rules. It is built
// once from a config and reused across scans; UpdateConfig rebuilds the
// matcher and atomically swaps it in.
type Context struct {
	logger diagnosticLogger
	cache  *patternCache

	mu        sync.RWMutex
	cfg       GuardConfig
	patterns  []Pattern
	compiled  atomic.Pointer[CompiledSet]
	sanitizer atomic.Pointer[Sanitizer]

	metricsMu sync.Mutex
	metrics   PerformanceMetrics
}

// NewContext constructs a Context from a GuardConfig, validating it,
// merging the built-in catalog with any custom patterns/rules (custom
// patterns may override a built-in by id), and compiling the initial
// matcher.
func NewContext(cfg GuardConfig, logger diagnosticLogger) (*Context, error) {
	if err := configValidator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c := &Context{
		logger: logger,
		cache:  newPatternCache(logger),
		cfg:    cfg,
	}

	patterns := mergePatterns(DefaultPatterns(), cfg.CustomPatterns)
	rules := mergeRules(DefaultSanitizeRules(), cfg.CustomRules)

	cs, err := c.cache.getOrCompile(patterns)
	if err != nil {
		return nil, err
	}
	c.patterns = patterns
	c.compiled.Store(cs)
	c.sanitizer.Store(NewSanitizer(rules, logger))

	return c, nil
}

// mergePatterns appends custom patterns to the built-ins, letting a custom
// entry override a built-in of the same id.
func mergePatterns(builtins, custom []Pattern) []Pattern {
	byID := make(map[string]int, len(builtins))
	out := append([]Pattern(nil), builtins...)
	for i, p := range out {
		byID[p.ID] = i
	}
	for _, p := range custom {
		if i, ok := byID[p.ID]; ok {
			out[i] = p
			continue
		}
		byID[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

func mergeRules(defaults, custom []SanitizeRule) []SanitizeRule {
	out := append([]SanitizeRule(nil), defaults...)
	return append(out, custom...)
}

// Config returns a copy of the context's current configuration.
func (c *Context) Config() GuardConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Scan implements §4.6's full scan pipeline.
func (c *Context) Scan(ctx context.Context, content string, trust TrustLevel) (result DetectionResult, err error) {
	start := time.Now()
	cfg := c.Config()

	defer func() {
		if r := recover(); r != nil {
			if c.logger != nil {
				c.logger.Warnf("guard: recovered panic in Scan: %v", r)
			}
			result = failClosed(content, start)
			err = nil
		}
	}()

	if !utf8.ValidString(content) {
		return DetectionResult{}, ErrInvalidInput
	}

	result.ScanID = uuid.NewString()
	result.Input = content

	if strings.TrimSpace(content) == "" {
		result.Safe = true
		result.Sanitized = content
		result.ProcessingMs = nowMs(start)
		return result, nil
	}

	normalized := Normalize(content)

	var segments []TrustSegment
	if cfg.EnableContextSeparation {
		segments = Segment(normalized, trust)
	} else {
		segments = []TrustSegment{{Content: normalized, Trust: trust, Source: SourceSingleSegment}}
	}
	result.Segments = segments

	trustMixing := 0
	if cfg.EnableContextSeparation {
		trustMixing = TrustMixingRisk(segments)
	}

	budget := time.Duration(cfg.MaxProcessingTimeMs) * time.Millisecond
	matcherStart := time.Now()

	cs := c.compiled.Load()
	matches := cs.Match(normalized, matchOptions{})
	patternTime := nowMs(matcherStart)

	result.Risk = ScoreRisk(matches, trustMixing, trust)
	result.Safe = result.Risk < cfg.RiskThreshold
	result.Matches = matches

	if budget > 0 && time.Since(start) > budget {
		result.BudgetExceeded = true
	}

	sanitizeStart := time.Now()
	if cfg.EnableSanitization && !result.BudgetExceeded {
		result.Sanitized = c.sanitizeResult(normalized, matches)
	} else {
		result.Sanitized = normalized
	}
	sanitizeTime := nowMs(sanitizeStart)

	result.ProcessingMs = nowMs(start)

	if cfg.EnablePerfMonitoring {
		c.recordMetrics(result.ProcessingMs, patternTime, sanitizeTime, len(cs.patterns), len(matches), result.BudgetExceeded)
	}

	_ = ctx // reserved for cancellation checks between stages of longer pipelines
	return result, nil
}

func (c *Context) sanitizeResult(normalized string, matches []PatternMatch) string {
	categories := make([]string, 0, len(matches))
	seen := make(map[string]struct{})
	for _, m := range matches {
		if _, ok := seen[m.Category]; !ok {
			seen[m.Category] = struct{}{}
			categories = append(categories, m.Category)
		}
	}
	return c.sanitizer.Load().Sanitize(normalized, categories)
}

// failClosed builds the §4.6/§7 fail-closed result: risk=100, safe=false,
// sanitized=input, empty matches/segments.
func failClosed(content string, start time.Time) DetectionResult {
	return DetectionResult{
		ScanID:       uuid.NewString(),
		Input:        content,
		Sanitized:    content,
		Risk:         100,
		Safe:         false,
		ProcessingMs: nowMs(start),
	}
}

// QuickScan implements the §4.4 staged fast path.
func (c *Context) QuickScan(ctx context.Context, content string) (result QuickResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			if c.logger != nil {
				c.logger.Warnf("guard: recovered panic in QuickScan: %v", r)
			}
			result = QuickResult{Safe: false, Risk: 100}
			err = nil
		}
	}()

	if !utf8.ValidString(content) {
		return QuickResult{}, ErrInvalidInput
	}
	if strings.TrimSpace(content) == "" {
		return QuickResult{Safe: true, Risk: 0}, nil
	}

	cfg := c.Config()
	normalized := Normalize(content)
	cs := c.compiled.Load()
	threshold := float64(cfg.RiskThreshold)

	critical := cs.Match(normalized, matchOptions{
		SeverityFilter: severitySet(SeverityCritical),
		MaxMatches:     5,
	})
	risk := ScoreQuick(critical)
	if len(critical) > 0 || float64(risk) >= threshold {
		return QuickResult{Risk: clamp(risk), Safe: clamp(risk) < cfg.RiskThreshold}, nil
	}

	high := cs.Match(normalized, matchOptions{
		SeverityFilter: severitySet(SeverityHigh),
		MaxMatches:     10,
	})
	risk = ScoreQuick(append(critical, high...))
	if float64(risk) >= threshold {
		return QuickResult{Risk: clamp(risk), Safe: clamp(risk) < cfg.RiskThreshold}, nil
	}

	if float64(risk) > 0.3*threshold && float64(risk) < 0.8*threshold {
		medium := cs.Match(normalized, matchOptions{
			SeverityFilter: severitySet(SeverityMedium),
			MaxMatches:     5,
		})
		risk = ScoreQuick(append(append(critical, high...), medium...))
	}

	_ = ctx
	return QuickResult{Risk: clamp(risk), Safe: clamp(risk) < cfg.RiskThreshold}, nil
}

func severitySet(s ...Severity) map[Severity]struct{} {
	out := make(map[Severity]struct{}, len(s))
	for _, sv := range s {
		out[sv] = struct{}{}
	}
	return out
}

// ScanBatch sequentially applies Scan over each item, reusing the context.
func (c *Context) ScanBatch(ctx context.Context, items []ScanItem) ([]DetectionResult, error) {
	out := make([]DetectionResult, len(items))
	for i, item := range items {
		r, err := c.Scan(ctx, item.Content, item.Trust)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// UpdateConfig merges a partial config into the context, rebuilding the
// compiled matcher when patterns or their weights changed.
func (c *Context) UpdateConfig(patch ConfigPatch) error {
	c.mu.Lock()
	newCfg := c.cfg
	if patch.RiskThreshold != nil {
		newCfg.RiskThreshold = *patch.RiskThreshold
	}
	if patch.EnableSanitization != nil {
		newCfg.EnableSanitization = *patch.EnableSanitization
	}
	if patch.EnableContextSeparation != nil {
		newCfg.EnableContextSeparation = *patch.EnableContextSeparation
	}
	if patch.MaxProcessingTimeMs != nil {
		newCfg.MaxProcessingTimeMs = *patch.MaxProcessingTimeMs
	}
	if patch.EnablePerfMonitoring != nil {
		newCfg.EnablePerfMonitoring = *patch.EnablePerfMonitoring
	}
	patternsChanged := len(patch.CustomPatterns) > 0
	rulesChanged := len(patch.CustomRules) > 0
	if patternsChanged {
		newCfg.CustomPatterns = patch.CustomPatterns
	}
	if rulesChanged {
		newCfg.CustomRules = patch.CustomRules
	}
	c.mu.Unlock()

	if err := configValidator.Struct(newCfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c.mu.Lock()
	c.cfg = newCfg
	patterns := mergePatterns(DefaultPatterns(), newCfg.CustomPatterns)
	c.mu.Unlock()

	if patternsChanged {
		cs, err := c.cache.getOrCompile(patterns)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.patterns = patterns
		c.mu.Unlock()
		c.compiled.Store(cs)
	}
	if rulesChanged {
		rules := mergeRules(DefaultSanitizeRules(), newCfg.CustomRules)
		c.sanitizer.Store(NewSanitizer(rules, c.logger))
	}

	if patch.ResetMetrics {
		c.ResetMetrics()
	}
	return nil
}

func (c *Context) recordMetrics(totalMs, patternMs, sanitizeMs float64, checked, found int, budgetExceeded bool) {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	c.metrics.TotalTimeMs += totalMs
	c.metrics.PatternTimeMs += patternMs
	c.metrics.SanitizeTimeMs += sanitizeMs
	c.metrics.PatternsChecked += int64(checked)
	c.metrics.MatchesFound += int64(found)
	if budgetExceeded {
		c.metrics.BudgetExceeded++
	}
}

// Metrics returns a snapshot of the context's performance counters.
func (c *Context) Metrics() PerformanceMetrics {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	return c.metrics
}

// ResetMetrics zeroes the context's performance counters.
func (c *Context) ResetMetrics() {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	c.metrics = PerformanceMetrics{}
}
