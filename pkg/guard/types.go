// Package guard implements the prompt-injection and sensitive-data
// detection & mitigation engine: pattern registry, compiled matcher, trust
// segmenter, risk scorer, sanitizer, and the guard context that ties them
// together.
package guard

import "time"

// Severity classifies how dangerous a pattern match is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// rank orders severities for priority computation; higher is more severe.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// weight returns the fixed severity weight used by the risk scorer.
func (s Severity) weight() float64 {
	switch s {
	case SeverityCritical:
		return 100
	case SeverityHigh:
		return 85
	case SeverityMedium:
		return 45
	case SeverityLow:
		return 20
	default:
		return 0
	}
}

// quickWeight returns the simplified severity weight used by QuickScan.
func (s Severity) quickWeight() float64 {
	switch s {
	case SeverityCritical:
		return 95
	case SeverityHigh:
		return 75
	case SeverityMedium:
		return 45
	case SeverityLow:
		return 20
	default:
		return 0
	}
}

// TrustLevel encodes how much the engine should trust a span of text.
type TrustLevel string

const (
	TrustSystem     TrustLevel = "system"
	TrustUser       TrustLevel = "user"
	TrustToolOutput TrustLevel = "tool-output"
	TrustUntrusted  TrustLevel = "untrusted"
)

// rank orders trust levels for inversion detection; lower means more trusted.
func (t TrustLevel) rank() int {
	switch t {
	case TrustSystem:
		return 0
	case TrustUser:
		return 1
	case TrustToolOutput:
		return 2
	case TrustUntrusted:
		return 3
	default:
		return 1
	}
}

// multiplier returns the trust-level risk multiplier applied in C4 step 5.
func (t TrustLevel) multiplier() float64 {
	switch t {
	case TrustSystem:
		return 0.10
	case TrustUser:
		return 1.00
	case TrustToolOutput:
		return 1.20
	case TrustUntrusted:
		return 2.00
	default:
		return 1.00
	}
}

// SegmentSource records how a TrustSegment was produced.
type SegmentSource string

const (
	SourceSegmentation  SegmentSource = "segmentation"
	SourceContextMarker SegmentSource = "context_marker"
	SourceSingleSegment SegmentSource = "single_segment"
)

// SanitizeAction is the action a SanitizeRule performs on a match.
type SanitizeAction string

const (
	ActionRemove     SanitizeAction = "remove"
	ActionReplace    SanitizeAction = "replace"
	ActionQuote      SanitizeAction = "quote"
	ActionNeutralize SanitizeAction = "neutralize"
)

// Pattern is an immutable catalog entry describing one injection or
// sensitive-data signature.
type Pattern struct {
	ID          string
	Regex       string
	Severity    Severity
	Category    string
	Weight      int
	Sanitize    bool
	Description string
}

// priority computes the sort key used to order a CompiledSet: higher
// severity dominates, weight breaks ties within a severity.
func (p Pattern) priority() int {
	return p.Severity.rank()*100 + p.Weight
}

// SanitizeRule describes one ordered sanitization step.
type SanitizeRule struct {
	ID          string
	Regex       string
	Action      SanitizeAction
	Replacement string
	Category    string
	Priority    int

	// registrationOrder breaks priority ties deterministically; set by
	// compileRules from the rule's position in its list, not by callers.
	registrationOrder int
}

// PatternMatch is one verified occurrence of a Pattern in scanned text.
type PatternMatch struct {
	PatternID string
	Index     int
	Length    int
	Matched   string
	Severity  Severity
	Category  string
	Confidence int
}

// TrustSegment is one ordered, trust-tagged span of the input.
type TrustSegment struct {
	Content  string
	Trust    TrustLevel
	Risk     int
	Source   SegmentSource
	Metadata map[string]string
}

// DetectionResult is the outcome of a single Scan.
type DetectionResult struct {
	ScanID         string
	Input          string
	Sanitized      string
	Risk           int
	Safe           bool
	Matches        []PatternMatch
	Segments       []TrustSegment
	ProcessingMs   float64
	BudgetExceeded bool
}

// QuickResult is the outcome of a QuickScan fast path.
type QuickResult struct {
	Safe bool
	Risk int
}

// ScanItem is one entry of a ScanBatch request.
type ScanItem struct {
	Content string
	Trust   TrustLevel
}

// GuardConfig is the tunable behavior of a Context.
type GuardConfig struct {
	RiskThreshold           int  `yaml:"risk_threshold" validate:"min=0,max=100"`
	EnableSanitization      bool `yaml:"enable_sanitization"`
	EnableContextSeparation bool `yaml:"enable_context_separation"`
	MaxProcessingTimeMs     int  `yaml:"max_processing_time_ms" validate:"min=0"`
	EnablePerfMonitoring    bool `yaml:"enable_perf_monitoring"`

	CustomPatterns []Pattern      `yaml:"custom_patterns" validate:"dive"`
	CustomRules    []SanitizeRule `yaml:"custom_rules" validate:"dive"`
}

// DefaultGuardConfig returns the engine's default configuration.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RiskThreshold:           60,
		EnableSanitization:      true,
		EnableContextSeparation: true,
		MaxProcessingTimeMs:     200,
		EnablePerfMonitoring:    true,
	}
}

// ConfigPatch is a partial update applied via Context.UpdateConfig.
type ConfigPatch struct {
	RiskThreshold           *int
	EnableSanitization      *bool
	EnableContextSeparation *bool
	MaxProcessingTimeMs     *int
	EnablePerfMonitoring    *bool
	CustomPatterns          []Pattern
	CustomRules             []SanitizeRule
	ResetMetrics            bool
}

// PerformanceMetrics aggregates counters across every scan performed by a
// Context since construction or the last ResetMetrics call.
type PerformanceMetrics struct {
	TotalTimeMs     float64
	PatternTimeMs   float64
	SanitizeTimeMs  float64
	PatternsChecked int64
	MatchesFound    int64
	BudgetExceeded  int64
}

// StreamSummary is the result of a whole-text streaming sweep.
type StreamSummary struct {
	TotalChunks      int
	TotalMatches     int
	HighestRisk      int
	AverageRisk      float64
	ProcessingTimeMs float64
}

// ChunkOutcome is returned from one ProcessChunk call.
type ChunkOutcome struct {
	Result     DetectionResult
	Matches    []PatternMatch
	Position   uint64
	IsComplete bool
}

// clamp bounds an integer risk score to [0, 100].
func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// clampFloat bounds a float risk score to [0, 100].
func clampFloat(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// nowMs returns a monotonic-derived millisecond duration since start.
func nowMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
