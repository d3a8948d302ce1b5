package guard

import "errors"

// Error taxonomy for the guard engine. Internal failures never propagate as
// errors out of Scan/QuickScan; they degrade to a fail-closed
// DetectionResult instead. See Context.Scan for the propagation policy.
var (
	// ErrInvalidInput is returned when content fails basic UTF-8 validation.
	ErrInvalidInput = errors.New("guard: invalid input")

	// ErrPatternCompileFailure marks a single pattern whose regex failed to
	// compile. The pattern is dropped; callers normally only see this via
	// logged diagnostics, not as a returned error.
	ErrPatternCompileFailure = errors.New("guard: pattern compile failure")

	// ErrMatcherFailure marks an unexpected failure during the automaton
	// walk or regex verification pass. Scan converts this into a
	// fail-closed result rather than returning it.
	ErrMatcherFailure = errors.New("guard: matcher failure")

	// ErrSanitizerFailure marks a single sanitize rule that panicked or
	// otherwise failed to apply. The rule is skipped.
	ErrSanitizerFailure = errors.New("guard: sanitizer rule failure")

	// ErrBudgetExceeded marks that max_processing_time_ms was reached.
	ErrBudgetExceeded = errors.New("guard: processing budget exceeded")

	// ErrStream marks a fatal streaming-shell condition: a non-UTF8 chunk,
	// or a call to ProcessChunk after the shell has already completed.
	ErrStream = errors.New("guard: stream error")

	// ErrInvalidConfig is returned by UpdateConfig / NewContext when the
	// supplied GuardConfig fails validation.
	ErrInvalidConfig = errors.New("guard: invalid config")
)
