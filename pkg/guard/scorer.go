package guard

import "math"

// ScoreRisk implements the §4.4 full risk-scoring algorithm, steps 1-6.
func ScoreRisk(matches []PatternMatch, trustMixing int, trust TrustLevel) int {
	var risk float64
	for _, m := range matches {
		risk += m.Severity.weight() * (float64(m.Confidence) / 100.0)
	}
	if len(matches) > 1 {
		risk *= 1.10
	}
	risk += float64(trustMixing)
	risk *= trust.multiplier()
	return int(math.Round(clampFloat(risk)))
}

// quickScanFloor applies the per-stage minimum risk floor when a match of
// the given severity is present, per §4.4's QuickScan description.
func quickScanFloor(hasCritical, hasHigh bool) float64 {
	switch {
	case hasCritical:
		return 80
	case hasHigh:
		return 60
	default:
		return 0
	}
}

// ScoreQuick implements the simplified QuickScan aggregation from §4.4.
func ScoreQuick(matches []PatternMatch) int {
	if len(matches) == 0 {
		return 0
	}
	var risk float64
	var hasCritical, hasHigh bool
	for _, m := range matches {
		risk += m.Severity.quickWeight() * (float64(m.Confidence) / 100.0)
		switch m.Severity {
		case SeverityCritical:
			hasCritical = true
		case SeverityHigh:
			hasHigh = true
		}
	}
	scale := math.Min(1.2, 1+0.1*float64(len(matches)))
	risk *= scale
	if floor := quickScanFloor(hasCritical, hasHigh); risk < floor {
		risk = floor
	}
	return int(math.Round(clampFloat(risk)))
}
