package survey

import "fmt"

// Priority is the action level attached to a bucket by a PriorityPolicy.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Tone maps a priority to the dashboard banner style.
func (p Priority) Tone() string {
	switch p {
	case PriorityHigh:
		return "error"
	case PriorityMedium:
		return "warning"
	default:
		return "success"
	}
}

// PriorityPolicy flags buckets whose share of Category reaches a threshold.
// It is a presentation policy layered over PercentageFor and does not affect
// any Report value.
type PriorityPolicy struct {
	Category ResponseCategory `json:"category"`
	HighAt   float64          `json:"high_at"`
	MediumAt float64          `json:"medium_at"`
}

// DefaultPriorityPolicy flags oversizing: HIGH at 60% TooBig, MEDIUM at 40%.
func DefaultPriorityPolicy() PriorityPolicy {
	return PriorityPolicy{Category: TooBig, HighAt: 60, MediumAt: 40}
}

// Validate checks the thresholds are ordered and within 0..100.
func (p PriorityPolicy) Validate() error {
	if !p.Category.Valid() {
		return &ValidationError{Field: "priority.category", Reason: fmt.Sprintf("unknown response category %d", int(p.Category))}
	}
	if p.MediumAt < 0 || p.HighAt > 100 || p.MediumAt > p.HighAt {
		return &ValidationError{
			Field:  "priority",
			Reason: fmt.Sprintf("thresholds must satisfy 0 <= medium (%.1f) <= high (%.1f) <= 100", p.MediumAt, p.HighAt),
		}
	}
	return nil
}

// Classify returns the priority for bucket. Errors from PercentageFor are
// returned unchanged.
func (p PriorityPolicy) Classify(report *Report, bucket SizeBucket) (Priority, error) {
	pct, err := report.PercentageFor(bucket, p.Category)
	if err != nil {
		return "", err
	}
	switch {
	case pct >= p.HighAt:
		return PriorityHigh, nil
	case pct >= p.MediumAt:
		return PriorityMedium, nil
	default:
		return PriorityLow, nil
	}
}
