package domain

// ConfidenceLevel is the normalized classification of a sensor confidence token.
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "high"
	ConfidenceNominal ConfidenceLevel = "nominal"
	ConfidenceLow     ConfidenceLevel = "low"
	ConfidenceUnknown ConfidenceLevel = "unknown"
)

// Confidence keeps the raw sensor token alongside its classification.
type Confidence struct {
	Raw   string
	Level ConfidenceLevel
}

// NewConfidence classifies a raw token.
func NewConfidence(raw string) Confidence {
	return Confidence{Raw: raw, Level: ClassifyConfidence(raw)}
}

// ClassifyConfidence maps letter codes and word levels onto a ConfidenceLevel.
// Matching is exact and case-sensitive; numeric percentages and anything else
// are unknown.
func ClassifyConfidence(raw string) ConfidenceLevel {
	switch raw {
	case "h", "high":
		return ConfidenceHigh
	case "n", "nominal":
		return ConfidenceNominal
	case "l", "low":
		return ConfidenceLow
	default:
		return ConfidenceUnknown
	}
}
