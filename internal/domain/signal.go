package domain

// TechnicalSignal output of the technical analyzer for one cycle.
type TechnicalSignal struct {
	Action     Action
	Confidence float64 // [0, 1]
	Size       float64 // position size factor, [0.05, 0.5]
	Rationale  string
	// Context carries the indicator snapshot used to derive the signal,
	// kept for audit and for the advisory prompt.
	Context map[string]float64
}

// NeutralTechnicalSignal degraded default used when the analyzer cannot
// produce a signal: hold with mid confidence.
func NeutralTechnicalSignal(reason string) TechnicalSignal {
	return TechnicalSignal{
		Action:     ActionHold,
		Confidence: 0.5,
		Size:       0.05,
		Rationale:  reason,
		Context:    map[string]float64{},
	}
}

// NeutralSentimentResult degraded default: score 50, neutral label.
func NeutralSentimentResult() SentimentResult {
	return SentimentResult{
		Score: 50,
		Label: SentimentNeutral,
		Breakdown: SentimentBreakdown{
			Social:    50,
			OnChain:   50,
			Structure: 50,
		},
	}
}
