package fusion

import (
	"math"

	"github.com/vadiminshakov/sentio/internal/domain"
)

const (
	baseTechTrending = 0.65
	baseTechRanging  = 0.45

	weightFloor = 0.2
	weightCeil  = 0.8

	// defaultPerfScore used for a strategy with no recorded outcomes.
	defaultPerfScore = 0.5
)

// AdaptiveWeights blends regime-based base weights with per-strategy
// performance scores from the trade-outcome history. The result is a pair of
// weights for the technical and sentiment signals, each clamped to
// [0.2, 0.8] so neither signal is ever silenced or dominant.
func AdaptiveWeights(trending bool, history []domain.PerformanceRecord) (techWeight, sentWeight float64) {
	baseTech := baseTechRanging
	if trending {
		baseTech = baseTechTrending
	}
	baseSent := 1 - baseTech

	techScore := performanceScore(history, domain.StrategyTechnical)
	sentScore := performanceScore(history, domain.StrategySentiment)

	// normalize scores to sum to 1, then average 50/50 with the base weights
	total := techScore + sentScore
	normTech, normSent := 0.5, 0.5
	if total > 0 {
		normTech = techScore / total
		normSent = sentScore / total
	}

	techWeight = clampWeight(0.5*baseTech + 0.5*normTech)
	sentWeight = clampWeight(0.5*baseSent + 0.5*normSent)
	return techWeight, sentWeight
}

// performanceScore rates one strategy as 0.6·winRate + 0.4·tanh(meanRR),
// clamped to [0, 1].
func performanceScore(history []domain.PerformanceRecord, tag domain.StrategyTag) float64 {
	var wins, n int
	var rrSum float64
	for _, rec := range history {
		if rec.Strategy != tag {
			continue
		}
		n++
		rrSum += rec.RiskReward
		if rec.Success {
			wins++
		}
	}
	if n == 0 {
		return defaultPerfScore
	}

	winRate := float64(wins) / float64(n)
	score := 0.6*winRate + 0.4*math.Tanh(rrSum/float64(n))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func clampWeight(w float64) float64 {
	if w < weightFloor {
		return weightFloor
	}
	if w > weightCeil {
		return weightCeil
	}
	return w
}
