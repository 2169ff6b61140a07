package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vadiminshakov/sentio/internal/domain"
)

func TestAdaptiveWeights(t *testing.T) {
	t.Run("no history falls back to regime base", func(t *testing.T) {
		tech, sent := AdaptiveWeights(true, nil)
		// (0.65 + 0.5) / 2 and (0.35 + 0.5) / 2
		assert.InDelta(t, 0.575, tech, 1e-9)
		assert.InDelta(t, 0.425, sent, 1e-9)

		tech, sent = AdaptiveWeights(false, nil)
		assert.InDelta(t, 0.475, tech, 1e-9)
		assert.InDelta(t, 0.525, sent, 1e-9)
	})

	t.Run("winning strategy gains weight", func(t *testing.T) {
		history := []domain.PerformanceRecord{
			{Strategy: domain.StrategyTechnical, Success: true, RiskReward: 2},
			{Strategy: domain.StrategyTechnical, Success: true, RiskReward: 2},
			{Strategy: domain.StrategySentiment, Success: false, RiskReward: -0.5},
		}
		tech, sent := AdaptiveWeights(false, history)
		assert.Greater(t, tech, 0.475)
		assert.Less(t, sent, 0.525)
	})

	t.Run("weights clamp to floor and ceiling", func(t *testing.T) {
		lopsided := make([]domain.PerformanceRecord, 0, 20)
		for i := 0; i < 10; i++ {
			lopsided = append(lopsided, domain.PerformanceRecord{Strategy: domain.StrategyTechnical, Success: true, RiskReward: 3})
			lopsided = append(lopsided, domain.PerformanceRecord{Strategy: domain.StrategySentiment, Success: false, RiskReward: -2})
		}
		tech, sent := AdaptiveWeights(true, lopsided)
		assert.Equal(t, 0.8, tech)
		assert.Equal(t, 0.2, sent)
	})

	t.Run("weights always within bounds", func(t *testing.T) {
		histories := [][]domain.PerformanceRecord{
			nil,
			{{Strategy: domain.StrategyTechnical, Success: true, RiskReward: 100}},
			{{Strategy: domain.StrategySentiment, Success: false, RiskReward: -100}},
		}
		for _, history := range histories {
			for _, trending := range []bool{true, false} {
				tech, sent := AdaptiveWeights(trending, history)
				assert.GreaterOrEqual(t, tech, 0.2)
				assert.LessOrEqual(t, tech, 0.8)
				assert.GreaterOrEqual(t, sent, 0.2)
				assert.LessOrEqual(t, sent, 0.8)
			}
		}
	})
}

func TestPerformanceScore(t *testing.T) {
	t.Run("empty history scores default", func(t *testing.T) {
		assert.Equal(t, 0.5, performanceScore(nil, domain.StrategyTechnical))
	})

	t.Run("all losses clamp at zero", func(t *testing.T) {
		history := []domain.PerformanceRecord{
			{Strategy: domain.StrategyTechnical, Success: false, RiskReward: -2},
			{Strategy: domain.StrategyTechnical, Success: false, RiskReward: -2},
		}
		assert.Equal(t, 0.0, performanceScore(history, domain.StrategyTechnical))
	})

	t.Run("other strategy records are ignored", func(t *testing.T) {
		history := []domain.PerformanceRecord{
			{Strategy: domain.StrategySentiment, Success: true, RiskReward: 5},
		}
		assert.Equal(t, 0.5, performanceScore(history, domain.StrategyTechnical))
	})
}
