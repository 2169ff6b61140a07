package risk

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/sentio/internal/domain"
	"go.uber.org/zap"
)

func returnsSeries(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestCalculateCorrelation(t *testing.T) {
	m := testManager()

	t.Run("series correlates perfectly with itself", func(t *testing.T) {
		s := []float64{0.1, -0.2, 0.3, 0.05, -0.1}
		assert.InDelta(t, 1.0, m.CalculateCorrelation(s, s), 1e-9)
	})

	t.Run("symmetric in arguments", func(t *testing.T) {
		a := []float64{0.1, -0.2, 0.3, 0.05}
		b := []float64{0.2, 0.1, -0.1, 0.4}
		assert.InDelta(t, m.CalculateCorrelation(a, b), m.CalculateCorrelation(b, a), 1e-12)
	})

	t.Run("inverted series correlates negatively", func(t *testing.T) {
		a := []float64{0.1, -0.2, 0.3, 0.05}
		b := make([]float64, len(a))
		for i, v := range a {
			b[i] = -v
		}
		assert.InDelta(t, -1.0, m.CalculateCorrelation(a, b), 1e-9)
	})

	t.Run("degenerate inputs yield zero", func(t *testing.T) {
		assert.Zero(t, m.CalculateCorrelation(nil, nil))
		assert.Zero(t, m.CalculateCorrelation([]float64{0.1}, []float64{0.2}))
		// zero variance
		assert.Zero(t, m.CalculateCorrelation([]float64{1, 1, 1}, []float64{0.1, 0.2, 0.3}))
	})

	t.Run("bounded in minus one to one", func(t *testing.T) {
		a := returnsSeries(30, func(i int) float64 { return math.Sin(float64(i)) })
		b := returnsSeries(30, func(i int) float64 { return math.Cos(float64(i) * 1.7) })
		corr := m.CalculateCorrelation(a, b)
		assert.GreaterOrEqual(t, corr, -1.0)
		assert.LessOrEqual(t, corr, 1.0)
	})
}

func TestAnalyzePortfolioCorrelation(t *testing.T) {
	m := testManager()

	positions := map[string]domain.Position{
		"BTCUSDT": {NotionalUSD: decimal.NewFromInt(500)},
		"ETHUSDT": {NotionalUSD: decimal.NewFromInt(500)},
	}

	t.Run("identical histories produce max correlation one", func(t *testing.T) {
		series := returnsSeries(25, func(i int) float64 { return math.Sin(float64(i)) * 0.01 })
		stats := m.AnalyzePortfolioCorrelation(positions, map[string][]float64{
			"BTCUSDT": series,
			"ETHUSDT": series,
		})
		assert.InDelta(t, 1.0, stats.MaxCorrelation, 1e-9)
		assert.InDelta(t, 1.0, stats.AvgCorrelation, 1e-9)
	})

	t.Run("short histories are excluded", func(t *testing.T) {
		stats := m.AnalyzePortfolioCorrelation(positions, map[string][]float64{
			"BTCUSDT": returnsSeries(25, func(i int) float64 { return float64(i) }),
			"ETHUSDT": returnsSeries(5, func(i int) float64 { return float64(i) }),
		})
		assert.Zero(t, stats.MaxCorrelation)
		assert.Zero(t, stats.AvgCorrelation)
	})

	t.Run("two equal positions concentrate at one half", func(t *testing.T) {
		stats := m.AnalyzePortfolioCorrelation(positions, nil)
		assert.InDelta(t, 0.5, stats.RiskConcentration, 1e-9)
	})

	t.Run("single position concentrates fully", func(t *testing.T) {
		stats := m.AnalyzePortfolioCorrelation(map[string]domain.Position{
			"BTCUSDT": {NotionalUSD: decimal.NewFromInt(1000)},
		}, nil)
		assert.InDelta(t, 1.0, stats.RiskConcentration, 1e-9)
	})
}

func TestAdvancedRiskCheck(t *testing.T) {
	m := NewManager(Config{MaxPositionUSD: 1000, MaxDailyLossUSD: 1000, MaxRiskPctPerTrade: 0.02}, zap.NewNop())

	healthy := domain.AccountState{
		EquityUSD:     decimal.NewFromInt(10000),
		PeakEquityUSD: decimal.NewFromInt(10000),
		Positions: map[string]domain.Position{
			"BTCUSDT": {NotionalUSD: decimal.NewFromInt(300)},
			"ETHUSDT": {NotionalUSD: decimal.NewFromInt(300)},
			"SOLUSDT": {NotionalUSD: decimal.NewFromInt(300)},
		},
	}

	t.Run("healthy diversified portfolio passes", func(t *testing.T) {
		uncorrelated := map[string][]float64{
			"BTCUSDT": returnsSeries(25, func(i int) float64 { return math.Sin(float64(i)) }),
			"ETHUSDT": returnsSeries(25, func(i int) float64 { return math.Cos(float64(i) * 2.3) }),
		}
		res := m.AdvancedRiskCheck(healthy, uncorrelated, 1.0, 1.0)
		assert.False(t, res.ShouldHalt)
		assert.False(t, res.Flags.ConcentrationRisk)
		assert.False(t, res.Flags.VolatilitySpike)
		assert.False(t, res.Flags.DrawdownLimit)
	})

	t.Run("identical return histories flag correlation breakdown", func(t *testing.T) {
		series := returnsSeries(25, func(i int) float64 { return math.Sin(float64(i)) * 0.02 })
		res := m.AdvancedRiskCheck(healthy, map[string][]float64{
			"BTCUSDT": series,
			"ETHUSDT": series,
		}, 1.0, 1.0)
		require.True(t, res.Flags.CorrelationBreakdown)
		assert.True(t, res.ShouldHalt)
	})

	t.Run("concentrated book flags concentration", func(t *testing.T) {
		concentrated := healthy
		concentrated.Positions = map[string]domain.Position{
			"BTCUSDT": {NotionalUSD: decimal.NewFromInt(900)},
			"ETHUSDT": {NotionalUSD: decimal.NewFromInt(100)},
		}
		res := m.AdvancedRiskCheck(concentrated, nil, 1.0, 1.0)
		assert.True(t, res.Flags.ConcentrationRisk)
		assert.True(t, res.ShouldHalt)
	})

	t.Run("volatility spike flags", func(t *testing.T) {
		res := m.AdvancedRiskCheck(healthy, nil, 3.0, 1.0)
		assert.True(t, res.Flags.VolatilitySpike)
		assert.True(t, res.ShouldHalt)
	})

	t.Run("deep drawdown flags", func(t *testing.T) {
		drawn := healthy
		drawn.EquityUSD = decimal.NewFromInt(9100)
		res := m.AdvancedRiskCheck(drawn, nil, 1.0, 1.0)
		assert.True(t, res.Flags.DrawdownLimit)
		assert.True(t, res.ShouldHalt)
	})
}
