package fusion

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/sentio/internal/domain"
	"github.com/vadiminshakov/sentio/internal/services/risk"
	"go.uber.org/zap"
)

type stubAnalyzer struct {
	signal domain.TechnicalSignal
}

func (s *stubAnalyzer) Analyze(domain.CandleSnapshot) domain.TechnicalSignal {
	return s.signal
}

type stubScorer struct {
	result domain.SentimentResult
}

func (s *stubScorer) Score(domain.SentimentInputs) domain.SentimentResult {
	return s.result
}

type stubAdvisory struct {
	decision *domain.AdvisoryDecision
	err      error
}

func (s *stubAdvisory) Advise(context.Context, AdvisoryRequest) (*domain.AdvisoryDecision, error) {
	return s.decision, s.err
}

func riskManager() *risk.Manager {
	return risk.NewManager(risk.Config{
		MaxPositionUSD:     1000,
		MaxDailyLossUSD:    1000,
		MaxRiskPctPerTrade: 0.02,
		StopLossBps:        50,
		TakeProfitBps:      100,
	}, zap.NewNop())
}

func techSignal(action domain.Action, confidence, ema9, ema21 float64) domain.TechnicalSignal {
	return domain.TechnicalSignal{
		Action:     action,
		Confidence: confidence,
		Size:       0.1,
		Context: map[string]float64{
			"atr_medium":   0.5,
			"ema9_medium":  ema9,
			"ema21_medium": ema21,
		},
	}
}

func sentimentAt(score int) domain.SentimentResult {
	return domain.SentimentResult{Score: score, Label: domain.LabelForScore(score)}
}

func decisionInput() DecisionInput {
	close := decimal.NewFromInt(100)
	candle := domain.Candle{Open: close, High: close, Low: close, Close: close}
	return DecisionInput{
		Symbol:  "BTCUSDT",
		Candles: domain.CandleSnapshot{Symbol: "BTCUSDT", Medium: []domain.Candle{candle}},
		Account: domain.AccountState{
			EquityUSD:     decimal.NewFromInt(10000),
			PeakEquityUSD: decimal.NewFromInt(10000),
		},
	}
}

// outcomes strongly favoring the sentiment strategy, enough to skew the
// adaptive weights past the conflict threshold
func sentimentFavoringHistory() []domain.PerformanceRecord {
	history := make([]domain.PerformanceRecord, 0, 20)
	for i := 0; i < 10; i++ {
		history = append(history, domain.PerformanceRecord{Strategy: domain.StrategySentiment, Success: true, RiskReward: 2})
		history = append(history, domain.PerformanceRecord{Strategy: domain.StrategyTechnical, Success: false, RiskReward: -1})
	}
	return history
}

func TestDecide_HaltGate(t *testing.T) {
	o := NewOrchestrator(
		&stubAnalyzer{signal: techSignal(domain.ActionBuy, 0.9, 100, 100)},
		&stubScorer{result: sentimentAt(90)},
		riskManager(), nil, zap.NewNop())

	t.Run("account circuit breaker holds", func(t *testing.T) {
		input := decisionInput()
		input.Account.CircuitBreaker = true

		decision := o.Decide(context.Background(), input)
		assert.Equal(t, domain.ActionHold, decision.Action)
		assert.Contains(t, decision.Rationale, "risk_halt")
		assert.True(t, decision.SizeUSD.IsZero())
	})

	t.Run("market circuit breaker holds", func(t *testing.T) {
		input := decisionInput()
		input.Market = risk.MarketConditions{Change1hPct: 9}

		decision := o.Decide(context.Background(), input)
		assert.Equal(t, domain.ActionHold, decision.Action)
		assert.Contains(t, decision.Rationale, "risk_halt")
	})
}

func TestDecide_AlignedBullishSignalsBuy(t *testing.T) {
	o := NewOrchestrator(
		&stubAnalyzer{signal: techSignal(domain.ActionBuy, 0.9, 100, 100)},
		&stubScorer{result: sentimentAt(90)},
		riskManager(), nil, zap.NewNop())

	decision := o.Decide(context.Background(), decisionInput())

	require.Equal(t, domain.ActionBuy, decision.Action)
	// fused = 0.9*0.475 + 0.8*0.525 with default weights
	assert.InDelta(t, 0.8475, decision.Confidence, 1e-6)
	// volAdj 0.875 * 10000 * 0.02 * 5
	assert.InDelta(t, 875, decision.SizeUSD.InexactFloat64(), 1e-6)
	assert.Less(t, decision.Stops.StopLoss, 100.0)
	assert.Greater(t, decision.Stops.TakeProfit, 100.0)
	assert.NotEqual(t, decision.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestDecide_NeutralSignalsHold(t *testing.T) {
	o := NewOrchestrator(
		&stubAnalyzer{signal: techSignal(domain.ActionHold, 0.5, 100, 100)},
		&stubScorer{result: sentimentAt(50)},
		riskManager(), nil, zap.NewNop())

	decision := o.Decide(context.Background(), decisionInput())
	assert.Equal(t, domain.ActionHold, decision.Action)
	assert.True(t, decision.SizeUSD.IsZero())
	assert.Equal(t, domain.StopLevels{}, decision.Stops)
}

func TestDecide_ConflictResolution(t *testing.T) {
	t.Run("weak conflicting signals force hold", func(t *testing.T) {
		o := NewOrchestrator(
			&stubAnalyzer{signal: techSignal(domain.ActionBuy, 0.3, 100, 100)},
			&stubScorer{result: sentimentAt(20)},
			riskManager(), nil, zap.NewNop())

		decision := o.Decide(context.Background(), decisionInput())
		assert.Equal(t, domain.ActionHold, decision.Action)
		assert.Contains(t, decision.Rationale, "conflict=hold")
	})

	t.Run("ranging market defers to sentiment", func(t *testing.T) {
		o := NewOrchestrator(
			&stubAnalyzer{signal: techSignal(domain.ActionBuy, 0.9, 100, 100)},
			&stubScorer{result: sentimentAt(0)},
			riskManager(), nil, zap.NewNop())

		input := decisionInput()
		input.Performance = sentimentFavoringHistory()

		decision := o.Decide(context.Background(), input)
		assert.Equal(t, domain.ActionSell, decision.Action)
		assert.Contains(t, decision.Rationale, "conflict=defer_sentiment")
	})

	t.Run("trending market defers to technical", func(t *testing.T) {
		// 100 bps EMA spread puts the regime in trending
		o := NewOrchestrator(
			&stubAnalyzer{signal: techSignal(domain.ActionBuy, 0.9, 101, 100)},
			&stubScorer{result: sentimentAt(0)},
			riskManager(), nil, zap.NewNop())

		input := decisionInput()
		input.Performance = sentimentFavoringHistory()

		decision := o.Decide(context.Background(), input)
		assert.Equal(t, domain.ActionBuy, decision.Action)
		assert.Contains(t, decision.Rationale, "conflict=defer_technical")
		assert.True(t, decision.Regime.Trending)
	})
}

func TestDecide_AdvisoryOverlay(t *testing.T) {
	bullish := func() (*stubAnalyzer, *stubScorer) {
		return &stubAnalyzer{signal: techSignal(domain.ActionBuy, 0.9, 100, 100)},
			&stubScorer{result: sentimentAt(90)}
	}

	t.Run("aligned advisory shrinks size", func(t *testing.T) {
		analyzer, scorer := bullish()
		adv := &domain.AdvisoryDecision{Action: "BUY", Confidence: 0.8, PositionSizePct: 2}
		o := NewOrchestrator(analyzer, scorer, riskManager(), &stubAdvisory{decision: adv}, zap.NewNop())

		decision := o.Decide(context.Background(), decisionInput())
		require.Equal(t, domain.ActionBuy, decision.Action)
		assert.Equal(t, 0.8, decision.Confidence)
		// advisory implies 2% of 10000 = 200, below the local 875
		assert.InDelta(t, 200, decision.SizeUSD.InexactFloat64(), 1e-6)
		assert.Contains(t, decision.Rationale, "advisory=accepted")
		require.NotNil(t, decision.Advisory)
	})

	t.Run("advisory never grows the position", func(t *testing.T) {
		analyzer, scorer := bullish()
		adv := &domain.AdvisoryDecision{Action: "BUY", Confidence: 0.9, PositionSizePct: 50}
		o := NewOrchestrator(analyzer, scorer, riskManager(), &stubAdvisory{decision: adv}, zap.NewNop())

		decision := o.Decide(context.Background(), decisionInput())
		assert.InDelta(t, 875, decision.SizeUSD.InexactFloat64(), 1e-6)
	})

	t.Run("misaligned low confidence advisory is recorded but not applied", func(t *testing.T) {
		analyzer, scorer := bullish()
		adv := &domain.AdvisoryDecision{Action: "SELL", Confidence: 0.5, PositionSizePct: 10}
		o := NewOrchestrator(analyzer, scorer, riskManager(), &stubAdvisory{decision: adv}, zap.NewNop())

		decision := o.Decide(context.Background(), decisionInput())
		assert.Equal(t, domain.ActionBuy, decision.Action)
		assert.NotContains(t, decision.Rationale, "advisory=accepted")
		assert.NotNil(t, decision.Advisory)
	})

	t.Run("advisory failure degrades to no advisory", func(t *testing.T) {
		analyzer, scorer := bullish()
		o := NewOrchestrator(analyzer, scorer, riskManager(), &stubAdvisory{err: errors.New("timeout")}, zap.NewNop())

		decision := o.Decide(context.Background(), decisionInput())
		assert.Equal(t, domain.ActionBuy, decision.Action)
		assert.Nil(t, decision.Advisory)
	})
}

func TestDecide_ConfidenceAlwaysBounded(t *testing.T) {
	for _, score := range []int{0, 25, 50, 75, 100} {
		for _, action := range []domain.Action{domain.ActionBuy, domain.ActionSell, domain.ActionHold} {
			o := NewOrchestrator(
				&stubAnalyzer{signal: techSignal(action, 1.0, 101, 100)},
				&stubScorer{result: sentimentAt(score)},
				riskManager(), nil, zap.NewNop())

			decision := o.Decide(context.Background(), decisionInput())
			assert.GreaterOrEqual(t, decision.Confidence, 0.0)
			assert.LessOrEqual(t, decision.Confidence, 0.99)
			assert.GreaterOrEqual(t, decision.SizeUSD.InexactFloat64(), 0.0)
		}
	}
}
