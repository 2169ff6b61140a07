// Package risk implements position sizing, stop computation, regime
// classification and portfolio-level halt predicates. The manager is a pure
// function of account and market snapshots; it consumes nothing from the
// signal analyzers.
package risk

import (
	"math"

	"github.com/vadiminshakov/sentio/internal/domain"
	"go.uber.org/zap"
)

const (
	atrStopMult   = 1.2
	atrTargetMult = 2.0

	// kellyCap bounds the Kelly fraction regardless of inputs.
	kellyCap = 0.25
	// kellyWinLossRatio assumed payoff ratio for sizing.
	kellyWinLossRatio = 1.5

	// notionalMult converts the risked equity fraction into position notional.
	notionalMult = 5.0

	volAdjFloor   = 0.25
	volAdjATRFrac = 0.04

	highVolATRFrac    = 0.02
	trendSlopeBps     = 5.0
	liquidityCutoff   = 0.5
	drawdownHaltFrac  = 0.10
	drawdownRiskFrac  = 0.08
	concentrationMax  = 0.6
	volSpikeMult      = 2.0
	correlationDanger = 0.8

	cbChange1hPct    = 8.0
	cbChange5mPct    = 3.5
	cbImbalanceLimit = 0.8
)

// Config immutable risk limits supplied at construction.
type Config struct {
	MaxPositionUSD     float64
	MaxDailyLossUSD    float64
	MaxRiskPctPerTrade float64 // fraction of equity risked per trade
	StopLossBps        float64 // fallback stop distance when ATR is unavailable
	TakeProfitBps      float64
}

// MarketConditions inputs for the market-wide circuit breaker.
type MarketConditions struct {
	Change1hPct          float64
	Change5mPct          float64
	OrderbookImbalance   float64
	VolatilitySpike      bool
	CorrelationBreakdown bool
}

// Manager stateless risk manager.
type Manager struct {
	cfg    Config
	logger *zap.Logger
}

// NewManager creates a risk manager.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// CapOrderSizeUSD clamps the desired notional to [0, MaxPositionUSD].
// Idempotent: capping an already capped size is a no-op.
func (m *Manager) CapOrderSizeUSD(desired float64) float64 {
	if desired < 0 {
		return 0
	}
	if desired > m.cfg.MaxPositionUSD {
		return m.cfg.MaxPositionUSD
	}
	return desired
}

// ShouldHaltTrading reports whether new trading must stop: explicit circuit
// breaker, daily loss at or beyond the limit (boundary inclusive), or
// drawdown from the equity peak of 10% or more.
func (m *Manager) ShouldHaltTrading(account domain.AccountState) (bool, string) {
	if account.CircuitBreaker {
		return true, "circuit breaker engaged"
	}
	if m.cfg.MaxDailyLossUSD > 0 && account.RealizedPnLTodayUSD.InexactFloat64() <= -m.cfg.MaxDailyLossUSD {
		return true, "daily loss limit reached"
	}
	if account.DrawdownFromPeak() >= drawdownHaltFrac {
		return true, "drawdown limit reached"
	}
	return false, ""
}

// ComputeStops places the protective stop and take-profit on the correct
// side of entry for the chosen action: 1.2/2.0 ATR multiples when ATR is
// available, basis-point fallback otherwise. Hold yields zero levels.
func (m *Manager) ComputeStops(entryPrice float64, action domain.Action, atr float64) domain.StopLevels {
	if entryPrice <= 0 || action == domain.ActionHold {
		return domain.StopLevels{}
	}

	stopDist := entryPrice * m.cfg.StopLossBps / 10000
	targetDist := entryPrice * m.cfg.TakeProfitBps / 10000
	if atr > 0 {
		stopDist = atrStopMult * atr
		targetDist = atrTargetMult * atr
	}

	if action == domain.ActionSell {
		return domain.StopLevels{
			StopLoss:   entryPrice + stopDist,
			TakeProfit: entryPrice - targetDist,
		}
	}
	return domain.StopLevels{
		StopLoss:   entryPrice - stopDist,
		TakeProfit: entryPrice + targetDist,
	}
}

// DetectRegime classifies the market: high volatility when ATR exceeds 2% of
// price, trending when the EMA9-EMA21 spread exceeds 5 basis points of
// price, liquid when the liquidity score is strictly above 0.5 (callers pass
// 0.5 when the score is unknown).
func (m *Manager) DetectRegime(lastPrice, atr, ema9, ema21, liquidity float64) domain.Regime {
	regime := domain.Regime{Liquid: liquidity > liquidityCutoff}
	if lastPrice <= 0 {
		return regime
	}

	regime.HighVol = atr/lastPrice > highVolATRFrac
	regime.Trending = math.Abs(ema9-ema21)/lastPrice*10000 > trendSlopeBps
	return regime
}

// KellyFraction computes f* = p - (1-p)/R, clamped to [0, 0.25].
func (m *Manager) KellyFraction(winProb, winLossRatio float64) float64 {
	if winLossRatio <= 0 {
		return 0
	}
	f := winProb - (1-winProb)/winLossRatio
	if f < 0 {
		return 0
	}
	if f > kellyCap {
		return kellyCap
	}
	return f
}

// PositionSizeUSD computes the volatility-adjusted notional: a multiplier
// with floor 0.25 that decays as the ATR fraction approaches 4%, times
// equity, times the lesser of the configured per-trade risk and the Kelly
// fraction at the signal's confidence, times a fixed notional multiplier.
func (m *Manager) PositionSizeUSD(equity, confidence, atr, lastPrice float64) float64 {
	if equity <= 0 {
		return 0
	}

	volAdj := 1.0
	if lastPrice > 0 && atr > 0 {
		volAdj = 1 - (atr/lastPrice)/volAdjATRFrac
		if volAdj < volAdjFloor {
			volAdj = volAdjFloor
		}
	}

	riskFrac := math.Min(m.cfg.MaxRiskPctPerTrade, m.KellyFraction(confidence, kellyWinLossRatio))
	return volAdj * equity * riskFrac * notionalMult
}

// MarketCircuitBreaker reports whether market conditions are too violent to
// trade: large hourly or five-minute moves, an extreme order-book imbalance,
// or explicit spike/breakdown flags.
func (m *Manager) MarketCircuitBreaker(conditions MarketConditions) bool {
	switch {
	case math.Abs(conditions.Change1hPct) > cbChange1hPct:
		return true
	case math.Abs(conditions.Change5mPct) > cbChange5mPct:
		return true
	case math.Abs(conditions.OrderbookImbalance) > cbImbalanceLimit:
		return true
	case conditions.VolatilitySpike, conditions.CorrelationBreakdown:
		return true
	}
	return false
}

// AdvancedRiskCheck composes correlation analysis, concentration,
// volatility-spike and drawdown checks into a single halt verdict with the
// individual findings retained for audit.
func (m *Manager) AdvancedRiskCheck(
	account domain.AccountState,
	returnsBySymbol map[string][]float64,
	currentVol, avgVol float64,
) domain.RiskAssessment {
	stats := m.AnalyzePortfolioCorrelation(account.Positions, returnsBySymbol)

	flags := domain.RiskFlags{
		CorrelationBreakdown: stats.MaxCorrelation > correlationDanger,
		ConcentrationRisk:    stats.RiskConcentration > concentrationMax,
		VolatilitySpike:      avgVol > 0 && currentVol > volSpikeMult*avgVol,
		DrawdownLimit:        account.DrawdownFromPeak() > drawdownRiskFrac,
	}

	assessment := domain.RiskAssessment{
		Correlation: stats,
		Flags:       flags,
		ShouldHalt:  flags.CorrelationBreakdown || flags.ConcentrationRisk || flags.VolatilitySpike || flags.DrawdownLimit,
	}

	if assessment.ShouldHalt {
		m.logger.Warn("advanced risk check requests halt",
			zap.Bool("correlation_breakdown", flags.CorrelationBreakdown),
			zap.Bool("concentration_risk", flags.ConcentrationRisk),
			zap.Bool("volatility_spike", flags.VolatilitySpike),
			zap.Bool("drawdown_limit", flags.DrawdownLimit),
			zap.Float64("max_correlation", stats.MaxCorrelation),
			zap.Float64("risk_concentration", stats.RiskConcentration))
	}

	return assessment
}
