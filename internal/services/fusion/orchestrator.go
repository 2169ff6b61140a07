// Package fusion combines the technical and sentiment signals into one
// risk-capped trade decision per cycle. A cycle is a pure computation over a
// materialized input snapshot with one external suspension point, the
// optional advisory overlay.
package fusion

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/sentio/internal/domain"
	"github.com/vadiminshakov/sentio/internal/services/risk"
	"go.uber.org/zap"
)

const (
	// actionThreshold minimum fused magnitude to leave hold.
	actionThreshold = 0.1
	// conflictThreshold sentiment bias magnitude that counts as disagreement.
	conflictThreshold = 0.25
	// conflictMinConfidence below this a conflicting cycle is forced to hold.
	conflictMinConfidence = 0.25
	maxConfidence         = 0.99

	// advisoryConfidenceSlack alignment tolerance for accepting an advisory.
	advisoryConfidenceSlack = 0.1
	// advisoryOverrideMargin confidence edge for an unaligned override.
	advisoryOverrideMargin = 0.2

	defaultAdvisoryTimeout = 30 * time.Second
	defaultLiquidityScore  = 0.5
)

// TechnicalAnalyzer produces a directional signal from candle history.
type TechnicalAnalyzer interface {
	Analyze(snapshot domain.CandleSnapshot) domain.TechnicalSignal
}

// SentimentScorer produces a blended sentiment score.
type SentimentScorer interface {
	Score(inputs domain.SentimentInputs) domain.SentimentResult
}

// AdvisoryRequest market context handed to the advisory overlay.
type AdvisoryRequest struct {
	Symbol    string
	LastPrice float64
	Candles   domain.CandleSnapshot
	Signal    domain.TechnicalSignal
	Sentiment domain.SentimentResult
	Regime    domain.Regime
	Account   domain.AccountState
}

// AdvisoryProvider optional external overlay. Failure or timeout degrades to
// "no advisory" and never blocks a decision.
type AdvisoryProvider interface {
	Advise(ctx context.Context, req AdvisoryRequest) (*domain.AdvisoryDecision, error)
}

// DecisionInput fully-materialized snapshot for one decision cycle.
type DecisionInput struct {
	Symbol      string
	Candles     domain.CandleSnapshot
	Sentiment   domain.SentimentInputs
	Account     domain.AccountState
	Market      risk.MarketConditions
	Performance []domain.PerformanceRecord
	// Liquidity score in [0, 1]; zero means unknown.
	Liquidity float64
}

// Orchestrator fuses the analyzer outputs under regime-adaptive weighting
// and hands the result through the risk manager.
type Orchestrator struct {
	technical       TechnicalAnalyzer
	sentiment       SentimentScorer
	risk            *risk.Manager
	advisory        AdvisoryProvider
	advisoryTimeout time.Duration
	logger          *zap.Logger
}

// NewOrchestrator creates an orchestrator. advisory may be nil to disable
// the overlay.
func NewOrchestrator(
	technical TechnicalAnalyzer,
	sentiment SentimentScorer,
	riskManager *risk.Manager,
	advisory AdvisoryProvider,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		technical:       technical,
		sentiment:       sentiment,
		risk:            riskManager,
		advisory:        advisory,
		advisoryTimeout: defaultAdvisoryTimeout,
		logger:          logger,
	}
}

// Decide runs one decision cycle. The function is total: unavailable
// sub-signals degrade to neutral defaults, a tripped risk gate yields a hold
// decision rather than an error.
func (o *Orchestrator) Decide(ctx context.Context, input DecisionInput) domain.TradeDecision {
	lastPrice := o.entryPrice(input)

	// gate
	if halt, reason := o.risk.ShouldHaltTrading(input.Account); halt {
		return o.holdDecision(input.Symbol, "risk_halt: "+reason)
	}
	if o.risk.MarketCircuitBreaker(input.Market) {
		return o.holdDecision(input.Symbol, "risk_halt: market circuit breaker")
	}

	// independent signal generation
	var (
		techSig domain.TechnicalSignal
		sentRes domain.SentimentResult
		wg      sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		techSig = o.technical.Analyze(input.Candles)
	}()
	go func() {
		defer wg.Done()
		sentRes = o.sentiment.Score(input.Sentiment)
	}()
	wg.Wait()

	atr := techSig.Context["atr_medium"]
	liquidity := input.Liquidity
	if liquidity <= 0 {
		liquidity = defaultLiquidityScore
	}
	regime := o.risk.DetectRegime(lastPrice, atr, techSig.Context["ema9_medium"], techSig.Context["ema21_medium"], liquidity)

	techWeight, sentWeight := AdaptiveWeights(regime.Trending, input.Performance)

	techBias := techSig.Action.Bias()
	sentBias := float64(sentRes.Score-50) / 50

	fused := (techBias*techSig.Confidence*techWeight + sentBias*sentWeight) / (techWeight + sentWeight)

	action := actionForBias(fused)
	confidence := math.Min(maxConfidence, math.Abs(fused))

	rationale := fmt.Sprintf("fused=%.3f tech=%s(%.2f) sentiment=%d weights=%.2f/%.2f",
		fused, techSig.Action, techSig.Confidence, sentRes.Score, techWeight, sentWeight)

	// conflict resolution: the signals point opposite ways and the sentiment
	// side disagrees by more than the threshold
	if techBias != 0 && techBias*sentBias < 0 && math.Abs(sentBias) > conflictThreshold {
		switch {
		case confidence < conflictMinConfidence:
			action = domain.ActionHold
			rationale += " conflict=hold"
		case regime.Trending:
			action = techSig.Action
			rationale += " conflict=defer_technical"
		default:
			action = actionForBias(sentBias)
			rationale += " conflict=defer_sentiment"
		}
	}

	// sizing
	localSize := o.risk.CapOrderSizeUSD(o.risk.PositionSizeUSD(input.Account.Equity(), confidence, atr, lastPrice))

	decision := domain.TradeDecision{
		ID:         uuid.New(),
		Symbol:     input.Symbol,
		Action:     action,
		Confidence: confidence,
		Regime:     regime,
		Rationale:  rationale,
		CreatedAt:  time.Now().UTC(),
	}

	if adv := o.fetchAdvisory(ctx, input, lastPrice, techSig, sentRes, regime); adv != nil {
		decision.Advisory = adv
		if accepted := o.applyAdvisory(&decision, adv, localSize, input.Account.Equity()); accepted {
			localSize = decision.SizeUSD.InexactFloat64()
		}
	}

	if decision.Action == domain.ActionHold {
		decision.SizeUSD = decimal.Zero
	} else {
		decision.SizeUSD = decimal.NewFromFloat(localSize)
	}
	decision.Stops = o.risk.ComputeStops(lastPrice, decision.Action, atr)

	o.logger.Info("decision",
		zap.String("symbol", decision.Symbol),
		zap.String("action", string(decision.Action)),
		zap.Float64("confidence", decision.Confidence),
		zap.String("size_usd", decision.SizeUSD.StringFixed(2)),
		zap.String("regime", regime.String()),
		zap.String("rationale", decision.Rationale))

	return decision
}

// fetchAdvisory calls the overlay with a bounded timeout. Any failure is
// logged and treated as "no advisory".
func (o *Orchestrator) fetchAdvisory(
	ctx context.Context,
	input DecisionInput,
	lastPrice float64,
	techSig domain.TechnicalSignal,
	sentRes domain.SentimentResult,
	regime domain.Regime,
) *domain.AdvisoryDecision {
	if o.advisory == nil {
		return nil
	}

	advCtx, cancel := context.WithTimeout(ctx, o.advisoryTimeout)
	defer cancel()

	adv, err := o.advisory.Advise(advCtx, AdvisoryRequest{
		Symbol:    input.Symbol,
		LastPrice: lastPrice,
		Candles:   input.Candles,
		Signal:    techSig,
		Sentiment: sentRes,
		Regime:    regime,
		Account:   input.Account,
	})
	if err != nil {
		o.logger.Warn("advisory unavailable", zap.String("symbol", input.Symbol), zap.Error(err))
		return nil
	}
	return adv
}

// applyAdvisory overrides action/confidence/size when the advisory either
// aligns with the local decision at comparable confidence, or beats the
// local confidence by a clear margin. The accepted size is never larger
// than the locally computed one.
func (o *Orchestrator) applyAdvisory(decision *domain.TradeDecision, adv *domain.AdvisoryDecision, localSize, equity float64) bool {
	advAction := adv.ToAction()

	aligned := advAction == decision.Action && adv.Confidence >= decision.Confidence-advisoryConfidenceSlack
	dominant := adv.Confidence > decision.Confidence+advisoryOverrideMargin
	if !aligned && !dominant {
		return false
	}

	advSize := equity * adv.PositionSizePct / 100
	decision.Action = advAction
	decision.Confidence = adv.Confidence
	decision.SizeUSD = decimal.NewFromFloat(o.risk.CapOrderSizeUSD(math.Min(localSize, advSize)))
	decision.Rationale += " advisory=accepted"
	return true
}

func (o *Orchestrator) holdDecision(symbol, rationale string) domain.TradeDecision {
	o.logger.Warn("trading gated", zap.String("symbol", symbol), zap.String("reason", rationale))
	return domain.TradeDecision{
		ID:        uuid.New(),
		Symbol:    symbol,
		Action:    domain.ActionHold,
		SizeUSD:   decimal.Zero,
		Rationale: rationale,
		CreatedAt: time.Now().UTC(),
	}
}

func (o *Orchestrator) entryPrice(input DecisionInput) float64 {
	if close, ok := domain.LastClose(input.Candles.Medium); ok {
		return close.InexactFloat64()
	}
	if close, ok := domain.LastClose(input.Candles.Short); ok {
		return close.InexactFloat64()
	}
	return input.Sentiment.LastPrice
}

func actionForBias(bias float64) domain.Action {
	switch {
	case bias > actionThreshold:
		return domain.ActionBuy
	case bias < -actionThreshold:
		return domain.ActionSell
	default:
		return domain.ActionHold
	}
}
