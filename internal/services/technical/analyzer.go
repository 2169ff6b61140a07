// Package technical derives a directional trading signal from multi-timeframe
// candle data. It blends a short-timeframe mean-reversion bias with a
// medium/long-timeframe trend bias, weighted by the current volatility regime.
package technical

import (
	"fmt"
	"math"

	"github.com/vadiminshakov/sentio/internal/domain"
	"github.com/vadiminshakov/sentio/internal/services/indicators"
	"go.uber.org/zap"
)

const (
	rsiPeriod       = 14
	bollingerPeriod = 20
	bollingerMult   = 2.0
	emaFast         = 9
	emaMid          = 21
	emaSlow         = 50
	macdFast        = 12
	macdSlow        = 26
	macdSignal      = 9
	atrPeriod       = 14
	profileBins     = 12

	// volNormScale expresses medium-timeframe ATR as a fraction of 3% of price.
	volNormScale = 0.03

	actionThreshold = 0.1
	minSizeFactor   = 0.05
	maxSizeFactor   = 0.5
)

// Analyzer computes technical signals. Stateless: every call is a pure
// function of the supplied candle snapshot.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a technical analyzer.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze derives a technical signal from short (5m), medium (1h) and
// long (4h) candle sequences. Indicators lacking history degrade to a
// neutral contribution instead of failing the cycle.
func (a *Analyzer) Analyze(snapshot domain.CandleSnapshot) domain.TechnicalSignal {
	short := indicators.BarsFromCandles(snapshot.Short)
	medium := indicators.BarsFromCandles(snapshot.Medium)
	long := indicators.BarsFromCandles(snapshot.Long)

	if len(medium) == 0 {
		a.logger.Warn("no medium timeframe candles, technical signal degraded to neutral",
			zap.String("symbol", snapshot.Symbol))
		return domain.NeutralTechnicalSignal("no medium timeframe data")
	}

	ctx := make(map[string]float64)
	lastMedium := medium[len(medium)-1].Close

	mrBias := a.meanReversionBias(short, ctx)
	trendBias := a.trendBias(medium, long, ctx)

	volNorm := 0.0
	if atr, err := indicators.ATR(medium, atrPeriod); err == nil {
		ctx["atr_medium"] = atr
		if lastMedium > 0 {
			volNorm = clamp(atr/(volNormScale*lastMedium), 0, 1)
		}
	}
	ctx["vol_norm"] = volNorm

	if vp, err := indicators.VolumeProfile(medium, profileBins); err == nil {
		ctx["poc"] = vp.PointOfControl
		ctx["price_range_low"] = vp.RangeLow
		ctx["price_range_high"] = vp.RangeHigh
	}

	mrWeight := 0.45 * (1 - volNorm)
	trendWeight := 0.55 * (0.5 + volNorm/2)
	bias := mrBias*mrWeight + trendBias*trendWeight

	ctx["mr_bias"] = mrBias
	ctx["trend_bias"] = trendBias
	ctx["combined_bias"] = bias

	action := domain.ActionHold
	switch {
	case bias > actionThreshold:
		action = domain.ActionBuy
	case bias < -actionThreshold:
		action = domain.ActionSell
	}

	size := clamp(minSizeFactor+(maxSizeFactor-minSizeFactor)*volNorm, minSizeFactor, maxSizeFactor)

	return domain.TechnicalSignal{
		Action:     action,
		Confidence: math.Min(0.99, math.Abs(bias)),
		Size:       size,
		Rationale: fmt.Sprintf("mr=%.2f trend=%.2f volNorm=%.2f -> bias=%.3f",
			mrBias, trendBias, volNorm, bias),
		Context: ctx,
	}
}

// meanReversionBias is -1 when price stretches above the upper Bollinger band
// with overbought RSI, +1 for the oversold mirror, 0 otherwise.
func (a *Analyzer) meanReversionBias(short []indicators.Bar, ctx map[string]float64) float64 {
	closes := indicators.Closes(short)

	bb, errBB := indicators.Bollinger(closes, bollingerPeriod, bollingerMult)
	rsi, errRSI := indicators.RSI(closes, rsiPeriod)
	if errBB != nil || errRSI != nil || len(closes) == 0 {
		return 0
	}

	last := closes[len(closes)-1]
	ctx["rsi_short"] = rsi
	ctx["bb_upper_short"] = bb.Upper
	ctx["bb_middle_short"] = bb.Middle
	ctx["bb_lower_short"] = bb.Lower

	switch {
	case last > bb.Upper && rsi > 70:
		return -1
	case last < bb.Lower && rsi < 30:
		return 1
	default:
		return 0
	}
}

// trendBias is +1 when the medium-timeframe EMA stack is bullish
// (EMA9 > EMA21 > EMA50) with a positive MACD histogram, -1 for the strict
// mirror, 0 otherwise. Long-timeframe indicators are computed for context.
func (a *Analyzer) trendBias(medium, long []indicators.Bar, ctx map[string]float64) float64 {
	closes := indicators.Closes(medium)

	ema9, err9 := indicators.EMA(closes, emaFast)
	ema21, err21 := indicators.EMA(closes, emaMid)
	ema50, err50 := indicators.EMA(closes, emaSlow)
	macd, errMACD := indicators.MACD(closes, macdFast, macdSlow, macdSignal)
	if rsi, err := indicators.RSI(closes, rsiPeriod); err == nil {
		ctx["rsi_medium"] = rsi
	}
	if bb, err := indicators.Bollinger(closes, bollingerPeriod, bollingerMult); err == nil {
		ctx["bb_middle_medium"] = bb.Middle
	}

	longCloses := indicators.Closes(long)
	if rsi, err := indicators.RSI(longCloses, rsiPeriod); err == nil {
		ctx["rsi_long"] = rsi
	}
	if ema, err := indicators.EMA(longCloses, emaFast); err == nil {
		ctx["ema9_long"] = ema
	}
	if ema, err := indicators.EMA(longCloses, emaMid); err == nil {
		ctx["ema21_long"] = ema
	}
	if ema, err := indicators.EMA(longCloses, emaSlow); err == nil {
		ctx["ema50_long"] = ema
	}
	if macdLong, err := indicators.MACD(longCloses, macdFast, macdSlow, macdSignal); err == nil {
		ctx["macd_hist_long"] = macdLong.Histogram
	}

	if err9 != nil || err21 != nil || err50 != nil || errMACD != nil {
		return 0
	}

	ctx["ema9_medium"] = ema9
	ctx["ema21_medium"] = ema21
	ctx["ema50_medium"] = ema50
	ctx["macd_hist_medium"] = macd.Histogram

	switch {
	case ema9 > ema21 && ema21 > ema50 && macd.Histogram > 0:
		return 1
	case ema9 < ema21 && ema21 < ema50 && macd.Histogram < 0:
		return -1
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
