// Package indicators provides technical analysis indicators for the decision
// engine. All functions are pure and total: insufficient or malformed input
// yields ErrInsufficientData, never a panic.
package indicators

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/sentio/internal/domain"
)

// ErrInsufficientData is returned when a series is too short for the
// requested indicator. Consumers treat it as "no signal", not as a failure.
var ErrInsufficientData = errors.New("insufficient data for indicator")

// Bar single OHLCV bar in float form for numeric pipelines.
type Bar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarsFromCandles converts domain candles to float bars.
func BarsFromCandles(candles []domain.Candle) []Bar {
	bars := make([]Bar, len(candles))
	for i, c := range candles {
		bars[i] = Bar{
			Open:   c.Open.InexactFloat64(),
			High:   c.High.InexactFloat64(),
			Low:    c.Low.InexactFloat64(),
			Close:  c.Close.InexactFloat64(),
			Volume: c.Volume.InexactFloat64(),
		}
	}
	return bars
}

// Closes extracts the close price series.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// EMA calculates the exponential moving average seeded with the arithmetic
// mean of the first period values; the smoothing factor 2/(period+1) is
// applied to the remainder of the series.
func EMA(values []float64, period int) (float64, error) {
	if period <= 0 || len(values) < period {
		return 0, errors.Wrapf(ErrInsufficientData, "ema: need %d values, got %d", period, len(values))
	}

	ema := 0.0
	for _, v := range values[:period] {
		ema += v
	}
	ema /= float64(period)

	k := 2.0 / float64(period+1)
	for _, v := range values[period:] {
		ema = (v-ema)*k + ema
	}
	return ema, nil
}

// RSI calculates the relative strength index over the trailing period
// differences. A series with no losses returns exactly 100; this degenerate
// all-gains behavior is intentional.
func RSI(values []float64, period int) (float64, error) {
	if period <= 0 || len(values) < period+1 {
		return 0, errors.Wrapf(ErrInsufficientData, "rsi: need %d values, got %d", period+1, len(values))
	}

	gains, losses := 0.0, 0.0
	for i := len(values) - period; i < len(values); i++ {
		diff := values[i] - values[i-1]
		if diff > 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, nil
	}
	return 100 - 100/(1+avgGain/avgLoss), nil
}

// MACDResult MACD line, signal line and histogram.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD calculates the MACD line as the fast/slow EMA difference. The signal
// line is an EMA over a MACD-line history reconstructed by recomputing the
// EMAs on a bounded trailing window rather than incrementally over the full
// series. The approximation is deliberate: downstream trend thresholds were
// tuned against it.
func MACD(values []float64, fast, slow, signal int) (MACDResult, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 || len(values) < slow+signal {
		return MACDResult{}, errors.Wrapf(ErrInsufficientData, "macd: need %d values, got %d", slow+signal, len(values))
	}

	history := make([]float64, 0, signal+1)
	for offset := signal; offset >= 0; offset-- {
		window := values[:len(values)-offset]
		fastEMA, err := EMA(window, fast)
		if err != nil {
			return MACDResult{}, err
		}
		slowEMA, err := EMA(window, slow)
		if err != nil {
			return MACDResult{}, err
		}
		history = append(history, fastEMA-slowEMA)
	}

	macdLine := history[len(history)-1]
	signalLine, err := EMA(history, signal)
	if err != nil {
		return MACDResult{}, err
	}

	return MACDResult{
		MACD:      macdLine,
		Signal:    signalLine,
		Histogram: macdLine - signalLine,
	}, nil
}

// BollingerBands middle band with upper/lower bands at mult standard deviations.
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger calculates Bollinger Bands over the trailing period using the
// population standard deviation.
func Bollinger(values []float64, period int, mult float64) (BollingerBands, error) {
	if period <= 0 || len(values) < period {
		return BollingerBands{}, errors.Wrapf(ErrInsufficientData, "bollinger: need %d values, got %d", period, len(values))
	}

	window := values[len(values)-period:]
	mean := 0.0
	for _, v := range window {
		mean += v
	}
	mean /= float64(period)

	variance := 0.0
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	stdev := math.Sqrt(variance / float64(period))

	return BollingerBands{
		Upper:  mean + mult*stdev,
		Middle: mean,
		Lower:  mean - mult*stdev,
	}, nil
}

// ATR calculates the average true range as the arithmetic mean of the true
// range over the trailing period bars. One extra bar is required so every
// true range has a previous close.
func ATR(bars []Bar, period int) (float64, error) {
	if period <= 0 || len(bars) < period+1 {
		return 0, errors.Wrapf(ErrInsufficientData, "atr: need %d bars, got %d", period+1, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += trueRange(bars[i], bars[i-1].Close)
	}
	return sum / float64(period), nil
}

func trueRange(bar Bar, prevClose float64) float64 {
	tr := bar.High - bar.Low
	if hc := math.Abs(bar.High - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(bar.Low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

// VolumeProfileResult point of control and the observed close-price range.
type VolumeProfileResult struct {
	PointOfControl float64
	RangeLow       float64
	RangeHigh      float64
}

// VolumeProfile partitions the observed close-price range into equal-width
// buckets, accumulates volume per bucket and reports the midpoint of the
// bucket with the highest accumulated volume. On ties the first bucket wins.
func VolumeProfile(bars []Bar, bins int) (VolumeProfileResult, error) {
	if len(bars) == 0 {
		return VolumeProfileResult{}, errors.Wrap(ErrInsufficientData, "volume profile: no bars")
	}
	if bins <= 0 {
		bins = 12
	}

	low, high := bars[0].Close, bars[0].Close
	for _, b := range bars[1:] {
		if b.Close < low {
			low = b.Close
		}
		if b.Close > high {
			high = b.Close
		}
	}

	if high == low {
		return VolumeProfileResult{PointOfControl: low, RangeLow: low, RangeHigh: high}, nil
	}

	width := (high - low) / float64(bins)
	buckets := make([]float64, bins)
	for _, b := range bars {
		idx := int((b.Close - low) / width)
		if idx >= bins {
			idx = bins - 1
		}
		buckets[idx] += b.Volume
	}

	best := 0
	for i, v := range buckets {
		if v > buckets[best] {
			best = i
		}
	}

	return VolumeProfileResult{
		PointOfControl: low + (float64(best)+0.5)*width,
		RangeLow:       low,
		RangeHigh:      high,
	}, nil
}
