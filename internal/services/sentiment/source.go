package sentiment

import (
	"context"

	"github.com/vadiminshakov/sentio/internal/domain"
	"go.uber.org/zap"
)

const swingWindow = 2

// GasPricer supplies the current gas price in gwei.
type GasPricer interface {
	GasPriceGwei(ctx context.Context) (float64, error)
}

// InputsSource assembles sentiment inputs for one cycle from whatever data
// sources are configured. Missing sources resolve to neutral values so the
// engine always receives a complete snapshot.
type InputsSource struct {
	gas    GasPricer
	logger *zap.Logger
}

// NewInputsSource creates an inputs source. gas may be nil.
func NewInputsSource(gas GasPricer, logger *zap.Logger) *InputsSource {
	return &InputsSource{gas: gas, logger: logger}
}

// Collect builds the sentiment inputs: order book and support/resistance
// levels from market data, gas price from the chain when available.
func (s *InputsSource) Collect(ctx context.Context, snapshot domain.CandleSnapshot, book domain.OrderBookSnapshot) domain.SentimentInputs {
	inputs := domain.SentimentInputs{
		OnChain: domain.OnChainMetrics{
			// baseline keeps the gas bias neutral when no chain source is wired
			GasPriceGwei: gasBaselineGwei,
		},
		Structure: domain.MarketStructure{
			OrderBook: book,
		},
	}

	if close, ok := domain.LastClose(snapshot.Medium); ok {
		inputs.LastPrice = close.InexactFloat64()
	} else if close, ok := domain.LastClose(snapshot.Short); ok {
		inputs.LastPrice = close.InexactFloat64()
	}

	inputs.Structure.Supports, inputs.Structure.Resistances = swingLevels(snapshot.Medium)

	if s.gas != nil {
		gwei, err := s.gas.GasPriceGwei(ctx)
		if err != nil {
			s.logger.Warn("gas price fetch failed", zap.Error(err))
		} else {
			inputs.OnChain.GasPriceGwei = gwei
		}
	}

	return inputs
}

// swingLevels extracts local extrema: a candle whose low undercuts its
// neighbors on both sides marks a support, the mirror for resistances.
func swingLevels(candles []domain.Candle) (supports, resistances []float64) {
	for i := swingWindow; i < len(candles)-swingWindow; i++ {
		low := candles[i].Low.InexactFloat64()
		high := candles[i].High.InexactFloat64()

		isSupport, isResistance := true, true
		for j := i - swingWindow; j <= i+swingWindow; j++ {
			if j == i {
				continue
			}
			if candles[j].Low.InexactFloat64() < low {
				isSupport = false
			}
			if candles[j].High.InexactFloat64() > high {
				isResistance = false
			}
		}

		if isSupport {
			supports = append(supports, low)
		}
		if isResistance {
			resistances = append(resistances, high)
		}
	}
	return supports, resistances
}
