package sentiment

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/sentio/internal/domain"
	"go.uber.org/zap"
)

type stubGas struct {
	gwei float64
	err  error
}

func (s *stubGas) GasPriceGwei(context.Context) (float64, error) {
	return s.gwei, s.err
}

func candleHL(high, low, close float64) domain.Candle {
	return domain.Candle{
		Open:  decimal.NewFromFloat(close),
		High:  decimal.NewFromFloat(high),
		Low:   decimal.NewFromFloat(low),
		Close: decimal.NewFromFloat(close),
	}
}

func TestCollect(t *testing.T) {
	// v-shape around index 3, peak at index 7
	candles := []domain.Candle{
		candleHL(105, 100, 102),
		candleHL(104, 99, 101),
		candleHL(103, 98, 100),
		candleHL(102, 95, 97), // swing low
		candleHL(104, 97, 103),
		candleHL(106, 101, 105),
		candleHL(108, 103, 107),
		candleHL(112, 105, 108), // swing high
		candleHL(110, 104, 106),
		candleHL(109, 103, 105),
	}
	snapshot := domain.CandleSnapshot{Symbol: "BTCUSDT", Medium: candles}

	t.Run("structure assembled from market data", func(t *testing.T) {
		src := NewInputsSource(nil, zap.NewNop())
		book := domain.OrderBookSnapshot{BidDepth: 10, AskDepth: 5, Imbalance: 0.33}

		inputs := src.Collect(context.Background(), snapshot, book)

		assert.Equal(t, book, inputs.Structure.OrderBook)
		assert.Equal(t, 105.0, inputs.LastPrice)
		require.Contains(t, inputs.Structure.Supports, 95.0)
		require.Contains(t, inputs.Structure.Resistances, 112.0)
	})

	t.Run("no gas source keeps baseline", func(t *testing.T) {
		src := NewInputsSource(nil, zap.NewNop())
		inputs := src.Collect(context.Background(), snapshot, domain.OrderBookSnapshot{})
		assert.Equal(t, float64(gasBaselineGwei), inputs.OnChain.GasPriceGwei)
	})

	t.Run("gas source value is used", func(t *testing.T) {
		src := NewInputsSource(&stubGas{gwei: 45}, zap.NewNop())
		inputs := src.Collect(context.Background(), snapshot, domain.OrderBookSnapshot{})
		assert.Equal(t, 45.0, inputs.OnChain.GasPriceGwei)
	})

	t.Run("gas failure degrades to baseline", func(t *testing.T) {
		src := NewInputsSource(&stubGas{err: errors.New("rpc down")}, zap.NewNop())
		inputs := src.Collect(context.Background(), snapshot, domain.OrderBookSnapshot{})
		assert.Equal(t, float64(gasBaselineGwei), inputs.OnChain.GasPriceGwei)
	})

	t.Run("short history yields no levels", func(t *testing.T) {
		src := NewInputsSource(nil, zap.NewNop())
		inputs := src.Collect(context.Background(), domain.CandleSnapshot{Medium: candles[:3]}, domain.OrderBookSnapshot{})
		assert.Empty(t, inputs.Structure.Supports)
		assert.Empty(t, inputs.Structure.Resistances)
	})
}
