// Package collector fetches candlestick and order-book data from exchanges
// and assembles the multi-timeframe snapshot the decision cycle consumes.
package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/sentio/internal/domain"
	"go.uber.org/zap"
)

const fetchTimeout = 30 * time.Second

// KlineProvider fetches historical candles for a symbol.
// interval uses the standard notation ("5m", "1h", "4h").
type KlineProvider interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
}

// DepthProvider fetches an aggregated order-book snapshot for a symbol.
type DepthProvider interface {
	GetDepth(ctx context.Context, symbol string) (domain.OrderBookSnapshot, error)
}

// Collector assembles three-timeframe candle snapshots for one symbol.
type Collector struct {
	provider KlineProvider
	depth    DepthProvider
	symbol   string
	lookback int
	logger   *zap.Logger
}

// NewCollector creates a collector. depth may be nil when the venue exposes
// no depth endpoint; the order book then degrades to an empty snapshot.
func NewCollector(provider KlineProvider, depth DepthProvider, symbol string, lookback int, logger *zap.Logger) *Collector {
	return &Collector{
		provider: provider,
		depth:    depth,
		symbol:   symbol,
		lookback: lookback,
		logger:   logger,
	}
}

// Snapshot fetches the short, medium and long timeframes. A failed timeframe
// leaves its series empty rather than failing the snapshot; the analyzer
// degrades to neutral on missing data.
func (c *Collector) Snapshot(ctx context.Context) (domain.CandleSnapshot, error) {
	snapshot := domain.CandleSnapshot{Symbol: c.symbol}

	timeframes := []struct {
		interval string
		dst      *[]domain.Candle
	}{
		{domain.TimeframeShort, &snapshot.Short},
		{domain.TimeframeMedium, &snapshot.Medium},
		{domain.TimeframeLong, &snapshot.Long},
	}

	var fetched int
	for _, tf := range timeframes {
		candles, err := c.fetchTimeframe(ctx, tf.interval)
		if err != nil {
			c.logger.Warn("timeframe fetch failed",
				zap.String("symbol", c.symbol),
				zap.String("interval", tf.interval),
				zap.Error(err))
			continue
		}
		*tf.dst = candles
		fetched++
	}

	if fetched == 0 {
		return snapshot, errors.Errorf("no timeframe data for %s", c.symbol)
	}
	return snapshot, nil
}

// OrderBook fetches the current depth snapshot, empty when no depth provider
// is configured.
func (c *Collector) OrderBook(ctx context.Context) domain.OrderBookSnapshot {
	if c.depth == nil {
		return domain.OrderBookSnapshot{}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	book, err := c.depth.GetDepth(ctxWithTimeout, c.symbol)
	if err != nil {
		c.logger.Warn("depth fetch failed", zap.String("symbol", c.symbol), zap.Error(err))
		return domain.OrderBookSnapshot{}
	}
	return book
}

func (c *Collector) fetchTimeframe(ctx context.Context, interval string) ([]domain.Candle, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	candles, err := c.provider.GetKlines(ctxWithTimeout, c.symbol, interval, c.lookback)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines for timeframe %s", interval)
	}
	if len(candles) == 0 {
		return nil, errors.Errorf("no kline data returned for timeframe %s", interval)
	}
	return candles, nil
}
