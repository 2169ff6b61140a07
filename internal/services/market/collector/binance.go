package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/sentio/internal/domain"
)

// BinanceKlineProvider implements KlineProvider for Binance.
type BinanceKlineProvider struct {
	client *binance.Client
}

// NewBinanceKlineProvider creates a new Binance kline provider.
func NewBinanceKlineProvider(client *binance.Client) *BinanceKlineProvider {
	return &BinanceKlineProvider{client: client}
}

// GetKlines fetches kline data from Binance.
func (p *BinanceKlineProvider) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", symbol)
	}

	result := make([]domain.Candle, len(klines))
	for i, k := range klines {
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse open price at index %d", i)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse high price at index %d", i)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse low price at index %d", i)
		}
		close, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse volume at index %d", i)
		}

		result[i] = domain.Candle{
			OpenTime:  time.Unix(0, k.OpenTime*int64(time.Millisecond)),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
			CloseTime: time.Unix(0, k.CloseTime*int64(time.Millisecond)),
		}
	}

	return result, nil
}

// BinanceDepthProvider implements DepthProvider over the Binance depth
// endpoint, aggregating the top of book into a single imbalance figure.
type BinanceDepthProvider struct {
	client *binance.Client
	limit  int
}

// NewBinanceDepthProvider creates a depth provider reading the top levels of
// the book.
func NewBinanceDepthProvider(client *binance.Client, limit int) *BinanceDepthProvider {
	if limit <= 0 {
		limit = 100
	}
	return &BinanceDepthProvider{client: client, limit: limit}
}

// GetDepth fetches the order book and aggregates both sides.
func (p *BinanceDepthProvider) GetDepth(ctx context.Context, symbol string) (domain.OrderBookSnapshot, error) {
	depth, err := p.client.NewDepthService().
		Symbol(symbol).
		Limit(p.limit).
		Do(ctx)
	if err != nil {
		return domain.OrderBookSnapshot{}, errors.Wrapf(err, "failed to fetch depth from Binance for %s", symbol)
	}

	var bidDepth, askDepth float64
	for _, bid := range depth.Bids {
		qty, err := strconv.ParseFloat(bid.Quantity, 64)
		if err != nil {
			return domain.OrderBookSnapshot{}, errors.Wrap(err, "failed to parse bid quantity")
		}
		bidDepth += qty
	}
	for _, ask := range depth.Asks {
		qty, err := strconv.ParseFloat(ask.Quantity, 64)
		if err != nil {
			return domain.OrderBookSnapshot{}, errors.Wrap(err, "failed to parse ask quantity")
		}
		askDepth += qty
	}

	snapshot := domain.OrderBookSnapshot{
		BidDepth: bidDepth,
		AskDepth: askDepth,
	}
	if total := bidDepth + askDepth; total > 0 {
		snapshot.Imbalance = (bidDepth - askDepth) / total
	}
	return snapshot, nil
}
