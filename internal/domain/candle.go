package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe intervals consumed by the decision engine.
const (
	TimeframeShort  = "5m"
	TimeframeMedium = "1h"
	TimeframeLong   = "4h"
)

// Candle single OHLCV candlestick. Candle sequences are ordered
// chronologically and never mutated after collection.
type Candle struct {
	OpenTime  time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime time.Time
}

// CandleSnapshot candle sequences for one decision cycle, keyed by interval.
type CandleSnapshot struct {
	Symbol string
	Short  []Candle
	Medium []Candle
	Long   []Candle
}

// LastClose returns the close price of the most recent candle in the series.
func LastClose(candles []Candle) (decimal.Decimal, bool) {
	if len(candles) == 0 {
		return decimal.Zero, false
	}
	return candles[len(candles)-1].Close, true
}
