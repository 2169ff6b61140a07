package domain

import "github.com/shopspring/decimal"

// Position open position snapshot for a single symbol.
type Position struct {
	Size        decimal.Decimal
	NotionalUSD decimal.Decimal
}

// AccountState account snapshot supplied fresh each decision cycle.
type AccountState struct {
	EquityUSD           decimal.Decimal
	PeakEquityUSD       decimal.Decimal
	RealizedPnLTodayUSD decimal.Decimal
	Positions           map[string]Position
	// CircuitBreaker is the operator's explicit halt switch.
	CircuitBreaker bool
}

// Equity returns account equity as float64 for numeric pipelines.
func (a AccountState) Equity() float64 {
	return a.EquityUSD.InexactFloat64()
}

// DrawdownFromPeak returns the fractional drawdown from the equity peak,
// 0 when the peak is unknown or not yet established.
func (a AccountState) DrawdownFromPeak() float64 {
	peak := a.PeakEquityUSD.InexactFloat64()
	if peak <= 0 {
		return 0
	}
	dd := (peak - a.Equity()) / peak
	if dd < 0 {
		return 0
	}
	return dd
}
