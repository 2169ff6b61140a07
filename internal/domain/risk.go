package domain

// CorrelationStats aggregate pairwise correlation statistics over the
// current portfolio. The matrix diagonal is excluded from aggregates.
type CorrelationStats struct {
	AvgCorrelation    float64
	MaxCorrelation    float64
	RiskConcentration float64 // Herfindahl index over position notional weights
}

// RiskFlags individual findings retained for audit alongside the halt verdict.
type RiskFlags struct {
	CorrelationBreakdown bool
	ConcentrationRisk    bool
	VolatilitySpike      bool
	DrawdownLimit        bool
}

// RiskAssessment composed portfolio risk verdict.
type RiskAssessment struct {
	Correlation CorrelationStats
	Flags       RiskFlags
	ShouldHalt  bool
}

// StopLevels protective stop and target prices for an entry.
type StopLevels struct {
	StopLoss   float64
	TakeProfit float64
}
