package domain

// StrategyTag identifies the signal source a trade outcome is attributed to.
type StrategyTag string

const (
	StrategyTechnical StrategyTag = "tech"
	StrategySentiment StrategyTag = "sentiment"
)

// PerformanceRecord historical trade outcome used for adaptive weighting.
// The history is append-only and maintained outside the decision core.
type PerformanceRecord struct {
	Strategy   StrategyTag `json:"strategy"`
	Success    bool        `json:"success"`
	RiskReward float64     `json:"rr"`
	PnLUSD     float64     `json:"pnl_usd"`
}
