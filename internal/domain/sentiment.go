package domain

// OrderBookSnapshot aggregated depth on both sides of the book.
// Imbalance is bounded to [-1, 1]; positive values mean bid-heavy.
type OrderBookSnapshot struct {
	BidDepth  float64
	AskDepth  float64
	Imbalance float64
}

// SocialMetrics per-source social sentiment scores, each in [-1, 1].
type SocialMetrics struct {
	Twitter  float64
	Telegram float64
	Trends   float64
	News     float64
}

// OnChainMetrics on-chain activity snapshot.
type OnChainMetrics struct {
	WhaleInflowUSD   float64
	WhaleOutflowUSD  float64
	ExchangeNetflow  float64 // [-1, 1], positive = coins flowing onto exchanges
	GasPriceGwei     float64
	ActiveAddrsDelta float64 // [-1, 1]
}

// LiquidationCluster price level with accumulated liquidation size in USD.
type LiquidationCluster struct {
	Price float64
	Size  float64
}

// MarketStructure support/resistance levels, liquidation clusters and book depth.
type MarketStructure struct {
	Supports            []float64
	Resistances         []float64
	LiquidationClusters []LiquidationCluster
	OrderBook           OrderBookSnapshot
}

// SentimentInputs externally supplied inputs for one sentiment fusion cycle.
type SentimentInputs struct {
	Social    SocialMetrics
	OnChain   OnChainMetrics
	Structure MarketStructure
	LastPrice float64
}

// SentimentLabel qualitative sentiment classification.
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "bullish"
	SentimentNeutral SentimentLabel = "neutral"
	SentimentBearish SentimentLabel = "bearish"
)

// SentimentBreakdown per-component sub-scores, each in [0, 100].
type SentimentBreakdown struct {
	Social    int
	OnChain   int
	Structure int
}

// SentimentResult blended sentiment score with audit breakdown.
type SentimentResult struct {
	Score     int // [0, 100]
	Label     SentimentLabel
	Breakdown SentimentBreakdown
}

// LabelForScore classifies a blended score: bullish above 60, bearish below 40.
func LabelForScore(score int) SentimentLabel {
	switch {
	case score > 60:
		return SentimentBullish
	case score < 40:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}
