// Package sentiment fuses social, on-chain and market-structure inputs into
// a single bounded sentiment score with a per-component breakdown.
package sentiment

import (
	"math"

	"github.com/vadiminshakov/sentio/internal/domain"
	"go.uber.org/zap"
)

const (
	weightSocial    = 0.45
	weightOnChain   = 0.35
	weightStructure = 0.2

	// whaleFlowScaleUSD compresses whale net flow via tanh.
	whaleFlowScaleUSD = 1_000_000
	// gasBaselineGwei is the reference gas price; deviation is tanh-compressed.
	gasBaselineGwei = 20.0
	gasScaleGwei    = 50.0
)

// Engine computes sentiment scores. Stateless: every call is a pure function
// of the supplied inputs.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a sentiment fusion engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Score fuses the three sub-scorers into a blended 0-100 score. Missing or
// zero-valued inputs naturally resolve to the neutral midpoint.
func (e *Engine) Score(inputs domain.SentimentInputs) domain.SentimentResult {
	if inputs.LastPrice <= 0 && (len(inputs.Structure.Supports) > 0 || len(inputs.Structure.LiquidationClusters) > 0) {
		e.logger.Warn("sentiment inputs carry market structure without a last price, structure bias degraded")
	}

	social := scoreFromBias(e.socialBias(inputs.Social))
	onchain := scoreFromBias(e.onChainBias(inputs.OnChain))
	structure := scoreFromBias(e.structureBias(inputs.Structure, inputs.LastPrice))

	blended := weightSocial*float64(social) + weightOnChain*float64(onchain) + weightStructure*float64(structure)
	score := int(math.Round(clamp(blended, 0, 100)))

	return domain.SentimentResult{
		Score: score,
		Label: domain.LabelForScore(score),
		Breakdown: domain.SentimentBreakdown{
			Social:    social,
			OnChain:   onchain,
			Structure: structure,
		},
	}
}

// socialBias is a weighted linear combination of the per-source scores.
func (e *Engine) socialBias(social domain.SocialMetrics) float64 {
	return 0.35*social.Twitter +
		0.2*social.Telegram +
		0.25*social.News +
		0.2*social.Trends
}

// onChainBias compresses raw on-chain magnitudes into [-1, 1] components.
// Positive exchange netflow means coins moving onto exchanges, which is
// bearish, hence its negative weight.
func (e *Engine) onChainBias(onchain domain.OnChainMetrics) float64 {
	whaleNet := math.Tanh((onchain.WhaleInflowUSD - onchain.WhaleOutflowUSD) / whaleFlowScaleUSD)
	gas := math.Tanh((onchain.GasPriceGwei - gasBaselineGwei) / gasScaleGwei)

	return 0.45*whaleNet -
		0.25*onchain.ExchangeNetflow +
		0.15*gas +
		0.15*onchain.ActiveAddrsDelta
}

// structureBias combines liquidation-cluster pull, order-book depth and
// support/resistance distances. The component weights intentionally sum to
// 1.3 rather than 1; the blend was tuned with the un-normalized weights and
// renormalizing would shift every threshold downstream.
func (e *Engine) structureBias(structure domain.MarketStructure, lastPrice float64) float64 {
	depth := depthBias(structure.OrderBook)
	sr := supportResistanceBias(structure, lastPrice)
	cluster := clusterBias(structure.LiquidationClusters, lastPrice)

	return 0.5*depth + 0.5*sr + 0.3*cluster
}

// clusterBias finds the liquidation cluster nearest to price (first
// encountered wins on ties). A cluster above price pulls upward, below pulls
// downward; magnitude is tanh-compressed by cluster size.
func clusterBias(clusters []domain.LiquidationCluster, lastPrice float64) float64 {
	if len(clusters) == 0 || lastPrice <= 0 {
		return 0
	}

	nearest := clusters[0]
	nearestDist := math.Abs(clusters[0].Price - lastPrice)
	for _, c := range clusters[1:] {
		if d := math.Abs(c.Price - lastPrice); d < nearestDist {
			nearest = c
			nearestDist = d
		}
	}

	magnitude := math.Tanh(nearest.Size / whaleFlowScaleUSD)
	if nearest.Price >= lastPrice {
		return magnitude
	}
	return -magnitude
}

func depthBias(book domain.OrderBookSnapshot) float64 {
	norm := 0.0
	if total := book.BidDepth + book.AskDepth; total > 0 {
		norm = (book.BidDepth - book.AskDepth) / total
	}
	return math.Tanh(3*norm) + 0.5*book.Imbalance
}

// supportResistanceBias compares the distance to the nearest resistance with
// the distance to the nearest support, both normalized by price. More room
// above than below is bullish.
func supportResistanceBias(structure domain.MarketStructure, lastPrice float64) float64 {
	if len(structure.Supports) == 0 || len(structure.Resistances) == 0 || lastPrice <= 0 {
		return 0
	}

	supportDist := nearestDistance(structure.Supports, lastPrice) / lastPrice
	resistanceDist := nearestDistance(structure.Resistances, lastPrice) / lastPrice

	return math.Tanh(5 * (resistanceDist - supportDist))
}

func nearestDistance(levels []float64, price float64) float64 {
	nearest := math.Abs(levels[0] - price)
	for _, level := range levels[1:] {
		if d := math.Abs(level - price); d < nearest {
			nearest = d
		}
	}
	return nearest
}

// scoreFromBias maps a [-1, 1] weighted bias to a bounded [0, 100] score.
func scoreFromBias(bias float64) int {
	return int(math.Round(clamp(bias*50+50, 0, 100)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
