// Package promptbuilder renders the decision-cycle snapshot into a
// token-efficient natural-language summary for the advisory model.
package promptbuilder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/vadiminshakov/sentio/internal/domain"
	"github.com/vadiminshakov/sentio/internal/services/fusion"
	"go.uber.org/zap"
)

const (
	recentCandleLimit = 20
	emaPeriod         = 20
	rsiPeriod         = 14
)

// PromptBuilder constructs prompts from advisory requests.
type PromptBuilder struct {
	logger *zap.Logger
}

// NewPromptBuilder creates a PromptBuilder.
func NewPromptBuilder(logger *zap.Logger) *PromptBuilder {
	return &PromptBuilder{logger: logger}
}

// BuildUserPrompt renders the full market summary: recent candles with
// enrichment indicators, the engine's technical and sentiment reads, regime
// and account context.
func (pb *PromptBuilder) BuildUserPrompt(req fusion.AdvisoryRequest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Market Summary for %s\n\n", req.Symbol))
	sb.WriteString(fmt.Sprintf("**Last Price:** %.2f\n", req.LastPrice))
	sb.WriteString(fmt.Sprintf("**Regime:** %s\n\n", req.Regime))

	sb.WriteString(pb.formatRecentCandles(req.Candles.Medium))
	sb.WriteString(pb.formatTechnical(req.Signal))
	sb.WriteString(pb.formatSentiment(req.Sentiment))
	sb.WriteString(pb.formatAccount(req.Account))

	sb.WriteString("## Instructions\n\n")
	sb.WriteString(fmt.Sprintf("The engine's local read is %s with confidence %.2f. ", strings.ToUpper(string(req.Signal.Action)), req.Signal.Confidence))
	sb.WriteString("Provide your advisory decision in JSON format.\n")

	return sb.String()
}

// formatRecentCandles renders the last candles as a compact table with EMA20
// and RSI14 columns computed over the full series.
func (pb *PromptBuilder) formatRecentCandles(candles []domain.Candle) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Recent Market Data (1h, last %d candles)\n\n", recentCandleLimit))
	if len(candles) == 0 {
		sb.WriteString("No data available\n\n")
		return sb.String()
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close.InexactFloat64()
	}
	emas := pb.ema(closes)
	rsis := pb.rsi(closes)

	start := len(candles) - recentCandleLimit
	if start < 0 {
		start = 0
	}

	sb.WriteString("```\n")
	sb.WriteString("Time     | Open     | High     | Low      | Close    | Volume   | EMA20    | RSI14\n")
	sb.WriteString("---------|----------|----------|----------|----------|----------|----------|------\n")
	for i := start; i < len(candles); i++ {
		c := candles[i]
		sb.WriteString(fmt.Sprintf("%-8s | %8.2f | %8.2f | %8.2f | %8.2f | %8.2f",
			c.OpenTime.Format("15:04"),
			c.Open.InexactFloat64(),
			c.High.InexactFloat64(),
			c.Low.InexactFloat64(),
			c.Close.InexactFloat64(),
			c.Volume.InexactFloat64(),
		))

		// indicator series are shorter than the input by their warm-up
		if emaIdx := i - (len(candles) - len(emas)); emaIdx >= 0 {
			sb.WriteString(fmt.Sprintf(" | %8.2f", emas[emaIdx]))
		} else {
			sb.WriteString(" |        -")
		}
		if rsiIdx := i - (len(candles) - len(rsis)); rsiIdx >= 0 {
			sb.WriteString(fmt.Sprintf(" | %5.1f", rsis[rsiIdx]))
		} else {
			sb.WriteString(" |     -")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("```\n\n")

	return sb.String()
}

func (pb *PromptBuilder) ema(closes []float64) []float64 {
	if len(closes) < emaPeriod {
		return nil
	}
	ema := trend.NewEmaWithPeriod[float64](emaPeriod)
	return helper.ChanToSlice(ema.Compute(helper.SliceToChan(closes)))
}

func (pb *PromptBuilder) rsi(closes []float64) []float64 {
	if len(closes) < rsiPeriod+1 {
		return nil
	}
	rsi := momentum.NewRsiWithPeriod[float64](rsiPeriod)
	return helper.ChanToSlice(rsi.Compute(helper.SliceToChan(closes)))
}

func (pb *PromptBuilder) formatTechnical(signal domain.TechnicalSignal) string {
	var sb strings.Builder

	sb.WriteString("## Engine Technical Read\n\n")
	sb.WriteString(fmt.Sprintf("**Action:** %s | **Confidence:** %.2f\n", strings.ToUpper(string(signal.Action)), signal.Confidence))
	if signal.Rationale != "" {
		sb.WriteString(fmt.Sprintf("**Rationale:** %s\n", signal.Rationale))
	}

	if len(signal.Context) > 0 {
		keys := make([]string, 0, len(signal.Context))
		for k := range signal.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("**Indicators:** ")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(fmt.Sprintf("%s=%.4f", k, signal.Context[k]))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func (pb *PromptBuilder) formatSentiment(result domain.SentimentResult) string {
	var sb strings.Builder

	sb.WriteString("## Engine Sentiment Read\n\n")
	sb.WriteString(fmt.Sprintf("**Score:** %d/100 (%s)\n", result.Score, result.Label))
	sb.WriteString(fmt.Sprintf("**Breakdown:** social=%d | onchain=%d | structure=%d\n\n",
		result.Breakdown.Social, result.Breakdown.OnChain, result.Breakdown.Structure))

	return sb.String()
}

func (pb *PromptBuilder) formatAccount(account domain.AccountState) string {
	var sb strings.Builder

	sb.WriteString("## Account Information\n\n")
	sb.WriteString(fmt.Sprintf("**Equity (USD):** %s\n", account.EquityUSD.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("**Realized PnL Today (USD):** %s\n", account.RealizedPnLTodayUSD.StringFixed(2)))

	if len(account.Positions) > 0 {
		sb.WriteString("**Open Positions:**\n")
		symbols := make([]string, 0, len(account.Positions))
		for s := range account.Positions {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)
		for _, s := range symbols {
			pos := account.Positions[s]
			sb.WriteString(fmt.Sprintf("- %s: size=%s notional=%s USD\n", s, pos.Size.String(), pos.NotionalUSD.StringFixed(2)))
		}
	} else {
		sb.WriteString("**Open Positions:** none\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
