package risk

import (
	"math"

	"github.com/vadiminshakov/sentio/internal/domain"
)

const (
	// correlationWindow most recent observations used for pairwise correlation.
	correlationWindow = 20
	// minHistoryPoints a symbol needs this much history to enter the matrix.
	minHistoryPoints = 10
)

// CalculateCorrelation computes the Pearson correlation over the trailing
// overlap of two return series. Series shorter than two points or with zero
// variance yield 0 rather than NaN.
func (m *Manager) CalculateCorrelation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / float64(n)
	meanB := sumB / float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// AnalyzePortfolioCorrelation computes average and maximum absolute pairwise
// correlation over the most recent observations for every symbol pair with
// sufficient history, plus the Herfindahl concentration of position notional.
func (m *Manager) AnalyzePortfolioCorrelation(
	positions map[string]domain.Position,
	returnsBySymbol map[string][]float64,
) domain.CorrelationStats {
	stats := domain.CorrelationStats{
		RiskConcentration: herfindahl(positions),
	}

	symbols := make([]string, 0, len(returnsBySymbol))
	for symbol, returns := range returnsBySymbol {
		if len(returns) >= minHistoryPoints {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) < 2 {
		return stats
	}

	var sum float64
	var pairs int
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			corr := math.Abs(m.CalculateCorrelation(
				tail(returnsBySymbol[symbols[i]], correlationWindow),
				tail(returnsBySymbol[symbols[j]], correlationWindow),
			))
			sum += corr
			pairs++
			if corr > stats.MaxCorrelation {
				stats.MaxCorrelation = corr
			}
		}
	}
	stats.AvgCorrelation = sum / float64(pairs)
	return stats
}

// herfindahl sums squared notional weights; 1.0 means a single-position book.
func herfindahl(positions map[string]domain.Position) float64 {
	var total float64
	for _, pos := range positions {
		total += math.Abs(pos.NotionalUSD.InexactFloat64())
	}
	if total == 0 {
		return 0
	}

	var h float64
	for _, pos := range positions {
		w := math.Abs(pos.NotionalUSD.InexactFloat64()) / total
		h += w * w
	}
	return h
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
