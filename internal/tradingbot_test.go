package internal

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/sentio/config"
	"github.com/vadiminshakov/sentio/internal/domain"
	"github.com/vadiminshakov/sentio/internal/services/fusion"
	"github.com/vadiminshakov/sentio/internal/storage/decisions"
)

type stubMarket struct {
	snapshot domain.CandleSnapshot
	snapErr  error
	book     domain.OrderBookSnapshot
}

func (s *stubMarket) Snapshot(context.Context) (domain.CandleSnapshot, error) {
	return s.snapshot, s.snapErr
}

func (s *stubMarket) OrderBook(context.Context) domain.OrderBookSnapshot {
	return s.book
}

type stubSentimentSrc struct {
	gotBook domain.OrderBookSnapshot
}

func (s *stubSentimentSrc) Collect(_ context.Context, _ domain.CandleSnapshot, book domain.OrderBookSnapshot) domain.SentimentInputs {
	s.gotBook = book
	return domain.SentimentInputs{Structure: domain.MarketStructure{OrderBook: book}}
}

type stubEngine struct {
	gotInput fusion.DecisionInput
	decision domain.TradeDecision
}

func (s *stubEngine) Decide(_ context.Context, input fusion.DecisionInput) domain.TradeDecision {
	s.gotInput = input
	return s.decision
}

type stubJournal struct {
	saved       []domain.TradeDecision
	err         error
	tailQueries []uint64
}

func (s *stubJournal) Save(d domain.TradeDecision) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, d)
	return nil
}

func (s *stubJournal) DecisionsAfter(index uint64) ([]decisions.Record, error) {
	s.tailQueries = append(s.tailQueries, index)
	records := make([]decisions.Record, 0, len(s.saved))
	for i, d := range s.saved {
		records = append(records, decisions.Record{Index: uint64(i) + 1, Decision: d})
	}
	return records[index:], nil
}

func (s *stubJournal) CurrentIndex() uint64 { return uint64(len(s.saved)) }

func (s *stubJournal) Close() error { return nil }

type stubHistory struct {
	records []domain.PerformanceRecord
}

func (s *stubHistory) All() ([]domain.PerformanceRecord, error) { return s.records, nil }
func (s *stubHistory) Close() error                             { return nil }

func closesToCandles(closes ...float64) []domain.Candle {
	candles := make([]domain.Candle, 0, len(closes))
	for _, c := range closes {
		d := decimal.NewFromFloat(c)
		candles = append(candles, domain.Candle{Open: d, High: d, Low: d, Close: d})
	}
	return candles
}

func testBot(market *stubMarket, engine *stubEngine, journal *stubJournal, history *stubHistory) *TradingBot {
	return &TradingBot{
		market:    market,
		sentiment: &stubSentimentSrc{},
		engine:    engine,
		journal:   journal,
		history:   history,
		account: domain.AccountState{
			EquityUSD:     decimal.NewFromInt(10000),
			PeakEquityUSD: decimal.NewFromInt(10000),
		},
		cfg: config.Config{Symbol: "BTCUSDT", PollInterval: time.Minute},
	}
}

func TestCycleJournalsDecision(t *testing.T) {
	market := &stubMarket{
		snapshot: domain.CandleSnapshot{
			Symbol: "BTCUSDT",
			Short:  closesToCandles(100, 101),
			Medium: closesToCandles(100, 102),
		},
		book: domain.OrderBookSnapshot{BidDepth: 60, AskDepth: 40, Imbalance: 0.2},
	}
	engine := &stubEngine{decision: domain.TradeDecision{Symbol: "BTCUSDT", Action: domain.ActionBuy}}
	journal := &stubJournal{}
	history := &stubHistory{records: []domain.PerformanceRecord{{Strategy: domain.StrategyTechnical, Success: true, RiskReward: 2}}}

	bot := testBot(market, engine, journal, history)

	decision, err := bot.cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.ActionBuy, decision.Action)
	require.Len(t, journal.saved, 1)

	require.Equal(t, "BTCUSDT", engine.gotInput.Symbol)
	require.Len(t, engine.gotInput.Performance, 1)
	require.InDelta(t, 1.0, engine.gotInput.Market.Change5mPct, 1e-9)
	require.InDelta(t, 2.0, engine.gotInput.Market.Change1hPct, 1e-9)
	require.InDelta(t, 0.2, engine.gotInput.Market.OrderbookImbalance, 1e-9)
	require.InDelta(t, 0.8, engine.gotInput.Liquidity, 1e-9)
}

func TestCycleEmptyOrderBookDegrades(t *testing.T) {
	market := &stubMarket{
		snapshot: domain.CandleSnapshot{Symbol: "BTCUSDT", Medium: closesToCandles(100, 100)},
	}
	engine := &stubEngine{decision: domain.TradeDecision{Symbol: "BTCUSDT", Action: domain.ActionHold}}
	journal := &stubJournal{}

	bot := testBot(market, engine, journal, &stubHistory{})

	_, err := bot.cycle(context.Background())
	require.NoError(t, err)
	require.Zero(t, engine.gotInput.Market.OrderbookImbalance)
	require.Zero(t, engine.gotInput.Liquidity)
	require.Len(t, journal.saved, 1)
}

func TestCycleSnapshotFailureAborts(t *testing.T) {
	market := &stubMarket{snapErr: errors.New("network down")}
	journal := &stubJournal{}

	bot := testBot(market, &stubEngine{}, journal, &stubHistory{})

	_, err := bot.cycle(context.Background())
	require.Error(t, err)
	require.Empty(t, journal.saved)
}

func TestLogJournalTail(t *testing.T) {
	journal := &stubJournal{saved: []domain.TradeDecision{
		{Symbol: "BTCUSDT", Action: domain.ActionBuy},
		{Symbol: "BTCUSDT", Action: domain.ActionSell},
	}}

	bot := testBot(&stubMarket{}, &stubEngine{}, journal, &stubHistory{})
	bot.logJournalTail(zap.NewNop())

	require.Equal(t, []uint64{1}, journal.tailQueries)
}

func TestLogJournalTailEmptyJournal(t *testing.T) {
	journal := &stubJournal{}

	bot := testBot(&stubMarket{}, &stubEngine{}, journal, &stubHistory{})
	bot.logJournalTail(zap.NewNop())

	require.Empty(t, journal.tailQueries)
}

func TestLastClosePctChange(t *testing.T) {
	require.Zero(t, lastClosePctChange(nil))
	require.Zero(t, lastClosePctChange(closesToCandles(100)))
	require.InDelta(t, -5.0, lastClosePctChange(closesToCandles(100, 95)), 1e-9)
}

func TestLiquidityScore(t *testing.T) {
	require.Zero(t, liquidityScore(domain.OrderBookSnapshot{}))
	require.InDelta(t, 1.0, liquidityScore(domain.OrderBookSnapshot{BidDepth: 50, AskDepth: 50}), 1e-9)
	require.InDelta(t, 0.1, liquidityScore(domain.OrderBookSnapshot{BidDepth: 95, AskDepth: 5, Imbalance: 0.9}), 1e-9)
}
