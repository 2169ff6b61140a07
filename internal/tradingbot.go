package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/sentio/config"
	"github.com/vadiminshakov/sentio/internal/clients"
	"github.com/vadiminshakov/sentio/internal/domain"
	"github.com/vadiminshakov/sentio/internal/services/fusion"
	"github.com/vadiminshakov/sentio/internal/services/market/collector"
	"github.com/vadiminshakov/sentio/internal/services/onchain"
	"github.com/vadiminshakov/sentio/internal/services/promptbuilder"
	"github.com/vadiminshakov/sentio/internal/services/risk"
	"github.com/vadiminshakov/sentio/internal/services/sentiment"
	"github.com/vadiminshakov/sentio/internal/services/technical"
	"github.com/vadiminshakov/sentio/internal/storage/decisions"
	"github.com/vadiminshakov/sentio/internal/storage/performance"
)

type marketDataSource interface {
	Snapshot(ctx context.Context) (domain.CandleSnapshot, error)
	OrderBook(ctx context.Context) domain.OrderBookSnapshot
}

type sentimentCollector interface {
	Collect(ctx context.Context, snapshot domain.CandleSnapshot, book domain.OrderBookSnapshot) domain.SentimentInputs
}

type decisionEngine interface {
	Decide(ctx context.Context, input fusion.DecisionInput) domain.TradeDecision
}

type decisionJournal interface {
	Save(decision domain.TradeDecision) error
	DecisionsAfter(index uint64) ([]decisions.Record, error)
	CurrentIndex() uint64
	Close() error
}

type performanceHistory interface {
	All() ([]domain.PerformanceRecord, error)
	Close() error
}

// TradingBot runs the decision loop for a single symbol: collect market data,
// fuse signals, size the trade and journal the resulting decision.
type TradingBot struct {
	market    marketDataSource
	sentiment sentimentCollector
	engine    decisionEngine
	journal   decisionJournal
	history   performanceHistory
	account   domain.AccountState
	gas       *onchain.GasProvider
	cfg       config.Config
}

// NewTradingBot wires the full decision pipeline for one configured symbol.
func NewTradingBot(conf config.Config, client any, logger *zap.Logger) (*TradingBot, error) {
	provider, err := newServiceProvider(client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service provider")
	}

	kline, err := provider.KlineProvider()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kline provider")
	}
	depth, err := provider.DepthProvider()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create depth provider")
	}

	market := collector.NewCollector(kline, depth, conf.Symbol, conf.Lookback, logger)

	var gas *onchain.GasProvider
	var gasPricer sentiment.GasPricer
	if conf.EthRPCURL != "" {
		gas, err = onchain.NewGasProvider(conf.EthRPCURL, logger)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create gas provider")
		}
		gasPricer = gas
	}

	riskManager := risk.NewManager(risk.Config{
		MaxPositionUSD:     conf.MaxPositionUSD,
		MaxDailyLossUSD:    conf.MaxDailyLossUSD,
		MaxRiskPctPerTrade: conf.MaxRiskPctPerTrade,
		StopLossBps:        conf.StopLossBps,
		TakeProfitBps:      conf.TakeProfitBps,
	}, logger)

	var advisory fusion.AdvisoryProvider
	if conf.LLMAPIURL != "" {
		advisory = clients.NewOpenAICompatibleClient(
			conf.LLMAPIURL,
			conf.LLMAPIKey,
			conf.LLMModel,
			promptbuilder.NewPromptBuilder(logger),
		)
	}

	engine := fusion.NewOrchestrator(
		technical.NewAnalyzer(logger),
		sentiment.NewEngine(logger),
		riskManager,
		advisory,
		logger,
	)

	journal, err := decisions.NewWALStore(conf.DecisionWALDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open decision journal")
	}
	history, err := performance.NewWALStore(conf.PerformanceWALDir)
	if err != nil {
		journal.Close()
		return nil, errors.Wrap(err, "failed to open performance history")
	}

	return &TradingBot{
		market:    market,
		sentiment: sentiment.NewInputsSource(gasPricer, logger),
		engine:    engine,
		journal:   journal,
		history:   history,
		account: domain.AccountState{
			EquityUSD:     conf.EquityUSD,
			PeakEquityUSD: conf.EquityUSD,
		},
		gas: gas,
		cfg: conf,
	}, nil
}

// Close releases the bot's storage and network resources.
func (b *TradingBot) Close() {
	b.journal.Close()
	b.history.Close()
	if b.gas != nil {
		b.gas.Close()
	}
}

// Run executes the decision loop until the context is cancelled.
func (b *TradingBot) Run(ctx context.Context, logger *zap.Logger) error {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	logger.Info("starting decision loop",
		zap.String("symbol", b.cfg.Symbol),
		zap.Duration("poll_interval", b.cfg.PollInterval))

	b.logJournalTail(logger)

	for {
		select {
		case <-ctx.Done():
			logger.Info("context done, stopping decision loop", zap.String("symbol", b.cfg.Symbol))
			return ctx.Err()
		case <-ticker.C:
			decision, err := b.cycle(ctx)
			if err != nil {
				logger.Error("decision cycle failed", zap.String("symbol", b.cfg.Symbol), zap.Error(err))
				continue
			}

			logger.Info("decision",
				zap.String("symbol", decision.Symbol),
				zap.String("action", string(decision.Action)),
				zap.Float64("confidence", decision.Confidence),
				zap.String("size_usd", decision.SizeUSD.String()),
				zap.String("rationale", decision.Rationale))
		}
	}
}

// logJournalTail surfaces the last journaled decision so restarts are
// auditable against prior runs.
func (b *TradingBot) logJournalTail(logger *zap.Logger) {
	idx := b.journal.CurrentIndex()
	if idx == 0 {
		return
	}

	records, err := b.journal.DecisionsAfter(idx - 1)
	if err != nil || len(records) == 0 {
		return
	}

	last := records[len(records)-1].Decision
	logger.Info("resuming decision journal",
		zap.Uint64("journal_index", idx),
		zap.String("last_symbol", last.Symbol),
		zap.String("last_action", string(last.Action)),
		zap.Time("last_decision_at", last.CreatedAt))
}

// cycle runs one full decision pass: market data, sentiment inputs,
// performance history, fusion and journaling.
func (b *TradingBot) cycle(ctx context.Context) (domain.TradeDecision, error) {
	snapshot, err := b.market.Snapshot(ctx)
	if err != nil {
		return domain.TradeDecision{}, errors.Wrap(err, "failed to collect candles")
	}

	book := b.market.OrderBook(ctx)

	history, err := b.history.All()
	if err != nil {
		return domain.TradeDecision{}, errors.Wrap(err, "failed to load performance history")
	}

	decision := b.engine.Decide(ctx, fusion.DecisionInput{
		Symbol:      b.cfg.Symbol,
		Candles:     snapshot,
		Sentiment:   b.sentiment.Collect(ctx, snapshot, book),
		Account:     b.account,
		Market:      marketConditions(snapshot, book),
		Performance: history,
		Liquidity:   liquidityScore(book),
	})

	if err := b.journal.Save(decision); err != nil {
		return domain.TradeDecision{}, errors.Wrap(err, "failed to journal decision")
	}

	return decision, nil
}

// marketConditions derives short-horizon price changes and order book
// imbalance consumed by the circuit breaker.
func marketConditions(snapshot domain.CandleSnapshot, book domain.OrderBookSnapshot) risk.MarketConditions {
	return risk.MarketConditions{
		Change1hPct:        lastClosePctChange(snapshot.Medium),
		Change5mPct:        lastClosePctChange(snapshot.Short),
		OrderbookImbalance: book.Imbalance,
	}
}

func lastClosePctChange(candles []domain.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}
	prev := candles[len(candles)-2].Close.InexactFloat64()
	cur := candles[len(candles)-1].Close.InexactFloat64()
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// liquidityScore maps order book balance into [0, 1]: a two-sided book
// scores high, a one-sided or empty book scores low.
func liquidityScore(book domain.OrderBookSnapshot) float64 {
	if book.BidDepth+book.AskDepth <= 0 {
		return 0
	}
	score := 1 - abs(book.Imbalance)
	if score < 0 {
		return 0
	}
	return score
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
