package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultPollInterval       = 5 * time.Minute
	defaultLookback           = 200
	defaultMaxPositionUSD     = 1000.0
	defaultMaxDailyLossUSD    = 500.0
	defaultMaxRiskPctPerTrade = 0.02
	defaultStopLossBps        = 50.0
	defaultTakeProfitBps      = 100.0
)

// Config settings for one traded symbol.
type Config struct {
	Platform           string
	Symbol             string
	PollInterval       time.Duration
	Lookback           int
	EquityUSD          decimal.Decimal
	MaxPositionUSD     float64
	MaxDailyLossUSD    float64
	MaxRiskPctPerTrade float64
	StopLossBps        float64
	TakeProfitBps      float64
	LLMAPIURL          string
	LLMAPIKey          string
	LLMModel           string
	EthRPCURL          string
	DecisionWALDir     string
	PerformanceWALDir  string
}

type configTmp struct {
	Platform           string        `yaml:"platform"`
	Symbol             string        `yaml:"symbol"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	Lookback           int           `yaml:"lookback,omitempty"`
	EquityUSD          string        `yaml:"equity_usd"`
	MaxPositionUSD     float64       `yaml:"max_position_usd,omitempty"`
	MaxDailyLossUSD    float64       `yaml:"max_daily_loss_usd,omitempty"`
	MaxRiskPctPerTrade float64       `yaml:"max_risk_pct_per_trade,omitempty"`
	StopLossBps        float64       `yaml:"stop_loss_bps,omitempty"`
	TakeProfitBps      float64       `yaml:"take_profit_bps,omitempty"`
	LLMAPIURL          string        `yaml:"llm_api_url,omitempty"`
	LLMAPIKey          string        `yaml:"llm_api_key,omitempty"`
	LLMModel           string        `yaml:"llm_model,omitempty"`
	EthRPCURL          string        `yaml:"eth_rpc_url,omitempty"`
	DecisionWALDir     string        `yaml:"decision_wal_dir,omitempty"`
	PerformanceWALDir  string        `yaml:"performance_wal_dir,omitempty"`
}

// Get loads configuration from the yaml file named by -config, or from CLI
// flags when no file is given.
func Get() ([]Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	symbol := flag.String("symbol", "BTCUSDT", "trade symbol, example: BTCUSDT")
	platform := flag.String("platform", "binance", "exchange platform: binance, bybit or hyperliquid")
	equity := flag.String("equity", "10000", "account equity in USD")
	pollInterval := flag.Duration("pollinterval", defaultPollInterval, "decision cycle interval")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	equityUSD, err := decimal.NewFromString(*equity)
	if err != nil {
		return nil, fmt.Errorf("invalid --equity provided, --equity=%s", *equity)
	}

	cfg := Config{
		Platform:     strings.ToLower(*platform),
		Symbol:       strings.ToUpper(*symbol),
		PollInterval: *pollInterval,
		EquityUSD:    equityUSD,
	}
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return []Config{cfg}, nil
}

func getYaml(path string) ([]Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmp []configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return nil, err
	}

	configs := make([]Config, 0, len(tmp))
	for _, c := range tmp {
		equityUSD, err := decimal.NewFromString(c.EquityUSD)
		if err != nil {
			return nil, fmt.Errorf("incorrect 'equity_usd' param in yaml config: %s, error: %w", c.EquityUSD, err)
		}

		cfg := Config{
			Platform:           strings.ToLower(c.Platform),
			Symbol:             strings.ToUpper(c.Symbol),
			PollInterval:       c.PollInterval,
			Lookback:           c.Lookback,
			EquityUSD:          equityUSD,
			MaxPositionUSD:     c.MaxPositionUSD,
			MaxDailyLossUSD:    c.MaxDailyLossUSD,
			MaxRiskPctPerTrade: c.MaxRiskPctPerTrade,
			StopLossBps:        c.StopLossBps,
			TakeProfitBps:      c.TakeProfitBps,
			LLMAPIURL:          c.LLMAPIURL,
			LLMAPIKey:          c.LLMAPIKey,
			LLMModel:           c.LLMModel,
			EthRPCURL:          c.EthRPCURL,
			DecisionWALDir:     c.DecisionWALDir,
			PerformanceWALDir:  c.PerformanceWALDir,
		}
		applyDefaults(&cfg)
		if err := validate(cfg); err != nil {
			return nil, err
		}

		configs = append(configs, cfg)
	}

	if len(configs) == 0 {
		return nil, fmt.Errorf("yaml config %s contains no entries", path)
	}
	return configs, nil
}

func applyDefaults(cfg *Config) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
	}
	if cfg.MaxPositionUSD <= 0 {
		cfg.MaxPositionUSD = defaultMaxPositionUSD
	}
	if cfg.MaxDailyLossUSD <= 0 {
		cfg.MaxDailyLossUSD = defaultMaxDailyLossUSD
	}
	if cfg.MaxRiskPctPerTrade <= 0 {
		cfg.MaxRiskPctPerTrade = defaultMaxRiskPctPerTrade
	}
	if cfg.StopLossBps <= 0 {
		cfg.StopLossBps = defaultStopLossBps
	}
	if cfg.TakeProfitBps <= 0 {
		cfg.TakeProfitBps = defaultTakeProfitBps
	}
}

func validate(cfg Config) error {
	switch cfg.Platform {
	case "binance", "bybit", "hyperliquid":
	default:
		return fmt.Errorf("unsupported platform: %s", cfg.Platform)
	}
	if cfg.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if cfg.EquityUSD.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("equity_usd must be positive, got %s", cfg.EquityUSD)
	}
	if cfg.MaxRiskPctPerTrade > 1 {
		return fmt.Errorf("max_risk_pct_per_trade is a fraction, got %f", cfg.MaxRiskPctPerTrade)
	}
	return nil
}
