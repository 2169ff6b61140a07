// Package setup provides the interactive terminal wizard that generates a
// yaml configuration file.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// yamlEntry mirrors the yaml schema consumed by config.Get.
type yamlEntry struct {
	Platform        string        `yaml:"platform"`
	Symbol          string        `yaml:"symbol"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	EquityUSD       string        `yaml:"equity_usd"`
	MaxPositionUSD  float64       `yaml:"max_position_usd,omitempty"`
	MaxDailyLossUSD float64       `yaml:"max_daily_loss_usd,omitempty"`
	MaxRiskPct      float64       `yaml:"max_risk_pct_per_trade,omitempty"`
	LLMAPIURL       string        `yaml:"llm_api_url,omitempty"`
	LLMAPIKey       string        `yaml:"llm_api_key,omitempty"`
	LLMModel        string        `yaml:"llm_model,omitempty"`
	EthRPCURL       string        `yaml:"eth_rpc_url,omitempty"`
}

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		platform        string
		symbol          string
		pollIntervalStr string
		equityStr       string
		maxPositionStr  string
		maxDailyLossStr string
		maxRiskPctStr   string
		useAdvisory     bool
		apiURL          string
		apiKey          string
		model           string
		ethRPCURL       string
		confirm         bool
	)

	// defaults
	pollIntervalStr = "5m"
	equityStr = "10000"
	maxPositionStr = "1000"
	maxDailyLossStr = "500"
	maxRiskPctStr = "0.02"
	apiURL = "https://openrouter.ai/api/v1/chat/completions"
	model = "deepseek/deepseek-v3.2-exp"

	// step 1: welcome + platform
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SENTIO CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's wire up your decision engine.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 2: symbol
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SENTIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: ASSET"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Symbol").
				Description("Exchange symbol (e.g. BTCUSDT)").
				Value(&symbol).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("symbol cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 3: timing
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SENTIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Decision Cycle Interval").
				Description("Duration string (e.g. 1m, 5m, 15m)").
				Value(&pollIntervalStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 4: risk limits
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SENTIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: RISK LIMITS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account Equity (USD)").
				Value(&equityStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Max Position Size (USD)").
				Value(&maxPositionStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Max Daily Loss (USD)").
				Value(&maxDailyLossStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Max Risk Per Trade").
				Description("Fraction of equity (e.g. 0.02 for 2%)").
				Value(&maxRiskPctStr).
				Validate(validateRiskFraction),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 5: advisory overlay
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SENTIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: ADVISORY OVERLAY"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable the LLM advisory overlay?").
				Value(&useAdvisory),
		),
	).Run()
	if err != nil {
		return err
	}

	if useAdvisory {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("LLM API URL").
					Value(&apiURL),
				huh.NewInput().
					Title("LLM API Key").
					Value(&apiKey).
					EchoMode(huh.EchoModePassword),
				huh.NewInput().
					Title("Model Name").
					Value(&model),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	// step 6: on-chain data (optional)
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SENTIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 6: ON-CHAIN DATA"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Ethereum RPC URL").
				Description("Optional, feeds gas prices into sentiment (empty to skip)").
				Value(&ethRPCURL),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SENTIO CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Platform: %s\nSymbol: %s\nInterval: %s\nEquity: %s USD\nMax Position: %s USD\nMax Daily Loss: %s USD\nAdvisory: %v\n",
		platform, symbol, pollIntervalStr, equityStr, maxPositionStr, maxDailyLossStr, useAdvisory,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	pollInterval, _ := time.ParseDuration(pollIntervalStr)
	maxPosition, _ := strconv.ParseFloat(maxPositionStr, 64)
	maxDailyLoss, _ := strconv.ParseFloat(maxDailyLossStr, 64)
	maxRiskPct, _ := strconv.ParseFloat(maxRiskPctStr, 64)

	entry := yamlEntry{
		Platform:        platform,
		Symbol:          symbol,
		PollInterval:    pollInterval,
		EquityUSD:       equityStr,
		MaxPositionUSD:  maxPosition,
		MaxDailyLossUSD: maxDailyLoss,
		MaxRiskPct:      maxRiskPct,
		EthRPCURL:       ethRPCURL,
	}
	if useAdvisory {
		entry.LLMAPIURL = apiURL
		entry.LLMAPIKey = apiKey
		entry.LLMModel = model
	}

	data, err := yaml.Marshal([]yamlEntry{entry})
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting engine...", filename)))
	time.Sleep(1500 * time.Millisecond)
	return nil
}

func validatePositiveDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateRiskFraction(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if f <= 0 || f > 1 {
		return fmt.Errorf("must be a fraction in (0, 1]")
	}
	return nil
}
