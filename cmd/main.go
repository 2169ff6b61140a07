// Command sentio runs the quantitative decision engine. It polls market data
// for the configured symbols, fuses technical and sentiment signals under the
// risk manager and journals every trade decision.
//
// Usage:
//
//	sentio --config config.yaml
//	sentio (uses CLI arguments)
//	sentio setup (interactive configuration wizard)
//
// Required environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
//	For Hyperliquid: HYPERLIQUID_PRIVATE_KEY (optional HYPERLIQUID_API_URL)
package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/vadiminshakov/sentio/config"
	"github.com/vadiminshakov/sentio/internal"
	"github.com/vadiminshakov/sentio/internal/clients"
	"github.com/vadiminshakov/sentio/internal/setup"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	configs, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	for _, conf := range configs {
		var client any
		switch conf.Platform {
		case "binance":
			apiKey := os.Getenv("BINANCE_API_KEY")
			apiSecret := os.Getenv("BINANCE_API_SECRET")
			if apiKey == "" || apiSecret == "" {
				log.Fatal("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
			}
			client = clients.NewBinanceClient(apiKey, apiSecret)
		case "bybit":
			apiKey := os.Getenv("BYBIT_API_KEY")
			apiSecret := os.Getenv("BYBIT_API_SECRET")
			if apiKey == "" || apiSecret == "" {
				log.Fatal("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
			}
			client = clients.NewBybitClient(apiKey, apiSecret)
		case "hyperliquid":
			privateKey := os.Getenv("HYPERLIQUID_PRIVATE_KEY")
			if privateKey == "" {
				log.Fatal("HYPERLIQUID_PRIVATE_KEY environment variable must be set")
			}
			client, err = clients.NewHyperliquidClient(privateKey, os.Getenv("HYPERLIQUID_API_URL"))
			if err != nil {
				log.Fatal(err)
			}
		default:
			log.Fatal("unsupported platform")
		}

		bot, err := internal.NewTradingBot(conf, client, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer bot.Close()

		go func() {
			if err := bot.Run(context.Background(), logger); err != nil {
				log.Fatal(err)
			}
		}()
	}

	select {}
}
