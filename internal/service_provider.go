package internal

import (
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"

	"github.com/vadiminshakov/sentio/internal/clients"
	"github.com/vadiminshakov/sentio/internal/services/market/collector"
)

const binanceDepthLimit = 100

// serviceProvider defines a factory interface for creating platform-specific
// market data services.
type serviceProvider interface {
	KlineProvider() (collector.KlineProvider, error)
	// DepthProvider may return (nil, nil) when the platform exposes no
	// aggregated order book endpoint; the collector treats nil as no data.
	DepthProvider() (collector.DepthProvider, error)
}

// newServiceProvider creates a new service provider based on the client type.
// This is the single point of truth for dispatching to platform-specific implementations.
func newServiceProvider(client any) (serviceProvider, error) {
	switch c := client.(type) {
	case *binance.Client:
		return &binanceProvider{client: c}, nil
	case *bybit.Client:
		return &bybitProvider{client: c}, nil
	case *clients.HyperliquidClient:
		return &hyperliquidProvider{client: c}, nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

type binanceProvider struct {
	client *binance.Client
}

func (p *binanceProvider) KlineProvider() (collector.KlineProvider, error) {
	return collector.NewBinanceKlineProvider(p.client), nil
}
func (p *binanceProvider) DepthProvider() (collector.DepthProvider, error) {
	return collector.NewBinanceDepthProvider(p.client, binanceDepthLimit), nil
}

type bybitProvider struct {
	client *bybit.Client
}

func (p *bybitProvider) KlineProvider() (collector.KlineProvider, error) {
	return collector.NewBybitKlineProvider(p.client), nil
}
func (p *bybitProvider) DepthProvider() (collector.DepthProvider, error) {
	return nil, nil
}

type hyperliquidProvider struct {
	client *clients.HyperliquidClient
}

func (p *hyperliquidProvider) KlineProvider() (collector.KlineProvider, error) {
	return collector.NewHyperliquidKlineProvider(p.client.Exchange().Info()), nil
}
func (p *hyperliquidProvider) DepthProvider() (collector.DepthProvider, error) {
	return nil, nil
}
