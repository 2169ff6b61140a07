// Package onchain supplies on-chain metrics for the sentiment engine.
package onchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var gweiWei = big.NewFloat(1e9)

// GasProvider reads the suggested gas price from an Ethereum RPC node.
type GasProvider struct {
	client *ethclient.Client
	logger *zap.Logger
}

// NewGasProvider dials the RPC endpoint.
func NewGasProvider(rpcURL string, logger *zap.Logger) (*GasProvider, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial ethereum rpc %s", rpcURL)
	}
	return &GasProvider{client: client, logger: logger}, nil
}

// GasPriceGwei returns the node's suggested gas price in gwei.
func (p *GasProvider) GasPriceGwei(ctx context.Context) (float64, error) {
	wei, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to fetch suggested gas price")
	}

	gwei, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), gweiWei).Float64()
	return gwei, nil
}

// Close releases the underlying RPC connection.
func (p *GasProvider) Close() {
	p.client.Close()
}
