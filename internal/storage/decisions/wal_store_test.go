package decisions

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/sentio/internal/domain"
)

func testDecision(symbol string, action domain.Action) domain.TradeDecision {
	return domain.TradeDecision{
		ID:         uuid.New(),
		Symbol:     symbol,
		Action:     action,
		Confidence: 0.7,
		SizeUSD:    decimal.NewFromInt(500),
	}
}

func TestWALStoreRoundTrip(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	start := store.CurrentIndex()

	first := testDecision("BTCUSDT", domain.ActionBuy)
	second := testDecision("BTCUSDT", domain.ActionSell)
	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))

	require.Equal(t, start+2, store.CurrentIndex())

	records, err := store.DecisionsAfter(start)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, first.ID, records[0].Decision.ID)
	require.Equal(t, second.ID, records[1].Decision.ID)
	require.Equal(t, domain.ActionSell, records[1].Decision.Action)

	tail, err := store.DecisionsAfter(start + 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	require.Equal(t, second.ID, tail[0].Decision.ID)

	empty, err := store.DecisionsAfter(store.CurrentIndex())
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestWALStoreRejectsDecisionWithoutSymbol(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	err = store.Save(domain.TradeDecision{ID: uuid.New()})
	require.Error(t, err)
}
