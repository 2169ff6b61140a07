package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdvisoryDecision(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		action  Action
	}{
		{
			name:   "valid buy",
			raw:    `{"action":"BUY","confidence":0.8,"position_size":10,"stop_loss":95,"take_profit":110,"rationale":"momentum"}`,
			action: ActionBuy,
		},
		{
			name:   "markdown fenced payload",
			raw:    "```json\n{\"action\":\"SELL\",\"confidence\":0.6,\"position_size\":5,\"stop_loss\":110,\"take_profit\":90,\"rationale\":\"rejection\"}\n```",
			action: ActionSell,
		},
		{
			name:   "lowercase action accepted",
			raw:    `{"action":"hold","confidence":0.5,"position_size":0,"stop_loss":0,"take_profit":0,"rationale":"unclear"}`,
			action: ActionHold,
		},
		{
			name:    "invalid action",
			raw:     `{"action":"LONG","confidence":0.8,"position_size":10,"stop_loss":95,"take_profit":110,"rationale":"x"}`,
			wantErr: true,
		},
		{
			name:    "confidence out of range",
			raw:     `{"action":"BUY","confidence":1.5,"position_size":10,"stop_loss":95,"take_profit":110,"rationale":"x"}`,
			wantErr: true,
		},
		{
			name:    "position size over 100",
			raw:     `{"action":"BUY","confidence":0.8,"position_size":150,"stop_loss":95,"take_profit":110,"rationale":"x"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "I think you should buy",
			wantErr: true,
		},
		{
			name:    "truncated json",
			raw:     `{"action":"BUY","confidence":0.8`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advisory, err := NewAdvisoryDecision(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, advisory.ToAction())
		})
	}
}

func TestLabelForScore(t *testing.T) {
	assert.Equal(t, SentimentBullish, LabelForScore(61))
	assert.Equal(t, SentimentNeutral, LabelForScore(60))
	assert.Equal(t, SentimentNeutral, LabelForScore(40))
	assert.Equal(t, SentimentBearish, LabelForScore(39))
}
