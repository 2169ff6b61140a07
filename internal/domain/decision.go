package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeDecision terminal artifact of one decision cycle. Consumed by the
// execution collaborator and journaled for audit.
type TradeDecision struct {
	ID         uuid.UUID         `json:"id"`
	Symbol     string            `json:"symbol"`
	Action     Action            `json:"action"`
	Confidence float64           `json:"confidence"`
	SizeUSD    decimal.Decimal   `json:"size_usd"`
	Stops      StopLevels        `json:"stops"`
	Regime     Regime            `json:"regime"`
	Rationale  string            `json:"rationale"`
	Advisory   *AdvisoryDecision `json:"advisory,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
