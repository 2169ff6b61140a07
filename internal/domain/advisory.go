package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// AdvisoryDecision structured response from the external advisory oracle.
// The overlay is purely additive: a malformed or absent advisory never
// blocks a decision cycle.
type AdvisoryDecision struct {
	Action          string  `json:"action"`
	Confidence      float64 `json:"confidence"`
	PositionSizePct float64 `json:"position_size"` // percent of equity, 0..100
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	Rationale       string  `json:"rationale"`
}

// NewAdvisoryDecision parses and validates a raw advisory response.
func NewAdvisoryDecision(raw string) (*AdvisoryDecision, error) {
	response := sanitizeAdvisoryPayload(raw)

	if !json.Valid([]byte(response)) {
		return nil, errors.New("invalid JSON structure")
	}

	var advisory AdvisoryDecision
	if err := json.Unmarshal([]byte(response), &advisory); err != nil {
		return nil, errors.Wrap(err, "JSON unmarshal error")
	}

	if err := advisory.Validate(); err != nil {
		return nil, err
	}

	return &advisory, nil
}

func sanitizeAdvisoryPayload(raw string) string {
	response := strings.TrimSpace(raw)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// Validate checks the advisory against its schema.
func (a *AdvisoryDecision) Validate() error {
	switch strings.ToUpper(a.Action) {
	case "BUY", "SELL", "HOLD":
	default:
		return fmt.Errorf("invalid action: %s", a.Action)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("invalid confidence: %f (must be 0.0-1.0)", a.Confidence)
	}
	if a.PositionSizePct < 0 || a.PositionSizePct > 100 {
		return fmt.Errorf("invalid position_size: %f (must be 0-100)", a.PositionSizePct)
	}
	if a.StopLoss < 0 || a.TakeProfit < 0 {
		return errors.New("stop_loss and take_profit must not be negative")
	}
	return nil
}

// ToAction converts the advisory action string to a typed Action.
func (a *AdvisoryDecision) ToAction() Action {
	switch strings.ToUpper(a.Action) {
	case "BUY":
		return ActionBuy
	case "SELL":
		return ActionSell
	default:
		return ActionHold
	}
}
