package models

import "time"

// TradeStatus is the lifecycle state of an escrow trade. Transitions are
// forward-only; see CanTransition.
type TradeStatus string

const (
	TradeStatusCreated              TradeStatus = "created"
	TradeStatusFundsDeposited       TradeStatus = "funds_deposited"
	TradeStatusAwaitingConfirmation TradeStatus = "awaiting_confirmation"
	TradeStatusCompleted            TradeStatus = "completed"
	TradeStatusCancelled            TradeStatus = "cancelled"
	TradeStatusDisputed             TradeStatus = "disputed"
)

// Valid reports whether the status value is supported.
func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusCreated, TradeStatusFundsDeposited, TradeStatusAwaitingConfirmation,
		TradeStatusCompleted, TradeStatusCancelled, TradeStatusDisputed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status ends the trade's active life.
func (s TradeStatus) Terminal() bool {
	return s == TradeStatusCompleted || s == TradeStatusCancelled
}

// CanTransition reports whether the lifecycle allows moving from one status
// to another. Disputed trades are resolved by releasing (completed) or
// cancelling.
func CanTransition(from, to TradeStatus) bool {
	switch to {
	case TradeStatusFundsDeposited:
		return from == TradeStatusCreated
	case TradeStatusAwaitingConfirmation:
		return from == TradeStatusFundsDeposited
	case TradeStatusCompleted:
		return from == TradeStatusAwaitingConfirmation || from == TradeStatusDisputed
	case TradeStatusCancelled:
		return from == TradeStatusCreated || from == TradeStatusFundsDeposited || from == TradeStatusDisputed
	case TradeStatusDisputed:
		return from == TradeStatusFundsDeposited || from == TradeStatusAwaitingConfirmation
	default:
		return false
	}
}

// TradeType declares the acting user's side of the trade.
type TradeType string

const (
	TradeTypeBuy      TradeType = "buy"
	TradeTypeSell     TradeType = "sell"
	TradeTypeExchange TradeType = "exchange"
)

// Valid reports whether the trade type is supported.
func (t TradeType) Valid() bool {
	return t == TradeTypeBuy || t == TradeTypeSell || t == TradeTypeExchange
}

// Timeline step names, in lifecycle order.
const (
	StepTradeCreated         = "Trade Created"
	StepFundsDeposited       = "Funds Deposited"
	StepAwaitingConfirmation = "Awaiting Confirmation"
	StepTradeComplete        = "Trade Complete"
)

// TradeStep is a named checkpoint in a trade's progress display.
type TradeStep struct {
	Name        string     `json:"name"`
	Completed   bool       `json:"completed"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Description string     `json:"description,omitempty"`
}

// TradeDetails is the central trade record. Timeline completion is a
// projection of Status and must stay consistent with it.
type TradeDetails struct {
	ID                string      `json:"id"`
	Buyer             string      `json:"buyer"`
	Seller            string      `json:"seller"`
	Amount            string      `json:"amount"`
	Currency          string      `json:"currency"`
	Description       string      `json:"description"`
	Type              TradeType   `json:"type"`
	Status            TradeStatus `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	EscrowAddress     string      `json:"escrow_address,omitempty"`
	ReleaseConditions []string    `json:"release_conditions,omitempty"`
	Timeline          []TradeStep `json:"timeline,omitempty"`
	DisputeReason     string      `json:"dispute_reason,omitempty"`
}

// Clone returns a deep copy of the trade.
func (t *TradeDetails) Clone() *TradeDetails {
	if t == nil {
		return nil
	}
	out := *t
	if t.ReleaseConditions != nil {
		out.ReleaseConditions = make([]string, len(t.ReleaseConditions))
		copy(out.ReleaseConditions, t.ReleaseConditions)
	}
	if t.Timeline != nil {
		out.Timeline = make([]TradeStep, len(t.Timeline))
		for i, step := range t.Timeline {
			out.Timeline[i] = step
			if step.Timestamp != nil {
				ts := *step.Timestamp
				out.Timeline[i].Timestamp = &ts
			}
		}
	}
	return &out
}

// CreateTradeRequest is the payload for opening a new trade.
type CreateTradeRequest struct {
	PartnerAddress    string    `json:"partner_address" binding:"required"`
	Amount            string    `json:"amount" binding:"required"`
	Currency          string    `json:"currency" binding:"required"`
	Description       string    `json:"description"`
	Type              TradeType `json:"type" binding:"required"`
	ReleaseConditions []string  `json:"release_conditions"`
}

// DisputeTradeRequest is the payload for flagging an active trade.
type DisputeTradeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// EscrowState is a snapshot of the trade ledger. A trade appears in exactly
// one of the two sets.
type EscrowState struct {
	ActiveTrades    []TradeDetails `json:"active_trades"`
	CompletedTrades []TradeDetails `json:"completed_trades"`
}
