package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"trustpeer/internal/models"
	"trustpeer/internal/utils"
)

// identitySource supplies the acting user's address. Satisfied by
// *WalletService.
type identitySource interface {
	PrimaryAddress() (string, error)
}

// TradeEvent describes a single committed lifecycle transition. From is empty
// for trade creation.
type TradeEvent struct {
	Trade models.TradeDetails
	From  models.TradeStatus
	To    models.TradeStatus
}

var defaultReleaseConditions = []string{
	"Both parties confirm trade completion",
	"Funds are released after confirmation",
}

// EscrowService owns the trade ledger and enforces the escrow lifecycle state
// machine. Mutations are serialized on the service mutex and checked against
// the allowed transitions, so racing operations on the same trade cannot both
// commit.
type EscrowService struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	identity identitySource
	latency  time.Duration

	active    []*models.TradeDetails
	completed []*models.TradeDetails

	stateSubs map[int]func(models.EscrowState)
	eventSubs map[int]func(TradeEvent)
	nextSub   int
	lastID    int64

	log *logrus.Entry
}

// NewEscrowService builds a trade engine. latency simulates settlement delay
// on every mutating operation; pass zero to disable.
func NewEscrowService(identity identitySource, latency time.Duration) *EscrowService {
	return &EscrowService{
		identity:  identity,
		latency:   latency,
		stateSubs: make(map[int]func(models.EscrowState)),
		eventSubs: make(map[int]func(TradeEvent)),
		log:       logrus.WithField("service", "escrow"),
	}
}

// Subscribe registers a listener for ledger snapshots, delivered once per
// committed mutation, in commit order.
func (s *EscrowService) Subscribe(fn func(models.EscrowState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.stateSubs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.stateSubs, id)
	}
}

// SubscribeTransitions registers a listener for per-trade lifecycle events.
// Used by the application workflow to react to creations and completions.
func (s *EscrowService) SubscribeTransitions(fn func(TradeEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.eventSubs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.eventSubs, id)
	}
}

// simulate models the settlement round trip before the commit section.
// Cancellation here leaves no partial state.
func (s *EscrowService) simulate(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// commit publishes the ledger snapshot and the transition event. Called with
// s.mu held; releases it.
func (s *EscrowService) commit(event TradeEvent) {
	snap := s.snapshotLocked()
	stateFns := make([]func(models.EscrowState), 0, len(s.stateSubs))
	for _, fn := range s.stateSubs {
		stateFns = append(stateFns, fn)
	}
	eventFns := make([]func(TradeEvent), 0, len(s.eventSubs))
	for _, fn := range s.eventSubs {
		eventFns = append(eventFns, fn)
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, fn := range eventFns {
		fn(event)
	}
	for _, fn := range stateFns {
		fn(snap)
	}
}

func (s *EscrowService) snapshotLocked() models.EscrowState {
	snap := models.EscrowState{
		ActiveTrades:    make([]models.TradeDetails, 0, len(s.active)),
		CompletedTrades: make([]models.TradeDetails, 0, len(s.completed)),
	}
	for _, t := range s.active {
		snap.ActiveTrades = append(snap.ActiveTrades, *t.Clone())
	}
	for _, t := range s.completed {
		snap.CompletedTrades = append(snap.CompletedTrades, *t.Clone())
	}
	return snap
}

// nextTradeID derives a unique id from the creation timestamp. Called with
// s.mu held.
func (s *EscrowService) nextTradeID(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return fmt.Sprintf("TR%d", id)
}

func validateCreateRequest(req *models.CreateTradeRequest) error {
	if !req.Type.Valid() {
		return &models.ValidationError{Field: "type", Reason: fmt.Sprintf("unsupported trade type %q", req.Type)}
	}
	if req.PartnerAddress == "" {
		return &models.ValidationError{Field: "partner_address", Reason: "must not be empty"}
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return &models.ValidationError{Field: "amount", Reason: "must be a decimal number"}
	}
	if !amount.IsPositive() {
		return &models.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if req.Currency == "" {
		return &models.ValidationError{Field: "currency", Reason: "must not be empty"}
	}
	return nil
}

// CreateTrade opens a new trade between the acting user and the partner,
// with buyer/seller assigned from the declared direction. Requires an active
// wallet connection.
func (s *EscrowService) CreateTrade(ctx context.Context, req *models.CreateTradeRequest) (*models.TradeDetails, error) {
	currentUser, err := s.identity.PrimaryAddress()
	if err != nil {
		return nil, err
	}
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}

	escrowAddress, err := utils.EscrowAddress(req.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate escrow account: %w", err)
	}

	buyer, seller := currentUser, req.PartnerAddress
	if req.Type == models.TradeTypeSell {
		buyer, seller = req.PartnerAddress, currentUser
	}

	conditions := req.ReleaseConditions
	if len(conditions) == 0 {
		conditions = append([]string(nil), defaultReleaseConditions...)
	}

	now := time.Now()
	createdAt := now
	trade := &models.TradeDetails{
		Buyer:             buyer,
		Seller:            seller,
		Amount:            req.Amount,
		Currency:          req.Currency,
		Description:       req.Description,
		Type:              req.Type,
		Status:            models.TradeStatusCreated,
		CreatedAt:         now,
		UpdatedAt:         now,
		EscrowAddress:     escrowAddress,
		ReleaseConditions: conditions,
		Timeline: []models.TradeStep{
			{Name: models.StepTradeCreated, Completed: true, Timestamp: &createdAt},
			{Name: models.StepFundsDeposited},
			{Name: models.StepAwaitingConfirmation},
			{Name: models.StepTradeComplete},
		},
	}

	s.mu.Lock()
	trade.ID = s.nextTradeID(now)
	s.active = append(s.active, trade)
	result := trade.Clone()
	s.log.WithFields(logrus.Fields{
		"trade_id": trade.ID,
		"buyer":    buyer,
		"seller":   seller,
		"amount":   req.Amount,
		"currency": req.Currency,
	}).Info("trade created")
	s.commit(TradeEvent{Trade: *result, To: models.TradeStatusCreated})

	return result, nil
}

// GetTrade searches both the active and completed sets. Absence is a valid
// result, reported as nil.
func (s *EscrowService) GetTrade(id string) *models.TradeDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := findTrade(s.active, id); t != nil {
		return t.Clone()
	}
	if t := findTrade(s.completed, id); t != nil {
		return t.Clone()
	}
	return nil
}

// DepositFunds advances an active trade to funds_deposited.
func (s *EscrowService) DepositFunds(ctx context.Context, id string) error {
	return s.advance(ctx, id, models.TradeStatusFundsDeposited, models.StepFundsDeposited)
}

// ConfirmTrade advances an active trade to awaiting_confirmation.
func (s *EscrowService) ConfirmTrade(ctx context.Context, id string) error {
	return s.advance(ctx, id, models.TradeStatusAwaitingConfirmation, models.StepAwaitingConfirmation)
}

// advance applies a non-terminal transition to a trade in the active set.
func (s *EscrowService) advance(ctx context.Context, id string, to models.TradeStatus, step string) error {
	if err := s.simulate(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	trade := findTrade(s.active, id)
	if trade == nil {
		s.mu.Unlock()
		return &models.NotFoundError{Kind: "trade", ID: id}
	}
	from := trade.Status
	if !models.CanTransition(from, to) {
		s.mu.Unlock()
		return &models.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("trade %s cannot move from %s to %s", id, from, to),
		}
	}
	now := time.Now()
	trade.Status = to
	trade.UpdatedAt = now
	markStep(trade, step, now)
	result := trade.Clone()
	s.log.WithFields(logrus.Fields{"trade_id": id, "from": from, "to": to}).Info("trade advanced")
	s.commit(TradeEvent{Trade: *result, From: from, To: to})
	return nil
}

// ReleaseFunds completes the trade and moves it from the active set to the
// completed set in one commit. Legal from awaiting_confirmation, or from
// disputed as a resolution in favor of completion.
func (s *EscrowService) ReleaseFunds(ctx context.Context, id string) error {
	return s.finalize(ctx, id, models.TradeStatusCompleted)
}

// CancelTrade cancels the trade and moves it out of the active set. Legal
// from created or funds_deposited, or from disputed as a resolution.
func (s *EscrowService) CancelTrade(ctx context.Context, id string) error {
	return s.finalize(ctx, id, models.TradeStatusCancelled)
}

func (s *EscrowService) finalize(ctx context.Context, id string, to models.TradeStatus) error {
	if err := s.simulate(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	idx := findTradeIndex(s.active, id)
	if idx < 0 {
		s.mu.Unlock()
		return &models.NotFoundError{Kind: "trade", ID: id}
	}
	trade := s.active[idx]
	from := trade.Status
	if !models.CanTransition(from, to) {
		s.mu.Unlock()
		return &models.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("trade %s cannot move from %s to %s", id, from, to),
		}
	}
	now := time.Now()
	trade.Status = to
	trade.UpdatedAt = now
	if to == models.TradeStatusCompleted {
		markStep(trade, models.StepTradeComplete, now)
	}
	s.active = append(s.active[:idx], s.active[idx+1:]...)
	s.completed = append(s.completed, trade)
	result := trade.Clone()
	s.log.WithFields(logrus.Fields{"trade_id": id, "from": from, "to": to}).Info("trade closed")
	s.commit(TradeEvent{Trade: *result, From: from, To: to})
	return nil
}

// DisputeTrade flags an active trade for dispute resolution. The trade stays
// in the active set until released or cancelled.
func (s *EscrowService) DisputeTrade(ctx context.Context, id, reason string) error {
	if reason == "" {
		return &models.ValidationError{Field: "reason", Reason: "must not be empty"}
	}
	if err := s.simulate(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	trade := findTrade(s.active, id)
	if trade == nil {
		s.mu.Unlock()
		return &models.NotFoundError{Kind: "trade", ID: id}
	}
	from := trade.Status
	if !models.CanTransition(from, models.TradeStatusDisputed) {
		s.mu.Unlock()
		return &models.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("trade %s cannot move from %s to %s", id, from, models.TradeStatusDisputed),
		}
	}
	trade.Status = models.TradeStatusDisputed
	trade.DisputeReason = reason
	trade.UpdatedAt = time.Now()
	result := trade.Clone()
	s.log.WithFields(logrus.Fields{"trade_id": id, "reason": reason}).Warn("trade disputed")
	s.commit(TradeEvent{Trade: *result, From: from, To: models.TradeStatusDisputed})
	return nil
}

// GetTradeHistory returns every trade involving the current user, newest
// update first. Requires an active wallet connection.
func (s *EscrowService) GetTradeHistory() ([]models.TradeDetails, error) {
	address, err := s.identity.PrimaryAddress()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	history := make([]models.TradeDetails, 0)
	for _, set := range [][]*models.TradeDetails{s.active, s.completed} {
		for _, t := range set {
			if t.Buyer == address || t.Seller == address {
				history = append(history, *t.Clone())
			}
		}
	}
	s.mu.Unlock()

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].UpdatedAt.After(history[j].UpdatedAt)
	})
	return history, nil
}

// GetState returns a defensive snapshot of the trade ledger.
func (s *EscrowService) GetState() models.EscrowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func findTrade(set []*models.TradeDetails, id string) *models.TradeDetails {
	if idx := findTradeIndex(set, id); idx >= 0 {
		return set[idx]
	}
	return nil
}

func findTradeIndex(set []*models.TradeDetails, id string) int {
	for i, t := range set {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func markStep(trade *models.TradeDetails, name string, at time.Time) {
	for i := range trade.Timeline {
		if trade.Timeline[i].Name == name {
			ts := at
			trade.Timeline[i].Completed = true
			trade.Timeline[i].Timestamp = &ts
			return
		}
	}
}
