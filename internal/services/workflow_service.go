package services

import (
	"github.com/sirupsen/logrus"

	"trustpeer/internal/models"
)

// WorkflowService is the application-level bridge between the escrow and
// reputation engines: trade creation and completion feed the trade counters,
// and completion grants rating eligibility for the trade's parties. The rule
// lives here so it is not scattered across transport handlers.
type WorkflowService struct {
	escrow  *EscrowService
	ratings *RatingService
	log     *logrus.Entry
}

func NewWorkflowService(escrow *EscrowService, ratings *RatingService) *WorkflowService {
	return &WorkflowService{
		escrow:  escrow,
		ratings: ratings,
		log:     logrus.WithField("service", "workflow"),
	}
}

// Start subscribes to escrow lifecycle events. The returned function stops
// the workflow.
func (s *WorkflowService) Start() func() {
	return s.escrow.SubscribeTransitions(s.handle)
}

func (s *WorkflowService) handle(event TradeEvent) {
	switch {
	case event.From == "" && event.To == models.TradeStatusCreated:
		s.ratings.RecordTradeStarted(event.Trade.Buyer, event.Trade.Seller)
	case event.To == models.TradeStatusCompleted:
		s.ratings.RecordTradeCompleted(event.Trade.ID, event.Trade.Buyer, event.Trade.Seller)
		s.log.WithField("trade_id", event.Trade.ID).Info("trade completed, rating unlocked")
	}
}
