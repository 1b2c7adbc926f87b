package services

import (
	"fmt"
	"time"

	"trustpeer/internal/models"
)

// SeedDemoData loads the demo fixture set: one funded trade in flight and a
// reviewed trader profile. Intended for development builds so the API is
// demoable without walking through the full flow first.
func SeedDemoData(escrow *EscrowService, ratings *RatingService) {
	now := time.Now()
	twoHoursAgo := now.Add(-2 * time.Hour)
	oneHourAgo := now.Add(-1 * time.Hour)

	trade := &models.TradeDetails{
		ID:            "TR1704067200000",
		Buyer:         "0x1234567890123456789012345678901234567890",
		Seller:        "0x9876543210987654321098765432109876543210",
		Amount:        "0.5",
		Currency:      "ETH",
		Description:   "Trading ETH for service development",
		Type:          models.TradeTypeBuy,
		Status:        models.TradeStatusFundsDeposited,
		CreatedAt:     twoHoursAgo,
		UpdatedAt:     oneHourAgo,
		EscrowAddress: "0xabcdef1234567890abcdef1234567890abcdef12",
		ReleaseConditions: []string{
			"Both parties confirm trade completion",
			"Service delivery confirmed",
			"Funds are released after confirmation",
		},
		Timeline: []models.TradeStep{
			{Name: models.StepTradeCreated, Completed: true, Timestamp: &twoHoursAgo},
			{Name: models.StepFundsDeposited, Completed: true, Timestamp: &oneHourAgo},
			{Name: models.StepAwaitingConfirmation},
			{Name: models.StepTradeComplete},
		},
	}

	escrow.mu.Lock()
	escrow.active = append(escrow.active, trade)
	escrow.commit(TradeEvent{Trade: *trade.Clone(), To: trade.Status})

	seller := trade.Seller
	seed := []struct {
		from    string
		rating  int
		comment string
		age     time.Duration
		helpful int
	}{
		{
			from:    trade.Buyer,
			rating:  5,
			comment: "Excellent trader! Very professional and responsive. Transaction completed smoothly.",
			age:     24 * time.Hour,
			helpful: 3,
		},
		{
			from:    "0xabcdef1234567890abcdef1234567890abcdef12",
			rating:  4,
			comment: "Good experience overall. Quick payment and good communication.",
			age:     3 * 24 * time.Hour,
			helpful: 1,
		},
		{
			from:    "0x5555555555555555555555555555555555555555",
			rating:  5,
			comment: "Outstanding trader with excellent reputation. Highly recommended!",
			age:     7 * 24 * time.Hour,
			helpful: 5,
		},
	}

	ratings.mu.Lock()
	for i, r := range seed {
		ratings.ratings = append(ratings.ratings, &models.Rating{
			ID:          fmt.Sprintf("R%d", i+1),
			FromAddress: r.from,
			ToAddress:   seller,
			TradeID:     trade.ID,
			Rating:      r.rating,
			Comment:     r.comment,
			Timestamp:   now.Add(-r.age),
			Helpful:     r.helpful,
			Verified:    true,
		})
	}
	profile := ratings.profileLocked(seller)
	profile.Username = "CryptoTrader_Pro"
	profile.TotalTrades = 15
	profile.CompletedTrades = 15
	profile.JoinDate = now.Add(-90 * 24 * time.Hour)
	ratings.recomputeProfileLocked(seller, now)
	ratings.commit()
}
