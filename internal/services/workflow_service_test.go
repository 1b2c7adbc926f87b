package services

import (
	"context"
	"testing"
)

func TestWorkflowFeedsTradeCounters(t *testing.T) {
	escrow := newTestEscrowService()
	ratings := NewRatingService(0)
	stop := NewWorkflowService(escrow, ratings).Start()
	defer stop()

	ctx := context.Background()
	trade, err := escrow.CreateTrade(ctx, buyRequest())
	if err != nil {
		t.Fatalf("CreateTrade failed: %v", err)
	}

	for _, address := range []string{"0xAAA", "0xBBB"} {
		profile := ratings.GetTraderProfile(address)
		if profile.TotalTrades != 1 {
			t.Errorf("%s: expected totalTrades 1 after creation, got %d", address, profile.TotalTrades)
		}
		if profile.CompletedTrades != 0 {
			t.Errorf("%s: expected completedTrades 0 before release, got %d", address, profile.CompletedTrades)
		}
	}

	escrow.DepositFunds(ctx, trade.ID)
	escrow.ConfirmTrade(ctx, trade.ID)
	if err := escrow.ReleaseFunds(ctx, trade.ID); err != nil {
		t.Fatalf("ReleaseFunds failed: %v", err)
	}

	for _, address := range []string{"0xAAA", "0xBBB"} {
		profile := ratings.GetTraderProfile(address)
		if profile.CompletedTrades != 1 {
			t.Errorf("%s: expected completedTrades 1, got %d", address, profile.CompletedTrades)
		}
	}
}

func TestWorkflowCancellationDoesNotComplete(t *testing.T) {
	escrow := newTestEscrowService()
	ratings := NewRatingService(0)
	stop := NewWorkflowService(escrow, ratings).Start()
	defer stop()

	ctx := context.Background()
	trade, _ := escrow.CreateTrade(ctx, buyRequest())
	if err := escrow.CancelTrade(ctx, trade.ID); err != nil {
		t.Fatalf("CancelTrade failed: %v", err)
	}

	profile := ratings.GetTraderProfile("0xAAA")
	if profile.TotalTrades != 1 || profile.CompletedTrades != 0 {
		t.Errorf("cancelled trade altered completion counters: %+v", profile)
	}
}

func TestWorkflowUnlocksVerifiedRating(t *testing.T) {
	escrow := newTestEscrowService()
	ratings := NewRatingService(0)
	stop := NewWorkflowService(escrow, ratings).Start()
	defer stop()

	ctx := context.Background()
	trade, _ := escrow.CreateTrade(ctx, buyRequest())
	escrow.DepositFunds(ctx, trade.ID)
	escrow.ConfirmTrade(ctx, trade.ID)
	if err := escrow.ReleaseFunds(ctx, trade.ID); err != nil {
		t.Fatalf("ReleaseFunds failed: %v", err)
	}

	rating, err := ratings.SubmitRating(ctx, trade.ID, "0xBBB", 5, "fast settlement, great partner", "0xAAA")
	if err != nil {
		t.Fatalf("SubmitRating failed: %v", err)
	}
	if !rating.Verified {
		t.Error("expected rating for a completed trade to be verified")
	}

	profile := ratings.GetTraderProfile("0xBBB")
	if profile.TotalRatings != 1 || profile.AverageRating != 5 {
		t.Errorf("unexpected profile after verified rating: %+v", profile)
	}
}

func TestWorkflowStopDetaches(t *testing.T) {
	escrow := newTestEscrowService()
	ratings := NewRatingService(0)
	stop := NewWorkflowService(escrow, ratings).Start()
	stop()

	if _, err := escrow.CreateTrade(context.Background(), buyRequest()); err != nil {
		t.Fatalf("CreateTrade failed: %v", err)
	}

	profile := ratings.GetTraderProfile("0xAAA")
	if profile.TotalTrades != 0 {
		t.Errorf("stopped workflow still recorded trades: %d", profile.TotalTrades)
	}
}
