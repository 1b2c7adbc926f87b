package models

import "time"

// Rating is an immutable review left for a trader after a trade. Only the
// Helpful counter may change after creation.
type Rating struct {
	ID          string    `json:"id"`
	FromAddress string    `json:"from_address"`
	ToAddress   string    `json:"to_address"`
	TradeID     string    `json:"trade_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	Timestamp   time.Time `json:"timestamp"`
	Helpful     int       `json:"helpful"`
	Verified    bool      `json:"verified"`
}

// TraderProfile aggregates a trader's reputation. Derived fields
// (AverageRating, RatingDistribution, TrustScore, Badges) are recomputed as a
// whole after every accepted rating; badges are never accumulated.
type TraderProfile struct {
	Address            string      `json:"address"`
	Username           string      `json:"username,omitempty"`
	TotalRatings       int         `json:"total_ratings"`
	AverageRating      float64     `json:"average_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	TotalTrades        int         `json:"total_trades"`
	CompletedTrades    int         `json:"completed_trades"`
	JoinDate           time.Time   `json:"join_date"`
	LastActive         time.Time   `json:"last_active"`
	TrustScore         int         `json:"trust_score"`
	Badges             []string    `json:"badges"`
}

// Achievement badge labels.
const (
	BadgeExperiencedTrader = "Experienced Trader"
	BadgeTopRated          = "Top Rated"
	BadgeVeteran           = "Veteran"
	BadgeTrusted           = "Trusted"
)

// Clone returns a deep copy of the profile.
func (p *TraderProfile) Clone() *TraderProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.RatingDistribution = make(map[int]int, len(p.RatingDistribution))
	for star, count := range p.RatingDistribution {
		out.RatingDistribution[star] = count
	}
	if p.Badges != nil {
		out.Badges = make([]string, len(p.Badges))
		copy(out.Badges, p.Badges)
	}
	return &out
}

// SubmitRatingRequest is the payload for POST /api/ratings. FromAddress comes
// from the authenticated session, not the body.
type SubmitRatingRequest struct {
	TradeID   string `json:"trade_id" binding:"required"`
	ToAddress string `json:"to_address" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment" binding:"required"`
}

// RatingState is a snapshot of the reputation ledger.
type RatingState struct {
	Ratings  []Rating        `json:"ratings"`
	Profiles []TraderProfile `json:"profiles"`
}
