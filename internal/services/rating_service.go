package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"trustpeer/internal/models"
)

const minCommentLength = 10

// tradeParties records who may leave a verified rating for a completed trade.
type tradeParties struct {
	buyer  string
	seller string
}

// RatingService owns the rating ledger and the derived trader profiles.
// Profiles are recomputed as a whole after every accepted rating, so the
// distribution, average, badges, and trust score are always consistent.
type RatingService struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	latency time.Duration

	ratings   []*models.Rating
	profiles  map[string]*models.TraderProfile
	completed map[string]tradeParties

	listeners map[int]func(models.RatingState)
	nextSub   int

	log *logrus.Entry
}

// NewRatingService builds a reputation engine. latency simulates the review
// submission round trip; pass zero to disable.
func NewRatingService(latency time.Duration) *RatingService {
	return &RatingService{
		latency:   latency,
		profiles:  make(map[string]*models.TraderProfile),
		completed: make(map[string]tradeParties),
		listeners: make(map[int]func(models.RatingState)),
		log:       logrus.WithField("service", "rating"),
	}
}

// Subscribe registers a listener for reputation snapshots, delivered once per
// committed mutation, in commit order.
func (s *RatingService) Subscribe(fn func(models.RatingState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *RatingService) simulate(ctx context.Context) error {
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

// commit publishes the reputation snapshot. Called with s.mu held; releases
// it.
func (s *RatingService) commit() {
	snap := s.snapshotLocked()
	fns := make([]func(models.RatingState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *RatingService) snapshotLocked() models.RatingState {
	snap := models.RatingState{
		Ratings:  make([]models.Rating, 0, len(s.ratings)),
		Profiles: make([]models.TraderProfile, 0, len(s.profiles)),
	}
	for _, r := range s.ratings {
		snap.Ratings = append(snap.Ratings, *r)
	}
	for _, p := range s.profiles {
		snap.Profiles = append(snap.Profiles, *p.Clone())
	}
	return snap
}

// SubmitRating records a rating for a trader and recomputes the target's
// profile. The rating is verified when the named trade completed between
// fromAddress and toAddress.
func (s *RatingService) SubmitRating(ctx context.Context, tradeID, toAddress string, rating int, comment, fromAddress string) (*models.Rating, error) {
	if rating < 1 || rating > 5 {
		return nil, &models.ValidationError{Field: "rating", Reason: "must be between 1 and 5 stars"}
	}
	if utf8.RuneCountInString(comment) < minCommentLength {
		return nil, &models.ValidationError{
			Field:  "comment",
			Reason: fmt.Sprintf("must be at least %d characters long", minCommentLength),
		}
	}
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}

	now := time.Now()
	record := &models.Rating{
		ID:          ulid.Make().String(),
		FromAddress: fromAddress,
		ToAddress:   toAddress,
		TradeID:     tradeID,
		Rating:      rating,
		Comment:     comment,
		Timestamp:   now,
	}

	s.mu.Lock()
	if parties, ok := s.completed[tradeID]; ok {
		record.Verified = (fromAddress == parties.buyer && toAddress == parties.seller) ||
			(fromAddress == parties.seller && toAddress == parties.buyer)
	}
	s.ratings = append(s.ratings, record)
	s.recomputeProfileLocked(toAddress, now)
	result := *record
	s.log.WithFields(logrus.Fields{
		"trade_id": tradeID,
		"to":       toAddress,
		"rating":   rating,
		"verified": record.Verified,
	}).Info("rating submitted")
	s.commit()

	return &result, nil
}

// GetTraderRatings returns every rating received by the address, newest
// first.
func (s *RatingService) GetTraderRatings(address string) []models.Rating {
	s.mu.Lock()
	ratings := make([]models.Rating, 0)
	for _, r := range s.ratings {
		if r.ToAddress == address {
			ratings = append(ratings, *r)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].Timestamp.After(ratings[j].Timestamp)
	})
	return ratings
}

// GetTraderProfile returns the profile for an address, lazily creating a
// zeroed profile on first reference.
func (s *RatingService) GetTraderProfile(address string) models.TraderProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.profileLocked(address).Clone()
}

// SearchTraders matches the query case-insensitively against addresses and
// usernames, most trusted first.
func (s *RatingService) SearchTraders(query string) []models.TraderProfile {
	needle := strings.ToLower(query)

	s.mu.Lock()
	results := make([]models.TraderProfile, 0)
	for _, p := range s.profiles {
		if strings.Contains(strings.ToLower(p.Address), needle) ||
			strings.Contains(strings.ToLower(p.Username), needle) {
			results = append(results, *p.Clone())
		}
	}
	s.mu.Unlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TrustScore > results[j].TrustScore
	})
	return results
}

// GetTopTraders returns up to limit profiles ordered by trust score.
func (s *RatingService) GetTopTraders(limit int) []models.TraderProfile {
	s.mu.Lock()
	results := make([]models.TraderProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		results = append(results, *p.Clone())
	}
	s.mu.Unlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TrustScore > results[j].TrustScore
	})
	if limit >= 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// MarkRatingHelpful increments the helpful counter of the named rating.
func (s *RatingService) MarkRatingHelpful(id string) error {
	s.mu.Lock()
	for _, r := range s.ratings {
		if r.ID == id {
			r.Helpful++
			s.commit()
			return nil
		}
	}
	s.mu.Unlock()
	return &models.NotFoundError{Kind: "rating", ID: id}
}

// RecordTradeStarted increments the trade counters of every involved party.
// Invoked by the application workflow when a trade is created.
func (s *RatingService) RecordTradeStarted(addresses ...string) {
	now := time.Now()
	s.mu.Lock()
	for _, address := range addresses {
		p := s.profileLocked(address)
		p.TotalTrades++
		p.LastActive = now
		p.TrustScore = trustScore(p, now)
	}
	s.commit()
}

// RecordTradeCompleted increments completion counters for both parties and
// registers rating eligibility for the trade. Invoked by the application
// workflow on the completed transition.
func (s *RatingService) RecordTradeCompleted(tradeID, buyer, seller string) {
	now := time.Now()
	s.mu.Lock()
	s.completed[tradeID] = tradeParties{buyer: buyer, seller: seller}
	for _, address := range []string{buyer, seller} {
		p := s.profileLocked(address)
		p.CompletedTrades++
		p.LastActive = now
		p.TrustScore = trustScore(p, now)
	}
	s.commit()
}

// profileLocked returns the profile for an address, creating a zeroed one if
// absent. Called with s.mu held.
func (s *RatingService) profileLocked(address string) *models.TraderProfile {
	if p, ok := s.profiles[address]; ok {
		return p
	}
	now := time.Now()
	username := "trader_" + address
	if len(address) >= 4 {
		username = "trader_" + address[len(address)-4:]
	}
	p := &models.TraderProfile{
		Address:            address,
		Username:           username,
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		JoinDate:           now,
		LastActive:         now,
		Badges:             []string{},
	}
	s.profiles[address] = p
	return p
}

// recomputeProfileLocked rebuilds the derived fields of a trader's profile
// from the full rating set. Called with s.mu held.
func (s *RatingService) recomputeProfileLocked(address string, now time.Time) {
	p := s.profileLocked(address)

	total := 0
	sum := 0
	distribution := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, r := range s.ratings {
		if r.ToAddress != address {
			continue
		}
		total++
		sum += r.Rating
		distribution[r.Rating]++
	}

	p.TotalRatings = total
	p.AverageRating = 0
	if total > 0 {
		p.AverageRating = float64(sum) / float64(total)
	}
	p.RatingDistribution = distribution
	p.LastActive = now
	p.TrustScore = trustScore(p, now)
	p.Badges = badges(p)
}

// trustScore computes the 0-100 reliability score:
//
//	ratingScore     = (averageRating / 5) * 50
//	volumeScore     = min(totalRatings / 10, 1) * 25
//	completionScore = (completedTrades / totalTrades) * 20
//	activityScore   = min(daysSinceJoin / 30, 1) * 5
func trustScore(p *models.TraderProfile, now time.Time) int {
	ratingScore := (p.AverageRating / 5) * 50

	volumeScore := math.Min(float64(p.TotalRatings)/10, 1) * 25

	completionRate := 0.0
	if p.TotalTrades > 0 {
		completionRate = float64(p.CompletedTrades) / float64(p.TotalTrades)
	}
	completionScore := completionRate * 20

	daysSinceJoin := now.Sub(p.JoinDate).Hours() / 24
	activityScore := math.Min(daysSinceJoin/30, 1) * 5

	return int(math.Round(ratingScore + volumeScore + completionScore + activityScore))
}

// badges derives the achievement set from current thresholds. The list is
// rebuilt every time, so stale badges drop off.
func badges(p *models.TraderProfile) []string {
	out := []string{}
	if p.TotalRatings >= 10 {
		out = append(out, models.BadgeExperiencedTrader)
	}
	if p.AverageRating >= 4.5 {
		out = append(out, models.BadgeTopRated)
	}
	if p.CompletedTrades >= 50 {
		out = append(out, models.BadgeVeteran)
	}
	if p.TrustScore >= 90 {
		out = append(out, models.BadgeTrusted)
	}
	return out
}
