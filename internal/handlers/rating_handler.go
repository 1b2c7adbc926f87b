package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trustpeer/internal/auth"
	"trustpeer/internal/models"
	"trustpeer/internal/services"
)

type RatingHandler struct {
	ratingService *services.RatingService
}

func NewRatingHandler(ratingService *services.RatingService) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
	}
}

// SubmitRating records a rating from the authenticated user
// POST /api/ratings
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	fromAddress, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rating, err := h.ratingService.SubmitRating(
		c.Request.Context(),
		req.TradeID,
		req.ToAddress,
		req.Rating,
		req.Comment,
		fromAddress,
	)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, rating)
}

// MarkHelpful increments a rating's helpful counter
// POST /api/ratings/:id/helpful
func (h *RatingHandler) MarkHelpful(c *gin.Context) {
	if err := h.ratingService.MarkRatingHelpful(c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetTraderRatings lists ratings received by a trader, newest first
// GET /api/traders/:address/ratings
func (h *RatingHandler) GetTraderRatings(c *gin.Context) {
	ratings := h.ratingService.GetTraderRatings(c.Param("address"))
	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}

// GetTraderProfile returns a trader's reputation profile
// GET /api/traders/:address
func (h *RatingHandler) GetTraderProfile(c *gin.Context) {
	profile := h.ratingService.GetTraderProfile(c.Param("address"))
	c.JSON(http.StatusOK, profile)
}

// ListTraders searches traders or returns the leaderboard
// GET /api/traders?q=...&top=N
func (h *RatingHandler) ListTraders(c *gin.Context) {
	if query := c.Query("q"); query != "" {
		c.JSON(http.StatusOK, gin.H{"traders": h.ratingService.SearchTraders(query)})
		return
	}

	limit := 10
	if raw := c.Query("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid top parameter"})
			return
		}
		limit = parsed
	}

	c.JSON(http.StatusOK, gin.H{"traders": h.ratingService.GetTopTraders(limit)})
}
