package handlers

import (
	"errors"
	"net/http"

	"trustpeer/internal/models"
)

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	var connErr *models.ConnectionError
	var notFound *models.NotFoundError
	var validation *models.ValidationError
	switch {
	case errors.Is(err, models.ErrNotConnected):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &connErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
