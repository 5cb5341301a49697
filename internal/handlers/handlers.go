package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"boxoffice/internal/cache"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/middleware"
	"boxoffice/internal/models"
	"boxoffice/internal/service"
)

type Handlers struct {
	services    *service.Services
	cacheClient *cache.Client
}

func NewHandlers(services *service.Services, cacheClient *cache.Client) *Handlers {
	return &Handlers{
		services:    services,
		cacheClient: cacheClient,
	}
}

// respondError translates the engine's error taxonomy into HTTP statuses.
// Contention answers are 409s the client can act on; transient store
// trouble is a 503 the client may retry as a whole.
func respondError(c *gin.Context, err error) {
	var seatErr *apperrors.SeatTakenError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &seatErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": seatErr.Error(),
			"conflict": gin.H{"row": seatErr.Row, "col": seatErr.Col},
		})
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAmountMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrTransient):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary contention, retry the request"})
	default:
		slog.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func holderFromRequest(c *gin.Context) (models.Holder, bool) {
	holder, ok := middleware.HolderFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return holder, ok
}

func seatsFromRequest(c *gin.Context, reqs []models.SeatRequest) ([]models.Seat, bool) {
	seats := make([]models.Seat, 0, len(reqs))
	for _, req := range reqs {
		if req.Row == nil || req.Col == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seat requires both row and col"})
			return nil, false
		}
		seats = append(seats, models.Seat{Row: *req.Row, Col: *req.Col})
	}
	return seats, true
}

func ticketIDs(tickets []models.Ticket) []string {
	ids := make([]string, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	return ids
}
