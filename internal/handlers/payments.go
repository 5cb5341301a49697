package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boxoffice/internal/models"
	"boxoffice/internal/service"
)

// Payments handlers

// InitiatePayment - POST /api/payments/initiate
// Free sections book immediately; priced ones return the authorization URL.
func (h *Handlers) InitiatePayment(c *gin.Context) {
	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	holder, ok := holderFromRequest(c)
	if !ok {
		return
	}
	seats, ok := seatsFromRequest(c, req.Seats)
	if !ok {
		return
	}

	result, err := h.services.Payments.Initiate(c.Request.Context(), service.BookIntent{
		EventID:   req.EventID,
		SectionID: req.SectionID,
		Holder:    holder,
		Quantity:  req.Quantity,
		Seats:     seats,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.InitiatePaymentResponse{
		AuthorizationURL: result.AuthorizationURL,
		TicketIDs:        ticketIDs(result.Tickets),
	})
}

// PaymentCallback - GET /api/payments/callback
// The provider redirects (and may retry) here after a payment. Duplicate
// deliveries of the same reference return the original ticket set.
func (h *Handlers) PaymentCallback(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}

	result, err := h.services.Payments.HandleCallback(c.Request.Context(), reference)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyProcessed {
		status = http.StatusOK
	}
	c.JSON(status, models.ReconcileResponse{
		Reference:        reference,
		TicketIDs:        ticketIDs(result.Tickets),
		AlreadyProcessed: result.AlreadyProcessed,
	})
}
