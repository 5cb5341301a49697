package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boxoffice/internal/models"
	"boxoffice/internal/service"
)

// Bookings handlers

// CreateBooking - POST /api/bookings
// Direct booking path. Only free sections book here; for priced sections
// the response is 402 with the provider authorization URL, because tickets
// are only ever created from a verified payment.
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.BookTicketsRequest
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

	if result.AuthorizationURL != "" {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":             "section is not free, complete payment first",
			"authorization_url": result.AuthorizationURL,
		})
		return
	}

	c.JSON(http.StatusCreated, models.BookTicketsResponse{TicketIDs: ticketIDs(result.Tickets)})
}

// ListTickets - GET /api/tickets
func (h *Handlers) ListTickets(c *gin.Context) {
	holder, ok := holderFromRequest(c)
	if !ok {
		return
	}

	tickets, err := h.services.Bookings.ListTickets(c.Request.Context(), holder.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tickets)
}

// CancelTicket - DELETE /api/tickets/:id
// Frees the seat and capacity slot the moment the delete commits.
func (h *Handlers) CancelTicket(c *gin.Context) {
	holder, ok := holderFromRequest(c)
	if !ok {
		return
	}

	err := h.services.Bookings.Cancel(c.Request.Context(), c.Param("id"), holder.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
