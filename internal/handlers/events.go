package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Events handlers

// ListEvents - GET /api/events
func (h *Handlers) ListEvents(c *gin.Context) {
	query := c.Query("query")
	date := c.Query("date")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}
	if pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 100"})
		return
	}

	// Only unfiltered listings are cached; filtered ones go to the search index.
	shouldCache := query == "" && date == "" && h.cacheClient != nil

	if shouldCache {
		if rawJSON, err := h.cacheClient.GetEventsListRaw(c.Request.Context(), page, pageSize); err == nil {
			c.Data(http.StatusOK, "application/json", rawJSON)
			return
		}
	}

	response, err := h.services.Events.List(c.Request.Context(), query, date, page, pageSize)
	if err != nil {
		slog.Error("Failed to list events", "error", err)
		respondError(c, err)
		return
	}

	if shouldCache {
		h.cacheClient.SetEventsList(c.Request.Context(), page, pageSize, response)
	}

	c.JSON(http.StatusOK, response)
}

// ListSections - GET /api/events/:id/sections
// Advisory availability snapshot; admission is re-checked inside the
// booking transaction.
func (h *Handlers) ListSections(c *gin.Context) {
	eventID := c.Param("id")

	if h.cacheClient != nil {
		if rawJSON, err := h.cacheClient.GetSectionsRaw(c.Request.Context(), eventID); err == nil {
			c.Data(http.StatusOK, "application/json", rawJSON)
			return
		}
	}

	response, err := h.services.Events.Sections(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.cacheClient != nil {
		h.cacheClient.SetSections(c.Request.Context(), eventID, response)
	}

	c.JSON(http.StatusOK, response)
}
