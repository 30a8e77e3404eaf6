package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cafepos/internal/payment"
)

// DevHandler exposes development-only routes backed by the in-process
// resolution client. Not registered in production.
type DevHandler struct {
	client *payment.DevClient
}

// NewDevHandler creates a new DevHandler.
func NewDevHandler(client *payment.DevClient) *DevHandler {
	return &DevHandler{client: client}
}

// SettleRequest is the HTTP request body for simulating a settlement.
type SettleRequest struct {
	AttemptID string `json:"attempt_id"`
}

// Settle handles POST /v1/dev/settle
func (h *DevHandler) Settle(c *gin.Context) {
	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if !h.client.Settle(req.AttemptID) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no watcher for attempt"})
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"settled": true})
}
