package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cafepos/internal/domain"
	"cafepos/internal/pricing"
	"cafepos/internal/service"
)

// CheckoutHandler handles HTTP requests for the checkout flow.
type CheckoutHandler struct {
	coordinator *service.CheckoutCoordinator
	offerString string
}

// NewCheckoutHandler creates a new CheckoutHandler. The offer string
// comes from the catalog document loaded at startup.
func NewCheckoutHandler(coordinator *service.CheckoutCoordinator, offerString string) *CheckoutHandler {
	return &CheckoutHandler{coordinator: coordinator, offerString: offerString}
}

// QuoteResponse is the locked quote in a session response.
type QuoteResponse struct {
	TotalFiat     string `json:"total_fiat"`
	TotalSats     int64  `json:"total_sats"`
	TotalSatsText string `json:"total_sats_text"`
	LockedAt      string `json:"locked_at"`
}

// SessionResponse is the HTTP response for checkout operations.
type SessionResponse struct {
	State         string         `json:"state"`
	AttemptID     string         `json:"attempt_id,omitempty"`
	Quote         *QuoteResponse `json:"quote,omitempty"`
	Invoice       string         `json:"invoice,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
}

func sessionResponse(s domain.CheckoutSession) SessionResponse {
	resp := SessionResponse{
		State:         string(s.State),
		AttemptID:     s.AttemptID,
		FailureReason: s.FailureReason,
	}
	if s.Quote != nil {
		resp.Quote = &QuoteResponse{
			TotalFiat:     s.Quote.TotalFiat.StringFixed(2),
			TotalSats:     s.Quote.TotalSats,
			TotalSatsText: pricing.FormatSats(s.Quote.TotalSats),
			LockedAt:      s.Quote.LockedAt.UTC().Format(time.RFC3339),
		}
	}
	if s.PaymentRequest != nil {
		resp.Invoice = s.PaymentRequest.Invoice
	}
	return resp
}

// GetSession handles GET /v1/checkout
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	respondJSON(c, http.StatusOK, sessionResponse(h.coordinator.Session()))
}

// Commit handles POST /v1/checkout
func (h *CheckoutHandler) Commit(c *gin.Context) {
	session, err := h.coordinator.Commit(c.Request.Context(), h.offerString)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, sessionResponse(session))
}

// Cancel handles POST /v1/checkout/cancel
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	session, err := h.coordinator.Cancel(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, sessionResponse(session))
}

// Reset handles POST /v1/checkout/reset
func (h *CheckoutHandler) Reset(c *gin.Context) {
	session, err := h.coordinator.Reset(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, sessionResponse(session))
}
