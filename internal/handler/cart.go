package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cafepos/internal/domain"
	"cafepos/internal/pricing"
	"cafepos/internal/service"
)

// CartHandler handles HTTP requests for the cart.
type CartHandler struct {
	ledger  *service.CartLedger
	catalog *domain.Catalog
	rates   service.RateSource
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(ledger *service.CartLedger, catalog *domain.Catalog, rates service.RateSource) *CartHandler {
	return &CartHandler{ledger: ledger, catalog: catalog, rates: rates}
}

// AddItemRequest is the HTTP request body for adding an item.
type AddItemRequest struct {
	ItemID string `json:"item_id"`
}

// SetQuantityRequest is the HTTP request body for setting a line quantity.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse is the HTTP response for cart operations.
type CartResponse struct {
	Lines         []domain.CartLine `json:"lines"`
	TotalFiat     string            `json:"total_fiat"`
	TotalSats     int64             `json:"total_sats"`
	TotalSatsText string            `json:"total_sats_text"`
}

func (h *CartHandler) cartResponse(cart domain.Cart) CartResponse {
	var sats int64
	if rate := h.rates.Current(); rate != nil {
		sats = pricing.ToSats(cart.TotalFiat(), &rate.Value)
	}
	return CartResponse{
		Lines:         cart.Lines,
		TotalFiat:     cart.TotalFiat().StringFixed(2),
		TotalSats:     sats,
		TotalSatsText: pricing.FormatSats(sats),
	}
}

// GetCart handles GET /v1/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.cartResponse(h.ledger.Snapshot()))
}

// AddItem handles POST /v1/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	item := h.catalog.Item(req.ItemID)
	if item == nil {
		respondError(c, service.ErrInvalidItemID)
		return
	}

	cart, err := h.ledger.Add(c.Request.Context(), *item)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.cartResponse(cart))
}

// SetQuantity handles PUT /v1/cart/items/:id
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	cart, err := h.ledger.SetQuantity(c.Request.Context(), c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.cartResponse(cart))
}

// RemoveItem handles DELETE /v1/cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	cart, err := h.ledger.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.cartResponse(cart))
}

// ClearCart handles DELETE /v1/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.ledger.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.cartResponse(h.ledger.Snapshot()))
}
