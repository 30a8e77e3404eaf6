package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cafepos/internal/domain"
	"cafepos/internal/pricing"
	"cafepos/internal/service"
)

// MenuHandler handles HTTP requests for the catalog and the rate.
type MenuHandler struct {
	catalog *domain.Catalog
	rates   service.RateSource
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(catalog *domain.Catalog, rates service.RateSource) *MenuHandler {
	return &MenuHandler{catalog: catalog, rates: rates}
}

// MenuItemResponse is one catalog item, with a sats price when a rate is known.
type MenuItemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	PriceSats   int64  `json:"price_sats,omitempty"`
	Image       string `json:"image,omitempty"`
}

// MenuResponse is the HTTP response for GET /v1/menu.
type MenuResponse struct {
	Items          []MenuItemResponse `json:"items"`
	OfferAvailable bool               `json:"offer_available"`
}

// GetMenu handles GET /v1/menu
func (h *MenuHandler) GetMenu(c *gin.Context) {
	rate := h.rates.Current()

	items := make([]MenuItemResponse, 0, len(h.catalog.Items))
	for _, item := range h.catalog.Items {
		resp := MenuItemResponse{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price.StringFixed(2),
			Image:       item.Image,
		}
		if rate != nil {
			resp.PriceSats = pricing.ToSats(item.Price, &rate.Value)
		}
		items = append(items, resp)
	}

	respondJSON(c, http.StatusOK, MenuResponse{
		Items:          items,
		OfferAvailable: h.catalog.OfferString != "",
	})
}

// RateResponse is the HTTP response for GET /v1/rate.
type RateResponse struct {
	Value      string `json:"value"`
	ObservedAt string `json:"observed_at"`
}

// GetRate handles GET /v1/rate
func (h *MenuHandler) GetRate(c *gin.Context) {
	rate := h.rates.Current()
	if rate == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "rate not yet observed"})
		return
	}

	respondJSON(c, http.StatusOK, RateResponse{
		Value:      rate.Value.String(),
		ObservedAt: rate.ObservedAt.UTC().Format(time.RFC3339),
	})
}
