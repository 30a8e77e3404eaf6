package domain

import "github.com/shopspring/decimal"

// MenuItem is one fixed-price item from the catalog document.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
}

// Catalog is the static menu document loaded once at startup. The offer
// string identifies the merchant on the resolution network.
type Catalog struct {
	Items       []MenuItem `json:"menuItems"`
	OfferString string     `json:"offer"`
}

// Item returns the menu item with the given ID, or nil.
func (c *Catalog) Item(id string) *MenuItem {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}
