package models

import (
	"time"
)

type Dish struct {
	ID           string       `json:"id"`
	HotelID      string       `json:"hotel_id"`
	Name         string       `json:"name"`
	Price        float64      `json:"price"`
	CategoryID   string       `json:"category_id,omitempty"`
	Ingredients  []Ingredient `json:"ingredients,omitempty"`
	AppliedOffer string       `json:"applied_offer,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

type Category struct {
	ID      string `json:"id"`
	HotelID string `json:"hotel_id"`
	Name    string `json:"name"`
}

type Ingredient struct {
	ID      string `json:"id"`
	HotelID string `json:"hotel_id"`
	Name    string `json:"name"`
}

type Offer struct {
	ID              string   `json:"id"`
	HotelID         string   `json:"hotel_id"`
	Name            string   `json:"name"`
	DiscountPercent float64  `json:"discount_percent"`
	AppliedOn       []string `json:"applied_on,omitempty"`
}

// Menu is what a QR scan returns alongside session state.
type Menu struct {
	Dishes     []Dish     `json:"dishes"`
	Categories []Category `json:"categories"`
}
