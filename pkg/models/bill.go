package models

import (
	"time"
)

type BillStatus string

const (
	BillStatusOpen      BillStatus = "open"
	BillStatusGenerated BillStatus = "generated"
	BillStatusPaid      BillStatus = "paid"
)

// Bill is the derived aggregate of all billable line items for one dining
// session. Invariants maintained by the billing engine:
//
//	TotalAmount = Σ items[i].Price × items[i].Quantity
//	FinalAmount = TotalAmount − TotalDiscount
type Bill struct {
	ID            string     `json:"id"`
	HotelID       string     `json:"hotel_id"`
	TableID       string     `json:"table_id"`
	CustomerName  string     `json:"customer_name"`
	Items         []BillItem `json:"ordered_items"`
	TotalAmount   float64    `json:"total_amount"`
	TotalDiscount float64    `json:"total_discount"`
	FinalAmount   float64    `json:"final_amount"`
	Status        BillStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BillItem carries the price snapshotted at the moment the dish was first
// added to the bill, so later catalog edits never change historical totals.
type BillItem struct {
	DishID   string  `json:"dish_id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// BillView is the bill joined with hotel and table display fields.
type BillView struct {
	Bill
	HotelName    string         `json:"hotel_name"`
	HotelAddress string         `json:"hotel_address"`
	TableNumber  int            `json:"table_number"`
	Dishes       []BillItemView `json:"dishes"`
}

type BillItemView struct {
	DishID   string  `json:"dish_id"`
	DishName string  `json:"dish_name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}
