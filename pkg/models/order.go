package models

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusPending, OrderStatusPreparing,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is one client-submitted batch of dish quantities. Multiple orders
// compose one session's bill.
type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customer_id"`
	BillID     string      `json:"bill_id"`
	TableID    string      `json:"table_id"`
	HotelID    string      `json:"hotel_id"`
	Items      []OrderItem `json:"items"`
	Status     OrderStatus `json:"status"`
	Note       string      `json:"note,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type OrderItem struct {
	DishID   string `json:"dish_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// OrderView is the display projection of an order joined with customer,
// dish, table and hotel identity fields.
type OrderView struct {
	Order
	CustomerName string          `json:"customer_name"`
	TableNumber  int             `json:"table_number"`
	HotelName    string          `json:"hotel_name"`
	Dishes       []OrderItemView `json:"dishes"`
}

type OrderItemView struct {
	DishID   string  `json:"dish_id"`
	DishName string  `json:"dish_name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Notes    string  `json:"notes,omitempty"`
}
