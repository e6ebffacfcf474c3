package models

type TableStatus string

const (
	TableStatusFree     TableStatus = "free"
	TableStatusOccupied TableStatus = "occupied"
)

type Table struct {
	ID       string      `json:"id"`
	HotelID  string      `json:"hotel_id"`
	Number   int         `json:"number"`
	Sequence int         `json:"sequence"`
	Status   TableStatus `json:"status"`
}

// Customer binds a table occupancy to billing state. It lives from the
// first order of a session until the table's bill is generated; at most one
// active customer exists per table.
type Customer struct {
	ID      string `json:"id"`
	HotelID string `json:"hotel_id"`
	TableID string `json:"table_id"`
	Name    string `json:"name"`
	BillID  string `json:"bill_id"`
	Active  bool   `json:"active"`
}
