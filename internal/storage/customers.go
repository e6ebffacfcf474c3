package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/qrdine/qrdine/pkg/models"
)

// ActiveCustomerByTable returns the table's live session, or nil when the
// table has no unbilled occupancy.
func (s *Queries) ActiveCustomerByTable(ctx context.Context, tableID string) (*models.Customer, error) {
	query := `
		SELECT id, hotel_id, table_id, name, bill_id, active
		FROM customers WHERE table_id = $1 AND active
	`
	var c models.Customer
	err := s.q.QueryRowContext(ctx, query, tableID).Scan(
		&c.ID, &c.HotelID, &c.TableID, &c.Name, &c.BillID, &c.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select active customer")
	}
	return &c, nil
}

func (s *Queries) CustomerByID(ctx context.Context, customerID string) (*models.Customer, error) {
	query := `
		SELECT id, hotel_id, table_id, name, bill_id, active
		FROM customers WHERE id = $1
	`
	var c models.Customer
	err := s.q.QueryRowContext(ctx, query, customerID).Scan(
		&c.ID, &c.HotelID, &c.TableID, &c.Name, &c.BillID, &c.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select customer")
	}
	return &c, nil
}

// InsertCustomer fails with a unique violation when the table already has an
// active session; callers translate that into a conflict.
func (s *Queries) InsertCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (id, hotel_id, table_id, name, bill_id, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q.ExecContext(ctx, query, c.ID, c.HotelID, c.TableID, c.Name, c.BillID, c.Active)
	return errors.Wrap(err, "insert customer")
}

// DeactivateCustomer ends the session, making the table eligible for a new
// occupancy.
func (s *Queries) DeactivateCustomer(ctx context.Context, customerID string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE customers SET active = FALSE WHERE id = $1`, customerID)
	return errors.Wrap(err, "deactivate customer")
}
