package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/qrdine/qrdine/pkg/models"
)

func (s *Queries) InsertBill(ctx context.Context, bill *models.Bill) error {
	query := `
		INSERT INTO bills (id, hotel_id, table_id, customer_name, total_amount,
		                   total_discount, final_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.q.ExecContext(ctx, query,
		bill.ID, bill.HotelID, bill.TableID, bill.CustomerName, bill.TotalAmount,
		bill.TotalDiscount, bill.FinalAmount, bill.Status, bill.CreatedAt, bill.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert bill")
	}
	return s.replaceBillItems(ctx, bill.ID, bill.Items)
}

func (s *Queries) BillByID(ctx context.Context, billID string) (*models.Bill, error) {
	query := `
		SELECT id, hotel_id, table_id, customer_name, total_amount,
		       total_discount, final_amount, status, created_at, updated_at
		FROM bills WHERE id = $1
	`
	var bill models.Bill
	err := s.q.QueryRowContext(ctx, query, billID).Scan(
		&bill.ID, &bill.HotelID, &bill.TableID, &bill.CustomerName, &bill.TotalAmount,
		&bill.TotalDiscount, &bill.FinalAmount, &bill.Status, &bill.CreatedAt, &bill.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select bill")
	}

	bill.Items, err = s.billItems(ctx, billID)
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// SaveBill rewrites the bill row and its full line-item set. Callers hold a
// transaction, so the replace is never observable half-done.
func (s *Queries) SaveBill(ctx context.Context, bill *models.Bill) error {
	query := `
		UPDATE bills
		SET customer_name = $1, total_amount = $2, total_discount = $3,
		    final_amount = $4, status = $5, updated_at = $6
		WHERE id = $7
	`
	bill.UpdatedAt = time.Now().UTC()
	_, err := s.q.ExecContext(ctx, query,
		bill.CustomerName, bill.TotalAmount, bill.TotalDiscount,
		bill.FinalAmount, bill.Status, bill.UpdatedAt, bill.ID)
	if err != nil {
		return errors.Wrap(err, "update bill")
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, bill.ID); err != nil {
		return errors.Wrap(err, "clear bill items")
	}
	return s.replaceBillItems(ctx, bill.ID, bill.Items)
}

func (s *Queries) replaceBillItems(ctx context.Context, billID string, items []models.BillItem) error {
	for _, item := range items {
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO bill_items (bill_id, dish_id, quantity, price) VALUES ($1, $2, $3, $4)`,
			billID, item.DishID, item.Quantity, item.Price)
		if err != nil {
			return errors.Wrap(err, "insert bill item")
		}
	}
	return nil
}

func (s *Queries) billItems(ctx context.Context, billID string) ([]models.BillItem, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT dish_id, quantity, price FROM bill_items WHERE bill_id = $1 ORDER BY dish_id`, billID)
	if err != nil {
		return nil, errors.Wrap(err, "select bill items")
	}
	defer rows.Close()

	var items []models.BillItem
	for rows.Next() {
		var item models.BillItem
		if err := rows.Scan(&item.DishID, &item.Quantity, &item.Price); err != nil {
			return nil, errors.Wrap(err, "scan bill item")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// BillViewByID joins the bill with hotel, table and dish display fields for
// the GET /bills/{id} projection.
func (s *Queries) BillViewByID(ctx context.Context, billID string) (*models.BillView, error) {
	bill, err := s.BillByID(ctx, billID)
	if err != nil || bill == nil {
		return nil, err
	}

	view := &models.BillView{Bill: *bill}

	hotelQuery := `SELECT name, address FROM hotels WHERE id = $1`
	if err := s.q.QueryRowContext(ctx, hotelQuery, bill.HotelID).
		Scan(&view.HotelName, &view.HotelAddress); err != nil && err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "select bill hotel")
	}

	tableQuery := `SELECT number FROM tables WHERE id = $1`
	if err := s.q.QueryRowContext(ctx, tableQuery, bill.TableID).
		Scan(&view.TableNumber); err != nil && err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "select bill table")
	}

	itemsQuery := `
		SELECT bi.dish_id, COALESCE(d.name, ''), bi.quantity, bi.price
		FROM bill_items bi
		LEFT JOIN dishes d ON d.id = bi.dish_id
		WHERE bi.bill_id = $1
		ORDER BY bi.dish_id
	`
	rows, err := s.q.QueryContext(ctx, itemsQuery, billID)
	if err != nil {
		return nil, errors.Wrap(err, "select bill item view")
	}
	defer rows.Close()

	for rows.Next() {
		var item models.BillItemView
		if err := rows.Scan(&item.DishID, &item.DishName, &item.Quantity, &item.Price); err != nil {
			return nil, errors.Wrap(err, "scan bill item view")
		}
		view.Dishes = append(view.Dishes, item)
	}
	return view, rows.Err()
}
