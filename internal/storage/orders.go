package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/qrdine/qrdine/pkg/models"
)

func (s *Queries) InsertOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, bill_id, table_id, hotel_id,
		                    status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.q.ExecContext(ctx, query,
		order.ID, order.CustomerID, order.BillID, order.TableID, order.HotelID,
		order.Status, order.Note, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}
	return s.insertOrderItems(ctx, order.ID, order.Items)
}

func (s *Queries) OrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	query := `
		SELECT id, customer_id, bill_id, table_id, hotel_id, status, note, created_at, updated_at
		FROM orders WHERE id = $1
	`
	var order models.Order
	err := s.q.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID, &order.CustomerID, &order.BillID, &order.TableID, &order.HotelID,
		&order.Status, &order.Note, &order.CreatedAt, &order.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order")
	}

	order.Items, err = s.orderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SaveOrder rewrites the order row and replaces the item set wholesale.
func (s *Queries) SaveOrder(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now().UTC()
	query := `UPDATE orders SET status = $1, note = $2, updated_at = $3 WHERE id = $4`
	if _, err := s.q.ExecContext(ctx, query, order.Status, order.Note, order.UpdatedAt, order.ID); err != nil {
		return errors.Wrap(err, "update order")
	}

	if _, err := s.q.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return errors.Wrap(err, "clear order items")
	}
	return s.insertOrderItems(ctx, order.ID, order.Items)
}

func (s *Queries) DeleteOrder(ctx context.Context, orderID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	return errors.Wrap(err, "delete order")
}

// DeleteOrdersByCustomer tears down a finished session's orders; the bill
// stays behind as the billing record.
func (s *Queries) DeleteOrdersByCustomer(ctx context.Context, customerID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM orders WHERE customer_id = $1`, customerID)
	return errors.Wrap(err, "delete customer orders")
}

func (s *Queries) insertOrderItems(ctx context.Context, orderID string, items []models.OrderItem) error {
	for _, item := range items {
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO order_items (order_id, dish_id, quantity, notes) VALUES ($1, $2, $3, $4)`,
			orderID, item.DishID, item.Quantity, item.Notes)
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}
	return nil
}

func (s *Queries) orderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT dish_id, quantity, notes FROM order_items WHERE order_id = $1 ORDER BY dish_id`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select order items")
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.DishID, &item.Quantity, &item.Notes); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// OrdersByTable returns the orders of the table's current occupancy, oldest
// first.
func (s *Queries) OrdersByTable(ctx context.Context, tableID, hotelID string) ([]models.Order, error) {
	query := `
		SELECT id, customer_id, bill_id, table_id, hotel_id, status, note, created_at, updated_at
		FROM orders WHERE table_id = $1 AND hotel_id = $2
		ORDER BY created_at ASC
	`
	return s.selectOrders(ctx, query, tableID, hotelID)
}

func (s *Queries) OrdersByHotel(ctx context.Context, hotelID string) ([]models.Order, error) {
	query := `
		SELECT id, customer_id, bill_id, table_id, hotel_id, status, note, created_at, updated_at
		FROM orders WHERE hotel_id = $1
		ORDER BY created_at DESC
	`
	return s.selectOrders(ctx, query, hotelID)
}

func (s *Queries) selectOrders(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(
			&order.ID, &order.CustomerID, &order.BillID, &order.TableID, &order.HotelID,
			&order.Status, &order.Note, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items, err = s.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// OrderViewByID is the display projection joining customer, dish, table and
// hotel names.
func (s *Queries) OrderViewByID(ctx context.Context, orderID string) (*models.OrderView, error) {
	order, err := s.OrderByID(ctx, orderID)
	if err != nil || order == nil {
		return nil, err
	}
	view, err := s.orderView(ctx, order)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *Queries) OrderViewsByHotel(ctx context.Context, hotelID string) ([]models.OrderView, error) {
	orders, err := s.OrdersByHotel(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	views := make([]models.OrderView, 0, len(orders))
	for i := range orders {
		view, err := s.orderView(ctx, &orders[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *Queries) orderView(ctx context.Context, order *models.Order) (*models.OrderView, error) {
	view := &models.OrderView{Order: *order}

	joinQuery := `
		SELECT COALESCE(c.name, ''), COALESCE(t.number, 0), COALESCE(h.name, '')
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		LEFT JOIN tables t ON t.id = o.table_id
		LEFT JOIN hotels h ON h.id = o.hotel_id
		WHERE o.id = $1
	`
	if err := s.q.QueryRowContext(ctx, joinQuery, order.ID).
		Scan(&view.CustomerName, &view.TableNumber, &view.HotelName); err != nil && err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "select order view")
	}

	itemsQuery := `
		SELECT oi.dish_id, COALESCE(d.name, ''), COALESCE(d.price, 0), oi.quantity, oi.notes
		FROM order_items oi
		LEFT JOIN dishes d ON d.id = oi.dish_id
		WHERE oi.order_id = $1
		ORDER BY oi.dish_id
	`
	rows, err := s.q.QueryContext(ctx, itemsQuery, order.ID)
	if err != nil {
		return nil, errors.Wrap(err, "select order item view")
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItemView
		if err := rows.Scan(&item.DishID, &item.DishName, &item.Price, &item.Quantity, &item.Notes); err != nil {
			return nil, errors.Wrap(err, "scan order item view")
		}
		view.Dishes = append(view.Dishes, item)
	}
	return view, rows.Err()
}
