// Package tables manages physical tables and the finalization of a table's
// bill, which ends the dining session.
package tables

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/apperr"
	"github.com/qrdine/qrdine/pkg/models"
)

type Store interface {
	InsertTable(ctx context.Context, table *models.Table) error
	TableByID(ctx context.Context, tableID string) (*models.Table, error)
	TablesByHotel(ctx context.Context, hotelID string) ([]models.Table, error)
	UpdateTable(ctx context.Context, table *models.Table) error
	DeleteTable(ctx context.Context, tableID string) error

	ActiveCustomerByTable(ctx context.Context, tableID string) (*models.Customer, error)
	DeactivateCustomer(ctx context.Context, customerID string) error
	OrdersByTable(ctx context.Context, tableID, hotelID string) ([]models.Order, error)
	DeleteOrdersByCustomer(ctx context.Context, customerID string) error

	BillByID(ctx context.Context, billID string) (*models.Bill, error)
	SaveBill(ctx context.Context, bill *models.Bill) error
}

type Service struct {
	logger *logrus.Logger
}

func NewService(logger *logrus.Logger) *Service {
	return &Service{logger: logger}
}

type CreateTableRequest struct {
	HotelID  string `json:"hotel_id"`
	Number   int    `json:"number"`
	Sequence int    `json:"sequence"`
}

func (s *Service) CreateTable(ctx context.Context, store Store, req CreateTableRequest) (*models.Table, error) {
	if req.HotelID == "" || req.Number <= 0 {
		return nil, apperr.Client("hotel id and a positive table number are required")
	}
	table := &models.Table{
		ID:       uuid.New().String(),
		HotelID:  req.HotelID,
		Number:   req.Number,
		Sequence: req.Sequence,
		Status:   models.TableStatusFree,
	}
	if err := store.InsertTable(ctx, table); err != nil {
		return nil, apperr.Internal(err, "failed to create table")
	}
	s.logger.WithFields(logrus.Fields{
		"table_id": table.ID,
		"number":   table.Number,
	}).Info("Table created")
	return table, nil
}

func (s *Service) GetTable(ctx context.Context, store Store, tableID string) (*models.Table, error) {
	table, err := store.TableByID(ctx, tableID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load table")
	}
	if table == nil {
		return nil, apperr.NotFound("table not found")
	}
	return table, nil
}

func (s *Service) ListTables(ctx context.Context, store Store, hotelID string) ([]models.Table, error) {
	tables, err := store.TablesByHotel(ctx, hotelID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list tables")
	}
	return tables, nil
}

type UpdateTableRequest struct {
	TableID  string             `json:"-"`
	Number   int                `json:"number"`
	Sequence int                `json:"sequence"`
	Status   models.TableStatus `json:"status"`
}

func (s *Service) UpdateTable(ctx context.Context, store Store, req UpdateTableRequest) (*models.Table, error) {
	table, err := s.GetTable(ctx, store, req.TableID)
	if err != nil {
		return nil, err
	}
	if req.Number > 0 {
		table.Number = req.Number
	}
	if req.Sequence > 0 {
		table.Sequence = req.Sequence
	}
	if req.Status != "" {
		table.Status = req.Status
	}
	if err := store.UpdateTable(ctx, table); err != nil {
		return nil, apperr.Internal(err, "failed to update table")
	}
	return table, nil
}

func (s *Service) DeleteTable(ctx context.Context, store Store, tableID string) error {
	if _, err := s.GetTable(ctx, store, tableID); err != nil {
		return err
	}
	customer, err := store.ActiveCustomerByTable(ctx, tableID)
	if err != nil {
		return apperr.Internal(err, "failed to load customer session")
	}
	if customer != nil {
		return apperr.Conflict("table has an active session")
	}
	return apperr.Internal(store.DeleteTable(ctx, tableID), "failed to delete table")
}

// OrdersForTable returns the orders of the table's current occupancy.
func (s *Service) OrdersForTable(ctx context.Context, store Store, tableID string) ([]models.Order, error) {
	table, err := s.GetTable(ctx, store, tableID)
	if err != nil {
		return nil, err
	}
	orders, err := store.OrdersByTable(ctx, tableID, table.HotelID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load orders")
	}
	return orders, nil
}

// GenerateBill finalizes the table's bill and tears the session down: the
// bill is marked generated, the customer binding is deactivated and the
// session's orders are removed, freeing the table for a new occupancy.
func (s *Service) GenerateBill(ctx context.Context, store Store, tableID string) (*models.Bill, error) {
	if _, err := s.GetTable(ctx, store, tableID); err != nil {
		return nil, err
	}

	customer, err := store.ActiveCustomerByTable(ctx, tableID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load customer session")
	}
	if customer == nil {
		return nil, apperr.NotFound("table has no active session")
	}

	bill, err := store.BillByID(ctx, customer.BillID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load bill")
	}
	if bill == nil {
		return nil, apperr.Server("session bill is missing")
	}

	bill.Status = models.BillStatusGenerated
	if err := store.SaveBill(ctx, bill); err != nil {
		return nil, apperr.Internal(err, "failed to finalize bill")
	}
	if err := store.DeleteOrdersByCustomer(ctx, customer.ID); err != nil {
		return nil, apperr.Internal(err, "failed to clear session orders")
	}
	if err := store.DeactivateCustomer(ctx, customer.ID); err != nil {
		return nil, apperr.Internal(err, "failed to close session")
	}

	s.logger.WithFields(logrus.Fields{
		"table_id":     tableID,
		"bill_id":      bill.ID,
		"final_amount": bill.FinalAmount,
	}).Info("Table bill generated, session closed")

	return bill, nil
}
