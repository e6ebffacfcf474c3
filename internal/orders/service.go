// Package orders drives the order lifecycle: create, edit and delete one
// submission at a time, keeping the session bill in lockstep through the
// billing engine. All mutations run under the caller's transaction.
package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/apperr"
	"github.com/qrdine/qrdine/internal/billing"
	"github.com/qrdine/qrdine/internal/storage"
	"github.com/qrdine/qrdine/pkg/models"
)

func isUnique(err error) bool {
	return storage.IsUniqueViolation(err)
}

// Store is what the lifecycle needs from persistence; *storage.Queries
// implements it.
type Store interface {
	billing.Store

	TableByID(ctx context.Context, tableID string) (*models.Table, error)
	ActiveCustomerByTable(ctx context.Context, tableID string) (*models.Customer, error)
	InsertCustomer(ctx context.Context, c *models.Customer) error

	OrderByID(ctx context.Context, orderID string) (*models.Order, error)
	InsertOrder(ctx context.Context, order *models.Order) error
	SaveOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, orderID string) error
	OrdersByTable(ctx context.Context, tableID, hotelID string) ([]models.Order, error)

	DishesByHotel(ctx context.Context, hotelID string) ([]models.Dish, error)
	CategoriesByHotel(ctx context.Context, hotelID string) ([]models.Category, error)
}

type Service struct {
	logger  *logrus.Logger
	billing *billing.Engine
}

func NewService(logger *logrus.Logger, engine *billing.Engine) *Service {
	return &Service{logger: logger, billing: engine}
}

type CreateOrderRequest struct {
	CustomerName string             `json:"customer_name"`
	TableID      string             `json:"table_id"`
	HotelID      string             `json:"hotel_id"`
	Dishes       []models.OrderItem `json:"dishes"`
	Status       models.OrderStatus `json:"status"`
	Note         string             `json:"note"`
}

// AddOrder persists a new order, lazily opening the table's session: the
// first order of an occupancy creates the bill and the customer binding in
// the same transaction, later ones fold their items into the existing bill.
func (s *Service) AddOrder(ctx context.Context, store Store, req CreateOrderRequest) (*models.Order, error) {
	if req.TableID == "" || req.HotelID == "" {
		return nil, apperr.Client("table id and hotel id are required")
	}
	items := filterItems(req.Dishes)
	if len(items) == 0 {
		return nil, apperr.Client("order must contain at least one dish")
	}
	status := req.Status
	if status == "" {
		status = models.OrderStatusDraft
	}
	if !status.Valid() {
		return nil, apperr.Clientf("invalid order status %q", status)
	}

	table, err := store.TableByID(ctx, req.TableID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load table")
	}
	if table == nil {
		return nil, apperr.NotFound("table not found")
	}

	customer, err := store.ActiveCustomerByTable(ctx, req.TableID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load customer session")
	}

	var bill *models.Bill
	if customer == nil {
		bill, err = s.billing.CreateBill(ctx, store, req.CustomerName, req.HotelID, req.TableID, items)
		if err != nil {
			return nil, err
		}
		customer = &models.Customer{
			ID:      uuid.New().String(),
			HotelID: req.HotelID,
			TableID: req.TableID,
			Name:    req.CustomerName,
			BillID:  bill.ID,
			Active:  true,
		}
		if err := store.InsertCustomer(ctx, customer); err != nil {
			if isUnique(err) {
				return nil, apperr.Conflict("table already has an active session, please retry")
			}
			return nil, apperr.Internal(err, "failed to create customer session")
		}
		s.logger.WithFields(logrus.Fields{
			"customer_id": customer.ID,
			"table_id":    req.TableID,
			"bill_id":     bill.ID,
		}).Info("Session opened for table")
	} else {
		bill, err = s.billing.ApplyOrderDelta(ctx, store, customer.BillID, nil, items)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:         uuid.New().String(),
		CustomerID: customer.ID,
		BillID:     bill.ID,
		TableID:    req.TableID,
		HotelID:    req.HotelID,
		Items:      items,
		Status:     status,
		Note:       req.Note,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.InsertOrder(ctx, order); err != nil {
		return nil, apperr.Internal(err, "failed to save order")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"table_id":    order.TableID,
		"items_count": len(order.Items),
	}).Info("Order created")

	return order, nil
}

type UpdateOrderRequest struct {
	OrderID string             `json:"-"`
	Dishes  []models.OrderItem `json:"dishes"`
	Status  models.OrderStatus `json:"status"`
	Note    string             `json:"note"`
}

// UpdateOrder applies dish-quantity replacements to an existing order and
// hands the old/new item pair to the billing engine, so the bill sheds the
// order's prior contribution before absorbing the new one.
func (s *Service) UpdateOrder(ctx context.Context, store Store, req UpdateOrderRequest) (*models.Order, error) {
	order, err := store.OrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load order")
	}
	if order == nil {
		return nil, apperr.NotFound("order not found")
	}

	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, apperr.Clientf("invalid order status %q", req.Status)
		}
		order.Status = req.Status
	}
	if req.Note != "" {
		order.Note = req.Note
	}

	incoming := dropNegative(req.Dishes)
	itemsChanged := len(incoming) > 0
	oldItems := order.Items
	if itemsChanged {
		order.Items = mergeOrderItems(order.Items, incoming)
	}

	if err := store.SaveOrder(ctx, order); err != nil {
		return nil, apperr.Internal(err, "failed to save order")
	}

	if itemsChanged {
		if order.BillID == "" {
			return nil, apperr.Server("order has no bill reference")
		}
		if _, err := s.billing.ApplyOrderDelta(ctx, store, order.BillID, oldItems, order.Items); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"items_count": len(order.Items),
		"status":      order.Status,
	}).Info("Order updated")

	return order, nil
}

// DeleteOrder removes the order's full contribution from the bill, then the
// order itself.
func (s *Service) DeleteOrder(ctx context.Context, store Store, orderID string) (*models.Order, error) {
	order, err := store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load order")
	}
	if order == nil {
		return nil, apperr.NotFound("order not found")
	}
	if order.BillID == "" {
		return nil, apperr.Server("order has no bill reference")
	}

	if _, err := s.billing.ApplyOrderDelta(ctx, store, order.BillID, order.Items, nil); err != nil {
		return nil, err
	}
	if err := store.DeleteOrder(ctx, orderID); err != nil {
		return nil, apperr.Internal(err, "failed to delete order")
	}

	s.logger.WithField("order_id", orderID).Info("Order deleted")
	return order, nil
}

// ScanResult is the session-discovery payload returned to a QR scan: table
// identity, session state of the current occupancy and the full menu.
type ScanResult struct {
	Table          *models.Table  `json:"table"`
	CustomerName   string         `json:"customer_name,omitempty"`
	ExistingOrders []models.Order `json:"existing_orders"`
	Menu           models.Menu    `json:"menu"`
	Bill           *models.Bill   `json:"bill,omitempty"`
}

// OnQRScan resolves a table's current session. Orders referencing a missing
// or mismatched customer indicate a corrupted or duplicate session and are
// reported as a server-side failure.
func (s *Service) OnQRScan(ctx context.Context, store Store, tableID, hotelID string) (*ScanResult, error) {
	table, err := store.TableByID(ctx, tableID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load table")
	}
	if table == nil {
		return nil, apperr.NotFound("table not found")
	}

	customer, err := store.ActiveCustomerByTable(ctx, tableID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load customer session")
	}
	orders, err := store.OrdersByTable(ctx, tableID, hotelID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load orders")
	}

	if len(orders) > 0 {
		if customer == nil || orders[0].CustomerID != customer.ID {
			return nil, apperr.Server("orders are available while customer is not")
		}
	}

	result := &ScanResult{Table: table, ExistingOrders: orders}
	if customer != nil {
		result.CustomerName = customer.Name
	}

	if len(orders) > 0 {
		result.Bill, err = store.BillByID(ctx, customer.BillID)
		if err != nil {
			return nil, apperr.Internal(err, "failed to load bill")
		}
	}

	result.Menu.Dishes, err = store.DishesByHotel(ctx, hotelID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load menu dishes")
	}
	result.Menu.Categories, err = store.CategoriesByHotel(ctx, hotelID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load menu categories")
	}

	return result, nil
}

// filterItems keeps only positive quantities; zero or negative quantities in
// a new order are never applied.
func filterItems(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity > 0 && item.DishID != "" {
			out = append(out, item)
		}
	}
	return out
}

// dropNegative keeps zero quantities (they mean "remove this line") but
// rejects negatives outright.
func dropNegative(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity >= 0 && item.DishID != "" {
			out = append(out, item)
		}
	}
	return out
}

// mergeOrderItems replaces quantities by dish: an incoming quantity
// overwrites the existing line, zero removes it, and unknown dishes with a
// positive quantity are appended.
func mergeOrderItems(existing, incoming []models.OrderItem) []models.OrderItem {
	replace := make(map[string]models.OrderItem, len(incoming))
	for _, item := range incoming {
		replace[item.DishID] = item
	}

	merged := make([]models.OrderItem, 0, len(existing)+len(incoming))
	for _, item := range existing {
		upd, ok := replace[item.DishID]
		if !ok {
			merged = append(merged, item)
			continue
		}
		delete(replace, item.DishID)
		if upd.Quantity <= 0 {
			continue
		}
		item.Quantity = upd.Quantity
		if upd.Notes != "" {
			item.Notes = upd.Notes
		}
		merged = append(merged, item)
	}
	for _, item := range incoming {
		upd, ok := replace[item.DishID]
		if !ok || upd.Quantity <= 0 {
			continue
		}
		delete(replace, item.DishID)
		merged = append(merged, upd)
	}
	return merged
}
