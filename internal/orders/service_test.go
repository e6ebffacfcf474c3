package orders

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/apperr"
	"github.com/qrdine/qrdine/internal/billing"
	"github.com/qrdine/qrdine/pkg/models"
)

// fakeStore is an in-memory Store so lifecycle scenarios run without a
// database. Reads hand out copies, writes replace them, mimicking row
// round-trips.
type fakeStore struct {
	tables     map[string]*models.Table
	customers  map[string]*models.Customer
	bills      map[string]*models.Bill
	orders     map[string]*models.Order
	dishes     map[string]*models.Dish
	categories []models.Category
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables:    make(map[string]*models.Table),
		customers: make(map[string]*models.Customer),
		bills:     make(map[string]*models.Bill),
		orders:    make(map[string]*models.Order),
		dishes:    make(map[string]*models.Dish),
	}
}

func (f *fakeStore) BillByID(_ context.Context, billID string) (*models.Bill, error) {
	bill, ok := f.bills[billID]
	if !ok {
		return nil, nil
	}
	cp := *bill
	cp.Items = append([]models.BillItem(nil), bill.Items...)
	return &cp, nil
}

func (f *fakeStore) InsertBill(_ context.Context, bill *models.Bill) error {
	cp := *bill
	cp.Items = append([]models.BillItem(nil), bill.Items...)
	f.bills[bill.ID] = &cp
	return nil
}

func (f *fakeStore) SaveBill(ctx context.Context, bill *models.Bill) error {
	return f.InsertBill(ctx, bill)
}

func (f *fakeStore) DishPrices(_ context.Context, hotelID string, dishIDs []string) (map[string]float64, error) {
	prices := make(map[string]float64)
	for _, id := range dishIDs {
		if dish, ok := f.dishes[id]; ok && dish.HotelID == hotelID {
			prices[id] = dish.Price
		}
	}
	return prices, nil
}

func (f *fakeStore) TableByID(_ context.Context, tableID string) (*models.Table, error) {
	table, ok := f.tables[tableID]
	if !ok {
		return nil, nil
	}
	cp := *table
	return &cp, nil
}

func (f *fakeStore) ActiveCustomerByTable(_ context.Context, tableID string) (*models.Customer, error) {
	for _, c := range f.customers {
		if c.TableID == tableID && c.Active {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertCustomer(_ context.Context, c *models.Customer) error {
	for _, existing := range f.customers {
		if existing.TableID == c.TableID && existing.Active {
			return &pq.Error{Code: "23505"}
		}
	}
	cp := *c
	f.customers[c.ID] = &cp
	return nil
}

func (f *fakeStore) OrderByID(_ context.Context, orderID string) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	return &cp, nil
}

func (f *fakeStore) InsertOrder(_ context.Context, order *models.Order) error {
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeStore) SaveOrder(ctx context.Context, order *models.Order) error {
	return f.InsertOrder(ctx, order)
}

func (f *fakeStore) DeleteOrder(_ context.Context, orderID string) error {
	delete(f.orders, orderID)
	return nil
}

func (f *fakeStore) OrdersByTable(_ context.Context, tableID, hotelID string) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.TableID == tableID && order.HotelID == hotelID {
			cp := *order
			cp.Items = append([]models.OrderItem(nil), order.Items...)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (f *fakeStore) DishesByHotel(_ context.Context, hotelID string) ([]models.Dish, error) {
	var out []models.Dish
	for _, dish := range f.dishes {
		if dish.HotelID == hotelID {
			out = append(out, *dish)
		}
	}
	return out, nil
}

func (f *fakeStore) CategoriesByHotel(_ context.Context, hotelID string) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		if c.HotelID == hotelID {
			out = append(out, c)
		}
	}
	return out, nil
}

const (
	hotelID = "hotel-1"
	tableID = "table-1"
)

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := newFakeStore()
	store.tables[tableID] = &models.Table{ID: tableID, HotelID: hotelID, Number: 4, Sequence: 4}
	store.dishes["d1"] = &models.Dish{ID: "d1", HotelID: hotelID, Name: "Dal Makhani", Price: 12.50}
	store.dishes["d2"] = &models.Dish{ID: "d2", HotelID: hotelID, Name: "Garlic Naan", Price: 3.00}
	store.categories = []models.Category{{ID: "c1", HotelID: hotelID, Name: "Mains"}}

	return NewService(logger, billing.NewEngine(logger)), store
}

func (f *fakeStore) billForTable(t *testing.T) *models.Bill {
	t.Helper()
	for _, c := range f.customers {
		if c.TableID == tableID && c.Active {
			return f.bills[c.BillID]
		}
	}
	t.Fatal("no active session for table")
	return nil
}

func TestAddFirstOrderOpensSession(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	order, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		CustomerName: "Alice",
		TableID:      tableID,
		HotelID:      hotelID,
		Dishes:       []models.OrderItem{{DishID: "d1", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("AddOrder() error: %v", err)
	}

	if order.Status != models.OrderStatusDraft {
		t.Errorf("status = %q, want draft default", order.Status)
	}
	if len(store.customers) != 1 {
		t.Fatalf("customers = %d, want 1", len(store.customers))
	}

	bill := store.billForTable(t)
	if bill.CustomerName != "Alice" {
		t.Errorf("bill customer = %q, want Alice", bill.CustomerName)
	}
	if len(bill.Items) != 1 || bill.Items[0].DishID != "d1" || bill.Items[0].Quantity != 2 {
		t.Fatalf("bill items = %+v, want one d1 x2 line", bill.Items)
	}
	if bill.Items[0].Price != 12.50 {
		t.Errorf("snapshot price = %v, want 12.50", bill.Items[0].Price)
	}
	if bill.TotalAmount != 25.00 || bill.FinalAmount != 25.00 {
		t.Errorf("totals = %v/%v, want 25.00/25.00", bill.TotalAmount, bill.FinalAmount)
	}
}

func TestSecondOrderFoldsIntoExistingBill(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		CustomerName: "Alice",
		TableID:      tableID,
		HotelID:      hotelID,
		Dishes:       []models.OrderItem{{DishID: "d1", Quantity: 2}},
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d2", Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if first.CustomerID != second.CustomerID {
		t.Error("second order did not reuse the session customer")
	}
	if first.BillID != second.BillID {
		t.Error("second order did not reuse the session bill")
	}

	bill := store.billForTable(t)
	if len(bill.Items) != 2 {
		t.Fatalf("bill items = %d, want 2", len(bill.Items))
	}
	if want := 2*12.50 + 3.00; bill.TotalAmount != want {
		t.Errorf("total = %v, want %v", bill.TotalAmount, want)
	}
}

func TestUpdateOrderIsIdempotentForUnchangedQuantities(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	order, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 2}, {DishID: "d2", Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	before := store.billForTable(t).TotalAmount

	if _, err := svc.UpdateOrder(ctx, store, UpdateOrderRequest{
		OrderID: order.ID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 2}, {DishID: "d2", Quantity: 1}},
	}); err != nil {
		t.Fatalf("UpdateOrder() error: %v", err)
	}

	if after := store.billForTable(t).TotalAmount; after != before {
		t.Errorf("total changed %v -> %v on a no-op update", before, after)
	}
}

func TestUpdateOrderZeroQuantityRemovesLine(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	order, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 2}, {DishID: "d2", Quantity: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateOrder(ctx, store, UpdateOrderRequest{
		OrderID: order.ID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 0}},
	})
	if err != nil {
		t.Fatalf("UpdateOrder() error: %v", err)
	}

	if len(updated.Items) != 1 || updated.Items[0].DishID != "d2" {
		t.Fatalf("order items = %+v, want only d2", updated.Items)
	}

	bill := store.billForTable(t)
	if len(bill.Items) != 1 || bill.Items[0].DishID != "d2" {
		t.Fatalf("bill items = %+v, want only d2", bill.Items)
	}
	if bill.TotalAmount != 3.00 {
		t.Errorf("total = %v, want 3.00", bill.TotalAmount)
	}
}

func TestUpdateOrderFiltersNegativeQuantities(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	order, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 2}},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateOrder(ctx, store, UpdateOrderRequest{
		OrderID: order.ID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: -3}},
	})
	if err != nil {
		t.Fatalf("UpdateOrder() error: %v", err)
	}

	if len(updated.Items) != 1 || updated.Items[0].Quantity != 2 {
		t.Errorf("negative quantity was applied: %+v", updated.Items)
	}
	if total := store.billForTable(t).TotalAmount; total != 25.00 {
		t.Errorf("total = %v, want 25.00 untouched", total)
	}
}

func TestDeleteOrderRemovesItsContribution(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 2}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d2", Quantity: 3}},
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.DeleteOrder(ctx, store, first.ID); err != nil {
		t.Fatalf("DeleteOrder() error: %v", err)
	}

	if _, ok := store.orders[first.ID]; ok {
		t.Error("order document still present after delete")
	}

	bill := store.billForTable(t)
	if len(bill.Items) != 1 || bill.Items[0].DishID != "d2" {
		t.Fatalf("bill items = %+v, want only d2", bill.Items)
	}
	if bill.TotalAmount != 9.00 {
		t.Errorf("total = %v, want 9.00", bill.TotalAmount)
	}
}

func TestBillPriceSnapshotSurvivesCatalogEdit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 1}},
	}); err != nil {
		t.Fatal(err)
	}

	store.dishes["d1"].Price = 99.99

	if _, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 1}},
	}); err != nil {
		t.Fatal(err)
	}

	bill := store.billForTable(t)
	if len(bill.Items) != 1 {
		t.Fatalf("bill items = %d, want 1 merged line", len(bill.Items))
	}
	if bill.Items[0].Price != 12.50 {
		t.Errorf("snapshot price = %v, want original 12.50", bill.Items[0].Price)
	}
	if bill.TotalAmount != 25.00 {
		t.Errorf("total = %v, want 25.00 at snapshot price", bill.TotalAmount)
	}
}

func TestAddOrderRejectsUnknownDish(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.AddOrder(context.Background(), store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "ghost", Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error for unknown dish")
	}
	if !apperr.IsClient(err) {
		t.Errorf("unknown dish should be a client error, got %v", err)
	}
}

func TestAddOrderRejectsEmptyAndNonPositiveItems(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.AddOrder(context.Background(), store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 0}, {DishID: "d2", Quantity: -1}},
	})
	if err == nil || !apperr.IsClient(err) {
		t.Errorf("expected client error for an order with no positive quantities, got %v", err)
	}
}

func TestAddOrderUnknownTable(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.AddOrder(context.Background(), store, CreateOrderRequest{
		TableID: "missing",
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 1}},
	})
	if err == nil || !apperr.IsClient(err) {
		t.Errorf("expected client error for unknown table, got %v", err)
	}
}

func TestInsertCustomerRaceIsUniqueViolation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 1}},
	}); err != nil {
		t.Fatal(err)
	}

	// A second active customer on the same table hits the partial unique
	// index, which the service maps to a conflict.
	err := store.InsertCustomer(ctx, &models.Customer{ID: "dup", TableID: tableID, Active: true})
	if err == nil {
		t.Fatal("expected unique violation from fake store")
	}
	if !isUnique(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestOnQRScanReturnsSessionAndMenu(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		CustomerName: "Alice",
		TableID:      tableID,
		HotelID:      hotelID,
		Dishes:       []models.OrderItem{{DishID: "d1", Quantity: 2}},
	}); err != nil {
		t.Fatal(err)
	}

	result, err := svc.OnQRScan(ctx, store, tableID, hotelID)
	if err != nil {
		t.Fatalf("OnQRScan() error: %v", err)
	}

	if result.CustomerName != "Alice" {
		t.Errorf("customer name = %q, want Alice", result.CustomerName)
	}
	if len(result.ExistingOrders) != 1 {
		t.Errorf("existing orders = %d, want 1", len(result.ExistingOrders))
	}
	if result.Bill == nil || result.Bill.TotalAmount != 25.00 {
		t.Errorf("bill summary missing or wrong: %+v", result.Bill)
	}
	if len(result.Menu.Dishes) != 2 || len(result.Menu.Categories) != 1 {
		t.Errorf("menu = %d dishes / %d categories, want 2/1",
			len(result.Menu.Dishes), len(result.Menu.Categories))
	}
}

func TestOnQRScanDetectsCorruptedSession(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddOrder(ctx, store, CreateOrderRequest{
		TableID: tableID,
		HotelID: hotelID,
		Dishes:  []models.OrderItem{{DishID: "d1", Quantity: 1}},
	}); err != nil {
		t.Fatal(err)
	}

	// Point the order at a customer that is not the table's active session.
	for _, order := range store.orders {
		order.CustomerID = "stranger"
	}

	_, err := svc.OnQRScan(ctx, store, tableID, hotelID)
	if err == nil {
		t.Fatal("expected session corruption error")
	}
	if apperr.IsClient(err) {
		t.Errorf("session corruption must be a server error, got %v", err)
	}
}

func TestMergeOrderItems(t *testing.T) {
	existing := []models.OrderItem{
		{DishID: "d1", Quantity: 2, Notes: "less spicy"},
		{DishID: "d2", Quantity: 1},
	}

	tests := []struct {
		name     string
		incoming []models.OrderItem
		want     []models.OrderItem
	}{
		{
			name:     "replace quantity",
			incoming: []models.OrderItem{{DishID: "d1", Quantity: 5}},
			want: []models.OrderItem{
				{DishID: "d1", Quantity: 5, Notes: "less spicy"},
				{DishID: "d2", Quantity: 1},
			},
		},
		{
			name:     "zero removes",
			incoming: []models.OrderItem{{DishID: "d2", Quantity: 0}},
			want:     []models.OrderItem{{DishID: "d1", Quantity: 2, Notes: "less spicy"}},
		},
		{
			name:     "new dish appended",
			incoming: []models.OrderItem{{DishID: "d3", Quantity: 4}},
			want: []models.OrderItem{
				{DishID: "d1", Quantity: 2, Notes: "less spicy"},
				{DishID: "d2", Quantity: 1},
				{DishID: "d3", Quantity: 4},
			},
		},
		{
			name:     "new dish with zero ignored",
			incoming: []models.OrderItem{{DishID: "d9", Quantity: 0}},
			want: []models.OrderItem{
				{DishID: "d1", Quantity: 2, Notes: "less spicy"},
				{DishID: "d2", Quantity: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeOrderItems(existing, tt.incoming)
			if len(got) != len(tt.want) {
				t.Fatalf("merged = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
