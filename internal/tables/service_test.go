package tables

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/apperr"
	"github.com/qrdine/qrdine/pkg/models"
)

type fakeStore struct {
	tables    map[string]*models.Table
	customers map[string]*models.Customer
	bills     map[string]*models.Bill
	orders    map[string]*models.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables:    make(map[string]*models.Table),
		customers: make(map[string]*models.Customer),
		bills:     make(map[string]*models.Bill),
		orders:    make(map[string]*models.Order),
	}
}

func (f *fakeStore) InsertTable(_ context.Context, table *models.Table) error {
	cp := *table
	f.tables[table.ID] = &cp
	return nil
}

func (f *fakeStore) TableByID(_ context.Context, tableID string) (*models.Table, error) {
	table, ok := f.tables[tableID]
	if !ok {
		return nil, nil
	}
	cp := *table
	return &cp, nil
}

func (f *fakeStore) TablesByHotel(_ context.Context, hotelID string) ([]models.Table, error) {
	var out []models.Table
	for _, table := range f.tables {
		if table.HotelID == hotelID {
			out = append(out, *table)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTable(ctx context.Context, table *models.Table) error {
	return f.InsertTable(ctx, table)
}

func (f *fakeStore) DeleteTable(_ context.Context, tableID string) error {
	delete(f.tables, tableID)
	return nil
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

func (f *fakeStore) DeactivateCustomer(_ context.Context, customerID string) error {
	if c, ok := f.customers[customerID]; ok {
		c.Active = false
	}
	return nil
}

func (f *fakeStore) OrdersByTable(_ context.Context, tableID, hotelID string) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.TableID == tableID && order.HotelID == hotelID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteOrdersByCustomer(_ context.Context, customerID string) error {
	for id, order := range f.orders {
		if order.CustomerID == customerID {
			delete(f.orders, id)
		}
	}
	return nil
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

func (f *fakeStore) SaveBill(_ context.Context, bill *models.Bill) error {
	cp := *bill
	cp.Items = append([]models.BillItem(nil), bill.Items...)
	f.bills[bill.ID] = &cp
	return nil
}

func newTestService() *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewService(logger)
}

// seedSession populates one table with an active customer, an open bill and
// two session orders.
func seedSession(store *fakeStore) {
	store.tables["t1"] = &models.Table{ID: "t1", HotelID: "h1", Number: 7, Status: models.TableStatusOccupied}
	store.bills["b1"] = &models.Bill{
		ID: "b1", HotelID: "h1", TableID: "t1", Status: models.BillStatusOpen,
		Items:       []models.BillItem{{DishID: "d1", Quantity: 2, Price: 10}},
		TotalAmount: 20, FinalAmount: 20,
	}
	store.customers["c1"] = &models.Customer{
		ID: "c1", HotelID: "h1", TableID: "t1", Name: "Alice", BillID: "b1", Active: true,
	}
	store.orders["o1"] = &models.Order{ID: "o1", CustomerID: "c1", BillID: "b1", TableID: "t1", HotelID: "h1"}
	store.orders["o2"] = &models.Order{ID: "o2", CustomerID: "c1", BillID: "b1", TableID: "t1", HotelID: "h1"}
}

func TestGenerateBillClosesSession(t *testing.T) {
	svc := newTestService()
	store := newFakeStore()
	seedSession(store)

	bill, err := svc.GenerateBill(context.Background(), store, "t1")
	if err != nil {
		t.Fatalf("GenerateBill() error: %v", err)
	}

	if bill.Status != models.BillStatusGenerated {
		t.Errorf("bill status = %q, want generated", bill.Status)
	}
	if store.bills["b1"].Status != models.BillStatusGenerated {
		t.Error("persisted bill was not finalized")
	}
	if store.customers["c1"].Active {
		t.Error("customer session still active after bill generation")
	}
	if len(store.orders) != 0 {
		t.Errorf("session orders remain: %d", len(store.orders))
	}
	// The bill itself stays as the historical record.
	if _, ok := store.bills["b1"]; !ok {
		t.Error("bill record was removed")
	}
}

func TestGenerateBillWithoutSession(t *testing.T) {
	svc := newTestService()
	store := newFakeStore()
	store.tables["t1"] = &models.Table{ID: "t1", HotelID: "h1", Number: 7}

	_, err := svc.GenerateBill(context.Background(), store, "t1")
	if err == nil || !apperr.IsClient(err) {
		t.Errorf("expected not-found client error, got %v", err)
	}
}

func TestGenerateBillMissingBillIsServerError(t *testing.T) {
	svc := newTestService()
	store := newFakeStore()
	seedSession(store)
	delete(store.bills, "b1")

	_, err := svc.GenerateBill(context.Background(), store, "t1")
	if err == nil {
		t.Fatal("expected error for dangling bill reference")
	}
	if apperr.IsClient(err) {
		t.Errorf("dangling bill reference must be a server error, got %v", err)
	}
}

func TestDeleteTableBlockedByActiveSession(t *testing.T) {
	svc := newTestService()
	store := newFakeStore()
	seedSession(store)

	err := svc.DeleteTable(context.Background(), store, "t1")
	if err == nil {
		t.Fatal("expected conflict for occupied table")
	}
	if got := apperr.HTTPStatus(err); got != 409 {
		t.Errorf("status = %d, want 409", got)
	}
	if _, ok := store.tables["t1"]; !ok {
		t.Error("table was deleted despite active session")
	}
}

func TestDeleteTableFreeTable(t *testing.T) {
	svc := newTestService()
	store := newFakeStore()
	store.tables["t1"] = &models.Table{ID: "t1", HotelID: "h1", Number: 7}

	if err := svc.DeleteTable(context.Background(), store, "t1"); err != nil {
		t.Fatalf("DeleteTable() error: %v", err)
	}
	if _, ok := store.tables["t1"]; ok {
		t.Error("table still present after delete")
	}
}

func TestCreateTableValidation(t *testing.T) {
	svc := newTestService()
	store := newFakeStore()

	if _, err := svc.CreateTable(context.Background(), store, CreateTableRequest{HotelID: "h1"}); err == nil {
		t.Error("expected error for missing table number")
	}

	table, err := svc.CreateTable(context.Background(), store, CreateTableRequest{
		HotelID: "h1", Number: 3, Sequence: 3,
	})
	if err != nil {
		t.Fatalf("CreateTable() error: %v", err)
	}
	if table.Status != models.TableStatusFree {
		t.Errorf("new table status = %q, want free", table.Status)
	}
	if _, ok := store.tables[table.ID]; !ok {
		t.Error("table was not persisted")
	}
}
