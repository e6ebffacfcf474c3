package billing

import (
	"context"
	"math"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/apperr"
	"github.com/qrdine/qrdine/pkg/models"
)

type fakeBillStore struct {
	bills  map[string]*models.Bill
	prices map[string]float64
}

func newFakeBillStore() *fakeBillStore {
	return &fakeBillStore{
		bills:  make(map[string]*models.Bill),
		prices: map[string]float64{"d1": 10.00, "d2": 4.50, "d3": 7.25},
	}
}

func (f *fakeBillStore) BillByID(_ context.Context, billID string) (*models.Bill, error) {
	bill, ok := f.bills[billID]
	if !ok {
		return nil, nil
	}
	cp := *bill
	cp.Items = append([]models.BillItem(nil), bill.Items...)
	return &cp, nil
}

func (f *fakeBillStore) InsertBill(_ context.Context, bill *models.Bill) error {
	cp := *bill
	cp.Items = append([]models.BillItem(nil), bill.Items...)
	f.bills[bill.ID] = &cp
	return nil
}

func (f *fakeBillStore) SaveBill(ctx context.Context, bill *models.Bill) error {
	return f.InsertBill(ctx, bill)
}

func (f *fakeBillStore) DishPrices(_ context.Context, _ string, dishIDs []string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, id := range dishIDs {
		if price, ok := f.prices[id]; ok {
			out[id] = price
		}
	}
	return out, nil
}

func newTestEngine() *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewEngine(logger)
}

// lineTotal recomputes what the bill total should be from its lines.
func lineTotal(bill *models.Bill) float64 {
	var sum float64
	for _, line := range bill.Items {
		sum += line.Price * float64(line.Quantity)
	}
	return sum
}

func TestCreateBillSnapshotsPricesAndTotals(t *testing.T) {
	engine := newTestEngine()
	store := newFakeBillStore()

	bill, err := engine.CreateBill(context.Background(), store, "Alice", "h1", "t1", []models.OrderItem{
		{DishID: "d1", Quantity: 2},
		{DishID: "d2", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("CreateBill() error: %v", err)
	}

	if bill.Status != models.BillStatusOpen {
		t.Errorf("status = %q, want open", bill.Status)
	}
	if len(bill.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(bill.Items))
	}
	if want := 2*10.00 + 4.50; bill.TotalAmount != want {
		t.Errorf("total = %v, want %v", bill.TotalAmount, want)
	}
	if bill.FinalAmount != bill.TotalAmount {
		t.Errorf("final = %v, want total %v with no discount", bill.FinalAmount, bill.TotalAmount)
	}
	if _, ok := store.bills[bill.ID]; !ok {
		t.Error("bill was not persisted")
	}
}

func TestCreateBillUnknownDishIsClientError(t *testing.T) {
	engine := newTestEngine()
	store := newFakeBillStore()

	_, err := engine.CreateBill(context.Background(), store, "", "h1", "t1", []models.OrderItem{
		{DishID: "off-menu", Quantity: 1},
	})
	if err == nil || !apperr.IsClient(err) {
		t.Errorf("expected client error for unknown dish, got %v", err)
	}
}

func TestApplyOrderDeltaSequencesKeepTotalConsistent(t *testing.T) {
	engine := newTestEngine()
	store := newFakeBillStore()
	ctx := context.Background()

	bill, err := engine.CreateBill(ctx, store, "", "h1", "t1", []models.OrderItem{
		{DishID: "d1", Quantity: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	// A run of order mutations: add, amend, add a new dish, remove one.
	steps := []struct {
		name string
		old  []models.OrderItem
		new  []models.OrderItem
	}{
		{"second order", nil, []models.OrderItem{{DishID: "d2", Quantity: 2}}},
		{"amend first order up", []models.OrderItem{{DishID: "d1", Quantity: 1}}, []models.OrderItem{{DishID: "d1", Quantity: 3}}},
		{"third order new dish", nil, []models.OrderItem{{DishID: "d3", Quantity: 1}}},
		{"second order shrinks", []models.OrderItem{{DishID: "d2", Quantity: 2}}, []models.OrderItem{{DishID: "d2", Quantity: 1}}},
	}

	for _, step := range steps {
		updated, err := engine.ApplyOrderDelta(ctx, store, bill.ID, step.old, step.new)
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if got, want := updated.TotalAmount, lineTotal(updated); math.Abs(got-want) > 1e-9 {
			t.Errorf("%s: total = %v, lines sum to %v", step.name, got, want)
		}
		for _, line := range updated.Items {
			if line.Quantity <= 0 {
				t.Errorf("%s: non-positive line survived: %+v", step.name, line)
			}
		}
	}

	final, err := store.BillByID(ctx, bill.ID)
	if err != nil {
		t.Fatal(err)
	}
	if want := 3*10.00 + 1*4.50 + 1*7.25; final.TotalAmount != want {
		t.Errorf("final total = %v, want %v", final.TotalAmount, want)
	}
}

func TestApplyOrderDeltaUnchangedOrderIsNoOp(t *testing.T) {
	engine := newTestEngine()
	store := newFakeBillStore()
	ctx := context.Background()

	items := []models.OrderItem{{DishID: "d1", Quantity: 2}, {DishID: "d2", Quantity: 1}}
	bill, err := engine.CreateBill(ctx, store, "", "h1", "t1", items)
	if err != nil {
		t.Fatal(err)
	}
	before := bill.TotalAmount

	updated, err := engine.ApplyOrderDelta(ctx, store, bill.ID, items, items)
	if err != nil {
		t.Fatal(err)
	}
	if updated.TotalAmount != before {
		t.Errorf("total changed %v -> %v when the order did not", before, updated.TotalAmount)
	}
	if len(updated.Items) != 2 {
		t.Errorf("items = %d, want 2", len(updated.Items))
	}
}

func TestApplyOrderDeltaDepletedLineDisappears(t *testing.T) {
	engine := newTestEngine()
	store := newFakeBillStore()
	ctx := context.Background()

	bill, err := engine.CreateBill(ctx, store, "", "h1", "t1", []models.OrderItem{
		{DishID: "d1", Quantity: 2},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := engine.ApplyOrderDelta(ctx, store, bill.ID,
		[]models.OrderItem{{DishID: "d1", Quantity: 2}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Items) != 0 {
		t.Errorf("items = %+v, want empty bill", updated.Items)
	}
	if updated.TotalAmount != 0 || updated.FinalAmount != 0 {
		t.Errorf("totals = %v/%v, want 0/0", updated.TotalAmount, updated.FinalAmount)
	}
}

func TestApplyOrderDeltaMissingBill(t *testing.T) {
	engine := newTestEngine()
	store := newFakeBillStore()

	_, err := engine.ApplyOrderDelta(context.Background(), store, "nope", nil,
		[]models.OrderItem{{DishID: "d1", Quantity: 1}})
	if err == nil || !apperr.IsClient(err) {
		t.Fatalf("expected not-found client error, got %v", err)
	}
	if got := err.Error(); got != "bill not available" {
		t.Errorf("message = %q, want %q", got, "bill not available")
	}
}

func TestPatchBillEmptyPatchRejected(t *testing.T) {
	engine := newTestEngine()
	store := newFakeBillStore()

	_, err := engine.PatchBill(context.Background(), store, "any", BillPatch{})
	if err == nil || !apperr.IsClient(err) {
		t.Errorf("expected client error for empty patch, got %v", err)
	}
}

func TestPatchBillDiscountRecomputesFinalAmount(t *testing.T) {
	engine := newTestEngine()
	store := newFakeBillStore()
	ctx := context.Background()

	bill, err := engine.CreateBill(ctx, store, "", "h1", "t1", []models.OrderItem{
		{DishID: "d1", Quantity: 3},
	})
	if err != nil {
		t.Fatal(err)
	}

	discount := 5.00
	patched, err := engine.PatchBill(ctx, store, bill.ID, BillPatch{TotalDiscount: &discount})
	if err != nil {
		t.Fatalf("PatchBill() error: %v", err)
	}
	if patched.TotalDiscount != 5.00 {
		t.Errorf("discount = %v, want 5.00", patched.TotalDiscount)
	}
	if want := 30.00 - 5.00; patched.FinalAmount != want {
		t.Errorf("final = %v, want %v", patched.FinalAmount, want)
	}
}

func TestPatchBillExplicitFinalAmountWins(t *testing.T) {
	engine := newTestEngine()
	store := newFakeBillStore()
	ctx := context.Background()

	bill, err := engine.CreateBill(ctx, store, "", "h1", "t1", []models.OrderItem{
		{DishID: "d2", Quantity: 2},
	})
	if err != nil {
		t.Fatal(err)
	}

	final := 1.00
	status := models.BillStatusPaid
	patched, err := engine.PatchBill(ctx, store, bill.ID, BillPatch{
		FinalAmount: &final,
		Status:      &status,
	})
	if err != nil {
		t.Fatal(err)
	}
	if patched.FinalAmount != 1.00 {
		t.Errorf("final = %v, want the explicit 1.00", patched.FinalAmount)
	}
	if patched.Status != models.BillStatusPaid {
		t.Errorf("status = %q, want paid", patched.Status)
	}
}
