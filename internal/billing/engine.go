// Package billing owns the bill aggregate: the derived, mutable total of all
// line items ordered during one table session. Every order mutation flows
// through here so the bill never diverges from the orders that feed it.
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/apperr"
	"github.com/qrdine/qrdine/pkg/models"
)

// Store is the slice of persistence the engine needs. It is satisfied by
// *storage.Queries, so every write lands inside the caller's transaction;
// the engine never commits on its own.
type Store interface {
	BillByID(ctx context.Context, billID string) (*models.Bill, error)
	InsertBill(ctx context.Context, bill *models.Bill) error
	SaveBill(ctx context.Context, bill *models.Bill) error
	DishPrices(ctx context.Context, hotelID string, dishIDs []string) (map[string]float64, error)
}

type Engine struct {
	logger *logrus.Logger
}

func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{logger: logger}
}

// CreateBill opens a session bill from the first order's items. Prices are
// snapshotted from the catalog at this moment; any unresolvable dish is the
// caller's mistake.
func (e *Engine) CreateBill(ctx context.Context, store Store, customerName, hotelID, tableID string, items []models.OrderItem) (*models.Bill, error) {
	lines, err := e.priceLines(ctx, store, hotelID, nil, items)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bill := &models.Bill{
		ID:           uuid.New().String(),
		HotelID:      hotelID,
		TableID:      tableID,
		CustomerName: customerName,
		Items:        lines,
		Status:       models.BillStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	recompute(bill)

	if err := store.InsertBill(ctx, bill); err != nil {
		return nil, apperr.Internal(err, "failed to create bill")
	}

	e.logger.WithFields(logrus.Fields{
		"bill_id":      bill.ID,
		"table_id":     tableID,
		"total_amount": bill.TotalAmount,
		"items_count":  len(bill.Items),
	}).Info("Bill created")

	return bill, nil
}

// ApplyOrderDelta folds one order's change into the bill. The merge rule is
// replace-by-dishID with old-order baseline subtraction: each old quantity
// is returned before the new quantity is applied, so re-applying an
// unchanged order is a no-op and nothing is double counted.
func (e *Engine) ApplyOrderDelta(ctx context.Context, store Store, billID string, oldItems, newItems []models.OrderItem) (*models.Bill, error) {
	bill, err := store.BillByID(ctx, billID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load bill")
	}
	if bill == nil {
		return nil, apperr.NotFound("bill not available")
	}

	bill.Items, err = e.mergeLines(ctx, store, bill, oldItems, newItems)
	if err != nil {
		return nil, err
	}
	recompute(bill)

	if err := store.SaveBill(ctx, bill); err != nil {
		return nil, apperr.Internal(err, "failed to update bill")
	}

	e.logger.WithFields(logrus.Fields{
		"bill_id":      bill.ID,
		"total_amount": bill.TotalAmount,
		"final_amount": bill.FinalAmount,
		"items_count":  len(bill.Items),
	}).Info("Bill recomputed from order delta")

	return bill, nil
}

func (e *Engine) mergeLines(ctx context.Context, store Store, bill *models.Bill, oldItems, newItems []models.OrderItem) ([]models.BillItem, error) {
	deltas := make(map[string]int)
	for _, item := range oldItems {
		deltas[item.DishID] -= item.Quantity
	}
	for _, item := range newItems {
		deltas[item.DishID] += item.Quantity
	}

	present := make(map[string]bool, len(bill.Items))
	for _, line := range bill.Items {
		present[line.DishID] = true
	}

	// Lines entering the bill for the first time need a price snapshot.
	var missing []string
	for _, item := range newItems {
		if !present[item.DishID] && deltas[item.DishID] > 0 {
			missing = append(missing, item.DishID)
		}
	}
	prices, err := e.priceLines(ctx, store, bill.HotelID, missing, nil)
	if err != nil {
		return nil, err
	}
	priceByDish := make(map[string]float64, len(prices))
	for _, line := range prices {
		priceByDish[line.DishID] = line.Price
	}

	merged := make([]models.BillItem, 0, len(bill.Items)+len(missing))
	for _, line := range bill.Items {
		line.Quantity += deltas[line.DishID]
		delete(deltas, line.DishID)
		if line.Quantity > 0 {
			merged = append(merged, line)
		}
	}
	for _, item := range newItems {
		qty, ok := deltas[item.DishID]
		if !ok {
			continue
		}
		delete(deltas, item.DishID)
		if qty <= 0 {
			continue
		}
		merged = append(merged, models.BillItem{
			DishID:   item.DishID,
			Quantity: qty,
			Price:    priceByDish[item.DishID],
		})
	}
	return merged, nil
}

// priceLines resolves catalog prices either for bare dish IDs or for order
// items, failing on any dish the catalog does not know.
func (e *Engine) priceLines(ctx context.Context, store Store, hotelID string, dishIDs []string, items []models.OrderItem) ([]models.BillItem, error) {
	for _, item := range items {
		if item.Quantity > 0 {
			dishIDs = append(dishIDs, item.DishID)
		}
	}
	if len(dishIDs) == 0 {
		return nil, nil
	}

	prices, err := store.DishPrices(ctx, hotelID, dishIDs)
	if err != nil {
		return nil, apperr.Internal(err, "failed to resolve dish prices")
	}

	lines := make([]models.BillItem, 0, len(dishIDs))
	if items == nil {
		for _, id := range dishIDs {
			price, ok := prices[id]
			if !ok {
				return nil, apperr.Clientf("dish %s not found", id)
			}
			lines = append(lines, models.BillItem{DishID: id, Price: price})
		}
		return lines, nil
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		price, ok := prices[item.DishID]
		if !ok {
			return nil, apperr.Clientf("dish %s not found", item.DishID)
		}
		lines = append(lines, models.BillItem{
			DishID:   item.DishID,
			Quantity: item.Quantity,
			Price:    price,
		})
	}
	return lines, nil
}

// BillPatch is a staff-side field edit: last writer wins, no merge logic.
type BillPatch struct {
	CustomerName  *string
	Status        *models.BillStatus
	TotalAmount   *float64
	TotalDiscount *float64
	FinalAmount   *float64
}

func (p BillPatch) Empty() bool {
	return p.CustomerName == nil && p.Status == nil &&
		p.TotalAmount == nil && p.TotalDiscount == nil && p.FinalAmount == nil
}

func (e *Engine) PatchBill(ctx context.Context, store Store, billID string, patch BillPatch) (*models.Bill, error) {
	if patch.Empty() {
		return nil, apperr.Client("please provide sufficient data to update bill")
	}

	bill, err := store.BillByID(ctx, billID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load bill")
	}
	if bill == nil {
		return nil, apperr.NotFound("bill not available")
	}

	if patch.CustomerName != nil {
		bill.CustomerName = *patch.CustomerName
	}
	if patch.Status != nil {
		bill.Status = *patch.Status
	}
	if patch.TotalAmount != nil {
		bill.TotalAmount = *patch.TotalAmount
	}
	if patch.TotalDiscount != nil {
		bill.TotalDiscount = *patch.TotalDiscount
	}
	if patch.FinalAmount != nil {
		bill.FinalAmount = *patch.FinalAmount
	} else {
		bill.FinalAmount = bill.TotalAmount - bill.TotalDiscount
	}

	if err := store.SaveBill(ctx, bill); err != nil {
		return nil, apperr.Internal(err, "failed to update bill")
	}

	e.logger.WithField("bill_id", bill.ID).Info("Bill fields patched")
	return bill, nil
}

// recompute restores the aggregate invariants after any line mutation.
func recompute(bill *models.Bill) {
	var total float64
	for _, line := range bill.Items {
		total += line.Price * float64(line.Quantity)
	}
	bill.TotalAmount = total
	bill.FinalAmount = bill.TotalAmount - bill.TotalDiscount
}
