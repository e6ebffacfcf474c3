package billing

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/httpx"
	"github.com/qrdine/qrdine/internal/storage"
	"github.com/qrdine/qrdine/pkg/models"
)

type Handler struct {
	store  *storage.Store
	engine *Engine
	logger *logrus.Logger
}

func NewHandler(store *storage.Store, engine *Engine, logger *logrus.Logger) *Handler {
	return &Handler{store: store, engine: engine, logger: logger}
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	billID := mux.Vars(r)["id"]

	view, err := h.store.Queries().BillViewByID(r.Context(), billID)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	if view == nil {
		httpx.Error(w, http.StatusNotFound, "Bill not available")
		return
	}

	httpx.OK(w, http.StatusOK, "Bill fetched successfully", map[string]interface{}{"bill": view})
}

type updateBillRequest struct {
	CustomerName  *string            `json:"customer_name"`
	Status        *models.BillStatus `json:"status"`
	TotalAmount   *float64           `json:"total_amount"`
	TotalDiscount *float64           `json:"total_discount"`
	FinalAmount   *float64           `json:"final_amount"`
}

func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	billID := mux.Vars(r)["id"]

	var req updateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Failed to decode bill update request")
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch := BillPatch{
		CustomerName:  req.CustomerName,
		Status:        req.Status,
		TotalAmount:   req.TotalAmount,
		TotalDiscount: req.TotalDiscount,
		FinalAmount:   req.FinalAmount,
	}

	var bill *models.Bill
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		var err error
		bill, err = h.engine.PatchBill(ctx, q, billID, patch)
		return err
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	httpx.OK(w, http.StatusOK, "Bill updated successfully", map[string]interface{}{"bill": bill})
}
