package tables

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/auth"
	"github.com/qrdine/qrdine/internal/events"
	"github.com/qrdine/qrdine/internal/httpx"
	"github.com/qrdine/qrdine/internal/storage"
	"github.com/qrdine/qrdine/pkg/models"
)

type EventPublisher interface {
	PublishBillFinalized(event events.BillEvent) error
}

type WebSocketHub interface {
	Broadcast(messageType string, data interface{}, source string)
}

type Handler struct {
	store    *storage.Store
	svc      *Service
	logger   *logrus.Logger
	producer EventPublisher
	wsHub    WebSocketHub
}

func NewHandler(store *storage.Store, svc *Service, logger *logrus.Logger) *Handler {
	return &Handler{store: store, svc: svc, logger: logger}
}

func (h *Handler) SetEventPublisher(p EventPublisher) {
	h.producer = p
}

func (h *Handler) SetWebSocketHub(hub WebSocketHub) {
	h.wsHub = hub
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req CreateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HotelID == "" {
		req.HotelID = auth.HotelID(r)
	}

	table, err := h.svc.CreateTable(r.Context(), h.store.Queries(), req)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	httpx.OK(w, http.StatusCreated, "Table created successfully", map[string]interface{}{"table": table})
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.svc.GetTable(r.Context(), h.store.Queries(), mux.Vars(r)["id"])
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Table fetched successfully", map[string]interface{}{"table": table})
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	hotelID := auth.HotelID(r)
	if hotelID == "" {
		httpx.Error(w, http.StatusBadRequest, "Please provide hotel id")
		return
	}

	tables, err := h.svc.ListTables(r.Context(), h.store.Queries(), hotelID)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "All tables fetched successfully", map[string]interface{}{"tables": tables})
}

func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	var req UpdateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.TableID = mux.Vars(r)["id"]

	table, err := h.svc.UpdateTable(r.Context(), h.store.Queries(), req)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Table updated successfully", map[string]interface{}{"table": table})
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTable(r.Context(), h.store.Queries(), mux.Vars(r)["id"]); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Table deleted successfully", nil)
}

func (h *Handler) TableOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.OrdersForTable(r.Context(), h.store.Queries(), mux.Vars(r)["id"])
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Orders fetched successfully", map[string]interface{}{"orders": orders})
}

// GenerateBill finalizes the table's session bill inside one transaction,
// then announces it.
func (h *Handler) GenerateBill(w http.ResponseWriter, r *http.Request) {
	tableID := mux.Vars(r)["id"]

	var bill *models.Bill
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		var err error
		bill, err = h.svc.GenerateBill(ctx, q, tableID)
		return err
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	if h.producer != nil {
		event := events.BillEvent{
			BillID:      bill.ID,
			TableID:     bill.TableID,
			HotelID:     bill.HotelID,
			FinalAmount: bill.FinalAmount,
		}
		if err := h.producer.PublishBillFinalized(event); err != nil {
			h.logger.WithError(err).Error("Failed to publish bill finalized event")
		}
	}
	if h.wsHub != nil {
		h.wsHub.Broadcast("bill_finalized", bill, "order-service")
	}

	httpx.OK(w, http.StatusCreated, "Bill generated successfully", map[string]interface{}{"bill": bill})
}
