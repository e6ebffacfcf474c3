package orders

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
	PublishOrderEvent(topic string, event events.OrderEvent) error
}

type WebSocketHub interface {
	Broadcast(messageType string, data interface{}, source string)
}

// Handler owns the transaction boundary for order mutations: the service
// runs inside WithinTx, and events and broadcasts go out only after commit.
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

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Failed to decode order request")
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var order *models.Order
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		var err error
		order, err = h.svc.AddOrder(ctx, q, req)
		return err
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	h.afterOrderMutation(events.TopicOrderCreated, "order_created", order)
	httpx.OK(w, http.StatusCreated, "Order created successfully", map[string]interface{}{"order": order})
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Failed to decode order update request")
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OrderID = mux.Vars(r)["id"]

	var order *models.Order
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		var err error
		order, err = h.svc.UpdateOrder(ctx, q, req)
		return err
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	h.afterOrderMutation(events.TopicOrderUpdated, "order_updated", order)
	httpx.OK(w, http.StatusOK, "Order updated successfully", map[string]interface{}{"order": order})
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	var order *models.Order
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		var err error
		order, err = h.svc.DeleteOrder(ctx, q, orderID)
		return err
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	h.afterOrderMutation(events.TopicOrderDeleted, "order_deleted", order)
	httpx.OK(w, http.StatusOK, "Order deleted successfully", nil)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	view, err := h.store.Queries().OrderViewByID(r.Context(), orderID)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	if view == nil {
		httpx.Error(w, http.StatusNotFound, "Order not found")
		return
	}

	httpx.OK(w, http.StatusOK, "Order fetched successfully", map[string]interface{}{"order": view})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	hotelID := auth.HotelID(r)
	if hotelID == "" {
		httpx.Error(w, http.StatusBadRequest, "Please provide hotel id")
		return
	}

	views, err := h.store.Queries().OrderViewsByHotel(r.Context(), hotelID)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	httpx.OK(w, http.StatusOK, "Orders fetched successfully", map[string]interface{}{"orders": views})
}

// Scan serves a QR hit: session state plus the menu, no auth required.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	tableID := r.URL.Query().Get("tableId")
	hotelID := r.URL.Query().Get("hotelId")
	if tableID == "" || hotelID == "" {
		httpx.Error(w, http.StatusBadRequest, "Please provide tableId and hotelId")
		return
	}

	result, err := h.svc.OnQRScan(r.Context(), h.store.Queries(), tableID, hotelID)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	httpx.OK(w, http.StatusOK, "Session fetched successfully", result)
}

func (h *Handler) afterOrderMutation(topic, messageType string, order *models.Order) {
	if order == nil {
		return
	}
	if h.producer != nil {
		event := events.OrderEvent{
			OrderID: order.ID,
			BillID:  order.BillID,
			TableID: order.TableID,
			HotelID: order.HotelID,
			Status:  string(order.Status),
		}
		if err := h.producer.PublishOrderEvent(topic, event); err != nil {
			h.logger.WithError(err).Error("Failed to publish order event")
		}
	}
	if h.wsHub != nil {
		h.wsHub.Broadcast(messageType, order, "order-service")
	}
}
