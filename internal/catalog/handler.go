package catalog

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/auth"
	"github.com/qrdine/qrdine/internal/httpx"
	"github.com/qrdine/qrdine/internal/storage"
	"github.com/qrdine/qrdine/pkg/models"
)

type Handler struct {
	store  *storage.Store
	svc    *Service
	logger *logrus.Logger
}

func NewHandler(store *storage.Store, svc *Service, logger *logrus.Logger) *Handler {
	return &Handler{store: store, svc: svc, logger: logger}
}

func (h *Handler) CreateDish(w http.ResponseWriter, r *http.Request) {
	var req DishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.HotelID = auth.HotelID(r)

	var dish *models.Dish
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		var err error
		dish, err = h.svc.CreateDish(ctx, q, req)
		return err
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Dish created successfully", map[string]interface{}{"dish": dish})
}

func (h *Handler) GetDish(w http.ResponseWriter, r *http.Request) {
	dish, err := h.svc.GetDish(r.Context(), h.store.Queries(), auth.HotelID(r), mux.Vars(r)["id"])
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Dish fetched successfully", map[string]interface{}{"dish": dish})
}

func (h *Handler) ListDishes(w http.ResponseWriter, r *http.Request) {
	hotelID := auth.HotelID(r)
	if hotelID == "" {
		httpx.Error(w, http.StatusBadRequest, "Please provide hotel id")
		return
	}

	dishes, err := h.svc.ListDishes(r.Context(), h.store.Queries(), hotelID, r.URL.Query().Get("categoryId"))
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Dishes fetched successfully", map[string]interface{}{"dishes": dishes})
}

func (h *Handler) UpdateDish(w http.ResponseWriter, r *http.Request) {
	var req DishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var dish *models.Dish
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		var err error
		dish, err = h.svc.UpdateDish(ctx, q, auth.HotelID(r), mux.Vars(r)["id"], req)
		return err
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Dish updated successfully", map[string]interface{}{"dish": dish})
}

func (h *Handler) DeleteDish(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDish(r.Context(), h.store.Queries(), auth.HotelID(r), mux.Vars(r)["id"]); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Dish deleted successfully", nil)
}

// ApplyOffer and RemoveOffer keep dish.applied_offer and the offer's
// applied-on set consistent inside one transaction.
func (h *Handler) ApplyOffer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var dish *models.Dish
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		var err error
		dish, err = h.svc.ApplyOffer(ctx, q, auth.HotelID(r), vars["id"], vars["offerId"])
		return err
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Offer applied successfully", map[string]interface{}{"dish": dish})
}

func (h *Handler) RemoveOffer(w http.ResponseWriter, r *http.Request) {
	var dish *models.Dish
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		var err error
		dish, err = h.svc.RemoveOffer(ctx, q, auth.HotelID(r), mux.Vars(r)["id"])
		return err
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Offer removed successfully", map[string]interface{}{"dish": dish})
}

type nameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.svc.CreateCategory(r.Context(), h.store.Queries(), auth.HotelID(r), req.Name)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Category created successfully", map[string]interface{}{"category": category})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context(), h.store.Queries(), auth.HotelID(r))
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Categories fetched successfully", map[string]interface{}{"categories": categories})
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCategory(r.Context(), h.store.Queries(), auth.HotelID(r), mux.Vars(r)["id"]); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Category deleted successfully", nil)
}

func (h *Handler) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ingredient, err := h.svc.CreateIngredient(r.Context(), h.store.Queries(), auth.HotelID(r), req.Name)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Ingredient created successfully", map[string]interface{}{"ingredient": ingredient})
}

func (h *Handler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.svc.ListIngredients(r.Context(), h.store.Queries(), auth.HotelID(r))
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Ingredients fetched successfully", map[string]interface{}{"ingredients": ingredients})
}

func (h *Handler) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteIngredient(r.Context(), h.store.Queries(), auth.HotelID(r), mux.Vars(r)["id"]); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Ingredient deleted successfully", nil)
}

func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req OfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.HotelID = auth.HotelID(r)

	offer, err := h.svc.CreateOffer(r.Context(), h.store.Queries(), req)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Offer created successfully", map[string]interface{}{"offer": offer})
}

func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.svc.ListOffers(r.Context(), h.store.Queries(), auth.HotelID(r))
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Offers fetched successfully", map[string]interface{}{"offers": offers})
}

func (h *Handler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		return h.svc.DeleteOffer(ctx, q, auth.HotelID(r), mux.Vars(r)["id"])
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Offer deleted successfully", nil)
}
