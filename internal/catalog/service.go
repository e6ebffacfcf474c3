// Package catalog is the hotel-scoped menu: dishes, categories, ingredients
// and offers. It is the price resolver the billing engine depends on.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/apperr"
	"github.com/qrdine/qrdine/pkg/models"
)

type Store interface {
	InsertDish(ctx context.Context, dish *models.Dish) error
	UpdateDish(ctx context.Context, dish *models.Dish) error
	DeleteDish(ctx context.Context, dishID string) error
	DishByID(ctx context.Context, dishID string) (*models.Dish, error)
	DishesByHotel(ctx context.Context, hotelID string) ([]models.Dish, error)
	DishesByCategory(ctx context.Context, hotelID, categoryID string) ([]models.Dish, error)
	SetDishOffer(ctx context.Context, dishID, offerID string) error

	InsertCategory(ctx context.Context, c *models.Category) error
	CategoriesByHotel(ctx context.Context, hotelID string) ([]models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, categoryID string) error

	InsertIngredient(ctx context.Context, ing *models.Ingredient) error
	IngredientsByHotel(ctx context.Context, hotelID string) ([]models.Ingredient, error)
	DeleteIngredient(ctx context.Context, ingredientID string) error

	InsertOffer(ctx context.Context, offer *models.Offer) error
	OfferByID(ctx context.Context, offerID string) (*models.Offer, error)
	OffersByHotel(ctx context.Context, hotelID string) ([]models.Offer, error)
	DeleteOffer(ctx context.Context, offerID string) error
}

type Service struct {
	logger *logrus.Logger
}

func NewService(logger *logrus.Logger) *Service {
	return &Service{logger: logger}
}

type DishRequest struct {
	HotelID       string   `json:"hotel_id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	CategoryID    string   `json:"category_id"`
	IngredientIDs []string `json:"ingredient_ids"`
}

func (s *Service) CreateDish(ctx context.Context, store Store, req DishRequest) (*models.Dish, error) {
	if req.HotelID == "" {
		return nil, apperr.Client("hotel id is required")
	}
	if req.Name == "" || req.Price <= 0 {
		return nil, apperr.Client("dish name and a positive price are required")
	}
	dish := &models.Dish{
		ID:         uuid.New().String(),
		HotelID:    req.HotelID,
		Name:       req.Name,
		Price:      req.Price,
		CategoryID: req.CategoryID,
		CreatedAt:  time.Now().UTC(),
	}
	for _, id := range req.IngredientIDs {
		dish.Ingredients = append(dish.Ingredients, models.Ingredient{ID: id})
	}
	if err := store.InsertDish(ctx, dish); err != nil {
		return nil, apperr.Internal(err, "failed to create dish")
	}
	s.logger.WithFields(logrus.Fields{
		"dish_id": dish.ID,
		"name":    dish.Name,
		"price":   dish.Price,
	}).Info("Dish created")
	return dish, nil
}

func (s *Service) GetDish(ctx context.Context, store Store, hotelID, dishID string) (*models.Dish, error) {
	dish, err := store.DishByID(ctx, dishID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load dish")
	}
	if dish == nil || dish.HotelID != hotelID {
		return nil, apperr.NotFound("dish not found")
	}
	return dish, nil
}

func (s *Service) ListDishes(ctx context.Context, store Store, hotelID, categoryID string) ([]models.Dish, error) {
	var (
		dishes []models.Dish
		err    error
	)
	if categoryID != "" {
		dishes, err = store.DishesByCategory(ctx, hotelID, categoryID)
	} else {
		dishes, err = store.DishesByHotel(ctx, hotelID)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to list dishes")
	}
	return dishes, nil
}

func (s *Service) UpdateDish(ctx context.Context, store Store, hotelID, dishID string, req DishRequest) (*models.Dish, error) {
	dish, err := s.GetDish(ctx, store, hotelID, dishID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		dish.Name = req.Name
	}
	if req.Price > 0 {
		dish.Price = req.Price
	}
	if req.CategoryID != "" {
		dish.CategoryID = req.CategoryID
	}
	if req.IngredientIDs != nil {
		dish.Ingredients = dish.Ingredients[:0]
		for _, id := range req.IngredientIDs {
			dish.Ingredients = append(dish.Ingredients, models.Ingredient{ID: id})
		}
	}
	if err := store.UpdateDish(ctx, dish); err != nil {
		return nil, apperr.Internal(err, "failed to update dish")
	}
	return dish, nil
}

func (s *Service) DeleteDish(ctx context.Context, store Store, hotelID, dishID string) error {
	if _, err := s.GetDish(ctx, store, hotelID, dishID); err != nil {
		return err
	}
	return apperr.Internal(store.DeleteDish(ctx, dishID), "failed to delete dish")
}

// ApplyOffer attaches an offer to a dish; both must belong to the hotel.
func (s *Service) ApplyOffer(ctx context.Context, store Store, hotelID, dishID, offerID string) (*models.Dish, error) {
	dish, err := s.GetDish(ctx, store, hotelID, dishID)
	if err != nil {
		return nil, err
	}
	offer, err := store.OfferByID(ctx, offerID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load offer")
	}
	if offer == nil || offer.HotelID != hotelID {
		return nil, apperr.NotFound("offer not found")
	}
	if err := store.SetDishOffer(ctx, dishID, offerID); err != nil {
		return nil, apperr.Internal(err, "failed to apply offer")
	}
	dish.AppliedOffer = offerID
	return dish, nil
}

// RemoveOffer detaches whatever offer the dish carries.
func (s *Service) RemoveOffer(ctx context.Context, store Store, hotelID, dishID string) (*models.Dish, error) {
	dish, err := s.GetDish(ctx, store, hotelID, dishID)
	if err != nil {
		return nil, err
	}
	if dish.AppliedOffer == "" {
		return nil, apperr.Client("no offer is applied to this dish")
	}
	if err := store.SetDishOffer(ctx, dishID, ""); err != nil {
		return nil, apperr.Internal(err, "failed to remove offer")
	}
	dish.AppliedOffer = ""
	return dish, nil
}

func (s *Service) CreateCategory(ctx context.Context, store Store, hotelID, name string) (*models.Category, error) {
	if name == "" {
		return nil, apperr.Client("category name is required")
	}
	c := &models.Category{ID: uuid.New().String(), HotelID: hotelID, Name: name}
	if err := store.InsertCategory(ctx, c); err != nil {
		return nil, apperr.Internal(err, "failed to create category")
	}
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context, store Store, hotelID string) ([]models.Category, error) {
	categories, err := store.CategoriesByHotel(ctx, hotelID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list categories")
	}
	return categories, nil
}

func (s *Service) DeleteCategory(ctx context.Context, store Store, hotelID, categoryID string) error {
	categories, err := s.ListCategories(ctx, store, hotelID)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if c.ID == categoryID {
			return apperr.Internal(store.DeleteCategory(ctx, categoryID), "failed to delete category")
		}
	}
	return apperr.NotFound("category not found")
}

func (s *Service) CreateIngredient(ctx context.Context, store Store, hotelID, name string) (*models.Ingredient, error) {
	if name == "" {
		return nil, apperr.Client("ingredient name is required")
	}
	ing := &models.Ingredient{ID: uuid.New().String(), HotelID: hotelID, Name: name}
	if err := store.InsertIngredient(ctx, ing); err != nil {
		return nil, apperr.Internal(err, "failed to create ingredient")
	}
	return ing, nil
}

func (s *Service) ListIngredients(ctx context.Context, store Store, hotelID string) ([]models.Ingredient, error) {
	ingredients, err := store.IngredientsByHotel(ctx, hotelID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list ingredients")
	}
	return ingredients, nil
}

func (s *Service) DeleteIngredient(ctx context.Context, store Store, hotelID, ingredientID string) error {
	ingredients, err := s.ListIngredients(ctx, store, hotelID)
	if err != nil {
		return err
	}
	for _, ing := range ingredients {
		if ing.ID == ingredientID {
			return apperr.Internal(store.DeleteIngredient(ctx, ingredientID), "failed to delete ingredient")
		}
	}
	return apperr.NotFound("ingredient not found")
}

type OfferRequest struct {
	HotelID         string  `json:"hotel_id"`
	Name            string  `json:"name"`
	DiscountPercent float64 `json:"discount_percent"`
}

func (s *Service) CreateOffer(ctx context.Context, store Store, req OfferRequest) (*models.Offer, error) {
	if req.Name == "" {
		return nil, apperr.Client("offer name is required")
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return nil, apperr.Client("discount percent must be between 0 and 100")
	}
	offer := &models.Offer{
		ID:              uuid.New().String(),
		HotelID:         req.HotelID,
		Name:            req.Name,
		DiscountPercent: req.DiscountPercent,
	}
	if err := store.InsertOffer(ctx, offer); err != nil {
		return nil, apperr.Internal(err, "failed to create offer")
	}
	return offer, nil
}

func (s *Service) ListOffers(ctx context.Context, store Store, hotelID string) ([]models.Offer, error) {
	offers, err := store.OffersByHotel(ctx, hotelID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list offers")
	}
	return offers, nil
}

func (s *Service) DeleteOffer(ctx context.Context, store Store, hotelID, offerID string) error {
	offer, err := store.OfferByID(ctx, offerID)
	if err != nil {
		return apperr.Internal(err, "failed to load offer")
	}
	if offer == nil || offer.HotelID != hotelID {
		return apperr.NotFound("offer not found")
	}
	return apperr.Internal(store.DeleteOffer(ctx, offerID), "failed to delete offer")
}
