package storage

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/qrdine/qrdine/pkg/models"
)

func (s *Queries) InsertDish(ctx context.Context, dish *models.Dish) error {
	query := `
		INSERT INTO dishes (id, hotel_id, name, price, category_id, applied_offer, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
	`
	_, err := s.q.ExecContext(ctx, query,
		dish.ID, dish.HotelID, dish.Name, dish.Price, dish.CategoryID, dish.AppliedOffer, dish.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert dish")
	}
	return s.setDishIngredients(ctx, dish.ID, dish.Ingredients)
}

func (s *Queries) UpdateDish(ctx context.Context, dish *models.Dish) error {
	query := `
		UPDATE dishes
		SET name = $1, price = $2, category_id = NULLIF($3, ''), applied_offer = NULLIF($4, '')
		WHERE id = $5
	`
	_, err := s.q.ExecContext(ctx, query,
		dish.Name, dish.Price, dish.CategoryID, dish.AppliedOffer, dish.ID)
	if err != nil {
		return errors.Wrap(err, "update dish")
	}
	return s.setDishIngredients(ctx, dish.ID, dish.Ingredients)
}

func (s *Queries) setDishIngredients(ctx context.Context, dishID string, ingredients []models.Ingredient) error {
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM dish_ingredients WHERE dish_id = $1`, dishID); err != nil {
		return errors.Wrap(err, "clear dish ingredients")
	}
	for _, ing := range ingredients {
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO dish_ingredients (dish_id, ingredient_id) VALUES ($1, $2)`,
			dishID, ing.ID)
		if err != nil {
			return errors.Wrap(err, "insert dish ingredient")
		}
	}
	return nil
}

func (s *Queries) DeleteDish(ctx context.Context, dishID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM dishes WHERE id = $1`, dishID)
	return errors.Wrap(err, "delete dish")
}

func (s *Queries) DishByID(ctx context.Context, dishID string) (*models.Dish, error) {
	query := `
		SELECT id, hotel_id, name, price, COALESCE(category_id, ''), COALESCE(applied_offer, ''), created_at
		FROM dishes WHERE id = $1
	`
	var dish models.Dish
	err := s.q.QueryRowContext(ctx, query, dishID).Scan(
		&dish.ID, &dish.HotelID, &dish.Name, &dish.Price,
		&dish.CategoryID, &dish.AppliedOffer, &dish.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select dish")
	}

	dish.Ingredients, err = s.dishIngredients(ctx, dishID)
	if err != nil {
		return nil, err
	}
	return &dish, nil
}

func (s *Queries) DishesByHotel(ctx context.Context, hotelID string) ([]models.Dish, error) {
	query := `
		SELECT id, hotel_id, name, price, COALESCE(category_id, ''), COALESCE(applied_offer, ''), created_at
		FROM dishes WHERE hotel_id = $1 ORDER BY name
	`
	return s.selectDishes(ctx, query, hotelID)
}

func (s *Queries) DishesByCategory(ctx context.Context, hotelID, categoryID string) ([]models.Dish, error) {
	query := `
		SELECT id, hotel_id, name, price, COALESCE(category_id, ''), COALESCE(applied_offer, ''), created_at
		FROM dishes WHERE hotel_id = $1 AND category_id = $2 ORDER BY name
	`
	return s.selectDishes(ctx, query, hotelID, categoryID)
}

func (s *Queries) selectDishes(ctx context.Context, query string, args ...interface{}) ([]models.Dish, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "select dishes")
	}
	defer rows.Close()

	var dishes []models.Dish
	for rows.Next() {
		var dish models.Dish
		if err := rows.Scan(
			&dish.ID, &dish.HotelID, &dish.Name, &dish.Price,
			&dish.CategoryID, &dish.AppliedOffer, &dish.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan dish")
		}
		dishes = append(dishes, dish)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range dishes {
		dishes[i].Ingredients, err = s.dishIngredients(ctx, dishes[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return dishes, nil
}

func (s *Queries) dishIngredients(ctx context.Context, dishID string) ([]models.Ingredient, error) {
	query := `
		SELECT i.id, i.hotel_id, i.name
		FROM dish_ingredients di
		JOIN ingredients i ON i.id = di.ingredient_id
		WHERE di.dish_id = $1
		ORDER BY i.name
	`
	rows, err := s.q.QueryContext(ctx, query, dishID)
	if err != nil {
		return nil, errors.Wrap(err, "select dish ingredients")
	}
	defer rows.Close()

	var ingredients []models.Ingredient
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.ID, &ing.HotelID, &ing.Name); err != nil {
			return nil, errors.Wrap(err, "scan ingredient")
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

// DishPrices resolves catalog prices for the given dish IDs, hotel-scoped.
// The billing engine calls this once per line-item insert batch.
func (s *Queries) DishPrices(ctx context.Context, hotelID string, dishIDs []string) (map[string]float64, error) {
	if len(dishIDs) == 0 {
		return map[string]float64{}, nil
	}
	query := `SELECT id, price FROM dishes WHERE hotel_id = $1 AND id = ANY($2)`
	rows, err := s.q.QueryContext(ctx, query, hotelID, pq.Array(dishIDs))
	if err != nil {
		return nil, errors.Wrap(err, "select dish prices")
	}
	defer rows.Close()

	prices := make(map[string]float64, len(dishIDs))
	for rows.Next() {
		var id string
		var price float64
		if err := rows.Scan(&id, &price); err != nil {
			return nil, errors.Wrap(err, "scan dish price")
		}
		prices[id] = price
	}
	return prices, rows.Err()
}

func (s *Queries) InsertCategory(ctx context.Context, c *models.Category) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO categories (id, hotel_id, name) VALUES ($1, $2, $3)`,
		c.ID, c.HotelID, c.Name)
	return errors.Wrap(err, "insert category")
}

func (s *Queries) CategoriesByHotel(ctx context.Context, hotelID string) ([]models.Category, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, hotel_id, name FROM categories WHERE hotel_id = $1 ORDER BY name`, hotelID)
	if err != nil {
		return nil, errors.Wrap(err, "select categories")
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.HotelID, &c.Name); err != nil {
			return nil, errors.Wrap(err, "scan category")
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Queries) UpdateCategory(ctx context.Context, c *models.Category) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE categories SET name = $1 WHERE id = $2`, c.Name, c.ID)
	return errors.Wrap(err, "update category")
}

func (s *Queries) DeleteCategory(ctx context.Context, categoryID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	return errors.Wrap(err, "delete category")
}

func (s *Queries) InsertIngredient(ctx context.Context, ing *models.Ingredient) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO ingredients (id, hotel_id, name) VALUES ($1, $2, $3)`,
		ing.ID, ing.HotelID, ing.Name)
	return errors.Wrap(err, "insert ingredient")
}

func (s *Queries) IngredientsByHotel(ctx context.Context, hotelID string) ([]models.Ingredient, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, hotel_id, name FROM ingredients WHERE hotel_id = $1 ORDER BY name`, hotelID)
	if err != nil {
		return nil, errors.Wrap(err, "select ingredients")
	}
	defer rows.Close()

	var ingredients []models.Ingredient
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.ID, &ing.HotelID, &ing.Name); err != nil {
			return nil, errors.Wrap(err, "scan ingredient")
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

func (s *Queries) DeleteIngredient(ctx context.Context, ingredientID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM ingredients WHERE id = $1`, ingredientID)
	return errors.Wrap(err, "delete ingredient")
}

func (s *Queries) InsertOffer(ctx context.Context, offer *models.Offer) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO offers (id, hotel_id, name, discount_percent) VALUES ($1, $2, $3, $4)`,
		offer.ID, offer.HotelID, offer.Name, offer.DiscountPercent)
	return errors.Wrap(err, "insert offer")
}

func (s *Queries) OfferByID(ctx context.Context, offerID string) (*models.Offer, error) {
	var offer models.Offer
	err := s.q.QueryRowContext(ctx,
		`SELECT id, hotel_id, name, discount_percent FROM offers WHERE id = $1`, offerID).
		Scan(&offer.ID, &offer.HotelID, &offer.Name, &offer.DiscountPercent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select offer")
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT id FROM dishes WHERE applied_offer = $1`, offerID)
	if err != nil {
		return nil, errors.Wrap(err, "select offer dishes")
	}
	defer rows.Close()
	for rows.Next() {
		var dishID string
		if err := rows.Scan(&dishID); err != nil {
			return nil, errors.Wrap(err, "scan offer dish")
		}
		offer.AppliedOn = append(offer.AppliedOn, dishID)
	}
	return &offer, rows.Err()
}

func (s *Queries) OffersByHotel(ctx context.Context, hotelID string) ([]models.Offer, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, hotel_id, name, discount_percent FROM offers WHERE hotel_id = $1 ORDER BY name`, hotelID)
	if err != nil {
		return nil, errors.Wrap(err, "select offers")
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var offer models.Offer
		if err := rows.Scan(&offer.ID, &offer.HotelID, &offer.Name, &offer.DiscountPercent); err != nil {
			return nil, errors.Wrap(err, "scan offer")
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func (s *Queries) DeleteOffer(ctx context.Context, offerID string) error {
	if _, err := s.q.ExecContext(ctx,
		`UPDATE dishes SET applied_offer = NULL WHERE applied_offer = $1`, offerID); err != nil {
		return errors.Wrap(err, "detach offer")
	}
	_, err := s.q.ExecContext(ctx, `DELETE FROM offers WHERE id = $1`, offerID)
	return errors.Wrap(err, "delete offer")
}

// SetDishOffer attaches or clears (empty offerID) the offer on a dish.
func (s *Queries) SetDishOffer(ctx context.Context, dishID, offerID string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE dishes SET applied_offer = NULLIF($1, '') WHERE id = $2`, offerID, dishID)
	return errors.Wrap(err, "set dish offer")
}
