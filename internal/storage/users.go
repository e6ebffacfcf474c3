package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/qrdine/qrdine/pkg/models"
)

func (s *Queries) InsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, hotel_id, is_approved, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`
	_, err := s.q.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role,
		user.HotelID, user.IsApproved, user.CreatedAt)
	return errors.Wrap(err, "insert user")
}

func (s *Queries) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, COALESCE(hotel_id, ''), is_approved, created_at
		FROM users WHERE email = $1
	`
	var user models.User
	err := s.q.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.HotelID, &user.IsApproved, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select user")
	}
	return &user, nil
}

func (s *Queries) UserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, COALESCE(hotel_id, ''), is_approved, created_at
		FROM users WHERE id = $1
	`
	var user models.User
	err := s.q.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.HotelID, &user.IsApproved, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select user")
	}
	return &user, nil
}

func (s *Queries) UsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, COALESCE(hotel_id, ''), is_approved, created_at
		FROM users WHERE role = $1 ORDER BY created_at
	`
	rows, err := s.q.QueryContext(ctx, query, role)
	if err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
			&user.HotelID, &user.IsApproved, &user.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		users = append(users, user)
	}
	return users, errors.Wrap(rows.Err(), "iterate users")
}

func (s *Queries) ApproveUser(ctx context.Context, userID string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE users SET is_approved = TRUE WHERE id = $1`, userID)
	return errors.Wrap(err, "approve user")
}

func (s *Queries) InsertHotel(ctx context.Context, hotel *models.Hotel) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO hotels (id, name, address, owner_id) VALUES ($1, $2, $3, $4)`,
		hotel.ID, hotel.Name, hotel.Address, hotel.OwnerID)
	return errors.Wrap(err, "insert hotel")
}

func (s *Queries) HotelByID(ctx context.Context, hotelID string) (*models.Hotel, error) {
	var hotel models.Hotel
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, address, owner_id FROM hotels WHERE id = $1`, hotelID).
		Scan(&hotel.ID, &hotel.Name, &hotel.Address, &hotel.OwnerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select hotel")
	}
	return &hotel, nil
}

// ConsumeDevKey marks an unused dev key as used and reports whether the key
// was valid. Super-admin registration burns a key.
func (s *Queries) ConsumeDevKey(ctx context.Context, key string) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE dev_keys SET is_used = TRUE WHERE key = $1 AND NOT is_used`, key)
	if err != nil {
		return false, errors.Wrap(err, "consume dev key")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "consume dev key")
	}
	return n == 1, nil
}
