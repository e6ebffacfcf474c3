// Package auth covers registration, login and request authentication for
// hotel staff. Customers ordering through a QR scan stay anonymous.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/qrdine/qrdine/internal/apperr"
	"github.com/qrdine/qrdine/pkg/models"
)

type Store interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, userID string) (*models.User, error)
	UsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
	ApproveUser(ctx context.Context, userID string) error
	InsertHotel(ctx context.Context, hotel *models.Hotel) error
	ConsumeDevKey(ctx context.Context, key string) (bool, error)
}

type Service struct {
	logger *logrus.Logger
	tokens *TokenManager
}

func NewService(logger *logrus.Logger, tokens *TokenManager) *Service {
	return &Service{logger: logger, tokens: tokens}
}

type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
	DevKey   string      `json:"dev_key,omitempty"`
}

type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// newUserForRole is the factory keyed by the role enum: super admins are
// auto-approved, hotel owners wait for approval and get a hotel of their own.
func newUserForRole(role models.Role, name, email, passwordHash string) *models.User {
	return &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsApproved:   role == models.RoleSuperAdmin,
		CreatedAt:    time.Now().UTC(),
	}
}

// Register creates a user, and for hotel owners, their hotel in the same
// transaction. Super-admin registration burns a dev key.
func (s *Service) Register(ctx context.Context, store Store, req RegisterRequest) (*AuthResult, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" || !req.Role.Valid() {
		return nil, apperr.Client("name, email, password and a valid role are required")
	}

	existing, err := store.UserByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Internal(err, "failed to look up user")
	}
	if existing != nil {
		return nil, apperr.Conflict("user already exists")
	}

	if req.Role == models.RoleSuperAdmin {
		ok, err := store.ConsumeDevKey(ctx, req.DevKey)
		if err != nil {
			return nil, apperr.Internal(err, "failed to validate dev key")
		}
		if !ok {
			return nil, apperr.Client("invalid or used dev key")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	user := newUserForRole(req.Role, req.Name, req.Email, string(hash))

	if req.Role == models.RoleHotelOwner {
		hotel := &models.Hotel{
			ID:      uuid.New().String(),
			Name:    req.Name + "'s Hotel",
			Address: "",
			OwnerID: user.ID,
		}
		if err := store.InsertHotel(ctx, hotel); err != nil {
			return nil, apperr.Internal(err, "failed to create hotel")
		}
		user.HotelID = hotel.ID
	}

	if err := store.InsertUser(ctx, user); err != nil {
		return nil, apperr.Internal(err, "failed to create user")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Internal(err, "failed to issue token")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	return &AuthResult{User: user, Token: token}, nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) Login(ctx context.Context, store Store, req LoginRequest) (*AuthResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperr.Client("email and password are required")
	}

	user, err := store.UserByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Internal(err, "failed to look up user")
	}
	if user == nil {
		return nil, apperr.Client("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Client("invalid credentials")
	}
	if user.Role == models.RoleHotelOwner && !user.IsApproved {
		return nil, apperr.Client("account not approved by super admin")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Internal(err, "failed to issue token")
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in")
	return &AuthResult{User: user, Token: token}, nil
}

// ListOwners returns every hotel-owner account so a super admin can review
// pending registrations.
func (s *Service) ListOwners(ctx context.Context, store Store) ([]models.User, error) {
	users, err := store.UsersByRole(ctx, models.RoleHotelOwner)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list users")
	}
	return users, nil
}

// ApproveUser lifts the login gate on a hotel-owner account.
func (s *Service) ApproveUser(ctx context.Context, store Store, userID string) (*models.User, error) {
	user, err := store.UserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to look up user")
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	if user.Role != models.RoleHotelOwner {
		return nil, apperr.Client("only hotel owner accounts require approval")
	}
	if user.IsApproved {
		return user, nil
	}

	if err := store.ApproveUser(ctx, userID); err != nil {
		return nil, apperr.Internal(err, "failed to approve user")
	}
	user.IsApproved = true

	s.logger.WithField("user_id", userID).Info("Hotel owner approved")
	return user, nil
}
