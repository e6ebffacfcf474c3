package models

import (
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleHotelOwner Role = "hotel_owner"
)

func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleHotelOwner
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	HotelID      string    `json:"hotel_id,omitempty"`
	IsApproved   bool      `json:"is_approved"`
	CreatedAt    time.Time `json:"created_at"`
}

type Hotel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	OwnerID string `json:"owner_id"`
}
