package models

import "time"

// User roles
const (
	RoleAuthenticated = "authenticated"
	RolePublic        = "public"
)

// User is a content API user with every optional field defaulted
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider"`
	Confirmed bool      `json:"confirmed"`
	Blocked   bool      `json:"blocked"`
	Role      string    `json:"rol"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
