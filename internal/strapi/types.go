package strapi

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/foxzi/mailpanel/internal/models"
)

// APIError is a non-2xx response from the content API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("content API: HTTP %d", e.Status)
	}
	return fmt.Sprintf("content API: HTTP %d: %s", e.Status, e.Message)
}

// errorResponse is the error envelope returned by the content API
type errorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// ListResponse is a paginated collection response
type ListResponse struct {
	Data []map[string]any `json:"data"`
	Meta struct {
		Pagination models.Pagination `json:"pagination"`
	} `json:"meta"`
}

// ItemResponse is a single-record response
type ItemResponse struct {
	Data map[string]any `json:"data"`
}

// writeRequest wraps a record body the way the content API expects it
type writeRequest struct {
	Data any `json:"data"`
}

// AuthRequest is the credential exchange request
type AuthRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// AuthResponse is the credential exchange response. Older deployments
// return the token as "token" instead of "jwt".
type AuthResponse struct {
	JWT   string         `json:"jwt"`
	Token string         `json:"token"`
	User  map[string]any `json:"user"`
}

// BearerToken returns whichever token field was populated
func (r *AuthResponse) BearerToken() string {
	if r.JWT != "" {
		return r.JWT
	}
	return r.Token
}

// usersResponse accepts both a bare array and a {"data": [...]} envelope
type usersResponse []map[string]any

func (u *usersResponse) UnmarshalJSON(b []byte) error {
	var list []map[string]any
	if err := json.Unmarshal(b, &list); err == nil {
		*u = list
		return nil
	}
	var env struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	*u = env.Data
	return nil
}
