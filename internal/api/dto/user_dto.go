package dto

import (
	"time"

	"github.com/spec-kit/daily-status/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetRoleRequest payload for PATCH /users/:id/role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult bundles an account with its token.
type AuthResult struct {
	User UserResponse `json:"user"`
	Auth AuthResponse `json:"auth"`
}

// UserFromDomain builds the public view of u.
func UserFromDomain(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// ToDomain converts the public view back into an account without credentials.
func (r UserResponse) ToDomain() domain.User {
	return domain.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Role:      domain.Role(r.Role),
		CreatedAt: r.CreatedAt,
	}
}
