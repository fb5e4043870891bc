package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/daily-status/internal/api/dto"
	"github.com/spec-kit/daily-status/internal/auth"
	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/service"
	apperrors "github.com/spec-kit/daily-status/pkg/util/errorutil"
)

// UsersHandler exposes auth and account endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	result, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResult(result)})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResult(result)})
}

// Me handles GET /auth/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	return c.JSON(fiber.Map{"data": dto.UserFromDomain(principal.User)})
}

// Refresh handles POST /auth/refresh.
func (h *UsersHandler) Refresh(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	result, err := h.auth.Refresh(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResult(result)})
}

// SetRole handles PATCH /users/:id/role.
func (h *UsersHandler) SetRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))

	user, err := h.auth.SetRole(c.UserContext(), principal.User, c.Params("id"), role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserFromDomain(user)})
}

func authResult(result *service.AuthResult) dto.AuthResult {
	return dto.AuthResult{
		User: dto.UserFromDomain(result.User),
		Auth: dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
	}
}
