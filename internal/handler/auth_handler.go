package handler

import (
	"strings"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

const tableUsers = "users"

type AuthHandler struct {
	auditor
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService, activity service.ActivityLogService) *AuthHandler {
	return &AuthHandler{auditor: auditor{activity}, authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the change password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ValidateTokenRequest represents the validate token request body
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// Login handles user authentication
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return service.InvalidInput("username and password are required")
	}

	response, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		return err
	}

	// the login route is public, so the user id comes from the response
	c.Locals(middleware.LocalUserID, response.User.ID)
	h.record(c, model.ActionLogin, tableUsers, response.User.ID, nil, nil)
	return ok(c, response)
}

// Refresh swaps the caller's token for a new one
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	response, err := h.authService.Refresh(middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, response)
}

// Logout invalidates the current token
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := h.authService.Logout(userID); err != nil {
		return err
	}
	h.record(c, model.ActionLogout, tableUsers, userID, nil, nil)
	return message(c, "logged out")
}

// Me returns the authenticated user
// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	me, err := h.authService.Me(middleware.UserID(c))
	if err != nil {
		return err
	}
	return ok(c, me)
}

// ChangePassword handles password change
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return service.InvalidInput("current_password and new_password are required")
	}

	userID := middleware.UserID(c)
	if err := h.authService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	h.record(c, model.ActionUpdate, tableUsers, userID, nil, fiber.Map{"password_changed": true})
	return message(c, "password updated")
}

// ValidateToken handles JWT token validation
// POST /api/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Token == "" {
		return service.InvalidInput("token is required")
	}

	response, err := h.authService.ValidateToken(req.Token)
	if err != nil {
		return err
	}
	return ok(c, response)
}
