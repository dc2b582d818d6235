package handler

import (
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	auditor
	userService service.UserService
}

func NewUserHandler(userService service.UserService, activity service.ActivityLogService) *UserHandler {
	return &UserHandler{auditor: auditor{activity}, userService: userService}
}

// CreateUser handles user creation
// POST /api/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.userService.CreateUser(&req, middleware.Actor(c).Label())
	if err != nil {
		return err
	}

	resp := user.ToResponse()
	h.record(c, model.ActionCreate, tableUsers, user.ID, nil, resp)
	return created(c, "user created", resp)
}

// UpdateUserPrivileges handles privilege assignment
// PUT /api/users/:id/privileges
func (h *UserHandler) UpdateUserPrivileges(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Privileges []string `json:"privileges"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.userService.UpdateUserPrivileges(userID, req.Privileges, middleware.Actor(c).Label())
	if err != nil {
		return err
	}

	h.record(c, model.ActionUpdate, tableUsers, userID, nil, fiber.Map{"privileges": req.Privileges})
	return c.JSON(fiber.Map{"success": true, "message": "privileges updated", "data": user.ToResponse()})
}

// GetUsers returns all users
// GET /api/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers()
	if err != nil {
		return err
	}
	return okList(c, users, len(users))
}

// GetUser returns a single user by ID
// GET /api/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		return err
	}
	return ok(c, user)
}

// UpdateUser handles user update
// PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req service.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	old, err := h.userService.GetUserByID(userID)
	if err != nil {
		return err
	}
	user, err := h.userService.UpdateUser(userID, &req, middleware.Actor(c).Label())
	if err != nil {
		return err
	}

	resp := user.ToResponse()
	h.record(c, model.ActionUpdate, tableUsers, userID, old, resp)
	return c.JSON(fiber.Map{"success": true, "message": "user updated", "data": resp})
}

// DeleteUser deactivates the account
// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if userID == middleware.UserID(c) {
		return service.InvalidInput("you cannot deactivate your own account")
	}

	if err := h.userService.DeleteUser(userID); err != nil {
		return err
	}

	h.record(c, model.ActionDelete, tableUsers, userID, nil, fiber.Map{"is_active": false})
	return message(c, "user deactivated")
}
