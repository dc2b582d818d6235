package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	userService service.UserService
}

func NewRoleHandler(userService service.UserService) *RoleHandler {
	return &RoleHandler{userService: userService}
}

// GetRoles returns all available roles
// GET /api/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.userService.GetAllRoles()
	if err != nil {
		return err
	}
	return okList(c, roles, len(roles))
}

// GetPrivileges lists every privilege that can be granted
// GET /api/privileges
func (h *RoleHandler) GetPrivileges(c *fiber.Ctx) error {
	privileges, err := h.userService.GetAllPrivileges()
	if err != nil {
		return err
	}
	return okList(c, privileges, len(privileges))
}
