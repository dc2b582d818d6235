package middleware

import (
	"strings"

	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

// LocalUserID holds the authenticated user's id (uint) in fiber locals.
const LocalUserID = "user_id"

const (
	localUsername   = "username"
	localUserName   = "user_name"
	localRole       = "user_role"
	localPrivileges = "user_privileges"
)

// RequireAuth is middleware that validates the bearer token and sets user info in context
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return service.Unauthorized("missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return service.Unauthorized("invalid authorization format, use: Bearer <token>")
		}

		// Signature, expiry, active account and token version
		session, err := auth.ValidateToken(parts[1])
		if err != nil {
			return err
		}

		// Set user info in context for downstream handlers
		c.Locals(LocalUserID, session.User.ID)
		c.Locals(localUsername, session.User.Username)
		c.Locals(localUserName, session.User.FullName)
		if session.Role != nil {
			c.Locals(localRole, session.Role.Code)
		}
		c.Locals(localPrivileges, session.Privileges)

		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get privileges from context (set by RequireAuth)
		privileges, ok := c.Locals(localPrivileges).([]string)
		if !ok {
			return service.Forbidden("no privileges found")
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return service.Forbidden("requires '%s' privilege", requiredPrivilege)
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(localPrivileges).([]string)
		if !ok {
			return service.Forbidden("no privileges found")
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return service.Forbidden("requires one of %s privileges", strings.Join(requiredPrivileges, ", "))
	}
}

// HasPrivilege reports whether the authenticated user holds privilege.
func HasPrivilege(c *fiber.Ctx, privilege string) bool {
	privileges, _ := c.Locals(localPrivileges).([]string)
	for _, p := range privileges {
		if p == privilege {
			return true
		}
	}
	return false
}

// UserID returns the authenticated user's id, 0 on public routes.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// Actor identifies the authenticated user to the services.
func Actor(c *fiber.Ctx) service.Actor {
	username, _ := c.Locals(localUsername).(string)
	name, _ := c.Locals(localUserName).(string)
	return service.Actor{ID: UserID(c), Username: username, Name: name}
}
