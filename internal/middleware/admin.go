package middleware

import (
	"go-classhub/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminMiddleware checks if the user has the admin role
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if claims.Role != utils.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied: Admin role required",
			})
		}

		return c.Next()
	}
}
