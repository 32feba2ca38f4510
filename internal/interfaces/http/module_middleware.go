package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
)

// RequireModule exige algún permiso del módulo (prefijo "<Módulo>." del código de permiso).
// Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 401 Unauthorized → no hay claims en el contexto.
//   - 403 Forbidden    → el usuario no tiene ningún permiso del módulo.
//   - SYSTEM_ADMIN pasa siempre.
func RequireModule(module string) fiber.Handler {
	prefix := module + "."
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "sesión requerida",
			})
		}
		if claims.HasPermission(prefix + "*") {
			return c.Next()
		}
		for _, p := range claims.Permissions {
			if strings.HasPrefix(p, prefix) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "MODULE_DISABLED",
			Message: "sin acceso al módulo '" + module + "'",
		})
	}
}
