package http

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/pkg/jwt"
)

// Locals keys cargadas por AuthMiddleware.
const (
	LocalUserID    = "user_id"
	LocalClaims    = "claims"
	LocalToken     = "token"
	LocalTokenExp  = "token_exp"
	LocalRequestID = "requestid"
)

// TokenChecker consulta la lista negra de tokens (implementado por auth.AuthUseCase).
type TokenChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// ClaimsSource claims completos de un usuario (implementado por auth.ClaimsBuilder).
type ClaimsSource interface {
	Get(ctx context.Context, userID string) (*access.Claims, error)
}

// AuthConfig dependencias del middleware de autenticación.
type AuthConfig struct {
	Secret     string
	CookieName string
	Revoked    TokenChecker
	// Claims nil: los claims se arman solo con lo que trae el token.
	Claims ClaimsSource
}

// AuthMiddleware acepta Authorization: Bearer <token> o la cookie de sesión.
func AuthMiddleware(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, code, msg := extractToken(c, cfg.CookieName)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
		}
		parsed, err := jwt.Parse(cfg.Secret, token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if cfg.Revoked != nil {
			revoked, err := cfg.Revoked.IsRevoked(c.UserContext(), token)
			if err != nil {
				return writeError(c, err)
			}
			if revoked {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "sesión cerrada"})
			}
		}

		claims := &access.Claims{
			UserID:       parsed.UserID,
			TenantID:     parsed.TenantID,
			Roles:        parsed.Roles,
			ScopeCode:    parsed.ScopeCode,
			ScopeLevel:   parsed.ScopeLevel,
			TenantAccess: parsed.TenantAccess,
		}
		if cfg.Claims != nil {
			full, err := cfg.Claims.Get(c.UserContext(), parsed.UserID)
			if (full == nil && err == nil) || errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "usuario no encontrado"})
			}
			if err != nil {
				return writeError(c, err)
			}
			claims = full
		}

		c.Locals(LocalUserID, parsed.UserID)
		c.Locals(LocalClaims, claims)
		c.Locals(LocalToken, token)
		c.Locals(LocalTokenExp, parsed.ExpiresAtTime())
		return c.Next()
	}
}

func extractToken(c *fiber.Ctx, cookieName string) (token, code, msg string) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", "INVALID_TOKEN", "formato: Bearer <token>"
		}
		if t := strings.TrimSpace(parts[1]); t != "" {
			return t, "", ""
		}
		return "", "MISSING_TOKEN", "token vacío"
	}
	if cookieName != "" {
		if t := strings.TrimSpace(c.Cookies(cookieName)); t != "" {
			return t, "", ""
		}
	}
	return "", "MISSING_TOKEN", "Authorization header o cookie de sesión requeridos"
}

// RequirePermission exige al menos uno de los permisos. Usar después de AuthMiddleware.
func RequirePermission(perms ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "sesión requerida"})
		}
		for _, p := range perms {
			if claims.HasPermission(p) {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "permiso requerido: " + strings.Join(perms, " o "),
		})
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetClaims claims del usuario autenticado; nil fuera de rutas protegidas.
func GetClaims(c *fiber.Ctx) *access.Claims {
	claims, _ := c.Locals(LocalClaims).(*access.Claims)
	return claims
}

// GetToken token crudo de la petición.
func GetToken(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalToken).(string)
	return s
}

// GetTokenExpiry expiración del token; cero si no tiene.
func GetTokenExpiry(c *fiber.Ctx) time.Time {
	t, _ := c.Locals(LocalTokenExp).(time.Time)
	return t
}
