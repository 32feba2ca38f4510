package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Subject datos de identidad que viajan en el token. El resto de claims
// (permisos, excepciones de acceso) se resuelve en el servidor y se cachea.
type Subject struct {
	UserID       string
	TenantID     string
	Roles        []string
	ScopeCode    string
	ScopeLevel   int
	TenantAccess string
}

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string   `json:"user_id"`
	TenantID     string   `json:"tenant_id"`
	Roles        []string `json:"roles,omitempty"`
	ScopeCode    string   `json:"scope_code,omitempty"`
	ScopeLevel   int      `json:"scope_level,omitempty"`
	TenantAccess string   `json:"tenant_access,omitempty"`
}

// Generate genera un token JWT firmado (HS256) y devuelve también su expiración.
func Generate(secret string, sub Subject, issuer string, expMinutes int) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	exp := now.Add(time.Duration(expMinutes) * time.Minute)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID:       sub.UserID,
		TenantID:     sub.TenantID,
		Roles:        sub.Roles,
		ScopeCode:    sub.ScopeCode,
		ScopeLevel:   sub.ScopeLevel,
		TenantAccess: sub.TenantAccess,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse valida el token y devuelve sus claims.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("claims inválidos: user_id vacío")
	}
	return claims, nil
}

// ExpiresAtTime devuelve la expiración del token o el instante cero si no tiene.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
