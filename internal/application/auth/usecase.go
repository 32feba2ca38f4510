package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/jhoicas/form-reporting-api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// LockoutPolicy bloqueo de cuentas tras intentos fallidos.
type LockoutPolicy struct {
	MaxFailedAttempts int
	LockoutMinutes    int
}

// AuthUseCase casos de uso de autenticación: login, logout, perfil y cambio de contraseña.
type AuthUseCase struct {
	userRepo  repository.UserRepository
	claims    *ClaimsBuilder
	blacklist ports.TokenBlacklist
	jwtCfg    JWTConfig
	lockout   LockoutPolicy
	now       func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, claims *ClaimsBuilder, blacklist ports.TokenBlacklist, jwtCfg JWTConfig, lockout LockoutPolicy) *AuthUseCase {
	if lockout.MaxFailedAttempts <= 0 {
		lockout.MaxFailedAttempts = 5
	}
	if lockout.LockoutMinutes <= 0 {
		lockout.LockoutMinutes = 15
	}
	return &AuthUseCase{userRepo: userRepo, claims: claims, blacklist: blacklist, jwtCfg: jwtCfg, lockout: lockout, now: time.Now}
}

// Login verifica usuario o email y contraseña, aplica el bloqueo por intentos fallidos
// y emite un JWT con los claims del usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByLogin(ctx, strings.TrimSpace(in.Login))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	now := uc.now()
	if user.IsLockedOut(now) {
		return nil, domain.ErrAccountLocked
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		user.AccessFailedCount++
		locked := user.AccessFailedCount >= uc.lockout.MaxFailedAttempts
		if locked {
			end := now.Add(time.Duration(uc.lockout.LockoutMinutes) * time.Minute)
			user.LockoutEnd = &end
			user.AccessFailedCount = 0
		}
		user.UpdatedAt = now
		if err := uc.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
		if locked {
			return nil, domain.ErrAccountLocked
		}
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: %w", domain.ErrForbidden, domain.ErrAccountInactive)
	}

	user.AccessFailedCount = 0
	user.LockoutEnd = nil
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	claims, err := uc.claims.Refresh(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	token, exp, err := jwt.Generate(uc.jwtCfg.Secret, jwt.Subject{
		UserID:       claims.UserID,
		TenantID:     claims.TenantID,
		Roles:        claims.Roles,
		ScopeCode:    claims.ScopeCode,
		ScopeLevel:   claims.ScopeLevel,
		TenantAccess: claims.TenantAccess,
	}, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, ExpiresAt: exp, User: ToClaimsResponse(claims)}, nil
}

// Logout revoca el token hasta su expiración y descarta los claims cacheados.
func (uc *AuthUseCase) Logout(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if token == "" {
		return domain.ErrUnauthorized
	}
	if expiresAt.IsZero() {
		expiresAt = uc.now().Add(time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute)
	}
	if err := uc.blacklist.Add(ctx, token, expiresAt); err != nil {
		return err
	}
	uc.claims.Invalidate(ctx, userID)
	return nil
}

// IsRevoked el token fue revocado por logout.
func (uc *AuthUseCase) IsRevoked(ctx context.Context, token string) (bool, error) {
	return uc.blacklist.Contains(ctx, token)
}

// Me claims completos del usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.ClaimsResponse, error) {
	claims, err := uc.claims.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToClaimsResponse(claims), nil
}

// ChangePassword verifica la contraseña actual y guarda la nueva.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, userID string, in dto.ChangePasswordRequest) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return domain.Invalid("current_password", "la contraseña actual no coincide")
	}
	if in.CurrentPassword == in.NewPassword {
		return domain.Invalid("new_password", "debe ser distinta de la actual")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = uc.now()
	return uc.userRepo.Update(ctx, user)
}

// ToClaimsResponse convierte claims de dominio a la respuesta de /api/auth/me.
func ToClaimsResponse(c *access.Claims) *dto.ClaimsResponse {
	if c == nil {
		return nil
	}
	exceptions := c.TenantAccessExceptions
	if exceptions == nil {
		exceptions = []string{}
	}
	return &dto.ClaimsResponse{
		UserID:                 c.UserID,
		UserName:               c.UserName,
		Email:                  c.Email,
		FullName:               c.FullName,
		EmployeeNumber:         c.EmployeeNumber,
		TenantID:               c.TenantID,
		TenantName:             c.TenantName,
		RegionID:               c.RegionID,
		DepartmentID:           c.DepartmentID,
		DepartmentName:         c.DepartmentName,
		Roles:                  c.Roles,
		Permissions:            c.Permissions,
		ScopeCode:              c.ScopeCode,
		ScopeLevel:             c.ScopeLevel,
		TenantAccess:           c.TenantAccess,
		TenantAccessExceptions: exceptions,
	}
}
