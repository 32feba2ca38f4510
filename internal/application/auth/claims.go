package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/rs/zerolog/log"
)

// ClaimsBuilder arma los claims de un usuario desde la BD y los guarda en cache.
type ClaimsBuilder struct {
	users   repository.UserRepository
	tenants repository.TenantRepository
	cache   ports.ClaimsCache
	now     func() time.Time
}

// NewClaimsBuilder construye el servicio de claims.
func NewClaimsBuilder(users repository.UserRepository, tenants repository.TenantRepository, cache ports.ClaimsCache) *ClaimsBuilder {
	return &ClaimsBuilder{users: users, tenants: tenants, cache: cache, now: time.Now}
}

// Get claims desde cache o recién construidos. Un fallo del cache no impide construirlos.
func (b *ClaimsBuilder) Get(ctx context.Context, userID string) (*access.Claims, error) {
	if cached, err := b.cache.Get(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("claims cache: lectura fallida")
	} else if cached != nil {
		return cached, nil
	}
	return b.Refresh(ctx, userID)
}

// Refresh reconstruye los claims ignorando el cache y lo actualiza.
func (b *ClaimsBuilder) Refresh(ctx context.Context, userID string) (*access.Claims, error) {
	claims, err := b.Build(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := b.cache.Set(ctx, claims); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("claims cache: escritura fallida")
	}
	return claims, nil
}

// Invalidate descarta los claims cacheados de los usuarios.
func (b *ClaimsBuilder) Invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	if err := b.cache.Invalidate(ctx, userIDs...); err != nil {
		log.Warn().Err(err).Strs("user_ids", userIDs).Msg("claims cache: invalidación fallida")
	}
}

// Build calcula identidad, roles, permisos, alcance y acceso a tenants del usuario.
func (b *ClaimsBuilder) Build(ctx context.Context, userID string) (*access.Claims, error) {
	user, err := b.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	c := &access.Claims{
		UserID:         user.ID,
		UserName:       user.UserName,
		Email:          user.Email,
		FullName:       user.FullName(),
		EmployeeNumber: user.EmployeeNumber,
		TenantID:       user.TenantID,
		DepartmentName: user.DepartmentName,
	}
	if user.DepartmentID != nil {
		c.DepartmentID = *user.DepartmentID
	}

	tenant, err := b.tenants.GetByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant != nil {
		c.TenantName = tenant.TenantName
		if tenant.RegionID != nil {
			c.RegionID = *tenant.RegionID
		}
	}

	roles, err := b.users.ListRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	c.Roles = make([]string, 0, len(roles))
	for _, r := range roles {
		if r.IsActive && r.RoleCode != "" {
			c.Roles = append(c.Roles, r.RoleCode)
		}
	}
	perms, err := b.users.ListPermissionCodes(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	c.Permissions = perms
	if c.Permissions == nil {
		c.Permissions = []string{}
	}

	if code, level, ok := access.HighestScope(roles); ok {
		c.ScopeCode = code
		c.ScopeLevel = level
		c.ScopeName = scopeName(code)
		c.TenantAccess = access.BuildTenantAccess(code, access.Subject{
			UserID:       c.UserID,
			TenantID:     c.TenantID,
			RegionID:     c.RegionID,
			DepartmentID: c.DepartmentID,
		})
	}

	grants, err := b.users.ListTenantAccess(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	now := b.now()
	c.TenantAccessExceptions = access.EffectiveExceptions(grants, func(a *entity.UserTenantAccess) bool {
		return a.IsEffective(now)
	})
	return c, nil
}

func scopeName(code string) string {
	for _, sl := range entity.DefaultScopeLevels {
		if strings.EqualFold(sl.ScopeCode, code) {
			return sl.ScopeName
		}
	}
	return ""
}
