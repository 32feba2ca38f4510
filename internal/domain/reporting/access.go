package reporting

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// Grantee identidad del solicitante frente a las concesiones de un reporte.
type Grantee struct {
	UserID       string
	RoleIDs      []string
	DepartmentID string
	// Manager tiene el permiso de administración de reportes.
	Manager bool
}

// EffectivePermission nivel más alto del solicitante sobre el reporte; "" sin acceso.
// Administrador y dueño editan; los reportes públicos o de sistema se pueden ejecutar.
func EffectivePermission(r *entity.ReportDefinition, g Grantee, grants []*entity.ReportAccessControl, now time.Time) string {
	if g.Manager || (r.OwnerUserID != "" && r.OwnerUserID == g.UserID) {
		return entity.PermissionEdit
	}
	best := ""
	if r.IsPublic || r.IsSystem {
		best = entity.PermissionRun
	}
	for _, a := range grants {
		if !a.IsActive || (a.ExpiryDate != nil && !a.ExpiryDate.After(now)) {
			continue
		}
		if !grantMatches(a, g) {
			continue
		}
		if entity.PermissionRank(a.PermissionLevel) > entity.PermissionRank(best) {
			best = a.PermissionLevel
		}
	}
	return best
}

func grantMatches(a *entity.ReportAccessControl, g Grantee) bool {
	switch a.AccessType {
	case entity.AccessUser:
		return a.UserID != nil && *a.UserID == g.UserID
	case entity.AccessRole:
		return a.RoleID != nil && slices.Contains(g.RoleIDs, *a.RoleID)
	case entity.AccessDepartment:
		return a.DepartmentID != nil && g.DepartmentID != "" && *a.DepartmentID == g.DepartmentID
	}
	return false
}

// Allows el nivel concedido cubre el requerido (Edit ⊃ Run ⊃ View).
func Allows(granted, required string) bool {
	return granted != "" && entity.PermissionRank(granted) >= entity.PermissionRank(required)
}

// CacheKeyPrefix prefijo común de las entradas de cache de un reporte.
func CacheKeyPrefix(reportID string) string {
	return "report:" + reportID + ":"
}

// CacheKey clave de cache de un resultado: depende de la versión de la definición,
// de los tenants visibles (nil = todos) y de los parámetros.
func CacheKey(reportID string, version int, tenantIDs []string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(version))
	b.WriteByte('|')
	if tenantIDs == nil {
		b.WriteByte('*')
	} else {
		ids := slices.Clone(tenantIDs)
		sort.Strings(ids)
		b.WriteString(strings.Join(ids, ","))
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return CacheKeyPrefix(reportID) + hex.EncodeToString(sum[:16])
}
