package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// seedNamespace base de los UUID deterministas: regenerar el script no cambia los IDs.
var seedNamespace = uuid.MustParse("6f1c8f8e-3a52-4d7e-9a57-0c1d3b6e2a10")

func seedID(kind, code string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+strings.ToUpper(code))).String()
}

type moduleSeed struct {
	code  string
	name  string
	icon  string
	perms []permSeed
}

type permSeed struct {
	code string
	name string
	kind string
}

var modules = []moduleSeed{
	{"Users", "Usuarios", "users", []permSeed{
		{entity.PermUsersView, "Ver usuarios", "View"},
		{entity.PermUsersManage, "Administrar usuarios", "Edit"},
	}},
	{"Roles", "Roles", "shield", []permSeed{
		{entity.PermRolesManage, "Administrar roles", "Edit"},
	}},
	{"Organization", "Organización", "building", []permSeed{
		{entity.PermOrgView, "Ver estructura", "View"},
		{entity.PermOrgManage, "Administrar estructura", "Edit"},
	}},
	{"Forms", "Formularios", "file-text", []permSeed{
		{entity.PermFormsManage, "Diseñar formularios", "Edit"},
	}},
	{"Submissions", "Envíos", "inbox", []permSeed{
		{entity.PermSubmissionsFill, "Diligenciar formularios", "Create"},
		{entity.PermSubmissionsReview, "Revisar envíos", "Approve"},
	}},
	{"Metrics", "Métricas", "activity", []permSeed{
		{entity.PermMetricsManage, "Administrar métricas", "Edit"},
	}},
	{"Reports", "Reportes", "bar-chart", []permSeed{
		{entity.PermReportsView, "Ver reportes", "View"},
		{entity.PermReportsManage, "Administrar reportes", "Export"},
	}},
	{"Dashboards", "Tableros", "layout", []permSeed{
		{entity.PermDashboardsView, "Ver tableros", "View"},
	}},
}

type roleSeed struct {
	code  string
	name  string
	scope string
	perms []string
}

var systemRoles = []roleSeed{
	{entity.RoleSystemAdmin, "Administrador del sistema", entity.ScopeGlobal, nil},
	{entity.RoleHOICTManager, "Gerente TIC casa matriz", entity.ScopeGlobal, []string{
		entity.PermUsersView, entity.PermUsersManage, entity.PermOrgView, entity.PermOrgManage,
		entity.PermFormsManage, entity.PermSubmissionsFill, entity.PermSubmissionsReview,
		entity.PermMetricsManage, entity.PermReportsView, entity.PermReportsManage, entity.PermDashboardsView,
	}},
	{entity.RoleExecutive, "Ejecutivo", entity.ScopeGlobal, []string{
		entity.PermOrgView, entity.PermReportsView, entity.PermDashboardsView,
	}},
	{entity.RoleAuditor, "Auditor", entity.ScopeRegional, []string{
		entity.PermUsersView, entity.PermOrgView, entity.PermSubmissionsReview,
		entity.PermReportsView, entity.PermDashboardsView,
	}},
	{entity.RoleEmployee, "Empleado", entity.ScopeTenant, []string{
		entity.PermSubmissionsFill, entity.PermDashboardsView,
	}},
}

type tenantRow struct {
	code, name, kind, region, location string
}

// Options entradas opcionales del script.
type Options struct {
	Tenants       io.Reader // CSV: tenant_code,tenant_name,tenant_type,region_code,location
	Latin1        bool
	AdminPassword string
	AdminTenant   string
}

var errTenantColumns = errors.New("se esperan al menos 3 columnas: tenant_code, tenant_name, tenant_type")

func readTenants(r io.Reader, latin1 bool) ([]tenantRow, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("leer CSV: %w", err)
	}
	var out []tenantRow
	for i, rec := range records {
		if i == 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "tenant_code") {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("línea %d: %w", i+1, errTenantColumns)
		}
		row := tenantRow{
			code: strings.ToUpper(strings.TrimSpace(rec[0])),
			name: strings.TrimSpace(rec[1]),
			kind: strings.TrimSpace(rec[2]),
		}
		if !entity.ValidTenantType(row.kind) {
			return nil, fmt.Errorf("línea %d: tipo de tenant %q inválido", i+1, row.kind)
		}
		if len(rec) > 3 {
			row.region = strings.ToUpper(strings.TrimSpace(rec[3]))
		}
		if len(rec) > 4 {
			row.location = strings.TrimSpace(rec[4])
		}
		out = append(out, row)
	}
	return out, nil
}

// Generate escribe el script SQL idempotente.
func Generate(w io.Writer, opts Options) error {
	var b strings.Builder
	b.WriteString("-- Catálogos base: alcances, módulos, permisos y roles de sistema.\n")
	b.WriteString("-- Generado por cmd/seed; se puede reejecutar.\n\n")

	b.WriteString("-- 1. Alcances\n")
	for _, sl := range entity.DefaultScopeLevels {
		fmt.Fprintf(&b, "INSERT INTO scope_levels (id, scope_name, scope_code, level, description) VALUES ('%s', '%s', '%s', %d, '%s')\n",
			seedID("scope", sl.ScopeCode), escapeSQL(sl.ScopeName), sl.ScopeCode, sl.Level, escapeSQL(sl.Description))
		b.WriteString("ON CONFLICT (scope_code) DO UPDATE SET scope_name = EXCLUDED.scope_name, level = EXCLUDED.level;\n")
	}

	b.WriteString("\n-- 2. Módulos y permisos\n")
	for i, m := range modules {
		fmt.Fprintf(&b, "INSERT INTO modules (id, module_name, module_code, icon, display_order) VALUES ('%s', '%s', '%s', '%s', %d)\n",
			seedID("module", m.code), escapeSQL(m.name), m.code, m.icon, i+1)
		b.WriteString("ON CONFLICT (module_code) DO UPDATE SET module_name = EXCLUDED.module_name;\n")
		for _, p := range m.perms {
			fmt.Fprintf(&b, "INSERT INTO permissions (id, module_id, permission_name, permission_code, permission_type)\n")
			fmt.Fprintf(&b, "SELECT '%s', id, '%s', '%s', '%s' FROM modules WHERE module_code = '%s'\n",
				seedID("perm", p.code), escapeSQL(p.name), p.code, p.kind, m.code)
			b.WriteString("ON CONFLICT (permission_code) DO NOTHING;\n")
		}
	}

	b.WriteString("\n-- 3. Roles de sistema\n")
	for _, r := range systemRoles {
		fmt.Fprintf(&b, "INSERT INTO roles (id, role_name, role_code, scope_level_id)\n")
		fmt.Fprintf(&b, "SELECT '%s', '%s', '%s', id FROM scope_levels WHERE scope_code = '%s'\n",
			seedID("role", r.code), escapeSQL(r.name), r.code, r.scope)
		b.WriteString("ON CONFLICT (role_code) DO NOTHING;\n")
		for _, p := range r.perms {
			fmt.Fprintf(&b, "INSERT INTO role_permissions (role_id, permission_id)\n")
			fmt.Fprintf(&b, "SELECT r.id, p.id FROM roles r, permissions p WHERE r.role_code = '%s' AND p.permission_code = '%s'\n", r.code, p)
			b.WriteString("ON CONFLICT DO NOTHING;\n")
		}
	}

	if opts.Tenants != nil {
		tenants, err := readTenants(opts.Tenants, opts.Latin1)
		if err != nil {
			return err
		}
		b.WriteString("\n-- 4. Tenants\n")
		for _, t := range tenants {
			region := "NULL"
			if t.region != "" {
				region = fmt.Sprintf("(SELECT id FROM regions WHERE upper(region_code) = '%s')", escapeSQL(t.region))
			}
			fmt.Fprintf(&b, "INSERT INTO tenants (id, tenant_type, tenant_code, tenant_name, region_id, location, created_by) VALUES ('%s', '%s', '%s', '%s', %s, '%s', 'seed')\n",
				seedID("tenant", t.code), t.kind, escapeSQL(t.code), escapeSQL(t.name), region, escapeSQL(t.location))
			b.WriteString("ON CONFLICT DO NOTHING;\n")
		}
	}

	if opts.AdminPassword != "" {
		if opts.AdminTenant == "" {
			return errors.New("-admin-tenant es obligatorio junto con -admin-password")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash contraseña: %w", err)
		}
		adminID := seedID("user", "admin")
		b.WriteString("\n-- 5. Usuario administrador\n")
		fmt.Fprintf(&b, "INSERT INTO users (id, tenant_id, user_name, email, password_hash, first_name)\n")
		fmt.Fprintf(&b, "SELECT '%s', id, 'admin', 'admin@localhost', '%s', 'Administrador' FROM tenants WHERE lower(tenant_code) = lower('%s')\n",
			adminID, string(hash), escapeSQL(opts.AdminTenant))
		b.WriteString("ON CONFLICT DO NOTHING;\n")
		fmt.Fprintf(&b, "INSERT INTO user_roles (user_id, role_id, assigned_by)\n")
		fmt.Fprintf(&b, "SELECT '%s', id, 'seed' FROM roles WHERE role_code = '%s'\n", adminID, entity.RoleSystemAdmin)
		b.WriteString("ON CONFLICT DO NOTHING;\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
