package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

func TestGenerate_CatalogosBase(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, Options{}))
	sql := buf.String()

	for _, sl := range entity.DefaultScopeLevels {
		assert.Contains(t, sql, "'"+sl.ScopeCode+"'")
	}
	assert.Contains(t, sql, "'"+entity.PermReportsManage+"'")
	assert.Contains(t, sql, "role_code = '"+entity.RoleEmployee+"' AND p.permission_code = '"+entity.PermSubmissionsFill+"'")
	assert.NotContains(t, sql, "INSERT INTO tenants")
	assert.NotContains(t, sql, "INSERT INTO users")
}

func TestGenerate_IDsDeterministas(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, Generate(&a, Options{}))
	require.NoError(t, Generate(&b, Options{}))
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, seedID("role", "employee"), seedID("role", "EMPLOYEE"))
}

func TestGenerate_TenantsDesdeCSVLatin1(t *testing.T) {
	// "Fábrica Norte" en ISO-8859-1 (á = 0xE1).
	csv := []byte("tenant_code,tenant_name,tenant_type,region_code,location\nfn01,F\xe1brica Norte,Factory,r1,O'Higgins\n")

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, Options{Tenants: bytes.NewReader(csv), Latin1: true}))
	sql := buf.String()

	assert.Contains(t, sql, "'FN01', 'Fábrica Norte'")
	assert.Contains(t, sql, "upper(region_code) = 'R1'")
	assert.Contains(t, sql, "'O''Higgins'")
}

func TestGenerate_TipoDeTenantInvalido(t *testing.T) {
	err := Generate(&bytes.Buffer{}, Options{Tenants: strings.NewReader("X1,Sede,Oficina\n")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Oficina")
}

func TestGenerate_AdminRequiereTenant(t *testing.T) {
	err := Generate(&bytes.Buffer{}, Options{AdminPassword: "secreto123"})
	require.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, Options{AdminPassword: "secreto123", AdminTenant: "HO"}))
	assert.Contains(t, buf.String(), "INSERT INTO user_roles")
	assert.NotContains(t, buf.String(), "secreto123")
}
