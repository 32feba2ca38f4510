package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserUC(f *fixture) *usecase.UserUseCase {
	s := f.store
	return usecase.NewUserUseCase(s.Users, s.Tenants, s.Departments, s.Roles, f.scope, f.inv)
}

func TestUserCreate_HasheaYAsignaRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := &entity.Role{RoleCode: entity.RoleEmployee, RoleName: "Empleado", IsActive: true}
	require.NoError(t, f.store.Roles.Create(ctx, role))

	out, err := newUserUC(f).Create(ctx, f.admin, dto.CreateUserRequest{
		TenantID:     tenantF1,
		DepartmentID: strp(deptICT),
		UserName:     " mperez ",
		Email:        "mperez@acme.test",
		Password:     "clave-segura",
		FirstName:    "María",
		LastName:     "Pérez",
		RoleIDs:      []string{role.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "mperez", out.UserName)

	stored := f.store.Users.Items[out.ID]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("clave-segura")))
	require.Len(t, f.store.Users.Roles[out.ID], 1)
	assert.Equal(t, role.ID, f.store.Users.Roles[out.ID][0].ID)
}

func TestUserCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	uc := newUserUC(f)
	ctx := context.Background()
	base := dto.CreateUserRequest{TenantID: tenantF1, UserName: "LOCAL", Email: "LOCAL@acme.test", Password: "clave-segura", FirstName: "X", LastName: "Y"}

	_, err := uc.Create(ctx, f.admin, base)
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)

	wrongDept := base
	wrongDept.UserName, wrongDept.Email = "nuevo", "nuevo@acme.test"
	wrongDept.TenantID = tenantHO
	wrongDept.DepartmentID = strp(deptICT)
	_, err = uc.Create(ctx, f.admin, wrongDept)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	outside := base
	outside.UserName, outside.Email = "nuevo", "nuevo@acme.test"
	outside.TenantID = tenantHO
	_, err = uc.Create(ctx, f.local, outside)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	badRole := base
	badRole.UserName, badRole.Email = "nuevo", "nuevo@acme.test"
	badRole.RoleIDs = []string{"no-existe"}
	_, err = uc.Create(ctx, f.admin, badRole)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserGetByID_FueraDeAlcance(t *testing.T) {
	f := newFixture(t)
	uc := newUserUC(f)
	ctx := context.Background()

	_, err := uc.GetByID(ctx, f.local, userAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	self, err := uc.GetByID(ctx, f.local, userLocal)
	require.NoError(t, err)
	assert.Equal(t, "local", self.UserName)

	_, err = uc.GetByID(ctx, f.admin, "no-existe")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserList_FiltraPorAlcance(t *testing.T) {
	f := newFixture(t)
	uc := newUserUC(f)
	ctx := context.Background()

	all, err := uc.List(ctx, f.admin, dto.UserListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Page.Total)

	own, err := uc.List(ctx, f.local, dto.UserListRequest{})
	require.NoError(t, err)
	require.Len(t, own.Items, 1)
	assert.Equal(t, userLocal, own.Items[0].ID)
}

func TestUserSetActive_NoPuedeDesactivarseASiMismo(t *testing.T) {
	f := newFixture(t)
	uc := newUserUC(f)
	ctx := context.Background()

	assert.ErrorIs(t, uc.SetActive(ctx, f.admin, userAdmin, false), domain.ErrInvalidInput)

	require.NoError(t, uc.SetActive(ctx, f.admin, userLocal, false))
	assert.False(t, f.store.Users.Items[userLocal].IsActive)
	assert.Equal(t, []string{userLocal}, f.inv.IDs)
}

func TestUserResetPassword_Desbloquea(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	until := time.Now().Add(time.Hour)
	f.store.Users.Items[userLocal].LockoutEnd = &until
	f.store.Users.Items[userLocal].AccessFailedCount = 4

	require.NoError(t, newUserUC(f).ResetPassword(ctx, f.admin, userLocal, dto.ResetPasswordRequest{NewPassword: "otra-clave-123"}))
	u := f.store.Users.Items[userLocal]
	assert.Nil(t, u.LockoutEnd)
	assert.Zero(t, u.AccessFailedCount)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("otra-clave-123")))
}

func TestUserGrantTenantAccess(t *testing.T) {
	f := newFixture(t)
	uc := newUserUC(f)
	ctx := context.Background()

	err := uc.GrantTenantAccess(ctx, f.admin, userLocal, dto.GrantTenantAccessRequest{TenantID: tenantF1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "tenant principal")

	past := time.Now().Add(-time.Hour)
	err = uc.GrantTenantAccess(ctx, f.admin, userLocal, dto.GrantTenantAccessRequest{TenantID: tenantHO, ExpiryDate: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "vencida")

	future := time.Now().Add(24 * time.Hour)
	require.NoError(t, uc.GrantTenantAccess(ctx, f.admin, userLocal, dto.GrantTenantAccessRequest{TenantID: tenantHO, ExpiryDate: &future, Reason: "auditoría"}))

	rows, err := uc.ListTenantAccess(ctx, f.admin, userLocal)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsEffective)

	require.NoError(t, uc.RevokeTenantAccess(ctx, f.admin, userLocal, tenantHO))
	rows, err = uc.ListTenantAccess(ctx, f.admin, userLocal)
	require.NoError(t, err)
	assert.False(t, rows[0].IsEffective)
}
