package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "secreto-de-pruebas"

func TestGenerateParse_IdaYVuelta(t *testing.T) {
	sub := Subject{
		UserID:       "u-1",
		TenantID:     "t-1",
		Roles:        []string{"SYSTEM_ADMIN"},
		ScopeCode:    "GLOBAL",
		ScopeLevel:   1,
		TenantAccess: "*",
	}
	tok, exp, err := Generate(testSecret, sub, "form-reporting", 30)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), exp, 5*time.Second)

	claims, err := Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "t-1", claims.TenantID)
	assert.Equal(t, []string{"SYSTEM_ADMIN"}, claims.Roles)
	assert.Equal(t, "*", claims.TenantAccess)
	assert.Equal(t, exp.Unix(), claims.ExpiresAtTime().Unix())
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, _, err := Generate(testSecret, Subject{UserID: "u-1"}, "x", 5)
	require.NoError(t, err)

	_, err = Parse("otro-secreto", tok)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, _, err := Generate(testSecret, Subject{UserID: "u-1"}, "x", -1)
	require.NoError(t, err)

	_, err = Parse(testSecret, tok)
	assert.Error(t, err)
}

func TestGenerate_SecretoVacio(t *testing.T) {
	_, _, err := Generate("", Subject{UserID: "u-1"}, "x", 5)
	assert.Error(t, err)
}
