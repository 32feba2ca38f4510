package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
)

func errorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error { return writeError(c, err) })
	return app
}

func decodeError(t *testing.T, app *fiber.App, req *http.Request) (int, dto.ErrorResponse) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestWriteError_MapeaErroresDeDominio(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: tablero %q", domain.ErrNotFound, "x"), http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrDuplicate, http.StatusConflict, "DUPLICATE"},
		{domain.ErrHeadOfficeExists, http.StatusConflict, "DUPLICATE"},
		{domain.ErrTemplateNotDraft, http.StatusConflict, "CONFLICT"},
		{domain.ErrInvalidTransition, http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("%w: la fecha límite ya pasó", domain.ErrSubmissionClosed), http.StatusConflict, "SUBMISSION_CLOSED"},
		{domain.ErrAccountLocked, http.StatusLocked, "ACCOUNT_LOCKED"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{domain.ErrMissingFormula, http.StatusBadRequest, "VALIDATION"},
		{fmt.Errorf("%w: json", errInvalidBody), http.StatusBadRequest, "INVALID_BODY"},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, body := decodeError(t, errorApp(tc.err), httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestWriteError_ErrorDesconocidoNoExponeDetalle(t *testing.T) {
	status, body := decodeError(t, errorApp(errors.New("pq: connection refused")), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL", body.Code)
	assert.NotContains(t, body.Message, "pq:")
}

func TestWriteError_ValidacionConDetallesPorCampo(t *testing.T) {
	var verrs domain.ValidationErrors
	verrs.Add("template_code", "ya existe")
	verrs.Add("items[0].value", "es obligatorio")

	status, body := decodeError(t, errorApp(verrs), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Equal(t, "ya existe", body.Details["template_code"])
	assert.Equal(t, "es obligatorio", body.Details["items[0].value"])
}

func TestErrorHandler_RutaInexistente(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	status, body := decodeError(t, app, httptest.NewRequest(http.MethodGet, "/nada", nil))

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

// ── bind ──────────────────────────────────────────────────────────────────────

type bindSample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
}

type querySample struct {
	dto.PageRequest
	From *time.Time `query:"from"`
}

func TestBindBody_ErroresDeValidacionUsanNombreJSON(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var in bindSample
		if err := bindBody(c, &in); err != nil {
			return writeError(c, err)
		}
		return c.JSON(in)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"demasiado largo","email":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	status, body := decodeError(t, app, req)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "longitud máxima 5", body.Details["name"])
	assert.Equal(t, "no es un email válido", body.Details["email"])
}

func TestBindBody_JSONMalformado(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var in bindSample
		return writeError(c, bindBody(c, &in))
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	status, body := decodeError(t, app, req)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_BODY", body.Code)
}

func TestBindOptionalBody_CuerpoVacioEsValido(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var in dto.RunReportRequest
		if err := bindOptionalBody(c, &in); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestBindQuery_FechasYPaginacion(t *testing.T) {
	var got querySample
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if err := bindQuery(c, &got); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?limit=10&offset=5&from=2024-03-01", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 10, got.Limit)
	assert.Equal(t, 5, got.Offset)
	require.NotNil(t, got.From)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *got.From)
}

func TestBindQuery_LimiteFueraDeRango(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		var in dto.PageRequest
		return writeError(c, bindQuery(c, &in))
	})

	status, body := decodeError(t, app, httptest.NewRequest(http.MethodGet, "/?limit=500", nil))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "valor máximo 100", body.Details["limit"])
}
