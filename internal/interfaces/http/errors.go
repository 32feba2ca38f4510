package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/rs/zerolog/log"
)

// errInvalidBody cuerpo o query imposibles de decodificar.
var errInvalidBody = errors.New("cuerpo inválido")

// errorMapping estado HTTP y código estable por error de dominio; el primero que coincida gana.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{errInvalidBody, fiber.StatusBadRequest, "INVALID_BODY"},
	{domain.ErrMissingFormula, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrMissingExpectedValue, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrDivisionByZero, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUserNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrHeadOfficeExists, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrProtectedRole, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrRoleInUse, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrLastHeadOffice, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrHasDependents, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrTemplateNotDraft, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrSubmissionClosed, fiber.StatusConflict, "SUBMISSION_CLOSED"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrAccountLocked, fiber.StatusLocked, "ACCOUNT_LOCKED"},
	{domain.ErrAccountInactive, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUnavailable, fiber.StatusServiceUnavailable, "UNAVAILABLE"},
}

// writeError traduce err a dto.ErrorResponse. Los errores no tipados se registran y se
// responden con un mensaje genérico.
func writeError(c *fiber.Ctx, err error) error {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, v := range verrs {
			details[v.Field] = v.Message
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Details: details})
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	log.Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("request_id", requestID(c)).
		Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno, intente más tarde"})
}

// ErrorHandler manejador global de Fiber para errores devueltos por handlers y middlewares.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "INTERNAL"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			code = "INVALID_BODY"
		}
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: code, Message: fe.Message})
	}
	return writeError(c, err)
}
