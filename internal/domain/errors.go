package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrUserNotFound    = errors.New("usuario no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrAccountLocked   = errors.New("cuenta bloqueada temporalmente")
	ErrAccountInactive = errors.New("cuenta inactiva")
	ErrUnavailable     = errors.New("servicio no disponible")

	// Roles
	ErrProtectedRole = errors.New("rol de sistema protegido")
	ErrRoleInUse     = errors.New("el rol tiene usuarios asignados")

	// Organización
	ErrHeadOfficeExists = errors.New("ya existe una oficina central")
	ErrLastHeadOffice   = errors.New("no se puede eliminar o cambiar la única oficina central")
	ErrHasDependents    = errors.New("el recurso tiene registros dependientes")

	// Formularios
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrTemplateNotDraft  = errors.New("la plantilla solo se puede modificar en borrador")
	ErrSubmissionClosed  = errors.New("el plazo de envío está cerrado")

	// Métricas
	ErrMissingFormula       = errors.New("el mapeo calculado requiere una fórmula")
	ErrMissingExpectedValue = errors.New("el mapeo de cumplimiento requiere un valor esperado")
	ErrDivisionByZero       = errors.New("división por cero en la fórmula")
)

// ValidationError describe un problema en un campo concreto.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors acumula errores de campo. Cumple errors.Is(err, ErrInvalidInput).
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validación: " + strings.Join(parts, "; ")
}

// Is permite comparar con ErrInvalidInput.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// Add agrega un error de campo.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// OrNil devuelve nil cuando no se acumularon errores.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Invalid construye un error de validación de un solo campo.
func Invalid(field, format string, args ...interface{}) error {
	return ValidationErrors{{Field: field, Message: fmt.Sprintf(format, args...)}}
}
