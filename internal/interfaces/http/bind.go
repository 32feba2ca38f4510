package http

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/form-reporting-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores usan el nombre JSON (o de query) del campo.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

func init() {
	// Fechas en query: YYYY-MM-DD o RFC 3339.
	fiber.SetParserDecoder(fiber.ParserConfig{
		IgnoreUnknownKeys: true,
		ZeroEmpty:         true,
		ParserType: []fiber.ParserType{{
			Customtype: time.Time{},
			Converter:  parseTime,
		}},
	})
}

func parseTime(s string) reflect.Value {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return reflect.ValueOf(t)
		}
	}
	return reflect.Value{}
}

// bindBody decodifica el cuerpo JSON y valida las etiquetas `validate`.
func bindBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return validateStruct(dst)
}

// bindOptionalBody como bindBody, pero un cuerpo vacío deja dst con sus valores cero.
func bindOptionalBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return validateStruct(dst)
	}
	return bindBody(c, dst)
}

// bindQuery decodifica y valida los parámetros de consulta.
func bindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return validateStruct(dst)
}

func validateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	var out domain.ValidationErrors
	for _, fe := range verrs {
		out.Add(fieldPath(fe), validationMessage(fe))
	}
	return out
}

// fieldPath ruta sin el nombre del struct raíz (items[0].value).
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return "es obligatorio"
	case "email":
		return "no es un email válido"
	case "uuid", "uuid4":
		return "no es un identificador válido"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return "longitud mínima " + fe.Param()
		}
		return "valor mínimo " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return "longitud máxima " + fe.Param()
		}
		return "valor máximo " + fe.Param()
	case "len":
		return "longitud exacta " + fe.Param()
	}
	return "no cumple la regla " + fe.Tag()
}

// pathID parámetro de ruta obligatorio.
func pathID(c *fiber.Ctx, name string) (string, error) {
	id := strings.TrimSpace(c.Params(name))
	if id == "" {
		return "", domain.Invalid(name, "es obligatorio")
	}
	return id, nil
}
