package forms

import (
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/metrics"
)

var fieldValidator = validator.New()

// ValidateSubmission revisa obligatorios, reglas de validación y formato de email/URL.
// Los errores se identifican por ItemCode.
func ValidateSubmission(st *entity.TemplateStructure, responses []*entity.FormResponse) error {
	byItem := make(map[string]*entity.FormResponse, len(responses))
	for _, r := range responses {
		byItem[r.ItemID] = r
	}

	var errs domain.ValidationErrors
	for _, item := range st.Items {
		if !item.IsActive {
			continue
		}
		resp := byItem[item.ID]
		answered := resp.IsAnswered()
		if item.IsRequired && !answered {
			errs.Add(item.ItemCode, item.ItemName+" es obligatorio")
			continue
		}
		for _, rule := range st.Validations[item.ID] {
			if msg, ok := checkRule(rule, resp, answered); !ok {
				errs.Add(item.ItemCode, msg)
			}
		}
		if answered && resp.TextValue != nil {
			if msg, ok := checkFormat(item, *resp.TextValue); !ok {
				errs.Add(item.ItemCode, msg)
			}
		}
	}
	return errs.OrNil()
}

func checkRule(rule *entity.FormItemValidation, resp *entity.FormResponse, answered bool) (string, bool) {
	fail := func(def string) (string, bool) {
		if rule.ErrorMessage != "" {
			return rule.ErrorMessage, false
		}
		return def, false
	}

	if rule.ValidationType == entity.ValidationRequired {
		if !answered {
			return fail("campo obligatorio")
		}
		return "", true
	}
	if !answered {
		return "", true
	}

	text := ""
	if resp.TextValue != nil {
		text = *resp.TextValue
	}

	switch rule.ValidationType {
	case entity.ValidationRange:
		v, ok := metrics.NumericValue(resp)
		if !ok {
			return fail("se esperaba un valor numérico")
		}
		if rule.MinValue != nil && v.LessThan(*rule.MinValue) {
			return fail("el valor debe ser al menos " + rule.MinValue.String())
		}
		if rule.MaxValue != nil && v.GreaterThan(*rule.MaxValue) {
			return fail("el valor debe ser como máximo " + rule.MaxValue.String())
		}
	case entity.ValidationMinLength:
		if rule.MinLength != nil && utf8.RuneCountInString(text) < *rule.MinLength {
			return fail("texto demasiado corto")
		}
	case entity.ValidationMaxLength:
		if rule.MaxLength != nil && utf8.RuneCountInString(text) > *rule.MaxLength {
			return fail("texto demasiado largo")
		}
	case entity.ValidationPattern:
		if rule.Pattern == "" {
			return "", true
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil || !re.MatchString(text) {
			return fail("formato inválido")
		}
	case entity.ValidationEmail:
		if fieldValidator.Var(text, "email") != nil {
			return fail("email inválido")
		}
	}
	return "", true
}

func checkFormat(item *entity.FormItem, text string) (string, bool) {
	switch item.DataType {
	case entity.DataTypeEmail:
		if fieldValidator.Var(text, "email") != nil {
			return item.ItemName + ": email inválido", false
		}
	case entity.DataTypeURL:
		if fieldValidator.Var(text, "url") != nil {
			return item.ItemName + ": URL inválida", false
		}
	}
	return "", true
}

// ValidateRule revisa la coherencia de una regla al configurarla.
func ValidateRule(rule *entity.FormItemValidation) error {
	switch rule.ValidationType {
	case entity.ValidationRequired, entity.ValidationEmail:
	case entity.ValidationRange:
		if rule.MinValue == nil && rule.MaxValue == nil {
			return domain.Invalid("validations", "Range requiere mínimo o máximo")
		}
		if rule.MinValue != nil && rule.MaxValue != nil && rule.MinValue.GreaterThan(*rule.MaxValue) {
			return domain.Invalid("validations", "el mínimo no puede superar al máximo")
		}
	case entity.ValidationMinLength:
		if rule.MinLength == nil || *rule.MinLength < 0 {
			return domain.Invalid("validations", "MinLength requiere una longitud")
		}
	case entity.ValidationMaxLength:
		if rule.MaxLength == nil || *rule.MaxLength < 1 {
			return domain.Invalid("validations", "MaxLength requiere una longitud")
		}
	case entity.ValidationPattern:
		if _, err := regexp.Compile(rule.Pattern); err != nil || rule.Pattern == "" {
			return domain.Invalid("validations", "patrón inválido")
		}
	default:
		return domain.Invalid("validations", "tipo de validación desconocido: %s", rule.ValidationType)
	}
	return nil
}
