// Package forms convierte respuestas crudas a valores tipados según el tipo de dato del ítem
// y valida un envío completo contra las reglas de la plantilla.
package forms

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Input valor recibido para un ítem. Se usa el campo que corresponda al tipo de dato;
// Value es la forma textual genérica.
type Input struct {
	ItemID       string
	Value        *string
	NumericValue *decimal.Decimal
	BooleanValue *bool
	DateValue    *time.Time
	OptionID     *string
	OptionIDs    []string
}

var dateLayouts = []string{time.RFC3339, time.DateTime, "2006-01-02T15:04", time.DateOnly}
var timeLayouts = []string{"15:04:05", "15:04"}

// Apply fija en resp los valores tipados de in. options son las opciones activas del ítem.
// Limpia los valores anteriores de la respuesta.
func Apply(item *entity.FormItem, options []*entity.FormItemOption, in Input, resp *entity.FormResponse) error {
	resp.TextValue, resp.NumericValue, resp.BooleanValue, resp.DateValue = nil, nil, nil, nil
	resp.ApplyOption(nil)

	text := ""
	if in.Value != nil {
		text = strings.TrimSpace(*in.Value)
	}

	switch {
	case item.DataType == entity.DataTypeMultiSelect:
		return applyMulti(item, options, in, text, resp)

	case entity.IsOptionType(item.DataType):
		id := ""
		if in.OptionID != nil {
			id = *in.OptionID
		}
		if id == "" && text == "" {
			return nil
		}
		opt := findOption(options, id, text)
		if opt == nil {
			return domain.Invalid(item.ItemCode, "opción no válida para %s", item.ItemName)
		}
		resp.ApplyOption(opt)

	case isNumeric(item.DataType):
		switch {
		case in.NumericValue != nil:
			v := *in.NumericValue
			resp.NumericValue = &v
		case text != "":
			v, err := decimal.NewFromString(text)
			if err != nil {
				return domain.Invalid(item.ItemCode, "%s debe ser numérico", item.ItemName)
			}
			resp.NumericValue = &v
		}

	case item.DataType == entity.DataTypeBoolean:
		switch {
		case in.BooleanValue != nil:
			b := *in.BooleanValue
			resp.BooleanValue = &b
		case text != "":
			b, ok := parseBool(text)
			if !ok {
				return domain.Invalid(item.ItemCode, "%s debe ser Sí o No", item.ItemName)
			}
			resp.BooleanValue = &b
		}

	case item.DataType == entity.DataTypeDate || item.DataType == entity.DataTypeDateTime:
		switch {
		case in.DateValue != nil:
			d := *in.DateValue
			resp.DateValue = &d
		case text != "":
			d, ok := parseTime(text, dateLayouts)
			if !ok {
				return domain.Invalid(item.ItemCode, "%s no es una fecha válida", item.ItemName)
			}
			resp.DateValue = &d
		}

	case item.DataType == entity.DataTypeTime:
		if text != "" {
			if _, ok := parseTime(text, timeLayouts); !ok {
				return domain.Invalid(item.ItemCode, "%s no es una hora válida (HH:MM)", item.ItemName)
			}
			resp.TextValue = &text
		}

	default:
		if text != "" {
			resp.TextValue = &text
		}
	}
	return nil
}

func applyMulti(item *entity.FormItem, options []*entity.FormItemOption, in Input, text string, resp *entity.FormResponse) error {
	ids := in.OptionIDs
	var values []string
	if len(ids) == 0 && text != "" {
		for _, v := range strings.Split(text, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	var picked []string
	for _, id := range ids {
		opt := findOption(options, id, "")
		if opt == nil {
			return domain.Invalid(item.ItemCode, "opción no válida para %s", item.ItemName)
		}
		picked = append(picked, opt.OptionValue)
	}
	for _, v := range values {
		opt := findOption(options, "", v)
		if opt == nil {
			return domain.Invalid(item.ItemCode, "opción %q no válida para %s", v, item.ItemName)
		}
		picked = append(picked, opt.OptionValue)
	}
	if len(picked) == 0 {
		return nil
	}
	joined := strings.Join(picked, ",")
	resp.TextValue = &joined
	return nil
}

func findOption(options []*entity.FormItemOption, id, value string) *entity.FormItemOption {
	for _, o := range options {
		if !o.IsActive {
			continue
		}
		if id != "" && o.ID == id {
			return o
		}
		if id == "" && value != "" && strings.EqualFold(o.OptionValue, value) {
			return o
		}
	}
	return nil
}

func isNumeric(dataType string) bool {
	return slices.Contains([]string{
		entity.DataTypeNumber, entity.DataTypeDecimal, entity.DataTypeCurrency,
		entity.DataTypePercentage, entity.DataTypeSlider,
	}, dataType)
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "si", "sí", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	}
	return false, false
}

func parseTime(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DisplayValue representación legible de una respuesta (exportes y desgloses).
func DisplayValue(r *entity.FormResponse) string {
	if r == nil {
		return ""
	}
	switch {
	case r.TextValue != nil:
		return *r.TextValue
	case r.NumericValue != nil:
		return r.NumericValue.String()
	case r.BooleanValue != nil:
		if *r.BooleanValue {
			return "Yes"
		}
		return "No"
	case r.DateValue != nil:
		return r.DateValue.Format(time.DateOnly)
	}
	return ""
}

// Period valida año y mes de reporte.
func Period(year, month int) error {
	if year < 2000 || year > 2100 {
		return domain.Invalid("reporting_year", "año fuera de rango: %d", year)
	}
	if month < 1 || month > 12 {
		return domain.Invalid("reporting_month", "mes fuera de rango: %d", month)
	}
	return nil
}

// PeriodLabel "2025-03".
func PeriodLabel(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
