// Package reporting contiene reglas puras de reportes: programación de ejecuciones,
// validación de definiciones y valores de filtros.
package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// ParseClock "HH:MM" → horas y minutos.
func ParseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, domain.Invalid("execution_time", "hora inválida %q, se espera HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// Location zona horaria de la programación o la zona por defecto.
func Location(tz, fallback string) (*time.Location, error) {
	name := strings.TrimSpace(tz)
	if name == "" {
		name = fallback
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, domain.Invalid("timezone", "zona horaria desconocida %q", name)
	}
	return loc, nil
}

// ValidateSchedule revisa frecuencia, día, hora, zona y formato de salida.
func ValidateSchedule(s *entity.ReportSchedule, defaultTZ string) error {
	var errs domain.ValidationErrors
	switch s.ScheduleType {
	case entity.ScheduleDaily:
	case entity.ScheduleWeekly:
		if s.DayOfWeek == nil || *s.DayOfWeek < 0 || *s.DayOfWeek > 6 {
			errs.Add("day_of_week", "requerido entre 0 (domingo) y 6")
		}
	case entity.ScheduleMonthly:
		if s.DayOfMonth == nil || *s.DayOfMonth < 1 || *s.DayOfMonth > 31 {
			errs.Add("day_of_month", "requerido entre 1 y 31")
		}
	default:
		errs.Add("schedule_type", "debe ser Daily, Weekly o Monthly")
	}
	if _, _, err := ParseClock(s.ExecutionTime); err != nil {
		errs.Add("execution_time", "se espera HH:MM")
	}
	if _, err := Location(s.Timezone, defaultTZ); err != nil {
		errs.Add("timezone", "zona horaria desconocida")
	}
	if !ValidOutputFormat(s.OutputFormat) {
		errs.Add("output_format", "debe ser CSV, Excel o PDF")
	}
	return errs.OrNil()
}

// ValidOutputFormat formatos de exportación soportados.
func ValidOutputFormat(f string) bool {
	switch f {
	case entity.FormatCSV, entity.FormatExcel, entity.FormatPDF:
		return true
	}
	return false
}

// NextRun primera ejecución estrictamente posterior a after, devuelta en UTC.
// Los días de mes inexistentes (31 en abril) se ajustan al último día del mes.
func NextRun(s *entity.ReportSchedule, after time.Time, defaultTZ string) (time.Time, error) {
	hour, minute, err := ParseClock(s.ExecutionTime)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := Location(s.Timezone, defaultTZ)
	if err != nil {
		return time.Time{}, err
	}
	local := after.In(loc)
	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, hour, minute, 0, 0, loc)
	}

	switch s.ScheduleType {
	case entity.ScheduleDaily:
		next := at(local.Year(), local.Month(), local.Day())
		if !next.After(after) {
			next = at(local.Year(), local.Month(), local.Day()+1)
		}
		return next.UTC(), nil

	case entity.ScheduleWeekly:
		if s.DayOfWeek == nil {
			return time.Time{}, domain.Invalid("day_of_week", "requerido")
		}
		delta := (*s.DayOfWeek - int(local.Weekday()) + 7) % 7
		next := at(local.Year(), local.Month(), local.Day()+delta)
		if !next.After(after) {
			next = at(local.Year(), local.Month(), local.Day()+delta+7)
		}
		return next.UTC(), nil

	case entity.ScheduleMonthly:
		if s.DayOfMonth == nil {
			return time.Time{}, domain.Invalid("day_of_month", "requerido")
		}
		monthly := func(y int, m time.Month) time.Time {
			return at(y, m, min(*s.DayOfMonth, daysIn(y, m)))
		}
		next := monthly(local.Year(), local.Month())
		if !next.After(after) {
			first := time.Date(local.Year(), local.Month()+1, 1, 0, 0, 0, 0, loc)
			next = monthly(first.Year(), first.Month())
		}
		return next.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: frecuencia %q", domain.ErrInvalidInput, s.ScheduleType)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SplitValues separa valores de filtros In/Between ("a, b ,c").
func SplitValues(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Numeric intenta interpretar un valor de filtro como número.
func Numeric(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f, err == nil
}
