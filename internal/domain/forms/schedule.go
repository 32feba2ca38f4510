package forms

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// NextDueDate próxima fecha límite estrictamente posterior a base, en la zona de base.
// nil si la regla no tiene frecuencia o su configuración no produce fecha.
func NextDueDate(r *entity.SubmissionRule, base time.Time) *time.Time {
	h, m := dueClock(r.DueTime)
	var due *time.Time
	switch strings.ToLower(r.Frequency) {
	case "once":
		due = r.SpecificDueDate
	case "daily":
		d := at(base.Year(), base.Month(), base.Day(), h, m, base.Location())
		if !d.After(base) {
			d = d.AddDate(0, 0, 1)
		}
		due = &d
	case "weekly":
		due = weeklyDue(base, r.DueDay, h, m)
	case "monthly":
		due = monthlyDue(base, r.DueDay, h, m)
	case "quarterly":
		due = quarterlyDue(base, r.DueDay, h, m)
	case "annually":
		due = annualDue(base, r.DueDay, r.DueMonth, h, m)
	}
	return due
}

func at(y int, mo time.Month, d, h, m int, loc *time.Location) time.Time {
	return time.Date(y, mo, d, h, m, 0, 0, loc)
}

func dueClock(s *string) (int, int) {
	if s == nil {
		return 0, 0
	}
	t, err := time.Parse("15:04", strings.TrimSpace(*s))
	if err != nil {
		return 0, 0
	}
	return t.Hour(), t.Minute()
}

func daysIn(y int, mo time.Month) int {
	return time.Date(y, mo+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func weeklyDue(base time.Time, day *int, h, m int) *time.Time {
	if day == nil || *day < 0 || *day > 6 {
		return nil
	}
	days := (*day - int(base.Weekday()) + 7) % 7
	d := at(base.Year(), base.Month(), base.Day()+days, h, m, base.Location())
	if !d.After(base) {
		d = d.AddDate(0, 0, 7)
	}
	return &d
}

// monthDue día day del mes dado; nil si el mes no tiene ese día.
func monthDue(y int, mo time.Month, day, h, m int, loc *time.Location) *time.Time {
	n := daysIn(y, mo)
	if day == entity.LastDayOfMonth {
		day = n
	}
	if day < 1 || day > n {
		return nil
	}
	d := at(y, mo, day, h, m, loc)
	return &d
}

func monthlyDue(base time.Time, day *int, h, m int) *time.Time {
	if day == nil || (*day != entity.LastDayOfMonth && (*day < 1 || *day > 31)) {
		return nil
	}
	if d := monthDue(base.Year(), base.Month(), *day, h, m, base.Location()); d != nil && d.After(base) {
		return d
	}
	next := time.Date(base.Year(), base.Month()+1, 1, 0, 0, 0, 0, base.Location())
	return monthDue(next.Year(), next.Month(), *day, h, m, base.Location())
}

func quarterlyDue(base time.Time, day *int, h, m int) *time.Time {
	if day == nil {
		return nil
	}
	quarterEnd := ((int(base.Month())-1)/3)*3 + 3
	for mo := int(base.Month()); mo <= quarterEnd; mo++ {
		if d := monthlyDue(time.Date(base.Year(), time.Month(mo), 1, 0, 0, 0, 0, base.Location()), day, h, m); d != nil && d.After(base) {
			return d
		}
	}
	next := time.Date(base.Year(), time.Month(quarterEnd+1), 1, 0, 0, 0, 0, base.Location())
	return monthlyDue(next, day, h, m)
}

func annualDue(base time.Time, day, month *int, h, m int) *time.Time {
	if day == nil || month == nil || *month < 1 || *month > 12 {
		return nil
	}
	for _, y := range []int{base.Year(), base.Year() + 1} {
		if d := monthlyDue(time.Date(y, time.Month(*month), 1, 0, 0, 0, 0, base.Location()), day, h, m); d != nil && d.After(base) {
			return d
		}
	}
	return nil
}

// ValidateSubmissionRule coherencia entre frecuencia y día/mes/fecha de la regla.
func ValidateSubmissionRule(r *entity.SubmissionRule) error {
	var errs domain.ValidationErrors
	if strings.TrimSpace(r.RuleName) == "" {
		errs.Add("rule_name", "el nombre es obligatorio")
	}
	if r.GracePeriodDays < 0 {
		errs.Add("grace_period_days", "no puede ser negativo")
	}
	if r.DueTime != nil {
		if _, err := time.Parse("15:04", strings.TrimSpace(*r.DueTime)); err != nil {
			errs.Add("due_time", "formato HH:MM")
		}
	}
	monthDay := func() bool {
		return r.DueDay != nil && (*r.DueDay == entity.LastDayOfMonth || (*r.DueDay >= 1 && *r.DueDay <= 31))
	}
	switch strings.ToLower(r.Frequency) {
	case "", "daily":
	case "weekly":
		if r.DueDay == nil || *r.DueDay < 0 || *r.DueDay > 6 {
			errs.Add("due_day", "semanal requiere un día entre 0 (domingo) y 6")
		}
	case "monthly", "quarterly":
		if !monthDay() {
			errs.Add("due_day", "requiere un día entre 1 y 31, o -1 para el último día")
		}
	case "annually":
		if !monthDay() {
			errs.Add("due_day", "requiere un día entre 1 y 31, o -1 para el último día")
		}
		if r.DueMonth == nil || *r.DueMonth < 1 || *r.DueMonth > 12 {
			errs.Add("due_month", "anual requiere un mes entre 1 y 12")
		}
	case "once":
		if r.SpecificDueDate == nil {
			errs.Add("specific_due_date", "una única vez requiere la fecha límite")
		}
	default:
		errs.Add("frequency", fmt.Sprintf("frecuencia %q no soportada", r.Frequency))
	}
	if _, err := ParseReminderDays(r.ReminderDaysBefore); err != nil {
		errs.Add("reminder_days_before", err.Error())
	}
	return errs.OrNil()
}

// ParseReminderDays "7,3,1" → [7 3 1].
func ParseReminderDays(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("días de recordatorio inválidos: %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// Timing resultado de evaluar un envío contra la fecha límite de su plantilla.
type Timing struct {
	CanSubmit      bool
	IsLate         bool
	WithinGrace    bool
	DueDate        *time.Time
	GracePeriodEnd *time.Time
	Message        string
}

// PeriodDueDate fecha límite de un período de reporte: la primera que la regla fija
// una vez cerrado el mes (UTC).
func PeriodDueDate(r *entity.SubmissionRule, year, month int) *time.Time {
	closed := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return NextDueDate(r, closed.Add(-time.Nanosecond))
}

// EvaluateTiming compara submittedAt con la fecha límite del período de reporte.
// Sin regla o sin fecha calculable el envío se permite.
func EvaluateTiming(r *entity.SubmissionRule, year, month int, submittedAt time.Time) Timing {
	if r == nil {
		return Timing{CanSubmit: true, Message: "sin reglas de envío"}
	}
	due := PeriodDueDate(r, year, month)
	if due == nil {
		return Timing{CanSubmit: true, Message: "sin fecha límite calculable"}
	}
	graceEnd := due.AddDate(0, 0, r.GracePeriodDays)
	t := Timing{DueDate: due, GracePeriodEnd: &graceEnd}
	t.IsLate = submittedAt.After(*due)
	t.WithinGrace = t.IsLate && !submittedAt.After(graceEnd)
	t.CanSubmit = !t.IsLate || t.WithinGrace || r.AllowLateSubmission
	switch {
	case !t.IsLate:
		t.Message = "envío a tiempo"
	case t.WithinGrace:
		t.Message = "envío tardío dentro del período de gracia"
	case r.AllowLateSubmission:
		t.Message = "envío tardío permitido por la regla"
	default:
		t.Message = fmt.Sprintf("la fecha límite %s ya pasó y la regla no admite envíos tardíos", due.Format("2006-01-02 15:04"))
	}
	return t
}

// NeedsReminder la próxima fecha límite cae a uno de los días de recordatorio de forDate.
func NeedsReminder(r *entity.SubmissionRule, forDate time.Time) bool {
	if r.Status != entity.RuleActive {
		return false
	}
	days, err := ParseReminderDays(r.ReminderDaysBefore)
	if err != nil || len(days) == 0 {
		return false
	}
	due := NextDueDate(r, forDate)
	if due == nil {
		return false
	}
	y, mo, d := forDate.Date()
	from := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	y, mo, d = due.In(forDate.Location()).Date()
	to := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	return slices.Contains(days, int(to.Sub(from).Hours()/24))
}
