package deadline

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ontime/core"
)

var (
	daysRangeTag  = "reminderdays"
	daysRangeText = fmt.Sprintf("must be an integer between %d and %d", MinReminderDaysBefore, MaxReminderDaysBefore)
)

// InitValidators registers this package's validators. Call after core.InitValidators.
func InitValidators() {
	core.Validate.RegisterStructValidation(reminderConfigStructValidation, ReminderConfig{})
	core.RegisterCustomTranslation(daysRangeTag, daysRangeText)
}

// reminderConfigStructValidation enforces the days-before range only when the
// reminder is being enabled; the value is not consulted otherwise.
func reminderConfigStructValidation(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(ReminderConfig)
	if cfg.Enabled && (cfg.DaysBefore < MinReminderDaysBefore || cfg.DaysBefore > MaxReminderDaysBefore) {
		sl.ReportError(cfg.DaysBefore, "reminderDaysBefore", "DaysBefore", daysRangeTag, "")
	}
}
