package deadline

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/ontime/core"
)

// display form used in email bodies
const emailDateLayout = "January 2, 2006"

type (
	ReminderEmailData struct {
		Recipient          string
		DeadlineTitle      string
		InstitutionName    string
		DeadlineDate       string
		DaysUntil          int
		DaysUntilPlural    string
		InstitutionWebsite string
	}

	ReminderConfirmationEmailData struct {
		Recipient          string
		DeadlineTitle      string
		InstitutionName    string
		DeadlineDate       string
		ReminderDate       string // the day the reminder will fire
		DaysBefore         int
		DaysBeforePlural   string
		InstitutionWebsite string
	}

	UnsubscribeConfirmationEmailData struct {
		DeadlineTitle string
		AllReminders  bool
	}
)

// NewReminderEmail builds the "deadline is coming up" message.
func NewReminderEmail(to mail.Address, d TrackedDeadline, daysUntil int) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      fmt.Sprintf("Reminder: %s deadline in %d %s", d.Title, daysUntil, pluralDays(daysUntil)),
		TemplateName: "reminder",
		TemplateData: ReminderEmailData{
			Recipient:          to.Address,
			DeadlineTitle:      d.Title,
			InstitutionName:    d.InstitutionName,
			DeadlineDate:       formatEmailDate(d.Date),
			DaysUntil:          daysUntil,
			DaysUntilPlural:    pluralDays(daysUntil),
			InstitutionWebsite: d.InstitutionWebsite,
		},
	}
}

// NewReminderConfirmationEmail builds the "reminder scheduled" confirmation,
// including the date the reminder will actually fire.
func NewReminderConfirmationEmail(to mail.Address, d TrackedDeadline) *core.EmailMessage {
	var reminderDate string
	if due, err := d.DateValue(); err == nil {
		reminderDate = due.AddDate(0, 0, -d.ReminderDaysBefore).Format(emailDateLayout)
	}
	return &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      fmt.Sprintf("Reminder scheduled: %s at %s", d.Title, d.InstitutionName),
		TemplateName: "reminder-confirmation",
		TemplateData: ReminderConfirmationEmailData{
			Recipient:          to.Address,
			DeadlineTitle:      d.Title,
			InstitutionName:    d.InstitutionName,
			DeadlineDate:       formatEmailDate(d.Date),
			ReminderDate:       reminderDate,
			DaysBefore:         d.ReminderDaysBefore,
			DaysBeforePlural:   pluralDays(d.ReminderDaysBefore),
			InstitutionWebsite: d.InstitutionWebsite,
		},
	}
}

// NewUnsubscribeConfirmationEmail builds the "unsubscribed" confirmation.
// An empty deadlineTitle means all reminders.
func NewUnsubscribeConfirmationEmail(to mail.Address, deadlineTitle string, allReminders bool) *core.EmailMessage {
	subject := fmt.Sprintf("Unsubscribed from %s reminders", deadlineTitle)
	if allReminders {
		subject = "Unsubscribed from all reminders"
	}
	return &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      subject,
		TemplateName: "unsubscribe-confirmation",
		TemplateData: UnsubscribeConfirmationEmailData{
			DeadlineTitle: deadlineTitle,
			AllReminders:  allReminders,
		},
	}
}

func formatEmailDate(date string) string {
	t, err := time.ParseInLocation(DateLayout, date, time.Local)
	if err != nil {
		return date
	}
	return t.Format(emailDateLayout)
}

func pluralDays(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
