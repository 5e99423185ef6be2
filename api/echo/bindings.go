package echoapi

import (
	"github.com/trezcool/ontime/core"
	"github.com/trezcool/ontime/core/deadline"
	"github.com/trezcool/ontime/core/directory"
)

type institutionsResponse struct {
	Institutions []directory.Institution `json:"institutions"`
}

// checkRemindersRequest carries a user's tracked deadlines for an eligibility
// sweep. The collection lives client-side; the server never stores it.
type checkRemindersRequest struct {
	UserEmail        string                     `json:"userEmail" validate:"required,email"`
	TrackedDeadlines []deadline.TrackedDeadline `json:"trackedDeadlines" validate:"required"`
}

func (r *checkRemindersRequest) Validate() error {
	r.UserEmail = core.CleanString(r.UserEmail, true /* lower */)
	return core.Validate.Struct(r)
}

type checkRemindersResponse struct {
	Success         bool `json:"success"`
	RemindersSent   int  `json:"remindersSent"`
	TotalChecked    int  `json:"totalChecked"`
	RemindersToSend int  `json:"remindersToSend"`
}

// reminderPayload is one pre-computed reminder in a cron batch.
type reminderPayload struct {
	UserEmail          string `json:"userEmail" validate:"required,email"`
	DeadlineTitle      string `json:"deadlineTitle" validate:"required"`
	InstitutionName    string `json:"institutionName" validate:"required"`
	DeadlineDate       string `json:"deadlineDate" validate:"required,isodate"`
	DaysUntil          int    `json:"daysUntil" validate:"min=0"`
	InstitutionWebsite string `json:"institutionWebsite"`
}

type sendRemindersRequest struct {
	Reminders []reminderPayload `json:"reminders" validate:"required,dive"`
}

func (r *sendRemindersRequest) Validate() error {
	return core.Validate.Struct(r)
}

type sendRemindersResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	RemindersSent   int    `json:"remindersSent"`
	RemindersFailed int    `json:"remindersFailed"`
	Total           int    `json:"total"`
}

type updateReminderRequest struct {
	UserEmail          string `json:"userEmail" validate:"required,email"`
	ReminderEnabled    bool   `json:"reminderEnabled"`
	ReminderDaysBefore int    `json:"reminderDaysBefore"`
	DeadlineTitle      string `json:"deadlineTitle"`
	InstitutionName    string `json:"institutionName"`
	DeadlineDate       string `json:"deadlineDate" validate:"omitempty,isodate"`
	InstitutionWebsite string `json:"institutionWebsite"`
}

func (r *updateReminderRequest) Validate() error {
	r.UserEmail = core.CleanString(r.UserEmail, true /* lower */)
	if err := core.Validate.Struct(r); err != nil {
		return err
	}
	if r.ReminderEnabled &&
		(r.ReminderDaysBefore < deadline.MinReminderDaysBefore || r.ReminderDaysBefore > deadline.MaxReminderDaysBefore) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "reminderDaysBefore",
			Error: "must be an integer between 1 and 365",
		})
	}
	return nil
}

type updateReminderResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	EmailSent bool   `json:"emailSent"`
}

type unsubscribeRequest struct {
	UserEmail     string `json:"userEmail" validate:"required,email"`
	DeadlineID    string `json:"deadlineId" validate:"required"` // "all" disables everything
	DeadlineTitle string `json:"deadlineTitle"`
}

func (r *unsubscribeRequest) Validate() error {
	r.UserEmail = core.CleanString(r.UserEmail, true /* lower */)
	return core.Validate.Struct(r)
}

type unsubscribeResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	EmailSent bool   `json:"emailSent"`
}
