package echoapi

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ontime/core"
	"github.com/trezcool/ontime/core/deadline"
)

type reminderApi struct {
	conf    *core.Config
	mailSvc core.EmailService
	logger  core.Logger
}

func registerReminderAPI(g *echo.Group, conf *core.Config, mailSvc core.EmailService, logger core.Logger) {
	api := reminderApi{conf: conf, mailSvc: mailSvc, logger: logger}

	rg := g.Group("/reminders")
	rg.POST("/check", api.checkReminders)
	rg.POST("/send", api.sendReminders, cronAuthMiddleware(conf))
	rg.POST("/update", api.updateReminder)
	rg.GET("/unsubscribe", api.unsubscribeQuery)
	rg.POST("/unsubscribe", api.unsubscribe)
}

// cronAuthMiddleware guards batch endpoints behind the shared cron secret.
func cronAuthMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if conf.CronSecret == "" || auth != "Bearer "+conf.CronSecret {
				return errCronUnauthorized
			}
			return next(ctx)
		}
	}
}

// checkReminders sweeps a posted set of tracked deadlines and sends a reminder
// for each one whose firing day is today. The server keeps no copy of the set.
func (api *reminderApi) checkReminders(ctx echo.Context) error {
	var req checkRemindersRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	to := mail.Address{Address: req.UserEmail}
	now := time.Now()

	var res checkRemindersResponse
	for _, d := range req.TrackedDeadlines {
		if !d.ReminderEnabled || d.ReminderDaysBefore <= 0 {
			continue
		}
		res.TotalChecked++

		el, err := d.Eligibility(now)
		if err != nil || !el.Due {
			continue
		}
		res.RemindersToSend++

		msg := deadline.NewReminderEmail(to, d, el.DaysUntil)
		if err = api.mailSvc.Send(ctx.Request().Context(), msg); err != nil {
			api.logger.Error("sending reminder email", err, "deadline", d.DeadlineID)
			continue
		}
		res.RemindersSent++
	}

	res.Success = true
	return ctx.JSON(http.StatusOK, res)
}

// sendReminders delivers a pre-computed batch of reminders on behalf of the
// scheduler. Each entry is independent; one failure does not abort the batch.
func (api *reminderApi) sendReminders(ctx echo.Context) error {
	var req sendRemindersRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	var res sendRemindersResponse
	res.Total = len(req.Reminders)
	for _, r := range req.Reminders {
		to := mail.Address{Address: core.CleanString(r.UserEmail, true /* lower */)}
		d := deadline.TrackedDeadline{
			Title:              r.DeadlineTitle,
			Date:               r.DeadlineDate,
			InstitutionName:    r.InstitutionName,
			InstitutionWebsite: r.InstitutionWebsite,
		}
		msg := deadline.NewReminderEmail(to, d, r.DaysUntil)
		if err := api.mailSvc.Send(ctx.Request().Context(), msg); err != nil {
			api.logger.Error("sending reminder email", err, "deadline", r.DeadlineTitle)
			res.RemindersFailed++
			continue
		}
		res.RemindersSent++
	}

	res.Success = res.RemindersFailed == 0
	res.Message = "reminders processed"
	return ctx.JSON(http.StatusOK, res)
}

// updateReminder confirms a reminder settings change by email. The settings
// themselves live client-side; this endpoint only validates and notifies.
func (api *reminderApi) updateReminder(ctx echo.Context) error {
	var req updateReminderRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	res := updateReminderResponse{Success: true, Message: "reminder settings updated"}

	if !req.ReminderEnabled || req.DeadlineDate == "" {
		return ctx.JSON(http.StatusOK, res)
	}

	d := deadline.TrackedDeadline{
		Title:              req.DeadlineTitle,
		Date:               req.DeadlineDate,
		InstitutionName:    req.InstitutionName,
		InstitutionWebsite: req.InstitutionWebsite,
		ReminderEnabled:    true,
		ReminderDaysBefore: req.ReminderDaysBefore,
	}
	due, err := d.DateValue()
	if err != nil || deadline.DaysUntil(due, time.Now()) <= 0 {
		// nothing to schedule for past deadlines
		return ctx.JSON(http.StatusOK, res)
	}

	to := mail.Address{Address: req.UserEmail}
	if err = api.mailSvc.Send(ctx.Request().Context(), deadline.NewReminderConfirmationEmail(to, d)); err != nil {
		api.logger.Warn("sending reminder confirmation email", err)
		res.Message = "reminder settings updated, confirmation email could not be sent"
		return ctx.JSON(http.StatusOK, res)
	}
	res.EmailSent = true
	return ctx.JSON(http.StatusOK, res)
}

// unsubscribeQuery services one-click unsubscribe links embedded in emails.
func (api *reminderApi) unsubscribeQuery(ctx echo.Context) error {
	req := unsubscribeRequest{
		UserEmail:     ctx.QueryParam("email"),
		DeadlineID:    ctx.QueryParam("deadlineId"),
		DeadlineTitle: ctx.QueryParam("deadlineTitle"),
	}
	if err := req.Validate(); err != nil {
		return err
	}
	return api.confirmUnsubscribe(ctx, req)
}

func (api *reminderApi) unsubscribe(ctx echo.Context) error {
	var req unsubscribeRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	return api.confirmUnsubscribe(ctx, req)
}

func (api *reminderApi) confirmUnsubscribe(ctx echo.Context, req unsubscribeRequest) error {
	all := strings.EqualFold(req.DeadlineID, "all")
	title := req.DeadlineTitle
	if title == "" {
		title = req.DeadlineID
	}

	res := unsubscribeResponse{Success: true, Message: "unsubscribed"}

	to := mail.Address{Address: req.UserEmail}
	msg := deadline.NewUnsubscribeConfirmationEmail(to, title, all)
	if err := api.mailSvc.Send(ctx.Request().Context(), msg); err != nil {
		api.logger.Warn("sending unsubscribe confirmation email", err)
		return ctx.JSON(http.StatusOK, res)
	}
	res.EmailSent = true
	return ctx.JSON(http.StatusOK, res)
}
