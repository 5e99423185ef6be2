package deadline

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/ontime/core"
)

var (
	// ErrNotTracked is returned when a reminder configuration targets a
	// deadline that is not in the store.
	ErrNotTracked = errors.New("deadline is not tracked")

	nowFunc = time.Now // mockable
)

// SaveOutcome is the terminal state of one reminder configuration session.
type SaveOutcome int

const (
	// SaveFailed: the local commit itself failed (unknown deadline).
	SaveFailed SaveOutcome = iota
	// SaveSucceeded: local commit and confirmation email both went through
	// (or no email was required).
	SaveSucceeded
	// SavedLocallyOnly: local commit succeeded but the confirmation email did
	// not. Local state is authoritative and is never rolled back for this.
	SavedLocallyOnly
)

func (o SaveOutcome) String() string {
	switch o {
	case SaveSucceeded:
		return "succeeded"
	case SavedLocallyOnly:
		return "saved locally, email not confirmed"
	default:
		return "failed"
	}
}

// ReminderConfig is the user input of one configuration session.
type ReminderConfig struct {
	DeadlineID string `json:"deadlineId" validate:"required"`
	Enabled    bool   `json:"reminderEnabled"`
	DaysBefore int    `json:"reminderDaysBefore"`
}

func (cfg ReminderConfig) Validate() error {
	return core.Validate.Struct(cfg)
}

// CheckResult summarizes one eligibility sweep.
type CheckResult struct {
	TotalChecked int // deadlines with reminders enabled
	RemindersDue int
	Sent         int
	Failed       int
}

// Service orchestrates reminder configuration and the daily eligibility sweep
// on top of the Store, with the email side-channel as an advisory collaborator.
type Service struct {
	store  *Store
	mail   core.EmailService
	logger core.Logger
}

func NewService(store *Store, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{store: store, mail: mailSvc, logger: logger}
}

func (svc *Service) Store() *Store { return svc.store }

// SaveReminder validates cfg, commits it into the store and requests the
// matching confirmation email. Validation failures reject before any mutation.
// The local commit is unconditional once validation passes; a failed email
// degrades the outcome to SavedLocallyOnly instead of rolling anything back.
func (svc *Service) SaveReminder(ctx context.Context, recipient mail.Address, cfg ReminderConfig) (SaveOutcome, error) {
	if err := cfg.Validate(); err != nil {
		return SaveFailed, err
	}
	if !svc.store.Contains(cfg.DeadlineID) {
		return SaveFailed, ErrNotTracked
	}

	upd := UpdateTrackedDeadline{ReminderEnabled: &cfg.Enabled}
	if cfg.Enabled {
		upd.ReminderDaysBefore = &cfg.DaysBefore // retained as-is when disabling
	}
	svc.store.Update(cfg.DeadlineID, upd)
	d, _ := svc.store.Get(cfg.DeadlineID)

	if !cfg.Enabled {
		return svc.confirm(ctx, NewUnsubscribeConfirmationEmail(recipient, d.Title, false))
	}

	// confirmation is only worth sending while the deadline is still ahead
	due, err := d.DateValue()
	if err != nil || DaysUntil(due, nowFunc()) <= 0 {
		return SaveSucceeded, nil
	}
	return svc.confirm(ctx, NewReminderConfirmationEmail(recipient, d))
}

// Unsubscribe disables one reminder (or all of them) and requests the
// unsubscribe confirmation email.
func (svc *Service) Unsubscribe(ctx context.Context, recipient mail.Address, deadlineID string, all bool) (SaveOutcome, error) {
	disabled := false
	if all {
		for _, d := range svc.store.List() {
			if d.ReminderEnabled {
				svc.store.Update(d.DeadlineID, UpdateTrackedDeadline{ReminderEnabled: &disabled})
			}
		}
		return svc.confirm(ctx, NewUnsubscribeConfirmationEmail(recipient, "", true))
	}

	d, ok := svc.store.Get(deadlineID)
	if !ok {
		return SaveFailed, ErrNotTracked
	}
	svc.store.Update(deadlineID, UpdateTrackedDeadline{ReminderEnabled: &disabled})
	return svc.confirm(ctx, NewUnsubscribeConfirmationEmail(recipient, d.Title, false))
}

// CheckDue runs the daily eligibility sweep: every tracked deadline whose
// reminder is due today gets its reminder email. Send failures are counted,
// not retried.
func (svc *Service) CheckDue(ctx context.Context, recipient mail.Address) CheckResult {
	now := nowFunc()

	var res CheckResult
	var due []TrackedDeadline
	for _, d := range svc.store.List() {
		if !d.ReminderEnabled {
			continue
		}
		res.TotalChecked++
		if d.ReminderDue(now) {
			due = append(due, d)
		}
	}
	res.RemindersDue = len(due)

	var sent, failed int32
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range due {
		d := d
		g.Go(func() error {
			el, _ := d.Eligibility(now)
			if err := svc.mail.Send(gctx, NewReminderEmail(recipient, d, el.DaysUntil)); err != nil {
				svc.logger.Error(fmt.Sprintf("sending reminder for %q: %v", d.Title, err), err)
				atomic.AddInt32(&failed, 1)
				return nil // best effort; one failure must not cancel the rest
			}
			atomic.AddInt32(&sent, 1)
			return nil
		})
	}
	_ = g.Wait()

	res.Sent = int(sent)
	res.Failed = int(failed)
	return res
}

func (svc *Service) confirm(ctx context.Context, msg *core.EmailMessage) (SaveOutcome, error) {
	if err := svc.mail.Send(ctx, msg); err != nil {
		svc.logger.Warn(fmt.Sprintf("confirmation email not sent: %v", err), err)
		return SavedLocallyOnly, nil
	}
	return SaveSucceeded, nil
}
