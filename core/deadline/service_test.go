package deadline

import (
	"context"
	"errors"
	"net/mail"
	"testing"
	"time"

	"github.com/trezcool/ontime/core"
	emailsvc "github.com/trezcool/ontime/services/email"
)

type mailMock interface {
	core.EmailService
	SentMessages() []core.EmailMessage
	FailWith(err error)
	Reset()
}

var recipient = mail.Address{Address: "kat@test.cd"}

func setupService(t *testing.T) (*Service, *Store, mailMock) {
	t.Helper()

	core.InitValidators()
	InitValidators()

	conf := &core.Config{
		Env:             "TEST",
		TestMode:        true,
		AppName:         "OnTime",
		WorkDir:         core.Getwd(),
		FrontendBaseURL: "http://localhost:3000",
	}
	core.ParseEmailTemplates(conf, testLogger())

	store := newTestStore(t, t.TempDir())
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	return NewService(store, mailSvc, testLogger()), store, mailSvc
}

func isoDateIn(days int) string {
	return time.Now().AddDate(0, 0, days).Format(DateLayout)
}

func TestService_SaveReminder(t *testing.T) {
	svc, store, mailSvc := setupService(t)
	ctx := context.Background()

	store.Add(TrackedDeadline{
		DeadlineID: "1-early-action", Title: "Early Action", Date: isoDateIn(30),
		InstitutionID: 1, InstitutionName: "MIT", InstitutionWebsite: "https://mit.edu",
	})

	t.Run("out-of-range days rejected before any mutation", func(t *testing.T) {
		mailSvc.Reset()
		outcome, err := svc.SaveReminder(ctx, recipient, ReminderConfig{DeadlineID: "1-early-action", Enabled: true, DaysBefore: 400})
		if err == nil {
			t.Fatal("SaveReminder() expected a validation error")
		}
		if outcome != SaveFailed {
			t.Errorf("outcome = %v, want SaveFailed", outcome)
		}
		d, _ := store.Get("1-early-action")
		if d.ReminderEnabled || d.ReminderDaysBefore != DefaultReminderDaysBefore {
			t.Errorf("record mutated by rejected config: %+v", d)
		}
		if len(mailSvc.SentMessages()) != 0 {
			t.Error("email sent for rejected config")
		}
	})

	t.Run("missing deadline id rejected", func(t *testing.T) {
		if _, err := svc.SaveReminder(ctx, recipient, ReminderConfig{Enabled: true, DaysBefore: 7}); err == nil {
			t.Fatal("SaveReminder() expected a validation error")
		}
	})

	t.Run("untracked deadline", func(t *testing.T) {
		outcome, err := svc.SaveReminder(ctx, recipient, ReminderConfig{DeadlineID: "unknown", Enabled: true, DaysBefore: 7})
		if err != ErrNotTracked {
			t.Errorf("err = %v, want ErrNotTracked", err)
		}
		if outcome != SaveFailed {
			t.Errorf("outcome = %v, want SaveFailed", outcome)
		}
	})

	t.Run("enable with future deadline confirms by email", func(t *testing.T) {
		mailSvc.Reset()
		outcome, err := svc.SaveReminder(ctx, recipient, ReminderConfig{DeadlineID: "1-early-action", Enabled: true, DaysBefore: 14})
		if err != nil {
			t.Fatalf("SaveReminder() error = %v", err)
		}
		if outcome != SaveSucceeded {
			t.Errorf("outcome = %v, want SaveSucceeded", outcome)
		}
		d, _ := store.Get("1-early-action")
		if !d.ReminderEnabled || d.ReminderDaysBefore != 14 {
			t.Errorf("record not committed: %+v", d)
		}
		msgs := mailSvc.SentMessages()
		if len(msgs) != 1 {
			t.Fatalf("sent %d emails, want 1", len(msgs))
		}
		if want := "Reminder scheduled: Early Action at MIT"; msgs[0].Subject != want {
			t.Errorf("Subject = %q, want %q", msgs[0].Subject, want)
		}
	})

	t.Run("email failure degrades to SavedLocallyOnly", func(t *testing.T) {
		mailSvc.Reset()
		mailSvc.FailWith(errors.New("smtp down"))
		defer mailSvc.FailWith(nil)

		outcome, err := svc.SaveReminder(ctx, recipient, ReminderConfig{DeadlineID: "1-early-action", Enabled: true, DaysBefore: 3})
		if err != nil {
			t.Fatalf("SaveReminder() error = %v, want nil", err)
		}
		if outcome != SavedLocallyOnly {
			t.Errorf("outcome = %v, want SavedLocallyOnly", outcome)
		}
		// the local commit is never rolled back
		d, _ := store.Get("1-early-action")
		if !d.ReminderEnabled || d.ReminderDaysBefore != 3 {
			t.Errorf("record not committed: %+v", d)
		}
	})

	t.Run("disable retains days and confirms unsubscribe", func(t *testing.T) {
		mailSvc.Reset()
		outcome, err := svc.SaveReminder(ctx, recipient, ReminderConfig{DeadlineID: "1-early-action", Enabled: false})
		if err != nil {
			t.Fatalf("SaveReminder() error = %v", err)
		}
		if outcome != SaveSucceeded {
			t.Errorf("outcome = %v, want SaveSucceeded", outcome)
		}
		d, _ := store.Get("1-early-action")
		if d.ReminderEnabled {
			t.Error("ReminderEnabled = true, want false")
		}
		if d.ReminderDaysBefore != 3 {
			t.Errorf("ReminderDaysBefore = %d, want 3 (retained)", d.ReminderDaysBefore)
		}
		msgs := mailSvc.SentMessages()
		if len(msgs) != 1 {
			t.Fatalf("sent %d emails, want 1", len(msgs))
		}
		if want := "Unsubscribed from Early Action reminders"; msgs[0].Subject != want {
			t.Errorf("Subject = %q, want %q", msgs[0].Subject, want)
		}
	})

	t.Run("enable with past deadline skips the email", func(t *testing.T) {
		mailSvc.Reset()
		store.Add(TrackedDeadline{DeadlineID: "2-passed", Title: "Passed", Date: isoDateIn(-10)})

		outcome, err := svc.SaveReminder(ctx, recipient, ReminderConfig{DeadlineID: "2-passed", Enabled: true, DaysBefore: 7})
		if err != nil {
			t.Fatalf("SaveReminder() error = %v", err)
		}
		if outcome != SaveSucceeded {
			t.Errorf("outcome = %v, want SaveSucceeded", outcome)
		}
		if len(mailSvc.SentMessages()) != 0 {
			t.Error("email sent for past deadline")
		}
		d, _ := store.Get("2-passed")
		if !d.ReminderEnabled {
			t.Error("record not committed")
		}
	})
}

func TestService_Unsubscribe(t *testing.T) {
	svc, store, mailSvc := setupService(t)
	ctx := context.Background()

	enabled := true
	store.Add(TrackedDeadline{DeadlineID: "a", Title: "A", Date: isoDateIn(10), ReminderEnabled: true, ReminderDaysBefore: 5})
	store.Add(TrackedDeadline{DeadlineID: "b", Title: "B", Date: isoDateIn(20), ReminderEnabled: true, ReminderDaysBefore: 7})
	store.Add(TrackedDeadline{DeadlineID: "c", Title: "C", Date: isoDateIn(30)})

	t.Run("unknown deadline", func(t *testing.T) {
		outcome, err := svc.Unsubscribe(ctx, recipient, "unknown", false)
		if err != ErrNotTracked {
			t.Errorf("err = %v, want ErrNotTracked", err)
		}
		if outcome != SaveFailed {
			t.Errorf("outcome = %v, want SaveFailed", outcome)
		}
	})

	t.Run("single deadline", func(t *testing.T) {
		mailSvc.Reset()
		outcome, err := svc.Unsubscribe(ctx, recipient, "a", false)
		if err != nil {
			t.Fatalf("Unsubscribe() error = %v", err)
		}
		if outcome != SaveSucceeded {
			t.Errorf("outcome = %v, want SaveSucceeded", outcome)
		}
		d, _ := store.Get("a")
		if d.ReminderEnabled {
			t.Error("reminder still enabled")
		}
		if d.ReminderDaysBefore != 5 {
			t.Errorf("ReminderDaysBefore = %d, want 5 (retained)", d.ReminderDaysBefore)
		}
		if d, _ := store.Get("b"); !d.ReminderEnabled {
			t.Error("unrelated reminder disabled")
		}
		msgs := mailSvc.SentMessages()
		if len(msgs) != 1 || msgs[0].Subject != "Unsubscribed from A reminders" {
			t.Errorf("messages = %+v", msgs)
		}
	})

	t.Run("all deadlines", func(t *testing.T) {
		mailSvc.Reset()
		store.Update("a", UpdateTrackedDeadline{ReminderEnabled: &enabled})

		outcome, err := svc.Unsubscribe(ctx, recipient, "", true)
		if err != nil {
			t.Fatalf("Unsubscribe() error = %v", err)
		}
		if outcome != SaveSucceeded {
			t.Errorf("outcome = %v, want SaveSucceeded", outcome)
		}
		for _, id := range []string{"a", "b", "c"} {
			if d, _ := store.Get(id); d.ReminderEnabled {
				t.Errorf("reminder %s still enabled", id)
			}
		}
		msgs := mailSvc.SentMessages()
		if len(msgs) != 1 || msgs[0].Subject != "Unsubscribed from all reminders" {
			t.Errorf("messages = %+v", msgs)
		}
	})
}

func TestService_CheckDue(t *testing.T) {
	svc, store, mailSvc := setupService(t)

	ref := time.Date(2026, 5, 15, 9, 0, 0, 0, time.Local)
	nowFunc = func() time.Time { return ref }
	defer func() { nowFunc = time.Now }()

	day := func(offset int) string { return ref.AddDate(0, 0, offset).Format(DateLayout) }

	store.Add(TrackedDeadline{
		DeadlineID: "due", Title: "Due", Date: day(7), InstitutionName: "MIT",
		ReminderEnabled: true, ReminderDaysBefore: 7,
	})
	store.Add(TrackedDeadline{
		DeadlineID: "early", Title: "Early", Date: day(30),
		ReminderEnabled: true, ReminderDaysBefore: 7,
	})
	store.Add(TrackedDeadline{
		DeadlineID: "off", Title: "Off", Date: day(7),
		ReminderEnabled: false, ReminderDaysBefore: 7,
	})

	res := svc.CheckDue(context.Background(), recipient)
	if res.TotalChecked != 2 {
		t.Errorf("TotalChecked = %d, want 2", res.TotalChecked)
	}
	if res.RemindersDue != 1 || res.Sent != 1 || res.Failed != 0 {
		t.Errorf("CheckDue() = %+v", res)
	}
	msgs := mailSvc.SentMessages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d emails, want 1", len(msgs))
	}
	if want := "Reminder: Due deadline in 7 days"; msgs[0].Subject != want {
		t.Errorf("Subject = %q, want %q", msgs[0].Subject, want)
	}

	// the next day the exact-match window has passed: nothing fires
	mailSvc.Reset()
	nowFunc = func() time.Time { return ref.AddDate(0, 0, 1) }

	res = svc.CheckDue(context.Background(), recipient)
	if res.RemindersDue != 0 || res.Sent != 0 {
		t.Errorf("CheckDue() next day = %+v", res)
	}
	if len(mailSvc.SentMessages()) != 0 {
		t.Error("email sent outside the reminder window")
	}

	// send failures are counted, not surfaced
	mailSvc.FailWith(errors.New("smtp down"))
	defer mailSvc.FailWith(nil)
	nowFunc = func() time.Time { return ref }

	res = svc.CheckDue(context.Background(), recipient)
	if res.RemindersDue != 1 || res.Sent != 0 || res.Failed != 1 {
		t.Errorf("CheckDue() with failing mail = %+v", res)
	}
}
