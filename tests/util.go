package testutil

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/trezcool/ontime/core"
	"github.com/trezcool/ontime/core/deadline"
	"github.com/trezcool/ontime/core/directory"
	logsvc "github.com/trezcool/ontime/services/logger"
)

// NewConfig returns a Config suitable for tests: no external services, work
// dir resolved to the repo root so templates and migrations can be found.
func NewConfig() *core.Config {
	return &core.Config{
		Env:             "TEST",
		TestMode:        true,
		AppName:         "OnTime",
		WorkDir:         core.Getwd(),
		FrontendBaseURL: "http://localhost:3000",
		CronSecret:      "test-cron-secret",
		Tracker: core.TrackerConfig{
			SearchDebounce: 10 * time.Millisecond,
			RequestTimeout: time.Second,
		},
	}
}

// NewLogger returns a quiet logger for tests.
func NewLogger() core.Logger {
	return logsvc.NewStdLogger(log.New(io.Discard, "", 0))
}

// InitValidators sets up all validators. Safe to call from multiple test
// packages; registration is idempotent.
func InitValidators() {
	core.InitValidators()
	deadline.InitValidators()
	directory.InitValidators()
}

func CreateInstitution(
	t *testing.T,
	svc *directory.Service,
	name, website, timezone string,
	deadlines ...directory.NewDeadline,
) directory.Institution {
	t.Helper()
	inst, err := svc.Create(directory.NewInstitution{
		Name:      name,
		Website:   website,
		Timezone:  timezone,
		Deadlines: deadlines,
	})
	if err != nil {
		t.Fatalf("CreateInstitution() failed: %v", err)
	}
	return inst
}
