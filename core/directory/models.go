package directory

import (
	"regexp"
	"strings"
	"time"

	"github.com/trezcool/ontime/core"
)

type (
	// Deadline is one application deadline of an Institution.
	Deadline struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Date  string `json:"date"` // YYYY-MM-DD
	}

	Institution struct {
		ID        int        `json:"id"`
		Name      string     `json:"name"`
		Slug      string     `json:"slug"`
		Website   string     `json:"website"`
		Timezone  string     `json:"timezone"`
		Deadlines []Deadline `json:"deadlines"`
		CreatedAt time.Time  `json:"created_at"` // UTC
		UpdatedAt time.Time  `json:"updated_at"` // UTC
	}
)

// NewDeadline contains information needed to add a Deadline to an Institution.
type NewDeadline struct {
	Title string `json:"title" validate:"required"`
	Date  string `json:"date" validate:"required,isodate"`
}

// NewInstitution contains information needed to create a new Institution.
type NewInstitution struct {
	Name      string        `json:"name" validate:"required"`
	Website   string        `json:"website" validate:"required,website"`
	Timezone  string        `json:"timezone" validate:"required,timezone"`
	Deadlines []NewDeadline `json:"deadlines" validate:"omitempty,dive"`
}

func (ni *NewInstitution) Validate() error {
	ni.Name = core.CleanString(ni.Name)
	ni.Website = core.CleanString(ni.Website)
	ni.Timezone = core.CleanString(ni.Timezone)
	return core.Validate.Struct(ni)
}

// UpdateInstitution defines what may be modified on an existing Institution.
// Empty fields keep the original values; a non-nil Deadlines replaces the
// sequence wholesale. The slug is never regenerated on update.
type UpdateInstitution struct {
	Name      string        `json:"name"`
	Website   string        `json:"website" validate:"omitempty,website"`
	Timezone  string        `json:"timezone" validate:"omitempty,timezone"`
	Deadlines []NewDeadline `json:"deadlines" validate:"omitempty,dive"`
}

func (ui *UpdateInstitution) Validate(orig Institution) error {
	name := core.CleanString(ui.Name)
	if name == "" {
		name = orig.Name
	}
	ui.Name = name

	website := core.CleanString(ui.Website)
	if website == "" {
		website = orig.Website
	}
	ui.Website = website

	tz := core.CleanString(ui.Timezone)
	if tz == "" {
		tz = orig.Timezone
	}
	ui.Timezone = tz

	return core.Validate.Struct(ui)
}

var (
	slugInvalidRegex = regexp.MustCompile(`[^a-z0-9-]`)
	slugSpaceRegex   = regexp.MustCompile(`\s+`)
	slugDashesRegex  = regexp.MustCompile(`-+`)
)

// Slugify derives a URL-safe slug from an institution name.
func Slugify(name string) string {
	s := core.CleanString(name, true /* lower */)
	s = slugSpaceRegex.ReplaceAllString(s, "-")
	s = slugInvalidRegex.ReplaceAllString(s, "")
	s = slugDashesRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
