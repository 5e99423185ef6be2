package directory

import (
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ontime/core"
)

var (
	isoDateTag  = "isodate"
	isoDateText = "must be a date in YYYY-MM-DD format"

	websiteTag  = "website"
	websiteText = "must be a valid http(s) URL"
)

// InitValidators registers this package's validators. Call after core.InitValidators.
func InitValidators() {
	_ = core.Validate.RegisterValidation(isoDateTag, isoDateValidation)
	core.RegisterCustomTranslation(isoDateTag, isoDateText)

	_ = core.Validate.RegisterValidation(websiteTag, websiteValidation)
	core.RegisterCustomTranslation(websiteTag, websiteText)
}

func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func websiteValidation(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
