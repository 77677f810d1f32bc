package templates

import (
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

// NewVerifyEmailData builds data for the verify_email template.
func NewVerifyEmailData(appName, name, email, verifyURL string, opts ...Option) EmailData {
	d := EmailData{
		Name:      name,
		Email:     email,
		AppName:   appName,
		VerifyURL: verifyURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
