package mailer

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	tpl "github.com/oksasatya/go-user-accounts/pkg/mailer/templates"
)

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// VerificationPublisher enqueues verification emails for the email worker.
type VerificationPublisher struct {
	Pub       JSONPublisher
	AppName   string
	VerifyURL string
	now       func() time.Time
}

func NewVerificationPublisher(pub JSONPublisher, appName, verifyURL string) *VerificationPublisher {
	return &VerificationPublisher{Pub: pub, AppName: appName, VerifyURL: verifyURL, now: time.Now}
}

// VerifyLink builds the front-end link carrying the address to verify.
func (v *VerificationPublisher) VerifyLink(email string) string {
	sep := "?"
	if strings.Contains(v.VerifyURL, "?") {
		sep = "&"
	}
	return v.VerifyURL + sep + "email=" + url.QueryEscape(email)
}

// SendVerification publishes a verify_email job for the given recipient.
func (v *VerificationPublisher) SendVerification(ctx context.Context, name, email string) error {
	if v.Pub == nil {
		return errors.New("no publisher configured")
	}
	data := tpl.NewVerifyEmailData(v.AppName, name, email, v.VerifyLink(email), tpl.WithTime(v.now()))
	job := EmailJob{To: email, Template: tpl.VerifyEmail, Data: tpl.ToMap(data)}
	return v.Pub.PublishJSON(ctx, job)
}
