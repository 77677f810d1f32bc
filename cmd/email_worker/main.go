package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-accounts/config"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
	"github.com/oksasatya/go-user-accounts/pkg/mailer"
	mailtpl "github.com/oksasatya/go-user-accounts/pkg/mailer/templates"
)

type sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

var (
	// errBadJob marks messages that can never succeed and must not be requeued.
	errBadJob = errors.New("bad email job")
	// errDeliveriesClosed is returned when the broker closes the delivery channel.
	errDeliveriesClosed = errors.New("delivery channel closed")
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	if !mg.Configured() {
		logger.Fatal("Mailgun not configured")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16)
	if err != nil {
		logger.WithError(err).Fatal("rabbitmq consumer")
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		logger.WithError(err).Fatal("consume")
	}

	ctx := context.Background()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			handleDelivery(ctx, logger, mg, msg)
		}
	}()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	if err := waitForExit(logger, stop, done, 2*time.Second); err != nil {
		consumer.Close()
		logger.WithError(err).Fatal("email worker stopped")
	}
}

// waitForExit blocks until a signal arrives or the consumer loop ends on its
// own. The latter means the broker went away and is reported as an error.
func waitForExit(logger *logrus.Logger, stop <-chan os.Signal, done <-chan struct{}, grace time.Duration) error {
	select {
	case <-done:
		return errDeliveriesClosed
	case <-stop:
	}
	logger.Info("shutting down...")
	select {
	case <-done:
	case <-time.After(grace):
	}
	return nil
}

func handleDelivery(ctx context.Context, logger *logrus.Logger, s sender, msg amqp.Delivery) {
	err := process(ctx, s, msg.Body)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, errBadJob):
		logger.WithError(err).WithField("message_id", msg.MessageId).Error("dropping email job")
		_ = msg.Nack(false, false)
	default:
		logger.WithError(err).WithField("message_id", msg.MessageId).Warn("send failed; requeueing")
		_ = msg.Nack(false, true)
	}
}

// process decodes, renders and sends one job.
func process(ctx context.Context, s sender, body []byte) error {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: %v", errBadJob, err)
	}
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", errBadJob)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		var err error
		subject, text, html, err = mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", errBadJob, job.Template, err)
		}
	}
	if subject == "" {
		return fmt.Errorf("%w: missing subject", errBadJob)
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return s.Send(c, job.To, subject, text, html)
}
