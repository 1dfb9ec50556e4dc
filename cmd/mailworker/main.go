package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"

	"conexioncarga/internal/config"
	"conexioncarga/internal/logging"
	"conexioncarga/pkg/mailer"
	"conexioncarga/pkg/rabbitmq"
)

// jobHandler delivers one queued EmailJob. Malformed jobs are dropped,
// delivery failures are requeued.
func jobHandler(sender mailer.Sender, log *logrus.Logger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var job mailer.EmailJob
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			return rabbitmq.Reject(fmt.Errorf("invalid email job: %w", err))
		}
		if job.To == "" || job.Subject == "" {
			return rabbitmq.Reject(errors.New("email job without recipient or subject"))
		}

		if err := sender.Send(context.Background(), job.To, job.Subject, job.Text, job.HTML); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"to": job.To, "subject": job.Subject}).Info("email sent")
		return nil
	}
}

func main() {
	v := viper.New()
	config.SetDefaults(v)
	v.AutomaticEnv()

	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.AppName+"-mailworker", cfg.Env)

	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
		log.Fatal("MAILGUN_DOMAIN and MAILGUN_API_KEY are required")
	}
	sender := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailFrom)

	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue}, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize RabbitMQ client")
	}
	defer mqClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mqClient.Consume(ctx, 10, jobHandler(sender, log)); err != nil {
		log.WithError(err).Error("consumer stopped")
		return
	}
	log.Info("mail worker stopped")
}
