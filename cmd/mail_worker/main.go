package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/campuskit/users-service/config"
	"github.com/campuskit/users-service/pkg/events"
	"github.com/campuskit/users-service/pkg/mailer"
)

// Consumes user lifecycle events and sends a welcome email for every
// created user. Other actions are acknowledged and skipped.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if !cfg.MailSendEnabled {
		log.Println("MAIL_SEND_ENABLED=false; mail worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEventsQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	if _, err := ch.QueueDeclare(cfg.RabbitMQEventsQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var ev events.UserEvent
			if err := json.Unmarshal(msg.Body, &ev); err != nil {
				log.Printf("bad message: %v", err)
				_ = msg.Nack(false, false)
				continue
			}

			if ev.Action != events.ActionCreated || ev.EmailAddress == "" {
				_ = msg.Ack(false)
				continue
			}

			subject := "Welcome!"
			text := fmt.Sprintf(
				"Hi %s,\n\nyour account %q has been created. You can now sign in with it.\n",
				ev.FirstName, ev.LoginName,
			)

			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			if err := mg.Send(c, ev.EmailAddress, subject, text, ""); err != nil {
				cancel()
				log.Printf("send failed: %v", err)
				_ = msg.Nack(false, true)
				continue
			}
			cancel()
			_ = msg.Ack(false)
		}
		close(done)
	}()

	log.Printf("mail worker listening on queue=%s", cfg.RabbitMQEventsQueue)
	<-stop
	log.Printf("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
