// Package email queues customer emails in Redis and delivers them over SMTP
// from a background worker.
package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"barbershop/internal/booking"
	"barbershop/internal/logger"
	"barbershop/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	QueueKey  = "barbershop:emails"
	FailedKey = "barbershop:emails:failed"

	maxTries = 3
)

type EmailJob struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Options struct {
	From     string
	FromName string
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	redis      *redis.Client
	opts       Options
	send       sendFunc
	retryDelay time.Duration
}

func New(rdb *redis.Client, opts Options) *Service {
	return &Service{
		redis:      rdb,
		opts:       opts,
		send:       smtp.SendMail,
		retryDelay: 5 * time.Second,
	}
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	job := EmailJob{
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := s.redis.LPush(ctx, QueueKey, string(data)).Err(); err != nil {
		return fmt.Errorf("queue email: %w", err)
	}

	logger.Info("email queued", "subject", subject, "to", to)
	return nil
}

// Start runs the delivery worker until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, QueueKey).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			logger.Warn("email queue unavailable", "error", err.Error())
			select {
			case <-ctx.Done():
			case <-time.After(s.retryDelay):
			}
		}
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	if err := s.sendNow(job); err != nil {
		logger.Warn("email delivery failed", "to", job.To, "attempt", job.Tries, "error", err.Error())

		if job.Tries < maxTries {
			select {
			case <-ctx.Done():
			case <-time.After(s.retryDelay):
			}
			if err := s.push(ctx, QueueKey, job); err != nil {
				logger.Error("email retry lost", "to", job.To, "attempt", job.Tries, "error", err.Error())
			}
			return
		}

		logger.Errorf("Email to %s failed after %d attempts", job.To, maxTries)
		s.saveFailed(ctx, job, err)
		return
	}

	logger.Info("email sent", "to", job.To, "attempt", job.Tries)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.opts.FromName, s.opts.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.opts.SMTPUser != "" && s.opts.SMTPPass != "" {
		auth = smtp.PlainAuth("", s.opts.SMTPUser, s.opts.SMTPPass, s.opts.SMTPHost)
	}

	addr := s.opts.SMTPHost + ":" + s.opts.SMTPPort
	return s.send(addr, auth, s.opts.From, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(ctx context.Context, job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	if err := s.push(ctx, FailedKey, failed); err != nil {
		logger.Error("failed email not recorded", "to", job.To, "attempt", job.Tries, "error", err.Error())
	}
}

// push survives ctx cancellation so a job popped during shutdown is not lost.
func (s *Service) push(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode email job: %w", err)
	}
	if err := s.redis.LPush(context.WithoutCancel(ctx), key, string(data)).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", key, err)
	}
	return nil
}

// QueueLength reports the pending jobs and updates the queue gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, QueueKey).Result()
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendBookingConfirmation(ctx context.Context, b *booking.Booking) error {
	subject := "Appointment Confirmed - " + b.Service
	body := fmt.Sprintf(`Hi %s,

Your appointment is confirmed!

Service: %s
Date: %s
Time: %s
Amount paid: %.2f
Booking ID: %s

See you at the shop!

- %s`, b.Name, b.Service, b.Date, b.Time, b.Amount, b.ID, s.opts.FromName)

	return s.Send(ctx, b.Email, b.Name, subject, body)
}

func (s *Service) Name() string {
	return "email"
}

// BookingPaid queues a confirmation for customers who gave an email address.
func (s *Service) BookingPaid(ctx context.Context, b *booking.Booking) error {
	if b.Email == "" {
		return nil
	}
	return s.SendBookingConfirmation(ctx, b)
}

func (s *Service) PaymentFailed(context.Context, *booking.Booking) error {
	return nil
}
