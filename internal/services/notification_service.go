package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pocketbase/pocketbase/tools/mailer"

	"travel-agency/models"
	"travel-agency/monitoring"
	"travel-agency/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Email templates.
const (
	TemplateBookingReceived   = "booking_received"
	TemplateBookingStaff      = "booking_staff"
	TemplateBookingStatus     = "booking_status"
	TemplateNewsletterWelcome = "newsletter_welcome"
)

type NotificationConfig struct {
	FromAddress string
	FromName    string
	StaffEmail  string
	AppURL      string
	Workers     int
	QueueSize   int
}

type mailJob struct {
	template string
	message  *mailer.Message
}

// NotificationService renders transactional emails and sends them from a
// pool of background workers. Enqueueing never blocks: when the queue is full
// the message is dropped.
type NotificationService struct {
	cfg       NotificationConfig
	templates *template.Template
	mail      func() mailer.Mailer
	breaker   *utils.CircuitBreaker
	queue     chan mailJob
	wg        sync.WaitGroup
}

// NewNotificationService builds the service. mail returns the client used for
// each delivery, so SMTP settings changed at runtime are picked up.
func NewNotificationService(cfg NotificationConfig, mail func() mailer.Mailer, breaker *utils.CircuitBreaker) (*NotificationService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if breaker == nil {
		breaker = utils.NewCircuitBreaker("mail")
	}

	return &NotificationService{
		cfg:       cfg,
		templates: tmpl,
		mail:      mail,
		breaker:   breaker,
		queue:     make(chan mailJob, cfg.QueueSize),
	}, nil
}

// Start launches the workers. They run until ctx is cancelled.
func (s *NotificationService) Start(ctx context.Context) {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	slog.Info("Mail workers started", "workers", s.cfg.Workers, "queue", s.cfg.QueueSize)
}

// Wait blocks until every worker has stopped.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.deliver(ctx, job)
		}
	}
}

func (s *NotificationService) deliver(ctx context.Context, job mailJob) {
	start := time.Now()
	err := s.breaker.Execute(ctx, func(context.Context) error {
		return s.mail().Send(job.message)
	})

	result := "sent"
	switch {
	case errors.Is(err, utils.ErrCircuitOpen), errors.Is(err, utils.ErrTooManyRequests):
		result = "circuit_open"
	case err != nil:
		result = "failed"
	}
	monitoring.TrackEmail(job.template, result, time.Since(start))

	if err != nil {
		slog.Error("Failed to send email", "template", job.template, "subject", job.message.Subject, "error", err)
	}
}

type bookingMail struct {
	Agency    string
	Label     string
	Booking   *models.Booking
	Total     string
	ShowTotal bool
	AdminURL  string
}

func (s *NotificationService) bookingData(ks models.KindSpec, b *models.Booking) bookingMail {
	return bookingMail{
		Agency:    s.cfg.FromName,
		Label:     strings.ToLower(ks.Label),
		Booking:   b,
		Total:     b.Total.StringFixed(2),
		ShowTotal: b.Total.IsPositive(),
		AdminURL:  strings.TrimRight(s.cfg.AppURL, "/") + "/_/#/collections?collection=" + ks.Collection,
	}
}

// BookingReceived confirms a submission to the customer and alerts the staff.
func (s *NotificationService) BookingReceived(ks models.KindSpec, b *models.Booking) {
	data := s.bookingData(ks, b)

	s.enqueue(TemplateBookingReceived, b.Email,
		fmt.Sprintf("%s received (%s)", ks.Label, b.Reference), data)

	if s.cfg.StaffEmail != "" {
		s.enqueue(TemplateBookingStaff, s.cfg.StaffEmail,
			fmt.Sprintf("New %s %s from %s", strings.ToLower(ks.Label), b.Reference, b.FullName), data)
	}
}

// BookingStatusChanged tells the customer about review progress.
func (s *NotificationService) BookingStatusChanged(ks models.KindSpec, b *models.Booking) {
	subject := fmt.Sprintf("Your %s %s is in progress", strings.ToLower(ks.Label), b.Reference)
	if b.Status == models.StatusCompleted {
		subject = fmt.Sprintf("Your %s %s is completed", strings.ToLower(ks.Label), b.Reference)
	}
	s.enqueue(TemplateBookingStatus, b.Email, subject, s.bookingData(ks, b))
}

func (s *NotificationService) NewsletterWelcome(sub *models.NewsletterSubscriber) {
	data := map[string]any{
		"Agency":         s.cfg.FromName,
		"Subscriber":     sub,
		"UnsubscribeURL": strings.TrimRight(s.cfg.AppURL, "/") + "/api/newsletter/unsubscribe?token=" + sub.Token,
	}
	s.enqueue(TemplateNewsletterWelcome, sub.Email, "Welcome to our newsletter", data)
}

// Render executes the named template.
func (s *NotificationService) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name+".html", data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *NotificationService) enqueue(name, to, subject string, data any) {
	html, err := s.Render(name, data)
	if err != nil {
		slog.Error("Failed to render email", "template", name, "error", err)
		monitoring.TrackEmail(name, "failed", 0)
		return
	}

	job := mailJob{
		template: name,
		message: &mailer.Message{
			From:    mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromAddress},
			To:      []mail.Address{{Address: to}},
			Subject: subject,
			HTML:    html,
		},
	}

	select {
	case s.queue <- job:
	default:
		slog.Warn("Mail queue full, dropping email", "template", name, "subject", subject)
		monitoring.TrackEmail(name, "dropped", 0)
	}
}
