// Package mail sends transactional email through SendGrid or the log.
package mail

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"qwiktest/internal/config"
	"qwiktest/internal/pkg/logger"
)

type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	Text      string
	HTML      string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Default is used by the services; the console mailer until Setup runs.
var Default Mailer = NewConsole("QwikTest")

func Setup() error {
	cfg := config.GlobalConfig.Mail

	switch cfg.Driver {
	case "", "console":
		Default = NewConsole(cfg.FromName)
	case "sendgrid":
		if cfg.APIKey == "" {
			return fmt.Errorf("mail.api_key is required for the sendgrid driver")
		}
		Default = NewSendGrid(cfg.APIKey, cfg.FromName, cfg.FromAddr)
	default:
		return fmt.Errorf("unsupported mail driver: %s", cfg.Driver)
	}
	return nil
}

// SendAsync delivers in the background and only logs failures.
func SendAsync(msg Message) {
	mailer := Default
	go func() {
		if err := mailer.Send(context.Background(), msg); err != nil {
			logger.Errorf("send mail %q to %s: %v", msg.Subject, msg.ToAddress, err)
		}
	}()
}

// Console writes messages to the log and keeps them for inspection.
type Console struct {
	subjPrefix string

	mu   sync.Mutex
	Sent []Message
}

func NewConsole(appName string) *Console {
	return &Console{subjPrefix: "[" + appName + "] "}
}

func (c *Console) Send(_ context.Context, msg Message) error {
	msg.Subject = c.subjPrefix + msg.Subject
	logger.With("to", msg.ToAddress, "subject", msg.Subject).Info("mail (console)\n" + msg.Text)

	c.mu.Lock()
	c.Sent = append(c.Sent, msg)
	c.mu.Unlock()
	return nil
}

// Messages returns a copy of everything sent so far.
func (c *Console) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.Sent...)
}

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type SendGrid struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendGrid(key, appName, fromEmail string) *SendGrid {
	return &SendGrid{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (s *SendGrid) build(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddress))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.build(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
