// Package mail delivers outgoing email, either through Amazon SES or, when SES is not configured, to the log.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/myrjola/aitrainer/internal/errors"
)

var ErrInvalidInput = errors.NewSentinel("invalid contact message")

// Message is a plain text email.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// sesAPI is the subset of *ses.Client the mailer calls.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends email with Amazon SES.
type SESMailer struct {
	client sesAPI
	sender string
	logger *slog.Logger
}

// NewSESMailer loads the default AWS configuration for region. Credentials come from the usual AWS environment
// variables, shared config files or the instance role.
func NewSESMailer(ctx context.Context, region, sender string, logger *slog.Logger) (*SESMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "load aws config", slog.String("region", region))
	}
	return newSESMailer(ses.NewFromConfig(cfg), sender, logger), nil
}

func newSESMailer(client sesAPI, sender string, logger *slog.Logger) *SESMailer {
	return &SESMailer{client: client, sender: sender, logger: logger}
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(m.sender),
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}
	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return errors.Wrap(err, "ses send email", slog.String("to", msg.To))
	}
	m.logger.LogAttrs(ctx, slog.LevelInfo, "sent email",
		slog.String("to", msg.To), slog.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.LogAttrs(ctx, slog.LevelInfo, "email not sent, no mail transport configured",
		slog.String("to", msg.To),
		slog.String("reply_to", msg.ReplyTo),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body))
	return nil
}

// Contact is a message submitted through the contact form.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactMessage validates c and builds the email delivered to inbox.
func ContactMessage(c Contact, inbox string) (Message, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Message = strings.TrimSpace(c.Message)
	if c.Name == "" || c.Message == "" {
		return Message{}, errors.Wrap(ErrInvalidInput, "name and message are required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return Message{}, errors.Wrap(ErrInvalidInput, "malformed email", slog.String("email", c.Email))
	}
	return Message{
		To:      inbox,
		ReplyTo: c.Email,
		Subject: "New Contact Message from " + c.Name,
		Body:    fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s\n", c.Name, c.Email, c.Message),
	}, nil
}
