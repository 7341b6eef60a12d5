// Package mailer sends magic link emails through Postmark.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"

	aa "github.com/softwerkskammer/agoraauth"
)

var (
	ErrInvalidConfig     = errors.New("mailer: invalid config")
	ErrFailedToSendEmail = errors.New("mailer: failed to send email")
)

// Config is read from the environment with caarlos0/env.
type Config struct {
	PostmarkServerToken string `env:"POSTMARK_SERVER_TOKEN"`
	SenderEmail         string `env:"MAIL_SENDER" envDefault:"noreply@softwerkskammer.org"`
	ReplyTo             string `env:"MAIL_REPLY_TO"`
	Subject             string `env:"MAGIC_LINK_SUBJECT" envDefault:"Dein Login-Link für die Softwerkskammer"`
	MessageStream       string `env:"POSTMARK_MESSAGE_STREAM" envDefault:"outbound"`

	// Magic link callback route the token is appended to, see agoraauth.Config.CallbackURL
	CallbackURL string `env:"MAGIC_LINK_CALLBACK_URL" envDefault:"http://localhost:17124/auth/magiclink/callback"`
}

// PostmarkSender implements agoraauth.MagicLinkSender
type PostmarkSender struct {
	client *postmark.Client
	config Config
}

func NewPostmarkSender(cfg Config) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if !strings.Contains(cfg.SenderEmail, "@") {
		return nil, fmt.Errorf("%w: SenderEmail must be an email address", ErrInvalidConfig)
	}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, ""),
		config: cfg,
	}, nil
}

// SendMagicLink mails the login link to the member.
func (s *PostmarkSender) SendMagicLink(ctx context.Context, member *aa.Member, token string) error {
	if member == nil || member.Email == "" {
		return fmt.Errorf("%w: member without email", ErrFailedToSendEmail)
	}
	link := aa.MagicLinkURL(s.config.CallbackURL, token)
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:          s.config.SenderEmail,
		ReplyTo:       s.config.ReplyTo,
		To:            member.Email,
		Subject:       s.config.Subject,
		Tag:           "magiclink",
		TextBody:      textBody(link),
		HTMLBody:      htmlBody(link),
		MessageStream: s.config.MessageStream,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

func textBody(link string) string {
	return "Hallo,\n\nmit diesem Link kannst Du Dich in den nächsten 30 Minuten anmelden:\n\n" + link + "\n"
}

func htmlBody(link string) string {
	return `<p>Hallo,</p><p>mit diesem Link kannst Du Dich in den nächsten 30 Minuten anmelden:</p><p><a href="` +
		link + `">Anmelden</a></p>`
}
