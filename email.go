package agoraauth

import (
	"context"
	"log"
	"net/url"
)

// MagicLinkSender delivers magic link tokens to members.
// Implementations render the token into a link themselves (see MagicLinkURL).
type MagicLinkSender interface {
	SendMagicLink(ctx context.Context, member *Member, token string) error
}

// MagicLinkURL returns the link a member clicks to log in with the given token.
// callbackURL is the magic link callback route, usually Config.CallbackURL("magiclink").
func MagicLinkURL(callbackURL, token string) string {
	return callbackURL + "?token=" + url.QueryEscape(token)
}

// ConsoleEmailSender is a development implementation that logs emails to console
type ConsoleEmailSender struct {
	CallbackURL string
}

func (c *ConsoleEmailSender) SendMagicLink(ctx context.Context, member *Member, token string) error {
	log.Printf("\n=== EMAIL: Magic Link ===")
	log.Printf("To: %s", member.Email)
	log.Printf("Subject: Your login link")
	log.Printf("Body: Log in by clicking: %s (valid for 30 minutes)", MagicLinkURL(c.CallbackURL, token))
	log.Printf("=========================\n")
	return nil
}
