package agoraauth

import (
	"context"
	"encoding/gob"

	"github.com/alexedwards/scs/v2"
)

const statusMessageSessionKey = "statusmessage"

type StatusKind string

const (
	StatusError   StatusKind = "alert-danger"
	StatusSuccess StatusKind = "alert-success"
)

// StatusMessage is a one-shot message shown on the next rendered page.
type StatusMessage struct {
	Kind  StatusKind
	Title string
	Text  string
}

func init() {
	gob.Register(StatusMessage{})
}

func ErrorMessage(title, text string) StatusMessage {
	return StatusMessage{Kind: StatusError, Title: title, Text: text}
}

func SuccessMessage(title, text string) StatusMessage {
	return StatusMessage{Kind: StatusSuccess, Title: title, Text: text}
}

// PutIntoSession replaces any pending status message.
func (m StatusMessage) PutIntoSession(ctx context.Context, sessions *scs.SessionManager) {
	sessions.Put(ctx, statusMessageSessionKey, m)
}

// PopStatusMessage returns and removes the pending status message, if any.
func PopStatusMessage(ctx context.Context, sessions *scs.SessionManager) (StatusMessage, bool) {
	m, ok := sessions.Pop(ctx, statusMessageSessionKey).(StatusMessage)
	return m, ok
}
