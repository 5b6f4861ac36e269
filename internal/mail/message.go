// Package mail carries auth emails from the API to the mailer worker.
//
// The API never talks SMTP directly: handlers hand a Message to a
// Dispatcher and move on. The AMQP dispatcher queues it for the worker;
// the log dispatcher is the fallback for setups without a broker.
package mail

import (
	"context"
	"encoding/json"
	"time"
)

// Kind selects the email template.
type Kind string

const (
	KindConfirmation  Kind = "confirmation"
	KindPasswordReset Kind = "password_reset"
)

// Message is the templated-email request published to the queue.
type Message struct {
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	To        string    `json:"to"`
	Token     string    `json:"token"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(kind Kind, name, to, token string) *Message {
	return &Message{
		Kind:      kind,
		Name:      name,
		To:        to,
		Token:     token,
		Timestamp: time.Now(),
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Dispatcher sends a message on its way. Implementations must be safe for
// concurrent use by request handlers.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg *Message) error
}
