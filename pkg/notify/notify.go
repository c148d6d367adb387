// Package notify defines the outbound messaging senders used by workflow
// steps and bulk campaigns.
package notify

import "context"

// Message is one outbound email or SMS. Subject is empty for SMS.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// Senders return the provider message ID for the accepted message so
// delivery records can be correlated with the provider later.
type EmailSender interface {
	SendEmail(ctx context.Context, msg Message) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, msg Message) (string, error)
}

// Sender combines both delivery channels behind one dependency.
type Sender interface {
	EmailSender
	SMSSender
}
