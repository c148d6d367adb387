package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// MemorySender records messages instead of delivering them. It backs
// development environments and tests.
type MemorySender struct {
	logger *slog.Logger

	mu     sync.Mutex
	emails []Message
	sms    []Message
}

func NewMemorySender(logger *slog.Logger) *MemorySender {
	return &MemorySender{logger: logger}
}

func (s *MemorySender) SendEmail(_ context.Context, msg Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.emails = append(s.emails, msg)
	s.logger.Info("Email captured", "to", msg.To, "subject", msg.Subject, "message_id", id)

	return id, nil
}

func (s *MemorySender) SendSMS(_ context.Context, msg Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.sms = append(s.sms, msg)
	s.logger.Info("SMS captured", "to", msg.To, "message_id", id)

	return id, nil
}

// Emails returns a copy of every captured email.
func (s *MemorySender) Emails() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.emails))
	copy(out, s.emails)

	return out
}

// SMS returns a copy of every captured SMS.
func (s *MemorySender) SMS() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.sms))
	copy(out, s.sms)

	return out
}
