package infrastructure

import (
	"context"
	"sync"
)

// SentMail is one captured verification email.
type SentMail struct {
	Recipient string
	Name      string
	Code      string
}

// MemoryMailer captures verification emails instead of sending them. Used in
// tests and local development.
type MemoryMailer struct {
	mutex sync.Mutex
	sent  []SentMail
}

func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

func (m *MemoryMailer) SendVerificationEmail(_ context.Context, recipientEmail, recipientName, code string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sent = append(m.sent, SentMail{Recipient: recipientEmail, Name: recipientName, Code: code})
	return nil
}

// Sent returns a copy of all captured emails in send order.
func (m *MemoryMailer) Sent() []SentMail {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := make([]SentMail, len(m.sent))
	copy(out, m.sent)
	return out
}
