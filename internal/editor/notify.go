package editor

import (
	"log/slog"
	"sync"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Message is a user-facing notification.
type Message struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// ConfirmRequest asks the user to approve a destructive action. The answer
// comes back through Editor.ConfirmDelete.
type ConfirmRequest struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// Sink receives notifications and confirmation requests.
type Sink interface {
	Notify(Message)
	Confirm(ConfirmRequest)
}

// LogSink writes everything to slog. It is the default sink.
type LogSink struct{}

func (LogSink) Notify(m Message) {
	if m.Severity == SeverityError {
		slog.Warn("editor", "message", m.Text)
		return
	}
	slog.Info("editor", "message", m.Text, "severity", m.Severity)
}

func (LogSink) Confirm(r ConfirmRequest) {
	slog.Info("editor confirm", "id", r.ID, "prompt", r.Prompt)
}

// Queue buffers notifications until they are drained by a transport.
type Queue struct {
	mu       sync.Mutex
	messages []Message
	confirms []ConfirmRequest
}

func (q *Queue) Notify(m Message) {
	q.mu.Lock()
	q.messages = append(q.messages, m)
	q.mu.Unlock()
}

func (q *Queue) Confirm(r ConfirmRequest) {
	q.mu.Lock()
	q.confirms = append(q.confirms, r)
	q.mu.Unlock()
}

// Drain returns and clears everything queued so far.
func (q *Queue) Drain() ([]Message, []ConfirmRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	m, c := q.messages, q.confirms
	q.messages, q.confirms = nil, nil
	return m, c
}

// Last returns the most recent message, or the zero Message.
func (q *Queue) Last() Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		return Message{}
	}
	return q.messages[len(q.messages)-1]
}
