package chat

import (
	"errors"
	"fmt"
	"time"
)

// State is where a conversation stands.
type State string

const (
	StateIdle                  State = "idle"
	StateAwaitingExtraction    State = "awaiting-extraction"
	StateAwaitingClarification State = "awaiting-clarification"
	StateDisplayingResults     State = "displaying-results"
)

// Event drives a state change.
type Event string

const (
	// EventMessageSent: the user submitted a message.
	EventMessageSent Event = "message-sent"
	// EventExtractionIncomplete: extraction resolved without all three
	// criteria, or failed.
	EventExtractionIncomplete Event = "extraction-incomplete"
	// EventSearchCompleted: extraction resolved with all criteria and the
	// search ran.
	EventSearchCompleted Event = "search-completed"
)

var (
	// ErrBusy is returned while a previous message of the same session is
	// still being processed.
	ErrBusy = errors.New("session is busy")
	// ErrInvalidInput is returned for blank or oversized messages.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition is returned for an event the state does not accept.
	ErrInvalidTransition = errors.New("invalid transition")
)

// Next returns the state reached from s on e.
func Next(s State, e Event) (State, error) {
	switch e {
	case EventMessageSent:
		if s == StateAwaitingExtraction {
			return s, ErrBusy
		}
		return StateAwaitingExtraction, nil
	case EventExtractionIncomplete:
		if s == StateAwaitingExtraction {
			return StateAwaitingClarification, nil
		}
	case EventSearchCompleted:
		if s == StateAwaitingExtraction {
			return StateDisplayingResults, nil
		}
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}

// Roles of chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat bubble. Assistant content is HTML.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is the conversation of one chat widget.
type Session struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession starts a conversation with the greeting.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		State:     StateIdle,
		Messages:  []Message{{Role: RoleAssistant, Content: GreetingMessage}},
		UpdatedAt: time.Now().UTC(),
	}
}

// apply moves the session along e.
func (s *Session) apply(e Event) error {
	next, err := Next(s.State, e)
	if err != nil {
		return err
	}
	s.State = next
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Session) add(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}
