package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/refugee-resources/resource-locator/internal/extract"
	"github.com/refugee-resources/resource-locator/internal/search"
)

// IndexProvider hands out the current fuzzy index.
type IndexProvider interface {
	Index(ctx context.Context) (*search.Index, error)
}

// Reply is what the widget shows after a message.
type Reply struct {
	SessionID string         `json:"sessionId"`
	State     State          `json:"state"`
	Message   string         `json:"message"`
	Missing   []string       `json:"missing,omitempty"`
	Full      bool           `json:"full"`
	Results   []search.Match `json:"results"`
}

// Assistant answers chat messages with matching resources.
type Assistant struct {
	extractor extract.Extractor
	indexes   IndexProvider
	store     Store
	maxInput  int
}

// NewAssistant wires the collaborators. maxInput limits a message in
// characters; zero means 500.
func NewAssistant(extractor extract.Extractor, indexes IndexProvider, store Store, maxInput int) *Assistant {
	if maxInput <= 0 {
		maxInput = 500
	}
	return &Assistant{extractor: extractor, indexes: indexes, store: store, maxInput: maxInput}
}

// Session returns the stored conversation.
func (a *Assistant) Session(ctx context.Context, id string) (*Session, error) {
	return a.store.Get(ctx, id)
}

// Send handles one user message. Messages of a session are processed one at a
// time; a message arriving while another is in flight gets ErrBusy. Missing
// or unavailable criteria produce a clarification reply, never an error.
func (a *Assistant) Send(ctx context.Context, sessionID, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(text); n > a.maxInput {
		return Reply{}, fmt.Errorf("%w: message has %d characters, limit is %d", ErrInvalidInput, n, a.maxInput)
	}

	unlock, err := a.store.Lock(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}
	defer unlock()

	sess, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("load session: %w", err)
	}
	if sess.State == StateAwaitingExtraction {
		// Left behind by an instance that died mid-request; we hold the lock.
		log.Printf("Session %s was left awaiting extraction, resetting", sessionID)
		sess.State = StateIdle
	}

	sess.add(RoleUser, text)
	if err := sess.apply(EventMessageSent); err != nil {
		return Reply{}, err
	}
	if err := a.store.Save(ctx, sess); err != nil {
		return Reply{}, fmt.Errorf("save session: %w", err)
	}

	reply := a.respond(ctx, sess, text)

	sess.add(RoleAssistant, reply.Message)
	if err := a.store.Save(ctx, sess); err != nil {
		return Reply{}, fmt.Errorf("save session: %w", err)
	}
	reply.SessionID = sess.ID
	reply.State = sess.State
	return reply, nil
}

func (a *Assistant) respond(ctx context.Context, sess *Session, text string) Reply {
	res, err := a.extractor.Extract(ctx, text)
	if err != nil {
		log.Printf("Error extracting criteria for session %s: %v", sess.ID, err)
		return a.clarify(sess, nil)
	}
	if !res.Complete() {
		log.Printf("Extraction for session %s is missing %v", sess.ID, res.Missing())
		return a.clarify(sess, res.Missing())
	}

	idx, err := a.indexes.Index(ctx)
	if err != nil {
		log.Printf("Error loading resources for session %s: %v", sess.ID, err)
		return a.clarify(sess, nil)
	}

	result := search.Evaluate(res.Criteria(), idx)
	log.Printf("Session %s: %d full and %d partial matches for %q",
		sess.ID, len(result.Full), len(result.Partial), result.Criteria.Query())

	if err := sess.apply(EventSearchCompleted); err != nil {
		log.Printf("Error moving session %s: %v", sess.ID, err)
	}
	return Reply{
		Message: RenderResults(result),
		Full:    result.IsFull(),
		Results: result.Selected(),
	}
}

func (a *Assistant) clarify(sess *Session, missing []string) Reply {
	if err := sess.apply(EventExtractionIncomplete); err != nil {
		log.Printf("Error moving session %s: %v", sess.ID, err)
	}
	return Reply{Message: clarification(missing), Missing: missing, Results: []search.Match{}}
}
