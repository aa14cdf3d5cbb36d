// ABOUTME: Service is the message dispatcher: optimistic append, assistant round trip, reconciliation
// ABOUTME: Record first, then ask the assistant - the user's message lands before any network activity

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/krishimitra/krishimitra/internal/assistant"
	"github.com/krishimitra/krishimitra/internal/chat"
	"github.com/krishimitra/krishimitra/internal/locale"
)

// ErrValidation is returned synchronously for invalid caller input: empty
// message text, unknown conversation id, empty group name or member list.
// Nothing is mutated when it is returned.
var ErrValidation = errors.New("invalid input")

// Service orchestrates sending messages and creating groups on top of the
// Store. Assistant failures never surface to callers of Send; they are
// reconciled into the conversation as an assistant-authored error message.
type Service struct {
	store     *Store
	responder assistant.Responder
	events    *Broadcaster
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	composing map[string]int // conversationID -> outstanding round trips
	strings   locale.Strings
}

// NewService creates the dispatcher. events may be nil when no live
// subscribers are needed (tests, batch tools). Pass nil logger for the
// default. The locale starts as English; use SetLocale to change it.
func NewService(store *Store, responder assistant.Responder, events *Broadcaster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		responder: responder,
		events:    events,
		logger:    logger.With("component", "dispatcher"),
		now:       time.Now,
		composing: make(map[string]int),
		strings:   locale.For(locale.English),
	}
}

// SetLocale applies a locale change: the engine's error text switches and the
// assistant conversation is retargeted (rename + welcome rewrite). Safe to
// call while a send is in flight; the retarget only ever touches message
// index 0.
func (s *Service) SetLocale(strs locale.Strings) {
	s.mu.Lock()
	s.strings = strs
	s.mu.Unlock()
	s.store.RetargetLocale(strs)
}

// Locale returns the strings currently used for assistant naming and errors.
func (s *Service) Locale() locale.Strings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strings
}

// Send appends the user's message to the conversation and, when the
// conversation is assistant-backed, drives the assistant round trip
// asynchronously. Completion is observed through the Store (and the event
// stream), not through the return value.
//
// The user's message is visible in the store before this function returns.
// Whether the conversation is assistant-backed is decided once, from the
// member set at the moment of send.
func (s *Service) Send(ctx context.Context, conversationID, text string, from chat.User) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("%w: empty message", ErrValidation)
	}
	conv, ok := s.store.Get(conversationID)
	if !ok {
		return fmt.Errorf("%w: unknown conversation %q", ErrValidation, conversationID)
	}

	msg := chat.Message{
		ID:        uuid.New().String(),
		SenderID:  from.ID,
		Text:      trimmed,
		Timestamp: s.timestamp(),
	}

	// Snapshot the transcript for the responder before the append so a
	// concurrent completion landing in between cannot leak into the history.
	history := make([]chat.Message, 0, len(conv.Messages)+1)
	history = append(history, conv.Messages...)
	history = append(history, msg)

	s.store.AppendMessage(conversationID, msg)
	s.publishMessage(conversationID, msg)

	s.logger.Debug("user message appended",
		"conversation_id", conversationID,
		"message_id", msg.ID,
		"sender", from.ID)

	if !conv.AssistantBacked() {
		return nil
	}

	s.beginComposing(conversationID)

	// Sends are not cancellable once dispatched; detach from the caller's
	// request lifetime. Timeouts are the responder's responsibility.
	go s.reconcile(context.WithoutCancel(ctx), conversationID, history, from)
	return nil
}

// reconcile completes one assistant round trip: success appends the reply,
// failure appends the locale error text. Either way the conversation shows a
// terminal outcome and the composing flag is cleared.
func (s *Service) reconcile(ctx context.Context, conversationID string, history []chat.Message, from chat.User) {
	defer s.endComposing(conversationID)

	text, err := s.responder.Complete(ctx, history, from)
	if err != nil {
		s.logger.Warn("assistant round trip failed",
			"conversation_id", conversationID,
			"error", err)
		text = s.Locale().AssistantError
	}

	msg := chat.Message{
		ID:        uuid.New().String(),
		SenderID:  chat.AssistantID,
		Text:      text,
		Timestamp: s.timestamp(),
	}
	s.store.AppendMessage(conversationID, msg)
	s.publishMessage(conversationID, msg)

	s.logger.Debug("assistant message appended",
		"conversation_id", conversationID,
		"message_id", msg.ID,
		"failed", err != nil)
}

// Composing reports whether an assistant reply is in flight for the
// conversation.
func (s *Service) Composing(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composing[conversationID] > 0
}

// beginComposing raises the per-conversation composing flag. Overlapping
// sends to the same conversation are allowed; the flag stays up until the
// last outstanding round trip completes.
func (s *Service) beginComposing(conversationID string) {
	s.mu.Lock()
	s.composing[conversationID]++
	raised := s.composing[conversationID] == 1
	s.mu.Unlock()
	if raised {
		s.publishComposing(conversationID, true)
	}
}

// endComposing lowers the composing flag. Lowering an already-clear flag is a
// no-op.
func (s *Service) endComposing(conversationID string) {
	s.mu.Lock()
	cleared := false
	if s.composing[conversationID] > 0 {
		s.composing[conversationID]--
		if s.composing[conversationID] == 0 {
			delete(s.composing, conversationID)
			cleared = true
		}
	}
	s.mu.Unlock()
	if cleared {
		s.publishComposing(conversationID, false)
	}
}

func (s *Service) publishMessage(conversationID string, msg chat.Message) {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{
		Type:           EventMessage,
		ConversationID: conversationID,
		Message:        &msg,
	})
}

func (s *Service) publishComposing(conversationID string, composing bool) {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{
		Type:           EventComposing,
		ConversationID: conversationID,
		Composing:      composing,
	})
}

// timestamp renders a display timestamp the way the message list shows it.
func (s *Service) timestamp() string {
	return s.now().Format("3:04 PM")
}
