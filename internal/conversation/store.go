// ABOUTME: In-memory conversation store: single source of truth for conversations and the active selection
// ABOUTME: All mutation flows through the exported operations; readers always get deep copies

package conversation

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/krishimitra/krishimitra/internal/chat"
	"github.com/krishimitra/krishimitra/internal/locale"
)

// ErrDuplicateConversation is returned when adding a conversation whose id
// already exists.
var ErrDuplicateConversation = errors.New("conversation already exists")

// Store holds every conversation the local user can see, in listing order,
// plus the advisory active selection. It is created once per session and is
// the only shared mutable state in the engine.
type Store struct {
	mu     sync.RWMutex
	order  []string
	byID   map[string]*chat.Conversation
	active string
	logger *slog.Logger
}

// NewStore creates a store seeded with the given conversations, in order.
// Pass nil logger for the default.
func NewStore(seed []*chat.Conversation, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		byID:   make(map[string]*chat.Conversation, len(seed)),
		logger: logger.With("component", "store"),
	}
	for _, conv := range seed {
		if _, ok := s.byID[conv.ID]; ok {
			continue
		}
		s.order = append(s.order, conv.ID)
		s.byID[conv.ID] = conv.Clone()
	}
	return s
}

// List returns all conversations in listing order. The returned values are
// copies; mutating them does not touch store state.
func (s *Store) List() []*chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*chat.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// Get returns a copy of the conversation with the given id.
func (s *Store) Get(id string) (*chat.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return conv.Clone(), true
}

// SetActive records the active selection. It always succeeds; the id need not
// exist. Selecting a nonexistent id simply reads back as no active
// conversation.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = id
}

// Active returns the currently selected conversation, if the selection
// resolves to one.
func (s *Store) Active() (*chat.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.byID[s.active]
	if !ok {
		return nil, false
	}
	return conv.Clone(), true
}

// AppendMessage appends msg to the conversation's transcript. Unknown
// conversation ids are a silent no-op; nothing else is touched.
func (s *Store) AppendMessage(conversationID string, msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.byID[conversationID]
	if !ok {
		s.logger.Debug("append to unknown conversation ignored", "conversation_id", conversationID)
		return
	}
	conv.Messages = append(conv.Messages, msg)
}

// Add inserts a new conversation at the front of the listing order, so newly
// created conversations list most-recent-first.
func (s *Store) Add(conv *chat.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[conv.ID]; ok {
		return ErrDuplicateConversation
	}
	s.byID[conv.ID] = conv.Clone()
	s.order = append([]string{conv.ID}, s.order...)
	s.logger.Debug("conversation added", "conversation_id", conv.ID, "is_group", conv.IsGroup)
	return nil
}

// RetargetLocale applies a locale change to assistant-backed conversations:
// the conversation is renamed to the locale's assistant display name, and the
// first message's text is rewritten to the locale's welcome text iff that
// message was authored by the assistant. No message beyond index 0 is ever
// touched, so an in-flight send cannot be disturbed.
func (s *Store) RetargetLocale(strs locale.Strings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range s.byID {
		if !conv.AssistantBacked() {
			continue
		}
		conv.Name = strs.AssistantName
		for i := range conv.Members {
			if conv.Members[i].ID == chat.AssistantID {
				conv.Members[i].Name = strs.AssistantName
			}
		}
		if len(conv.Messages) > 0 && conv.Messages[0].SenderID == chat.AssistantID {
			conv.Messages[0].Text = strs.Welcome
		}
		s.logger.Debug("conversation retargeted to locale",
			"conversation_id", conv.ID,
			"lang", string(strs.Lang))
	}
}
