// ABOUTME: Passive data records for the chat domain: users, messages, conversations
// ABOUTME: No behavior beyond lookup helpers; all mutation lives in the conversation package

package chat

// AssistantID is the reserved identity of the AI assistant. It is distinct
// from every human user id and is the only way a conversation becomes
// assistant-backed.
const AssistantID = "user_ai"

// DefaultLocalUserID identifies the seeded local user when no login has
// happened yet (single local session).
const DefaultLocalUserID = "user_0"

// User is a chat participant.
type User struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Avatar string `json:"avatar" yaml:"avatar"` // single glyph
}

// Message is one entry in a conversation transcript. Immutable once created;
// the only exception is the locale rewrite of the assistant welcome message,
// which replaces the text of message index 0 in place.
type Message struct {
	ID        string `json:"id"`
	SenderID  string `json:"sender_id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"` // display-formatted, e.g. "10:30 AM"
}

// Conversation is an ordered transcript shared by a set of members.
type Conversation struct {
	ID       string
	Name     string
	Members  []User
	Messages []Message
	IsGroup  bool
	Avatar   string
}

// HasMember reports whether the given user id is in the member set.
func (c *Conversation) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// AssistantBacked reports whether the assistant is a member. This is an
// independent predicate: it is never derived from IsGroup.
func (c *Conversation) AssistantBacked() bool {
	return c.HasMember(AssistantID)
}

// Clone returns a deep copy so readers never alias store-owned slices.
func (c *Conversation) Clone() *Conversation {
	out := &Conversation{
		ID:       c.ID,
		Name:     c.Name,
		IsGroup:  c.IsGroup,
		Avatar:   c.Avatar,
		Members:  make([]User, len(c.Members)),
		Messages: make([]Message, len(c.Messages)),
	}
	copy(out.Members, c.Members)
	copy(out.Messages, c.Messages)
	return out
}
