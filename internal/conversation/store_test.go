// ABOUTME: Tests for the in-memory conversation Store
// ABOUTME: Covers listing order, active selection, append semantics and locale retargeting

package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishimitra/krishimitra/internal/chat"
	"github.com/krishimitra/krishimitra/internal/locale"
)

func seedConversations(t *testing.T) []*chat.Conversation {
	t.Helper()
	seed, err := chat.Seed("Agro Assistant", "Welcome to the assistant.")
	require.NoError(t, err)
	return seed
}

func TestStore_ListPreservesSeedOrder(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	convs := s.List()
	require.Len(t, convs, 4)
	assert.Equal(t, "conv_ai", convs[0].ID)
	assert.Equal(t, "conv_1", convs[1].ID)
	assert.Equal(t, "conv_2", convs[2].ID)
	assert.Equal(t, "conv_3", convs[3].ID)
}

func TestStore_GetReturnsCopies(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	conv, ok := s.Get("conv_1")
	require.True(t, ok)
	conv.Messages[0].Text = "mutated"
	conv.Name = "mutated"

	fresh, ok := s.Get("conv_1")
	require.True(t, ok)
	assert.NotEqual(t, "mutated", fresh.Messages[0].Text)
	assert.Equal(t, "Ramesh Singh", fresh.Name)
}

func TestStore_GetUnknown(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestStore_SetActive(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	s.SetActive("conv_2")
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "conv_2", active.ID)

	// Idempotent: selecting the same id again reads back identically.
	s.SetActive("conv_2")
	again, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, active.ID, again.ID)
}

func TestStore_SetActiveNonexistentID(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	// Always succeeds, but reads back as no active conversation.
	s.SetActive("ghost")
	_, ok := s.Active()
	assert.False(t, ok)
}

func TestStore_AppendMessage(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	before, _ := s.Get("conv_1")
	s.AppendMessage("conv_1", chat.Message{ID: "m1", SenderID: "user_0", Text: "hello", Timestamp: "1:00 PM"})

	after, _ := s.Get("conv_1")
	require.Len(t, after.Messages, len(before.Messages)+1)
	assert.Equal(t, "hello", after.Messages[len(after.Messages)-1].Text)

	// Other conversations untouched.
	other, _ := s.Get("conv_2")
	assert.Len(t, other.Messages, 3)
}

func TestStore_AppendMessageUnknownConversationIsNoOp(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	s.AppendMessage("ghost", chat.Message{ID: "m1", SenderID: "user_0", Text: "hello"})

	for _, conv := range s.List() {
		for _, msg := range conv.Messages {
			assert.NotEqual(t, "m1", msg.ID)
		}
	}
}

func TestStore_AddPrepends(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	err := s.Add(&chat.Conversation{
		ID:      "conv_new",
		Name:    "New Group",
		Members: []chat.User{{ID: "user_0"}},
		IsGroup: true,
	})
	require.NoError(t, err)

	convs := s.List()
	assert.Equal(t, "conv_new", convs[0].ID)
	assert.Len(t, convs, 5)
}

func TestStore_AddDuplicateID(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	err := s.Add(&chat.Conversation{ID: "conv_1", Name: "Clash"})
	require.ErrorIs(t, err, ErrDuplicateConversation)

	// Existing conversation unchanged.
	conv, _ := s.Get("conv_1")
	assert.Equal(t, "Ramesh Singh", conv.Name)
}

func TestStore_RetargetLocale(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	hi := locale.For(locale.Hindi)
	s.RetargetLocale(hi)

	conv, _ := s.Get("conv_ai")
	assert.Equal(t, hi.AssistantName, conv.Name)
	assert.Equal(t, hi.Welcome, conv.Messages[0].Text)

	// Non-assistant conversations untouched.
	other, _ := s.Get("conv_1")
	assert.Equal(t, "Ramesh Singh", other.Name)
}

func TestStore_RetargetLocaleTwiceKeepsMostRecent(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	s.RetargetLocale(locale.For(locale.Hindi))
	ne := locale.For(locale.Nepali)
	s.RetargetLocale(ne)

	conv, _ := s.Get("conv_ai")
	assert.Equal(t, ne.Welcome, conv.Messages[0].Text)
	assert.Equal(t, ne.AssistantName, conv.Name)
}

func TestStore_RetargetLocaleNeverTouchesLaterMessages(t *testing.T) {
	s := NewStore(seedConversations(t), nil)

	s.AppendMessage("conv_ai", chat.Message{ID: "m_user", SenderID: "user_0", Text: "How do I treat blight?"})
	s.AppendMessage("conv_ai", chat.Message{ID: "m_ai", SenderID: chat.AssistantID, Text: "Use a copper fungicide."})

	s.RetargetLocale(locale.For(locale.Hindi))

	conv, _ := s.Get("conv_ai")
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, "How do I treat blight?", conv.Messages[1].Text)
	assert.Equal(t, "Use a copper fungicide.", conv.Messages[2].Text)
}

func TestStore_RetargetLocaleSkipsRewriteWhenFirstMessageIsUserAuthored(t *testing.T) {
	conv := &chat.Conversation{
		ID:   "conv_x",
		Name: "Old Name",
		Members: []chat.User{
			{ID: "user_0"},
			{ID: chat.AssistantID},
		},
		Messages: []chat.Message{
			{ID: "m1", SenderID: "user_0", Text: "first"},
		},
	}
	s := NewStore([]*chat.Conversation{conv}, nil)

	hi := locale.For(locale.Hindi)
	s.RetargetLocale(hi)

	got, _ := s.Get("conv_x")
	assert.Equal(t, hi.AssistantName, got.Name, "rename still applies")
	assert.Equal(t, "first", got.Messages[0].Text, "user-authored first message is never rewritten")
}
