// ABOUTME: Tests for the embedded seed data
// ABOUTME: Verifies fixture integrity and locale substitution for the assistant conversation

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	users, err := Users()
	require.NoError(t, err)
	require.Len(t, users, 6)
	assert.Equal(t, DefaultLocalUserID, users[0].ID)
	for _, u := range users {
		assert.NotEqual(t, AssistantID, u.ID, "assistant is not in the user directory")
		assert.NotEmpty(t, u.Name)
		assert.NotEmpty(t, u.Avatar)
	}
}

func TestUserByID(t *testing.T) {
	u, ok := UserByID("user_2")
	require.True(t, ok)
	assert.Equal(t, "Sunita Devi", u.Name)

	_, ok = UserByID("ghost")
	assert.False(t, ok)
}

func TestSeed(t *testing.T) {
	convs, err := Seed("Agro Assistant", "Welcome!")
	require.NoError(t, err)
	require.Len(t, convs, 4)

	assistantBacked := 0
	for _, conv := range convs {
		assert.NotEmpty(t, conv.Members, "members never empty")
		assert.True(t, conv.HasMember(DefaultLocalUserID), "local user sees every conversation")
		if conv.AssistantBacked() {
			assistantBacked++
		}
	}
	assert.Equal(t, 1, assistantBacked, "exactly one assistant conversation")
}

func TestSeed_AssistantConversationUsesLocaleStrings(t *testing.T) {
	convs, err := Seed("कृषि सहायक", "नमस्ते!")
	require.NoError(t, err)

	var ai *Conversation
	for _, conv := range convs {
		if conv.AssistantBacked() {
			ai = conv
		}
	}
	require.NotNil(t, ai)
	assert.Equal(t, "कृषि सहायक", ai.Name)
	assert.False(t, ai.IsGroup)
	require.NotEmpty(t, ai.Messages)
	assert.Equal(t, AssistantID, ai.Messages[0].SenderID)
	assert.Equal(t, "नमस्ते!", ai.Messages[0].Text)
}

func TestConversation_AssistantBackedIndependentOfIsGroup(t *testing.T) {
	conv := &Conversation{
		IsGroup: true,
		Members: []User{{ID: "user_0"}, {ID: AssistantID}},
	}
	assert.True(t, conv.AssistantBacked())

	plain := &Conversation{
		IsGroup: false,
		Members: []User{{ID: "user_0"}, {ID: "user_1"}},
	}
	assert.False(t, plain.AssistantBacked())
}

func TestConversation_Clone(t *testing.T) {
	orig := &Conversation{
		ID:       "c1",
		Members:  []User{{ID: "user_0"}},
		Messages: []Message{{ID: "m1", Text: "hello"}},
	}
	clone := orig.Clone()
	clone.Messages[0].Text = "changed"
	clone.Members[0].ID = "other"

	assert.Equal(t, "hello", orig.Messages[0].Text)
	assert.Equal(t, "user_0", orig.Members[0].ID)
}
