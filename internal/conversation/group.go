// ABOUTME: Group composer: validates and creates a new group conversation
// ABOUTME: The creator is always a member and the new group becomes the active conversation

package conversation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/krishimitra/krishimitra/internal/chat"
)

// GroupAvatar is the fixed glyph for group conversations.
const GroupAvatar = "👥"

// CreateGroup builds a new group conversation from a name and candidate
// members, registers it at the front of the listing and makes it the active
// conversation. Members are deduplicated by id; the creator is always
// included even when omitted from the candidates.
func (s *Service) CreateGroup(name string, members []chat.User, creator chat.User) (*chat.Conversation, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty group name", ErrValidation)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: a group needs at least one member besides the creator", ErrValidation)
	}

	seen := make(map[string]bool, len(members)+1)
	unique := make([]chat.User, 0, len(members)+1)
	for _, m := range members {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		unique = append(unique, m)
	}
	if !seen[creator.ID] {
		unique = append(unique, creator)
	}

	conv := &chat.Conversation{
		ID:       uuid.New().String(),
		Name:     trimmed,
		Members:  unique,
		Messages: []chat.Message{},
		IsGroup:  true,
		Avatar:   GroupAvatar,
	}
	if err := s.store.Add(conv); err != nil {
		return nil, err
	}
	s.store.SetActive(conv.ID)

	s.logger.Info("group created",
		"conversation_id", conv.ID,
		"name", conv.Name,
		"members", len(conv.Members))
	return conv, nil
}
