// ABOUTME: Embedded fixture data: the seeded user directory and initial conversations
// ABOUTME: The assistant conversation's name and welcome text come from the active locale

package chat

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Users         []User             `yaml:"users"`
	Conversations []seedConversation `yaml:"conversations"`
}

type seedConversation struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Members  []string      `yaml:"members"`
	IsGroup  bool          `yaml:"is_group"`
	Avatar   string        `yaml:"avatar"`
	Messages []seedMessage `yaml:"messages"`
}

type seedMessage struct {
	ID        string `yaml:"id"`
	Sender    string `yaml:"sender"`
	Text      string `yaml:"text"`
	Timestamp string `yaml:"timestamp"`
}

// Users returns the seeded user directory. The assistant is not included;
// it has no profile beyond its locale-dependent display name.
func Users() ([]User, error) {
	var f seedFile
	if err := yaml.Unmarshal(seedYAML, &f); err != nil {
		return nil, fmt.Errorf("parsing seed data: %w", err)
	}
	return f.Users, nil
}

// UserByID looks up a seeded user.
func UserByID(id string) (User, bool) {
	users, err := Users()
	if err != nil {
		return User{}, false
	}
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// Seed builds the initial conversation set. assistantName and welcome are the
// active locale's assistant display name and welcome text; they fill in the
// assistant-backed conversation, whose content is locale-dependent.
func Seed(assistantName, welcome string) ([]*Conversation, error) {
	var f seedFile
	if err := yaml.Unmarshal(seedYAML, &f); err != nil {
		return nil, fmt.Errorf("parsing seed data: %w", err)
	}

	byID := make(map[string]User, len(f.Users)+1)
	for _, u := range f.Users {
		byID[u.ID] = u
	}
	byID[AssistantID] = User{ID: AssistantID, Name: assistantName, Avatar: "✨"}

	out := make([]*Conversation, 0, len(f.Conversations))
	for _, sc := range f.Conversations {
		conv := &Conversation{
			ID:       sc.ID,
			Name:     sc.Name,
			IsGroup:  sc.IsGroup,
			Avatar:   sc.Avatar,
			Messages: make([]Message, 0, len(sc.Messages)),
		}
		for _, mid := range sc.Members {
			u, ok := byID[mid]
			if !ok {
				return nil, fmt.Errorf("seed conversation %s references unknown user %s", sc.ID, mid)
			}
			conv.Members = append(conv.Members, u)
		}
		for _, sm := range sc.Messages {
			conv.Messages = append(conv.Messages, Message{
				ID:        sm.ID,
				SenderID:  sm.Sender,
				Text:      sm.Text,
				Timestamp: sm.Timestamp,
			})
		}
		if conv.AssistantBacked() {
			conv.Name = assistantName
			if len(conv.Messages) > 0 && conv.Messages[0].SenderID == AssistantID {
				conv.Messages[0].Text = welcome
			}
		}
		out = append(out, conv)
	}
	return out, nil
}
