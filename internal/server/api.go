// ABOUTME: JSON handlers for the chat API: login, conversations, send, groups, locale
// ABOUTME: Assistant-authored messages carry a goldmark-rendered HTML field

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/krishimitra/krishimitra/internal/auth"
	"github.com/krishimitra/krishimitra/internal/chat"
	"github.com/krishimitra/krishimitra/internal/conversation"
	"github.com/krishimitra/krishimitra/internal/locale"
)

// LoginRequest is the JSON request body for POST /api/login.
type LoginRequest struct {
	UserID string `json:"user_id"`
}

// LoginResponse is the JSON response for POST /api/login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  chat.User `json:"user"`
}

// MessageResponse is one transcript entry. HTML is set only for
// assistant-authored messages, rendered from markdown.
type MessageResponse struct {
	ID        string `json:"id"`
	SenderID  string `json:"sender_id"`
	Text      string `json:"text"`
	HTML      string `json:"html,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ConversationResponse is the JSON shape of one conversation.
type ConversationResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Avatar    string            `json:"avatar"`
	IsGroup   bool              `json:"is_group"`
	Assistant bool              `json:"assistant"`
	Members   []chat.User       `json:"members"`
	Messages  []MessageResponse `json:"messages"`
}

// SendMessageRequest is the JSON request body for sending a message.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// CreateGroupRequest is the JSON request body for POST /api/groups.
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

// SetActiveRequest is the JSON request body for PUT /api/active.
type SetActiveRequest struct {
	ConversationID string `json:"conversation_id"`
}

// SetLocaleRequest is the JSON request body for POST /api/locale.
type SetLocaleRequest struct {
	Language string `json:"language"`
}

// ComposingResponse reports the per-conversation composing flag.
type ComposingResponse struct {
	ConversationID string `json:"conversation_id"`
	Composing      bool   `json:"composing"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, ok := chat.UserByID(req.UserID)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	token, err := s.verifier.Generate(user.ID, s.tokenTTL)
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs := s.store.List()
	out := make([]ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		out = append(out, toConversationResponse(conv))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conv))
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserFrom(r.Context())
	user, ok := chat.UserByID(userID)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	convID := r.PathValue("id")
	if err := s.conv.Send(r.Context(), convID, req.Text, user); err != nil {
		if errors.Is(err, conversation.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("send failed", "conversation_id", convID, "error", err)
		writeError(w, http.StatusInternalServerError, "send failed")
		return
	}

	// The user's message is already visible; the assistant reply, if any,
	// arrives via the event stream.
	conv, _ := s.store.Get(convID)
	writeJSON(w, http.StatusAccepted, toConversationResponse(conv))
}

func (s *Server) handleComposing(w http.ResponseWriter, r *http.Request) {
	convID := r.PathValue("id")
	writeJSON(w, http.StatusOK, ComposingResponse{
		ConversationID: convID,
		Composing:      s.conv.Composing(convID),
	})
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserFrom(r.Context())
	creator, ok := chat.UserByID(userID)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	members := make([]chat.User, 0, len(req.MemberIDs))
	for _, id := range req.MemberIDs {
		u, ok := chat.UserByID(id)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown member id: "+id)
			return
		}
		members = append(members, u)
	}

	conv, err := s.conv.CreateGroup(req.Name, members, creator)
	if err != nil {
		if errors.Is(err, conversation.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("group creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "group creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, toConversationResponse(conv))
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.store.SetActive(req.ConversationID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetActive(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.store.Active()
	if !ok {
		writeError(w, http.StatusNotFound, "no active conversation")
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conv))
}

func (s *Server) handleSetLocale(w http.ResponseWriter, r *http.Request) {
	var req SetLocaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	lang, ok := locale.Parse(req.Language)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported language: "+req.Language)
		return
	}
	s.conv.SetLocale(locale.For(lang))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := chat.Users()
	if err != nil {
		s.logger.Error("loading users failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func toConversationResponse(conv *chat.Conversation) ConversationResponse {
	out := ConversationResponse{
		ID:        conv.ID,
		Name:      conv.Name,
		Avatar:    conv.Avatar,
		IsGroup:   conv.IsGroup,
		Assistant: conv.AssistantBacked(),
		Members:   conv.Members,
		Messages:  make([]MessageResponse, 0, len(conv.Messages)),
	}
	for _, msg := range conv.Messages {
		mr := MessageResponse{
			ID:        msg.ID,
			SenderID:  msg.SenderID,
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
		}
		if msg.SenderID == chat.AssistantID {
			mr.HTML = renderMarkdown(msg.Text)
		}
		out.Messages = append(out.Messages, mr)
	}
	return out
}

// renderMarkdown converts assistant markdown to HTML for the web client.
func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return ""
	}
	return buf.String()
}
