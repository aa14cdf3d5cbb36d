// ABOUTME: End-to-end HTTP API tests over the assembled handler
// ABOUTME: Covers auth flow, conversations, send with async reply, groups, locale and dashboard widgets

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishimitra/krishimitra/internal/assistant"
	"github.com/krishimitra/krishimitra/internal/auth"
	"github.com/krishimitra/krishimitra/internal/chat"
	"github.com/krishimitra/krishimitra/internal/conversation"
	"github.com/krishimitra/krishimitra/internal/dashboard"
	"github.com/krishimitra/krishimitra/internal/locale"
	"github.com/krishimitra/krishimitra/internal/weather"
)

const assistantConvID = "conv_ai"

type stubResponder struct {
	reply string
	err   error
}

func (s *stubResponder) Complete(ctx context.Context, history []chat.Message, localUser chat.User) (string, error) {
	return s.reply, s.err
}

type stubForecaster struct {
	forecast *weather.Forecast
	err      error
}

func (s *stubForecaster) Current(ctx context.Context) (*weather.Forecast, error) {
	return s.forecast, s.err
}

type stubRecommender struct {
	recs []assistant.CropRecommendation
	err  error
}

func (s *stubRecommender) RecommendCrops(ctx context.Context, season, soilType string, altitude int) ([]assistant.CropRecommendation, error) {
	return s.recs, s.err
}

type testEnv struct {
	handler http.Handler
	token   string
	service *conversation.Service
	store   *conversation.Store
}

func newTestEnv(t *testing.T, responder assistant.Responder) *testEnv {
	t.Helper()

	strs := locale.For(locale.English)
	seed, err := chat.Seed(strs.AssistantName, strs.Welcome)
	require.NoError(t, err)

	store := conversation.NewStore(seed, nil)
	events := conversation.NewBroadcaster(nil)
	svc := conversation.NewService(store, responder, events, nil)

	dash, err := dashboard.NewSQLiteStore(filepath.Join(t.TempDir(), "dashboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dash.Close() })

	verifier := auth.NewJWTVerifier([]byte("test-secret"))
	srv := New(Options{
		Addr:    ":0",
		Service: svc,
		Store:   store,
		Events:  events,
		Dashboard: dash,
		Forecaster: &stubForecaster{forecast: &weather.Forecast{
			Temperature: 24,
			Humidity:    65,
			Condition:   "Partly cloudy",
		}},
		Recommender: &stubRecommender{recs: []assistant.CropRecommendation{{CropName: "Ginger"}}},
		Verifier:    verifier,
		TokenTTL:    time.Hour,
		Logger:      nil,
	})

	token, err := verifier.Generate(chat.DefaultLocalUserID, time.Hour)
	require.NoError(t, err)

	return &testEnv{handler: srv.Handler(), token: token, service: svc, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})
	env.token = ""
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})
	env.token = ""

	rec := env.do(t, http.MethodPost, "/api/login", LoginRequest{UserID: "user_0"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[LoginResponse](t, rec)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "user_0", resp.User.ID)
}

func TestLogin_UnknownUser(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})
	env.token = ""

	rec := env.do(t, http.MethodPost, "/api/login", LoginRequest{UserID: "ghost"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListConversations_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})
	env.token = ""

	rec := env.do(t, http.MethodGet, "/api/conversations", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListConversations(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodGet, "/api/conversations", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	convs := decode[[]ConversationResponse](t, rec)
	require.Len(t, convs, 4)

	assistantCount := 0
	for _, c := range convs {
		if c.Assistant {
			assistantCount++
			assert.Equal(t, assistantConvID, c.ID)
		}
	}
	assert.Equal(t, 1, assistantCount)
}

func TestGetConversation(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodGet, "/api/conversations/"+assistantConvID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	conv := decode[ConversationResponse](t, rec)
	assert.Equal(t, assistantConvID, conv.ID)
	require.NotEmpty(t, conv.Messages)
	assert.Equal(t, chat.AssistantID, conv.Messages[0].SenderID)
	assert.NotEmpty(t, conv.Messages[0].HTML, "assistant messages carry rendered HTML")
}

func TestGetConversation_NotFound(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodGet, "/api/conversations/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSend_AssistantConversation(t *testing.T) {
	env := newTestEnv(t, &stubResponder{reply: "**Hi** farmer!"})

	rec := env.do(t, http.MethodPost, "/api/conversations/"+assistantConvID+"/messages",
		SendMessageRequest{Text: "Hello"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	conv := decode[ConversationResponse](t, rec)
	require.Len(t, conv.Messages, 2, "user message is visible immediately")
	assert.Equal(t, "Hello", conv.Messages[1].Text)
	assert.Empty(t, conv.Messages[1].HTML, "user messages have no HTML")

	require.Eventually(t, func() bool {
		got, ok := env.store.Get(assistantConvID)
		return ok && len(got.Messages) == 3
	}, time.Second, 10*time.Millisecond)

	got, _ := env.store.Get(assistantConvID)
	reply := got.Messages[2]
	assert.Equal(t, chat.AssistantID, reply.SenderID)
	assert.Equal(t, "**Hi** farmer!", reply.Text)
}

func TestSend_EmptyText(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodPost, "/api/conversations/"+assistantConvID+"/messages",
		SendMessageRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSend_UnknownConversation(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodPost, "/api/conversations/nope/messages",
		SendMessageRequest{Text: "Hello"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComposing(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodGet, "/api/conversations/"+assistantConvID+"/composing", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[ComposingResponse](t, rec)
	assert.Equal(t, assistantConvID, resp.ConversationID)
	assert.False(t, resp.Composing)
}

func TestCreateGroup(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodPost, "/api/groups", CreateGroupRequest{
		Name:      "Ginger Growers",
		MemberIDs: []string{"user_2", "user_3"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	conv := decode[ConversationResponse](t, rec)
	assert.Equal(t, "Ginger Growers", conv.Name)
	assert.True(t, conv.IsGroup)
	assert.False(t, conv.Assistant)
	assert.Len(t, conv.Members, 3, "creator is added")

	// the new group becomes the active conversation and lands at the top
	active := env.do(t, http.MethodGet, "/api/active", nil)
	require.Equal(t, http.StatusOK, active.Code)
	assert.Equal(t, conv.ID, decode[ConversationResponse](t, active).ID)

	list := decode[[]ConversationResponse](t, env.do(t, http.MethodGet, "/api/conversations", nil))
	assert.Equal(t, conv.ID, list[0].ID)
}

func TestCreateGroup_EmptyName(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodPost, "/api/groups", CreateGroupRequest{
		Name:      "  ",
		MemberIDs: []string{"user_2"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGroup_UnknownMember(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodPost, "/api/groups", CreateGroupRequest{
		Name:      "Ghost Crew",
		MemberIDs: []string{"ghost"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetActive(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodPut, "/api/active", SetActiveRequest{ConversationID: "conv_1"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	active := env.do(t, http.MethodGet, "/api/active", nil)
	require.Equal(t, http.StatusOK, active.Code)
	assert.Equal(t, "conv_1", decode[ConversationResponse](t, active).ID)
}

func TestGetActive_NoneSet(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodGet, "/api/active", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetLocale(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodPost, "/api/locale", SetLocaleRequest{Language: "hi"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, locale.Hindi, env.service.Locale().Lang)

	// assistant conversation title and welcome follow the locale
	conv := decode[ConversationResponse](t, env.do(t, http.MethodGet, "/api/conversations/"+assistantConvID, nil))
	assert.Equal(t, locale.For(locale.Hindi).AssistantName, conv.Name)
	assert.Equal(t, locale.For(locale.Hindi).Welcome, conv.Messages[0].Text)
}

func TestSetLocale_Unsupported(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodPost, "/api/locale", SetLocaleRequest{Language: "fr"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	users := decode[[]chat.User](t, rec)
	assert.Len(t, users, 6)
}

func TestDashboardWeather(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodGet, "/api/dashboard/weather", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f := decode[weather.Forecast](t, rec)
	assert.Equal(t, 24, f.Temperature)
}

func TestDashboardWidgets(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	for _, path := range []string{
		"/api/dashboard/market",
		"/api/dashboard/schemes",
		"/api/dashboard/ads",
		"/api/dashboard/forum",
		"/api/dashboard/soil",
		"/api/dashboard/water",
	} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Body.Bytes(), path)
	}
}

func TestRecommendations(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodPost, "/api/dashboard/recommendations", RecommendRequest{
		Season:   "Monsoon",
		SoilType: "Loamy",
		Altitude: 1200,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	recs := decode[[]assistant.CropRecommendation](t, rec)
	require.Len(t, recs, 1)
	assert.Equal(t, "Ginger", recs[0].CropName)
}

func TestRecommendations_MissingFields(t *testing.T) {
	env := newTestEnv(t, &stubResponder{})

	rec := env.do(t, http.MethodPost, "/api/dashboard/recommendations", RecommendRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
