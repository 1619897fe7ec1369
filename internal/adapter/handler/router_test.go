package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-intelligence/internal/adapter/repository/memory"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/external/meetingbot"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/bot"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/intelligence"
	"github.com/johnquangdev/meeting-intelligence/pkg/ai"
	"github.com/johnquangdev/meeting-intelligence/pkg/config"
	"github.com/johnquangdev/meeting-intelligence/pkg/jwt"
	"github.com/johnquangdev/meeting-intelligence/pkg/validator"
)

const webhookSecret = "whsec"

type stubBot struct{}

func (stubBot) Schedule(context.Context, meetingbot.ScheduleRequest) (*meetingbot.Session, error) {
	return &meetingbot.Session{ID: "bot-new", StatusCode: "ready"}, nil
}

func (stubBot) Cancel(context.Context, string) error { return nil }

func (stubBot) Get(_ context.Context, id string) (*meetingbot.Session, error) {
	return &meetingbot.Session{ID: id, StatusCode: "in_call_recording"}, nil
}

type server struct {
	e     *echo.Echo
	store *memory.Store
	jwt   *jwt.Manager
}

func newServer(t *testing.T) *server {
	t.Helper()
	store := memory.NewStore()
	orch := bot.NewOrchestrator(bot.Deps{
		Bot:         stubBot{},
		Meetings:    store.Meetings(),
		Transcripts: store.Transcripts(),
		Settings:    store.Settings(),
		Jobs:        store.Jobs(),
		Locker:      cache.NewMemoryLocker(time.Minute, time.Second),
		Verifier:    ai.NewSignatureVerifier(webhookSecret),
	})
	intel := intelligence.NewService(intelligence.Deps{
		Meetings:    store.Meetings(),
		Transcripts: store.Transcripts(),
		Artifacts:   store.Artifacts(),
		Chat:        store.Chat(),
		Settings:    store.Settings(),
	})
	manager := jwt.NewManager("test-secret", time.Hour, "")

	e := echo.New()
	e.Validator = validator.New()
	router := NewRouter(&config.Config{Environment: "test"}, manager,
		NewBotWebhookHandler(orch, nil),
		NewMeetingHandler(orch, intel, nil),
		NewIntelligenceHandler(intel, nil),
		nil,
	)
	router.Setup(e)
	return &server{e: e, store: store, jwt: manager}
}

func (s *server) do(t *testing.T, method, path string, body []byte, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *server) bearer(t *testing.T, userID uuid.UUID) http.Header {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(userID, "owner@x.com")
	require.NoError(t, err)
	return http.Header{echo.HeaderAuthorization: {"Bearer " + token}}
}

func (s *server) seedMeeting(t *testing.T, userID uuid.UUID, session string) *entities.MeetingRecording {
	t.Helper()
	m := entities.NewMeetingRecording(userID, "owner@x.com", "Standup", "https://meet.example.com/abc",
		time.Now().Add(time.Hour), nil)
	m.BotSessionID = &session
	require.NoError(t, s.store.Meetings().Create(context.Background(), m))
	return m
}

func signed(payload []byte) http.Header {
	return http.Header{SignatureHeader: {"sha256=" + ai.SignHMAC(webhookSecret, payload)}}
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestBotWebhook(t *testing.T) {
	s := newServer(t)
	m := s.seedMeeting(t, uuid.New(), "bot-1")

	payload := []byte(`{"event":"bot.status_change","data":{"bot_id":"bot-1","status":{"code":"joining_call"}}}`)

	t.Run("bad signature", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/webhooks/bot", payload, http.Header{SignatureHeader: {"sha256=00"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		unknown := []byte(`{"event":"bot.status_change","data":{"bot_id":"nobody","status":{"code":"joining_call"}}}`)
		rec := s.do(t, http.MethodPost, "/v1/webhooks/bot", unknown, signed(unknown))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing status code", func(t *testing.T) {
		empty := []byte(`{"event":"bot.status_change","data":{"bot_id":"bot-1","status":{}}}`)
		rec := s.do(t, http.MethodPost, "/v1/webhooks/bot", empty, signed(empty))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("applied", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/webhooks/bot", payload, signed(payload))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result bot.WebhookResult
		decodeData(t, rec, &result)
		assert.Equal(t, m.ID, result.MeetingID)
		assert.Equal(t, entities.MeetingStatusJoining, result.Status)
		assert.Equal(t, bot.OutcomeApplied, result.Outcome)
	})

	t.Run("redelivery is a noop", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/webhooks/bot", payload, signed(payload))
		require.Equal(t, http.StatusOK, rec.Code)

		var result bot.WebhookResult
		decodeData(t, rec, &result)
		assert.Equal(t, bot.OutcomeNoop, result.Outcome)
	})
}

func TestRegisterMeeting(t *testing.T) {
	s := newServer(t)
	userID := uuid.New()
	body := []byte(`{"title":"Planning","meeting_url":"https://meet.example.com/xyz","scheduled_start":"2030-01-02T15:00:00Z","attendees":[{"email":"bob@x.com"}]}`)

	t.Run("requires a token", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/meetings", body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a missing start time", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/meetings", []byte(`{"title":"x"}`), s.bearer(t, userID))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("created", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/meetings", body, s.bearer(t, userID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		}
		decodeData(t, rec, &resp)
		assert.Equal(t, string(entities.MeetingStatusScheduled), resp.Status)

		stored, err := s.store.Meetings().GetByID(context.Background(), resp.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, userID, stored.UserID)
		assert.Nil(t, stored.BotSessionID)
	})
}

func TestMeetingOwnership(t *testing.T) {
	s := newServer(t)
	owner := uuid.New()
	m := s.seedMeeting(t, owner, "bot-9")

	rec := s.do(t, http.MethodGet, "/v1/meetings/"+m.ID.String(), nil, s.bearer(t, owner))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/meetings/"+m.ID.String(), nil, s.bearer(t, uuid.New()))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/meetings/"+uuid.NewString(), nil, s.bearer(t, owner))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/meetings/"+m.ID.String()+"/transcript", nil, s.bearer(t, owner))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBotStatus(t *testing.T) {
	s := newServer(t)
	owner := uuid.New()
	m := s.seedMeeting(t, owner, "bot-3")

	rec := s.do(t, http.MethodGet, "/v1/meetings/"+m.ID.String()+"/bot", nil, s.bearer(t, owner))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		SessionID  string `json:"session_id"`
		StatusCode string `json:"status_code"`
	}
	decodeData(t, rec, &resp)
	assert.Equal(t, "bot-3", resp.SessionID)
	assert.Equal(t, "in_call_recording", resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
