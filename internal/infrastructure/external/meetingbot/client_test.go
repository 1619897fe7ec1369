package meetingbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/johnquangdev/meeting-intelligence/errors"
	"github.com/johnquangdev/meeting-intelligence/pkg/config"
)

func testConfig(baseURL string) config.BotConfig {
	return config.BotConfig{
		BaseURL:             baseURL,
		APIKey:              "key",
		DefaultName:         "Notetaker",
		MaxDuration:         4 * time.Hour,
		WaitingRoomTimeout:  20 * time.Minute,
		NoOneJoinedTimeout:  20 * time.Minute,
		EveryoneLeftTimeout: 2 * time.Second,
	}
}

func TestSchedule_SendsJoinRequest(t *testing.T) {
	var got scheduleBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bot/", r.URL.Path)
		assert.Equal(t, "Token key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "bot-1", "status_changes": [{"code": "ready"}]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), "https://api.example.com/v1/webhooks/bot")
	joinAt := time.Now().Add(time.Hour)
	session, err := c.Schedule(context.Background(), ScheduleRequest{
		MeetingURL: "https://meet.example.com/abc",
		JoinAt:     joinAt,
		Metadata:   map[string]string{"meeting_id": "m-1", "user_email": "alice@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bot-1", session.ID)
	assert.Equal(t, "ready", session.StatusCode)

	assert.Equal(t, "https://meet.example.com/abc", got.MeetingURL)
	assert.Equal(t, "Notetaker", got.BotName)
	assert.Equal(t, "https://api.example.com/v1/webhooks/bot", got.WebhookURL)
	assert.Equal(t, "m-1", got.Metadata["meeting_id"])
	assert.Equal(t, automaticLeave{
		WaitingRoomTimeout:     1200,
		NooneJoinedTimeout:     1200,
		EveryoneLeftTimeout:    2,
		InCallRecordingTimeout: 14400,
	}, got.AutomaticLeave)
	require.NotNil(t, got.JoinAt)
	assert.WithinDuration(t, joinAt, *got.JoinAt, time.Second)
}

func TestSchedule_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid meeting url", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), "")
	_, err := c.Schedule(context.Background(), ScheduleRequest{MeetingURL: "nope"})

	extErr, ok := apperrors.AsExternalError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, extErr.StatusCode)
	assert.Contains(t, extErr.Body, "invalid meeting url")
}

func TestCancel_NotFoundIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot/gone/leave_call/", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), "")
	assert.NoError(t, c.Cancel(context.Background(), "gone"))
}

func TestCancel_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), "")
	err := c.Cancel(context.Background(), "bot-1")
	extErr, ok := apperrors.AsExternalError(err)
	require.True(t, ok)
	assert.True(t, extErr.Retryable())
}

func TestGet_UsesLatestStatusAndVideoURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{
			"id": "bot-1",
			"status_changes": [{"code": "in_call_recording"}, {"code": "done"}],
			"video_url": "https://cdn.example.com/bot-1.mp4",
			"metadata": {"meeting_id": "m-1"}
		}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), "")
	session, err := c.Get(context.Background(), "bot-1")
	require.NoError(t, err)
	assert.Equal(t, "done", session.StatusCode)
	assert.Equal(t, "https://cdn.example.com/bot-1.mp4", session.RecordingURL)
	assert.Equal(t, "m-1", session.Metadata["meeting_id"])
}

func TestSessionIDIsPathEscaped(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"id": "a/b?c"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), "")
	_, err := c.Get(context.Background(), "a/b?c")
	require.NoError(t, err)
	require.NoError(t, c.Cancel(context.Background(), "a/b?c"))

	assert.Equal(t, []string{"/bot/a%2Fb%3Fc/", "/bot/a%2Fb%3Fc/leave_call/"}, paths)
}

func TestClient_NotConfigured(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.APIKey = ""
	c := NewClient(cfg, "")

	_, err := c.Get(context.Background(), "bot-1")
	assert.ErrorIs(t, err, apperrors.ErrNotConfigured)
}
