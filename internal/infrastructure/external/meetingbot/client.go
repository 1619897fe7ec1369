package meetingbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/johnquangdev/meeting-intelligence/errors"
	"github.com/johnquangdev/meeting-intelligence/pkg/config"
)

const serviceName = "meetingbot"

// ScheduleRequest asks the bot service to send a bot into a call
type ScheduleRequest struct {
	MeetingURL  string
	BotName     string
	JoinAt      time.Time
	MaxDuration time.Duration
	Metadata    map[string]string
}

// Session is the bot service's view of one bot
type Session struct {
	ID           string            `json:"id"`
	StatusCode   string            `json:"status_code"`
	RecordingURL string            `json:"recording_url,omitempty"`
	Transcript   json.RawMessage   `json:"transcript,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Client talks to the meeting-bot REST API
type Client struct {
	baseURL    string
	apiKey     string
	webhookURL string
	leave      config.BotConfig
	client     *http.Client
}

// NewClient creates a bot service client. webhookURL is sent with every schedule request.
func NewClient(cfg config.BotConfig, webhookURL string) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		webhookURL: webhookURL,
		leave:      cfg,
		client:     &http.Client{Timeout: timeout},
	}
}

type automaticLeave struct {
	WaitingRoomTimeout     int `json:"waiting_room_timeout"`
	NooneJoinedTimeout     int `json:"noone_joined_timeout"`
	EveryoneLeftTimeout    int `json:"everyone_left_timeout"`
	InCallRecordingTimeout int `json:"in_call_recording_timeout,omitempty"`
}

type scheduleBody struct {
	MeetingURL     string            `json:"meeting_url"`
	BotName        string            `json:"bot_name"`
	JoinAt         *time.Time        `json:"join_at,omitempty"`
	AutomaticLeave automaticLeave    `json:"automatic_leave"`
	WebhookURL     string            `json:"webhook_url,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type statusChange struct {
	Code      string     `json:"code"`
	SubCode   *string    `json:"sub_code"`
	Message   *string    `json:"message"`
	CreatedAt *time.Time `json:"created_at"`
}

type botResponse struct {
	ID            string            `json:"id"`
	StatusChanges []statusChange    `json:"status_changes"`
	VideoURL      string            `json:"video_url"`
	RecordingURL  string            `json:"recording_url"`
	Transcript    json.RawMessage   `json:"transcript"`
	Metadata      map[string]string `json:"metadata"`
}

func (r *botResponse) session() *Session {
	s := &Session{
		ID:           r.ID,
		RecordingURL: r.RecordingURL,
		Transcript:   r.Transcript,
		Metadata:     r.Metadata,
	}
	if s.RecordingURL == "" {
		s.RecordingURL = r.VideoURL
	}
	if n := len(r.StatusChanges); n > 0 {
		s.StatusCode = r.StatusChanges[n-1].Code
	}
	return s
}

// Schedule submits a join request and returns the new session
func (c *Client) Schedule(ctx context.Context, req ScheduleRequest) (*Session, error) {
	if req.MeetingURL == "" {
		return nil, fmt.Errorf("meetingbot: meeting url is required")
	}
	botName := req.BotName
	if botName == "" {
		botName = c.leave.DefaultName
	}
	maxDuration := req.MaxDuration
	if maxDuration <= 0 {
		maxDuration = c.leave.MaxDuration
	}

	body := scheduleBody{
		MeetingURL: req.MeetingURL,
		BotName:    botName,
		AutomaticLeave: automaticLeave{
			WaitingRoomTimeout:     seconds(c.leave.WaitingRoomTimeout, 1200),
			NooneJoinedTimeout:     seconds(c.leave.NoOneJoinedTimeout, 1200),
			EveryoneLeftTimeout:    seconds(c.leave.EveryoneLeftTimeout, 2),
			InCallRecordingTimeout: seconds(maxDuration, 0),
		},
		WebhookURL: c.webhookURL,
		Metadata:   req.Metadata,
	}
	// joining "now" is expressed by omitting join_at
	if !req.JoinAt.IsZero() && req.JoinAt.After(time.Now()) {
		joinAt := req.JoinAt.UTC()
		body.JoinAt = &joinAt
	}

	var resp botResponse
	if err := c.do(ctx, http.MethodPost, "/bot/", body, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("meetingbot: schedule response carried no bot id")
	}
	return resp.session(), nil
}

// Cancel removes the bot. A bot the service no longer knows about counts as cancelled.
func (c *Client) Cancel(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("meetingbot: session id is required")
	}
	err := c.do(ctx, http.MethodPost, "/bot/"+url.PathEscape(sessionID)+"/leave_call/", nil, nil)
	if extErr, ok := apperrors.AsExternalError(err); ok && extErr.NotFound() {
		return nil
	}
	return err
}

// Get fetches the current status and latest artifacts of a session
func (c *Client) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("meetingbot: session id is required")
	}
	var resp botResponse
	if err := c.do(ctx, http.MethodGet, "/bot/"+url.PathEscape(sessionID)+"/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("meetingbot: %w", apperrors.ErrNotConfigured)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("meetingbot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apperrors.ExternalError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode meetingbot response: %w", err)
	}
	return nil
}

func seconds(d time.Duration, fallback int) int {
	if d <= 0 {
		return fallback
	}
	return int(d / time.Second)
}
