package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-intelligence/errors"
	"github.com/johnquangdev/meeting-intelligence/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-intelligence/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/bot"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/intelligence"
)

// Meeting handles meeting registration and bot control
type Meeting struct {
	orch   *bot.Orchestrator
	intel  *intelligence.Service
	logger *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(orch *bot.Orchestrator, intel *intelligence.Service, logger *zap.Logger) *Meeting {
	return &Meeting{orch: orch, intel: intel, logger: logger}
}

// Register handles POST /meetings
// @Summary      Register a meeting
// @Description  Creates a meeting in the scheduled state. When the owner enabled auto-join the bot is scheduled too;
// @Description  a scheduling failure is reported in auto_join_error and the meeting is kept.
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      meeting.RegisterMeetingRequest  true  "Meeting"
// @Success      201      {object}  meeting.MeetingResponse
// @Failure      400      {object}  map[string]interface{}
// @Failure      401      {object}  map[string]interface{}
// @Router       /meetings [post]
func (h *Meeting) Register(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.RegisterMeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	attendees := make([]entities.Attendee, 0, len(req.Attendees))
	for _, a := range req.Attendees {
		attendees = append(attendees, entities.Attendee{Email: a.Email, DisplayName: a.DisplayName, RSVPStatus: a.RSVPStatus})
	}

	m, err := h.orch.RegisterMeeting(c.Request().Context(), bot.RegisterInput{
		UserID:          userID,
		UserEmail:       middleware.UserEmail(c),
		Title:           req.Title,
		MeetingURL:      req.MeetingURL,
		CalendarEventID: req.CalendarEventID,
		ScheduledStart:  req.ScheduledStart,
		ScheduledEnd:    req.ScheduledEnd,
		Attendees:       attendees,
	})
	if err != nil && m == nil {
		return HandleError(h.logger, c, err)
	}

	resp := meeting.NewMeetingResponse(m)
	if err != nil {
		resp.AutoJoinError = err.Error()
	}
	return HandleCreated(h.logger, c, resp)
}

// Get handles GET /meetings/:id
// @Summary      Get a meeting
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID"
// @Success      200  {object}  meeting.MeetingResponse
// @Failure      404  {object}  map[string]interface{}
// @Router       /meetings/{id} [get]
func (h *Meeting) Get(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, meeting.NewMeetingResponse(m))
}

// List handles GET /meetings
// @Summary      List my meetings
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int  false  "Page, from 1"
// @Param        page_size  query     int  false  "Page size, at most 100"
// @Success      200        {object}  common.ListResponse
// @Router       /meetings [get]
func (h *Meeting) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.ListMeetingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	// one extra row tells whether another page exists
	found, err := h.intel.ListMeetings(c.Request().Context(), userID, req.PageSize+1, (req.Page-1)*req.PageSize)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	hasMore := len(found) > req.PageSize
	if hasMore {
		found = found[:req.PageSize]
	}

	items := make([]*meeting.MeetingResponse, 0, len(found))
	for _, m := range found {
		items = append(items, meeting.NewMeetingResponse(m))
	}
	return HandleSuccess(h.logger, c, common.ListResponse{
		Data:       items,
		Pagination: &common.PaginationResponse{Page: req.Page, PageSize: req.PageSize, HasMore: hasMore},
	})
}

// ScheduleBot handles POST /meetings/:id/bot
// @Summary      Send the bot to a meeting
// @Description  Schedules the bot. Scheduling a failed meeting counts as a retry.
// @Tags         Bot
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true   "Meeting ID"
// @Param        request  body      meeting.ScheduleBotRequest  false  "Overrides"
// @Success      200      {object}  meeting.MeetingResponse
// @Failure      502      {object}  map[string]interface{}  "Bot service rejected the request"
// @Router       /meetings/{id}/bot [post]
func (h *Meeting) ScheduleBot(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.ScheduleBotRequest
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return HandleError(h.logger, c, err)
		}
	}

	in := bot.ScheduleInput{
		MeetingID:   m.ID,
		MeetingURL:  req.MeetingURL,
		BotName:     req.BotName,
		MaxDuration: time.Duration(req.MaxDurationMinutes) * time.Minute,
	}
	if req.ScheduledStart != nil {
		in.ScheduledStart = *req.ScheduledStart
	}
	scheduled, err := h.orch.ScheduleJoin(c.Request().Context(), in)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, meeting.NewMeetingResponse(scheduled))
}

// CancelBot handles DELETE /meetings/:id/bot
// @Summary      Remove the bot from a meeting
// @Tags         Bot
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]interface{}  "No bot session"
// @Router       /meetings/{id}/bot [delete]
func (h *Meeting) CancelBot(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if m.SessionID() == "" {
		return HandleError(h.logger, c, errors.ErrMeetingInvalidState(m.ID.String(), string(m.Status)))
	}
	if err := h.orch.CancelSession(c.Request().Context(), m.SessionID()); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"session_id": m.SessionID(), "status": "cancelled"})
}

// BotStatus handles GET /meetings/:id/bot
// @Summary      Poll the bot service
// @Description  Reads the bot service's current view of the session. Nothing is stored.
// @Tags         Bot
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID"
// @Success      200  {object}  meeting.BotStatusResponse
// @Router       /meetings/{id}/bot [get]
func (h *Meeting) BotStatus(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if m.SessionID() == "" {
		return HandleError(h.logger, c, errors.ErrMeetingInvalidState(m.ID.String(), string(m.Status)))
	}
	session, err := h.orch.PollStatus(c.Request().Context(), m.SessionID())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, meeting.BotStatusResponse{
		SessionID:     session.ID,
		StatusCode:    session.StatusCode,
		RecordingURL:  session.RecordingURL,
		HasTranscript: len(session.Transcript) > 0,
	})
}

// ownedMeeting loads the :id meeting and checks it belongs to the caller
func ownedMeeting(c echo.Context, intel *intelligence.Service) (*entities.MeetingRecording, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	meetingID, err := meetingParam(c)
	if err != nil {
		return nil, err
	}
	return intel.GetMeeting(c.Request().Context(), meetingID, userID)
}
