package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-intelligence/internal/adapter/dto/meeting"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/intelligence"
)

// Intelligence serves transcripts and generated meeting artifacts
type Intelligence struct {
	intel  *intelligence.Service
	logger *zap.Logger
}

// NewIntelligenceHandler creates the artifact handler
func NewIntelligenceHandler(intel *intelligence.Service, logger *zap.Logger) *Intelligence {
	return &Intelligence{intel: intel, logger: logger}
}

// GetTranscript handles GET /meetings/:id/transcript
// @Summary      Get the transcript
// @Tags         Transcript
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID"
// @Success      200  {object}  entities.MeetingTranscript
// @Failure      404  {object}  map[string]interface{}
// @Router       /meetings/{id}/transcript [get]
func (h *Intelligence) GetTranscript(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	t, err := h.intel.GetTranscript(c.Request().Context(), m.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, t)
}

// EditTranscript handles PUT /meetings/:id/transcript
// @Summary      Override the transcript text
// @Description  Generators use the edited text from then on. An empty or null value restores the original.
// @Tags         Transcript
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Meeting ID"
// @Param        request  body      meeting.EditTranscriptRequest  true  "Edited text"
// @Success      200      {object}  entities.MeetingTranscript
// @Router       /meetings/{id}/transcript [put]
func (h *Intelligence) EditTranscript(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.EditTranscriptRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	t, err := h.intel.EditTranscript(c.Request().Context(), m.ID, req.EditedText)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, t)
}

// ListSummaries handles GET /meetings/:id/summaries
func (h *Intelligence) ListSummaries(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	summaries, err := h.intel.ListSummaries(c.Request().Context(), m.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, summaries)
}

// GenerateSummary handles POST /meetings/:id/summaries
// @Summary      Generate a summary
// @Description  Replaces the stored summary of the requested style. Without a style the owner's default is used.
// @Tags         Summaries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true   "Meeting ID"
// @Param        request  body      meeting.GenerateSummaryRequest  false  "Style"
// @Success      200      {object}  entities.MeetingSummary
// @Router       /meetings/{id}/summaries [post]
func (h *Intelligence) GenerateSummary(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.GenerateSummaryRequest
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return HandleError(h.logger, c, err)
		}
	}
	style := entities.SummaryStyle(req.Style)
	if style == "" {
		style = h.intel.DefaultSummaryStyle(c.Request().Context(), m.UserID)
	}

	summary, err := h.intel.GenerateSummary(c.Request().Context(), m.ID, style)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, summary)
}

// ListActionItems handles GET /meetings/:id/action-items
func (h *Intelligence) ListActionItems(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	items, err := h.intel.ListActionItems(c.Request().Context(), m.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, items)
}

// ExtractActionItems handles POST /meetings/:id/action-items/extract
// @Summary      Extract action items
// @Description  Replaces the stored action items. source is fallback_extracted when the model output was unusable.
// @Tags         Action Items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID"
// @Success      200  {object}  meeting.ExtractionResponse[entities.ActionItem]
// @Router       /meetings/{id}/action-items/extract [post]
func (h *Intelligence) ExtractActionItems(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	res, err := h.intel.ExtractActionItems(c.Request().Context(), m.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, meeting.ExtractionResponse[*entities.ActionItem]{Items: res.Items, Source: string(res.Source)})
}

// ListDecisions handles GET /meetings/:id/decisions
func (h *Intelligence) ListDecisions(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	decisions, err := h.intel.ListDecisions(c.Request().Context(), m.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, decisions)
}

// ExtractDecisions handles POST /meetings/:id/decisions/extract
// @Summary      Extract decisions
// @Tags         Decisions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID"
// @Success      200  {object}  meeting.ExtractionResponse[entities.Decision]
// @Router       /meetings/{id}/decisions/extract [post]
func (h *Intelligence) ExtractDecisions(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	res, err := h.intel.ExtractDecisions(c.Request().Context(), m.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, meeting.ExtractionResponse[*entities.Decision]{Items: res.Items, Source: string(res.Source)})
}

// Followup handles POST /meetings/:id/followup
// @Summary      Draft a follow-up email
// @Description  Addressed to every attendee except the sender. The draft is stored, never sent.
// @Tags         Follow-up
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true   "Meeting ID"
// @Param        request  body      meeting.FollowupRequest  false  "Sender and writing style"
// @Success      200      {object}  entities.FollowupDraft
// @Router       /meetings/{id}/followup [post]
func (h *Intelligence) Followup(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.FollowupRequest
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return HandleError(h.logger, c, err)
		}
	}

	in := intelligence.FollowupRequest{MeetingID: m.ID, SenderEmail: req.SenderEmail}
	if p := req.StyleProfile; p != nil {
		in.Style = &entities.StyleProfile{
			GreetingPatterns: p.GreetingPatterns,
			SignOffPatterns:  p.SignOffPatterns,
			Formality:        p.Formality,
			Warmth:           p.Warmth,
		}
	}
	draft, err := h.intel.GenerateFollowup(c.Request().Context(), in)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, draft)
}

// Ask handles POST /meetings/:id/chat
// @Summary      Ask about the meeting
// @Description  Answers from the transcript only, with citations. The exchange is appended to the caller's chat log.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Meeting ID"
// @Param        request  body      meeting.ChatRequest  true  "Question"
// @Success      200      {object}  entities.ChatMessage
// @Router       /meetings/{id}/chat [post]
func (h *Intelligence) Ask(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meeting.ChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	answer, err := h.intel.Ask(c.Request().Context(), m.ID, m.UserID, req.Question)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, answer)
}

// ChatHistory handles GET /meetings/:id/chat
func (h *Intelligence) ChatHistory(c echo.Context) error {
	m, err := ownedMeeting(c, h.intel)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	history, err := h.intel.ChatHistory(c.Request().Context(), m.ID, m.UserID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, history)
}
