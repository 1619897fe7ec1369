package handler

import (
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-intelligence/errors"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/entities"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-intelligence/pkg/validator"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(toAppError(c, err), &appErr) {
		if logger != nil {
			level := logger.Warn
			if appErr.HTTPCode >= http.StatusInternalServerError {
				level = logger.Error
			}
			level("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.String("app_code", appErr.Code.String()),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := errs{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
			Details: appErr.Details,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := errs{
		Code:    errors.ErrorCode_INTERNAL,
		Message: "Internal server error",
		Info:    err.Error(),
	}

	return c.JSON(http.StatusInternalServerError, body)
}

// toAppError maps domain and integration errors onto the API error catalogue
func toAppError(c echo.Context, err error) error {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return err
	}

	meetingID := c.Param("id")
	switch {
	case stdErrors.Is(err, entities.ErrMeetingNotFound):
		return errors.ErrMeetingNotFound(meetingID)
	case stdErrors.Is(err, entities.ErrTranscriptNotFound):
		return errors.ErrTranscriptNotFound(meetingID)
	case stdErrors.Is(err, entities.ErrInvalidSignature):
		return errors.ErrInvalidSignature()
	case stdErrors.Is(err, entities.ErrForbidden):
		return errors.ErrPermissionDenied("meeting belongs to another user")
	case stdErrors.Is(err, entities.ErrInvalidInput):
		e := errors.ErrInvalidArgument("Invalid request")
		e.Raw = err
		return e
	case stdErrors.Is(err, errors.ErrNotConfigured):
		e := errors.ErrServiceNotConfigured(serviceOf(err))
		e.Raw = err
		return e
	}

	if ext, ok := errors.AsExternalError(err); ok {
		switch ext.Service {
		case "meetingbot":
			return errors.ErrBotServiceFailed(c.Request().Method+" "+c.Path(), err)
		case "assemblyai":
			return errors.ErrAITranscriptionFailed(err)
		case "groq":
			return errors.ErrAIGenerationFailed("meeting artifact", err)
		}
		return errors.ErrExternalAPIFailed(ext.Service, err)
	}
	return err
}

// serviceOf names the unconfigured integration from the error chain text
func serviceOf(err error) string {
	msg := err.Error()
	for _, name := range []string{"meetingbot", "assemblyai", "groq"} {
		if strings.Contains(msg, name) {
			return name
		}
	}
	if strings.Contains(msg, "language model") {
		return "groq"
	}
	return "integration"
}

// bindAndValidate decodes the body into req and runs its validate tags
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		e := errors.ErrInvalidPayload()
		e.Raw = err
		return e
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidArgument(validator.Describe(err))
	}
	return nil
}

// meetingParam parses the :id path parameter
func meetingParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("meeting id must be a UUID")
	}
	return id, nil
}

// currentUser returns the user resolved by the auth middleware
func currentUser(c echo.Context) (uuid.UUID, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, errors.ErrUnauthenticated()
	}
	return id, nil
}
