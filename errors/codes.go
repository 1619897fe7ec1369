package errors

// ErrorCode identifies an application error class in API responses.
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS    ErrorCode = 1003
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1006

	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2001
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2002

	ErrorCode_MEETING_NOT_FOUND     ErrorCode = 3001
	ErrorCode_MEETING_INVALID_STATE ErrorCode = 3002
	ErrorCode_TRANSCRIPT_NOT_FOUND  ErrorCode = 3003

	ErrorCode_WEBHOOK_INVALID_SIGNATURE ErrorCode = 4001

	ErrorCode_INTEGRATION_NOT_CONFIGURED      ErrorCode = 5001
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED ErrorCode = 5002
	ErrorCode_INTEGRATION_BOT_FAILED          ErrorCode = 5003
	ErrorCode_INTEGRATION_STORAGE_FAILED      ErrorCode = 5004

	ErrorCode_AI_TRANSCRIPTION_FAILED ErrorCode = 6001
	ErrorCode_AI_GENERATION_FAILED    ErrorCode = 6002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                         "HTTP_OK",
	ErrorCode_INTERNAL:                        "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:                "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                       "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:                  "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:               "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:                 "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:                 "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:              "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:              "AUTH_TOKEN_EXPIRED",
	ErrorCode_MEETING_NOT_FOUND:               "MEETING_NOT_FOUND",
	ErrorCode_MEETING_INVALID_STATE:           "MEETING_INVALID_STATE",
	ErrorCode_TRANSCRIPT_NOT_FOUND:            "TRANSCRIPT_NOT_FOUND",
	ErrorCode_WEBHOOK_INVALID_SIGNATURE:       "WEBHOOK_INVALID_SIGNATURE",
	ErrorCode_INTEGRATION_NOT_CONFIGURED:      "INTEGRATION_NOT_CONFIGURED",
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED: "INTEGRATION_EXTERNAL_API_FAILED",
	ErrorCode_INTEGRATION_BOT_FAILED:          "INTEGRATION_BOT_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:      "INTEGRATION_STORAGE_FAILED",
	ErrorCode_AI_TRANSCRIPTION_FAILED:         "AI_TRANSCRIPTION_FAILED",
	ErrorCode_AI_GENERATION_FAILED:            "AI_GENERATION_FAILED",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
