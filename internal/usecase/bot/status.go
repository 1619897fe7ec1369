package bot

import "github.com/johnquangdev/meeting-intelligence/internal/domain/entities"

type webhookAction int

const (
	actionIgnore webhookAction = iota
	actionAdvance
	actionIngest
	actionFail
)

// statusCodes maps the bot service's status codes onto the meeting lifecycle
var statusCodes = map[string]struct {
	action webhookAction
	target entities.MeetingStatus
}{
	"ready":                        {actionAdvance, entities.MeetingStatusScheduled},
	"joining_call":                 {actionAdvance, entities.MeetingStatusJoining},
	"in_waiting_room":              {actionAdvance, entities.MeetingStatusJoining},
	"in_call_not_recording":        {actionAdvance, entities.MeetingStatusRecording},
	"recording_permission_allowed": {actionAdvance, entities.MeetingStatusRecording},
	"in_call_recording":            {actionAdvance, entities.MeetingStatusRecording},
	"call_ended":                   {actionAdvance, entities.MeetingStatusProcessing},
	"done":                         {actionIngest, entities.MeetingStatusSummarizing},
	"analysis_done":                {actionIngest, entities.MeetingStatusSummarizing},
	"fatal":                        {actionFail, entities.MeetingStatusFailed},
	"error":                        {actionFail, entities.MeetingStatusFailed},
}

func classify(code string) (webhookAction, entities.MeetingStatus) {
	if m, ok := statusCodes[code]; ok {
		return m.action, m.target
	}
	return actionIgnore, ""
}
