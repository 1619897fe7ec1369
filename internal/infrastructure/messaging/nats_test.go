package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) IsConnected() bool { return true }

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}

func TestPublishStatus(t *testing.T) {
	conn := &fakeConn{}
	p := NewStatusPublisher(conn, "meetings.status.", nil)
	meetingID := uuid.New()

	err := p.PublishStatus(context.Background(), StatusEvent{MeetingID: meetingID, Status: "recording"})
	require.NoError(t, err)
	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "meetings.status.recording", conn.subjects[0])

	var got StatusEvent
	require.NoError(t, json.Unmarshal(conn.payloads[0], &got))
	assert.Equal(t, meetingID, got.MeetingID)
	assert.Equal(t, "recording", got.Status)
	assert.False(t, got.OccurredAt.IsZero())
}

func TestPublishStatus_DefaultPrefixAndError(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := NewStatusPublisher(conn, "", nil)

	assert.Equal(t, "meetings.status.failed", p.Subject("failed"))
	assert.Error(t, p.PublishStatus(context.Background(), StatusEvent{Status: "failed"}))
}
