package status

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdate(t *testing.T) {
	id := uuid.New()
	before := time.Now()

	u := NewUpdate(id, Processing)
	assert.Equal(t, id, u.AnalysisID)
	assert.Equal(t, Processing, u.Status)
	assert.Equal(t, "analysis started", u.Message)
	assert.False(t, u.Timestamp.Before(before))

	assert.Equal(t, "analysis completed", NewUpdate(id, Completed).Message)
	assert.Equal(t, "analysis failed", NewUpdate(id, Failed).Message)
}

func TestUpdateJSON(t *testing.T) {
	id := uuid.MustParse("6f1c2f3e-8a0b-4c59-9a55-2f7d7d0c7e11")
	u := Update{AnalysisID: id, Status: Failed, Message: "analysis failed", Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"analysis_id": "6f1c2f3e-8a0b-4c59-9a55-2f7d7d0c7e11",
		"status": "failed",
		"message": "analysis failed",
		"timestamp": "2024-01-02T03:04:05Z"
	}`, string(b))
}

func TestRoutingKey(t *testing.T) {
	id := uuid.MustParse("6f1c2f3e-8a0b-4c59-9a55-2f7d7d0c7e11")
	assert.Equal(t, "analysis.6f1c2f3e-8a0b-4c59-9a55-2f7d7d0c7e11", RoutingKey(id))
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), NewUpdate(uuid.New(), Completed)))
	assert.NoError(t, p.Close())
}

func TestDialInvalidURL(t *testing.T) {
	_, err := Dial("not-a-url", "analysis_updates")
	assert.ErrorContains(t, err, "error connecting to RabbitMQ")
}

func TestReport(t *testing.T) {
	id := uuid.MustParse("6f1c2f3e-8a0b-4c59-9a55-2f7d7d0c7e11")
	assert.Equal(t, "analysis.6f1c2f3e-8a0b-4c59-9a55-2f7d7d0c7e11.result", ReportKey(id))

	b, err := json.Marshal(Report{AnalysisID: id, ObjectKey: "cv.pdf", Error: "boom", Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"analysis_id": "6f1c2f3e-8a0b-4c59-9a55-2f7d7d0c7e11",
		"object_key": "cv.pdf",
		"error": "boom",
		"timestamp": "2024-01-02T03:04:05Z"
	}`, string(b))

	var r Reporter = Nop{}
	assert.NoError(t, r.Report(context.Background(), Report{AnalysisID: id}))
}
