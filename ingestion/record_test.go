package ingestion

import (
	"encoding/json"
	"testing"

	"github.com/poiesic/grievance/classify"
	"github.com/poiesic/grievance/core"
	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/complaint_x/photo.jpg", PublicURL("https://storage.googleapis.com/b/", "complaint_x"))
	assert.Equal(t, "https://storage.googleapis.com/b/complaint_x/photo.jpg", PublicURL("https://storage.googleapis.com/b", "complaint_x"))
	assert.Equal(t, "complaint_x/photo.jpg", PublicURL("", "complaint_x"))
}

func TestBuildRecord_Defaults(t *testing.T) {
	f := &core.Folder{
		Key:         aliceKey,
		Metadata:    core.Metadata{Username: "legacy"},
		LocationRaw: json.RawMessage(`{"latitude":1,"longitude":2}`),
		Location:    core.Location{Latitude: 1, Longitude: 2},
		Text:        "  something is wrong \n",
		SubmittedAt: "2024-01-01T00:00:00Z",
	}

	rec := buildRecord(f, testURL, testNow)

	assert.Equal(t, "legacy", rec.UserID)
	assert.Equal(t, "something is wrong", rec.Description)
	assert.Equal(t, core.StatusPending, rec.Status)
	assert.Equal(t, classify.UnknownIssue, rec.IssueType)
	assert.Equal(t, classify.DepartmentGeneral, rec.Department)
	assert.Equal(t, core.PriorityNormal, rec.Priority)
	assert.Equal(t, "Unknown", rec.LocationText)
	assert.Empty(t, rec.DatesMentioned)
	assert.Equal(t, "{}", rec.TextAnalysis)
	assert.Equal(t, "[]", rec.ImageDetections)
	assert.Equal(t, core.LabelNone, rec.Label)
	assert.Equal(t, `{"latitude":1,"longitude":2}`, rec.Location)
}

func TestBuildRecord_FullExtract(t *testing.T) {
	extractRaw := `{"Location":["MG Road","Ward 5"],"Issue Type":["Sewage Leak"],"Urgency":["been a month"],"Date":["since monday","12/03/2024"],"Person":[]}`
	f := &core.Folder{
		Key:      aliceKey,
		Metadata: core.Metadata{User: "bob"},
		Extract: &core.Extract{
			Location:  []string{"MG Road", "Ward 5"},
			IssueType: []string{"Sewage Leak"},
			Urgency:   []string{"been a month"},
			Date:      []string{"since monday", "12/03/2024"},
		},
		ExtractRaw: json.RawMessage(extractRaw),
		Label:      json.RawMessage(`{"outputs":[]}`),
	}

	rec := buildRecord(f, testURL, testNow)

	assert.Equal(t, "Sewage Leak", rec.IssueType)
	assert.Equal(t, classify.DepartmentWater, rec.Department)
	assert.Equal(t, core.PriorityMedium, rec.Priority)
	assert.Equal(t, "MG Road, Ward 5", rec.LocationText)
	assert.Equal(t, "since monday, 12/03/2024", rec.DatesMentioned)
	assert.Equal(t, extractRaw, rec.TextAnalysis)
	assert.Equal(t, core.LabelError, rec.Label)
	assert.Equal(t, "[]", rec.ImageDetections)
}
