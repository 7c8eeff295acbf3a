package ingestion

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/poiesic/grievance/classify"
	"github.com/poiesic/grievance/core"
	"github.com/poiesic/grievance/folder"
)

// PublicURL returns the public URL of a folder's photo under base.
// An empty base yields the bare object path.
func PublicURL(base string, key core.FolderKey) string {
	path := key.Artifact(folder.PhotoFile)
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + path
}

// buildRecord classifies a loaded folder into its candidate record.
func buildRecord(f *core.Folder, publicURLBase string, processedAt time.Time) *core.ComplaintRecord {
	rec := &core.ComplaintRecord{
		ComplaintID:  f.Key.String(),
		UserID:       f.Metadata.Submitter(),
		Description:  strings.TrimSpace(f.Text),
		ImageURL:     PublicURL(publicURLBase, f.Key),
		Latitude:     f.Location.Latitude,
		Longitude:    f.Location.Longitude,
		Location:     string(f.LocationRaw),
		LocationText: "Unknown",
		Status:       f.Metadata.CurrentStatus(),
		SubmittedAt:  f.SubmittedAt,
		IssueType:    classify.IssueType(f.Extract),
		Priority:     core.PriorityNormal,
		TextAnalysis: "{}",
		ProcessedAt:  core.FormatTimestamp(processedAt),
		Label:        core.LabelNone,
	}
	rec.Department = classify.DetermineDepartment(rec.IssueType)

	if f.HasExtract() {
		rec.Priority = classify.DeterminePriority(f.Extract.Urgency)
		rec.DatesMentioned = strings.Join(f.Extract.Date, ", ")
		if len(f.Extract.Location) > 0 {
			rec.LocationText = strings.Join(f.Extract.Location, ", ")
		}
		if len(f.ExtractRaw) > 0 {
			rec.TextAnalysis = string(f.ExtractRaw)
		}
	}

	detections := classify.ImageDetections(f.Label)
	if f.HasLabel() {
		rec.Label = classify.ExtractLabelPrediction(f.Label).Class
	}
	encoded, err := json.Marshal(detections)
	if err != nil {
		encoded = []byte("[]")
	}
	rec.ImageDetections = string(encoded)

	return rec
}
