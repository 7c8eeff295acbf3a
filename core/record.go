package core

import (
	"maps"
	"slices"
)

// Row is a single analytical-store row keyed by column name.
type Row map[string]any

// Keys returns the row's column names in sorted order.
func (r Row) Keys() []string {
	return slices.Sorted(maps.Keys(r))
}

// Column names of the analytical complaint table.
const (
	ColComplaintID     = "complaint_id"
	ColUserID          = "user_id"
	ColDescription     = "description"
	ColImageURL        = "image_url"
	ColImage           = "image"
	ColLatitude        = "latitude"
	ColLongitude       = "longitude"
	ColLocation        = "location"
	ColLocationText    = "location_text"
	ColStatus          = "status"
	ColSubmittedAt     = "submitted_at"
	ColIssueType       = "issue_type"
	ColExtract         = "extract"
	ColDepartment      = "department"
	ColPriority        = "priority"
	ColDatesMentioned  = "dates_mentioned"
	ColImageDetections = "image_detections"
	ColTextAnalysis    = "text_analysis"
	ColProcessedAt     = "processed_at"
	ColLabel           = "label"
)

// Columns lists every column a candidate row carries, in table order.
var Columns = []string{
	ColComplaintID,
	ColUserID,
	ColDescription,
	ColImageURL,
	ColImage,
	ColLatitude,
	ColLongitude,
	ColLocation,
	ColLocationText,
	ColStatus,
	ColSubmittedAt,
	ColIssueType,
	ColExtract,
	ColDepartment,
	ColPriority,
	ColDatesMentioned,
	ColImageDetections,
	ColTextAnalysis,
	ColProcessedAt,
	ColLabel,
}

// FallbackColumns is the minimal column set assumed when the live schema cannot be read.
var FallbackColumns = []string{
	ColComplaintID,
	ColUserID,
	ColDescription,
	ColStatus,
}

// ComplaintRecord is the normalized, over-complete candidate row for one complaint.
// It is write-only: the pipeline never reads it back.
type ComplaintRecord struct {
	ComplaintID     string
	UserID          string
	Description     string
	ImageURL        string
	Latitude        float64
	Longitude       float64
	Location        string // location.json as JSON text
	LocationText    string
	Status          string
	SubmittedAt     string
	IssueType       string
	Department      string
	Priority        Priority
	DatesMentioned  string
	ImageDetections string // JSON array of detections
	TextAnalysis    string // JSON object of the extract bag
	ProcessedAt     string
	Label           string
}

// Row converts the record into a candidate row.
// image and extract duplicate image_url and issue_type for older table layouts.
func (r *ComplaintRecord) Row() Row {
	return Row{
		ColComplaintID:     r.ComplaintID,
		ColUserID:          r.UserID,
		ColDescription:     r.Description,
		ColImageURL:        r.ImageURL,
		ColImage:           r.ImageURL,
		ColLatitude:        r.Latitude,
		ColLongitude:       r.Longitude,
		ColLocation:        r.Location,
		ColLocationText:    r.LocationText,
		ColStatus:          r.Status,
		ColSubmittedAt:     r.SubmittedAt,
		ColIssueType:       r.IssueType,
		ColExtract:         r.IssueType,
		ColDepartment:      r.Department,
		ColPriority:        string(r.Priority),
		ColDatesMentioned:  r.DatesMentioned,
		ColImageDetections: r.ImageDetections,
		ColTextAnalysis:    r.TextAnalysis,
		ColProcessedAt:     r.ProcessedAt,
		ColLabel:           r.Label,
	}
}
