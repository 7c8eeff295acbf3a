package core

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a deterministic identifier derived from content.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Complaint statuses written by the submission and withdrawal paths.
const (
	StatusPending   = "pending"
	StatusWithdrawn = "withdrawn"
)

// Metadata is the content of metadata.json, written when a complaint is submitted.
type Metadata struct {
	User        string `json:"user,omitempty"`
	Username    string `json:"username,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Status      string `json:"status,omitempty"`
	HasText     bool   `json:"has_text,omitempty"`
	HasPhoto    bool   `json:"has_photo,omitempty"`
	HasLocation bool   `json:"has_location,omitempty"`
	WithdrawnAt string `json:"withdrawn_at,omitempty"`
	WithdrawnBy string `json:"withdrawn_by,omitempty"`
}

// Submitter returns the user that filed the complaint.
// Older folders carry "username" instead of "user"; folders with neither are anonymous.
func (m *Metadata) Submitter() string {
	if m.User != "" {
		return m.User
	}
	if m.Username != "" {
		return m.Username
	}
	return "anonymous"
}

// CurrentStatus returns the complaint status, defaulting to pending.
func (m *Metadata) CurrentStatus() string {
	if m.Status == "" {
		return StatusPending
	}
	return m.Status
}

// IsWithdrawn reports whether the submitter withdrew the complaint.
func (m *Metadata) IsWithdrawn() bool {
	return m.Status == StatusWithdrawn
}

// Location is the content of location.json.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Meta is the content of meta.json, written by the upload trigger.
type Meta struct {
	Timestamp string `json:"timestamp,omitempty"`
}

// Extract is the NLP feature bag stored in complaint_extract.json.
// Every field is a deduplicated, unordered set of matched spans.
type Extract struct {
	Location  []string `json:"Location"`
	IssueType []string `json:"Issue Type"`
	Urgency   []string `json:"Urgency"`
	Date      []string `json:"Date"`
	Person    []string `json:"Person"`
}

// StatusEntry is one element of status_history.json.
type StatusEntry struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	By        string `json:"by"`
	Notes     string `json:"notes"`
}

// Detection is a single image class reported by the inference service.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// LabelPrediction is the top-confidence image class for a complaint photo.
type LabelPrediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Sentinel label classes.
const (
	LabelNone         = "No label"
	LabelNoPrediction = "No prediction"
	LabelError        = "Error"
	LabelUnknown      = "Unknown"
)

// Priority is the handling priority assigned to a complaint.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityNormal Priority = "Normal"
)

// Folder is the best-effort logical record reconstructed from one complaint folder.
// Required artifacts are always populated; optional ones are nil when absent or unreadable.
type Folder struct {
	Key         FolderKey
	Metadata    Metadata
	Location    Location
	LocationRaw json.RawMessage // compacted location.json, kept verbatim for the location column
	Text        string

	Meta       *Meta
	Extract    *Extract
	ExtractRaw json.RawMessage // compacted complaint_extract.json
	Label      json.RawMessage // raw inference response from label.json
	History    []StatusEntry

	// SubmittedAt is the resolved submission timestamp (ISO-8601).
	SubmittedAt string
}

// HasExtract reports whether text analysis results were available.
func (f *Folder) HasExtract() bool {
	return f.Extract != nil
}

// HasLabel reports whether image analysis results were available.
func (f *Folder) HasLabel() bool {
	return len(f.Label) > 0
}

// TimestampLayout is the ISO-8601 layout used for timestamps produced by the pipeline.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// FormatTimestamp renders t in the pipeline's ISO-8601 layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
