package ai

import (
	"context"

	"github.com/poiesic/grievance/core"
)

// FeatureExtractor analyzes complaint text into the feature bag stored as
// complaint_extract.json.
// Implementations must be thread-safe for concurrent use.
type FeatureExtractor interface {
	// ExtractFeatures returns the issue types, urgency phrases, places,
	// dates and people mentioned in text. Every field is deduplicated and
	// never nil. Returns an error if the analysis itself fails.
	ExtractFeatures(ctx context.Context, text string) (*core.Extract, error)
}
