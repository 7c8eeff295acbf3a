// Package mock provides a test double for ai.FeatureExtractor.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	extractor := mock.NewMockFeatureExtractor()
//	extract, err := extractor.ExtractFeatures(ctx, "pothole, urgent")
//
//	// Custom behavior injection
//	extractor := mock.NewMockFeatureExtractor().
//	    WithExtractFeaturesFunc(func(ctx context.Context, text string) (*core.Extract, error) {
//	        return nil, errors.New("model unavailable")
//	    })
//
//	// Check call counts
//	count := extractor.CallCount()
//
// # Default Behavior
//
// The default reports every ai.IssueKeywords and ai.UrgencyKeywords entry
// found as a substring of the lowercased text, in vocabulary order. All other
// fields are empty.
package mock
