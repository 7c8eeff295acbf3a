package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/grievance/ai"
	"github.com/poiesic/grievance/core"
)

// MockFeatureExtractor is a test double for ai.FeatureExtractor.
// It allows custom behavior injection via function fields.
type MockFeatureExtractor struct {
	// ExtractFeaturesFunc is called by ExtractFeatures if set.
	// If nil, uses default behavior.
	ExtractFeaturesFunc func(ctx context.Context, text string) (*core.Extract, error)

	mu        sync.Mutex
	callCount int
	texts     []string
}

var _ ai.FeatureExtractor = (*MockFeatureExtractor)(nil)

// NewMockFeatureExtractor creates a mock extractor with default behavior.
func NewMockFeatureExtractor() *MockFeatureExtractor {
	return &MockFeatureExtractor{}
}

// WithExtractFeaturesFunc sets custom behavior and returns the mock for chaining.
func (m *MockFeatureExtractor) WithExtractFeaturesFunc(fn func(ctx context.Context, text string) (*core.Extract, error)) *MockFeatureExtractor {
	m.ExtractFeaturesFunc = fn
	return m
}

// ExtractFeatures reports every vocabulary phrase the text contains.
func (m *MockFeatureExtractor) ExtractFeatures(ctx context.Context, text string) (*core.Extract, error) {
	m.mu.Lock()
	m.callCount++
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.ExtractFeaturesFunc != nil {
		return m.ExtractFeaturesFunc(ctx, text)
	}

	// Default: substring match against the shared vocabulary
	lower := strings.ToLower(text)
	extract := &core.Extract{
		Location:  []string{},
		IssueType: []string{},
		Urgency:   []string{},
		Date:      []string{},
		Person:    []string{},
	}
	for _, k := range ai.IssueKeywords {
		if strings.Contains(lower, k) {
			extract.IssueType = append(extract.IssueType, k)
		}
	}
	for _, k := range ai.UrgencyKeywords {
		if strings.Contains(lower, k) {
			extract.Urgency = append(extract.Urgency, k)
		}
	}
	return extract, nil
}

// CallCount returns the number of times ExtractFeatures was called.
func (m *MockFeatureExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Texts returns the texts passed to ExtractFeatures in call order.
func (m *MockFeatureExtractor) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Reset clears the call count and custom behavior.
func (m *MockFeatureExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.texts = nil
	m.ExtractFeaturesFunc = nil
}
