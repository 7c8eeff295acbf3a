package openai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/grievance/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel implements llms.Model, answering with the next scripted response.
type scriptedModel struct {
	responses []string
	err       error
	calls     int
	lastInput string
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if human, ok := messages[len(messages)-1].Parts[0].(llms.TextContent); ok {
		m.lastInput = human.Text
	}
	if len(m.responses) == 0 {
		return &llms.ContentResponse{}, nil
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: next}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestExtractFeatures(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"```json\n{\"Location\":[\"Main St\"],\"Issue Type\":[\"Pothole\",\"pothole\"],\"Urgency\":[\"URGENT\"],\"Date\":[],\"Person\":[]}\n```",
	}}
	e := newFeatureExtractor(model, 3)

	got, err := e.ExtractFeatures(context.Background(), "Pothole near   Main St,\n urgent")
	require.NoError(t, err)

	assert.Equal(t, &core.Extract{
		Location:  []string{"Main St"},
		IssueType: []string{"pothole"},
		Urgency:   []string{"urgent"},
		Date:      []string{},
		Person:    []string{},
	}, got)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, "Pothole near Main St, urgent", model.lastInput)
}

func TestExtractFeatures_RetriesMalformed(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"I think this is about a pothole.",
		`{"Location":[],"Issue Type":["garbage"],"Urgency":[],"Date":[],"Person":[],}`,
	}}
	e := newFeatureExtractor(model, 3)

	got, err := e.ExtractFeatures(context.Background(), "garbage everywhere")
	require.NoError(t, err)
	assert.Equal(t, []string{"garbage"}, got.IssueType)
	assert.Equal(t, 2, model.calls)
}

func TestExtractFeatures_GivesUp(t *testing.T) {
	model := &scriptedModel{responses: []string{"nope", "still nope"}}
	e := newFeatureExtractor(model, 2)

	_, err := e.ExtractFeatures(context.Background(), "garbage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, model.calls)
}

func TestExtractFeatures_ModelError(t *testing.T) {
	model := &scriptedModel{err: errors.New("connection refused")}
	e := newFeatureExtractor(model, 3)

	_, err := e.ExtractFeatures(context.Background(), "garbage")
	require.Error(t, err)
	assert.Equal(t, 1, model.calls, "transport errors are not retried")
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid untouched", `{"Issue Type":["pothole"]}`, `{"Issue Type":["pothole"]}`},
		{"trailing commas", `{"Date":["monday",],}`, `{"Date":["monday"]}`},
		{"missing opening quote", `{Issue Type":["pothole"], Date":[]}`, `{"Issue Type":["pothole"], "Date":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}

func TestPrepareInput(t *testing.T) {
	assert.Equal(t, "a b c", prepareInput("  a\n\tb   c "))
	assert.Len(t, []rune(prepareInput(strings.Repeat("é", maxInputRunes+10))), maxInputRunes)
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := buildSystemPrompt()
	assert.Contains(t, prompt, "blocked drain")
	assert.Contains(t, prompt, "emergency")
	assert.Contains(t, prompt, `"Issue Type"`)
}
