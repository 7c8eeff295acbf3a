// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/grievance/ai"
	"github.com/poiesic/grievance/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxInputRunes bounds the complaint text sent to the model.
const maxInputRunes = 4000

// FeatureExtractor implements ai.FeatureExtractor using OpenAI-compatible chat APIs.
type FeatureExtractor struct {
	client      llms.Model
	maxAttempts int
	logger      *slog.Logger
}

var _ ai.FeatureExtractor = (*FeatureExtractor)(nil)

// NewFeatureExtractor creates a feature extractor using the provided configuration.
func NewFeatureExtractor(config *ai.Config) (*FeatureExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}
	return newFeatureExtractor(client, config.MaxAttempts), nil
}

func newFeatureExtractor(client llms.Model, maxAttempts int) *FeatureExtractor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &FeatureExtractor{
		client:      client,
		maxAttempts: maxAttempts,
		logger:      slog.Default().With("component", "openai-extractor"),
	}
}

// ExtractFeatures asks the model for the complaint's feature bag.
// Malformed responses are repaired where possible and otherwise retried.
func (e *FeatureExtractor) ExtractFeatures(ctx context.Context, text string) (*core.Extract, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prepareInput(text))},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt, "err", err)
			return nil, err
		}
		if len(response.Choices) < 1 {
			lastErr = errors.New("no choices returned from model")
			e.logger.Warn("empty model response", "attempt", attempt)
			continue
		}

		responseText := repairJSON(cleanResponse(response.Choices[0].Content))
		var extract core.Extract
		if err := json.Unmarshal([]byte(responseText), &extract); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response",
				"attempt", attempt,
				"response", responseText,
				"err", err)
			continue
		}

		normalize(&extract)
		e.logger.Debug("extracted features",
			"issues", len(extract.IssueType),
			"urgency", len(extract.Urgency),
			"locations", len(extract.Location))
		return &extract, nil
	}

	e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
	return nil, fmt.Errorf("feature extraction failed after %d attempts: %w", e.maxAttempts, lastErr)
}

// prepareInput collapses whitespace and truncates long complaints.
func prepareInput(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > maxInputRunes {
		text = string(r[:maxInputRunes])
	}
	return text
}

// normalize lowercases the classification fields and dedupes every field.
func normalize(x *core.Extract) {
	x.IssueType = dedupe(x.IssueType, true)
	x.Urgency = dedupe(x.Urgency, true)
	x.Location = dedupe(x.Location, false)
	x.Date = dedupe(x.Date, false)
	x.Person = dedupe(x.Person, false)
}

func dedupe(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
