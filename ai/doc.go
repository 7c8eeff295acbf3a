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


// Package ai defines the text analysis services used to enrich complaints.
//
// A FeatureExtractor turns the free text of a complaint into the feature bag
// stored next to it as complaint_extract.json: issue types, urgency phrases,
// places, dates and people. The classifier later derives department and
// priority from that bag.
//
// # Implementations
//
//   - ai/keyword: rule-based matching against IssueKeywords, UrgencyKeywords
//     and date/place patterns. No external service.
//   - ai/openai: an LLM behind any OpenAI-compatible chat API.
//   - ai/mock: a test double.
//
// # Configuration
//
// The LLM extractor is configured through Config:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434/v1"),
//	    ai.WithModel("qwen2.5:3b"),
//	)
//	extractor, err := openai.NewFeatureExtractor(cfg)
package ai
