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


// Package openai provides an ai.FeatureExtractor backed by an LLM.
//
// The extractor uses the langchaingo library to talk to OpenAI or any
// OpenAI-compatible service (such as Ollama, LocalAI, or vLLM). The model is
// prompted with the known issue and urgency vocabulary and must answer with
// the complaint_extract.json object.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithModel("qwen2.5:3b"),
//	)
//
//	extractor, err := openai.NewFeatureExtractor(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	extract, err := extractor.ExtractFeatures(ctx, "Huge pothole near Main St, urgent")
package openai
