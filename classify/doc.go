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


// Package classify derives handling signals from extracted complaint features.
//
// Everything here is pure and stateless: the functions map NLP features to a
// handling department and priority, and inference-service responses to the
// top-confidence image label. None of them perform I/O or return errors;
// malformed inputs degrade to sentinel values.
package classify
