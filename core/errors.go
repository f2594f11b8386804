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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidMatchResult indicates a MatchResult failed validation.
	ErrInvalidMatchResult = errors.New("invalid match result")

	// ErrInvalidRequest indicates a MatchRequest failed validation.
	ErrInvalidRequest = errors.New("invalid match request")

	// ErrEmptyID indicates a required identifier is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrScoreOutOfRange indicates a score outside 0..100.
	ErrScoreOutOfRange = errors.New("score must be between 0 and 100")

	// ErrInvalidMatchType indicates an unknown MatchType value.
	ErrInvalidMatchType = errors.New("invalid match type")

	// ErrNegativeExperience indicates a negative minimum experience requirement.
	ErrNegativeExperience = errors.New("minimum experience cannot be negative")

	// ErrSessionNotFound indicates a session lookup on a strict accessor missed.
	ErrSessionNotFound = errors.New("session not found")
)
