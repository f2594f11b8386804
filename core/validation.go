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

import (
	"fmt"
)

// ValidateMatchResult validates a MatchResult according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Score must be within 0..100
//
// NOT validated:
//   - Name (relevance services sometimes omit it)
//   - Reason (free text)
func ValidateMatchResult(result *MatchResult) error {
	if result == nil {
		return fmt.Errorf("%w: result is nil", ErrInvalidMatchResult)
	}

	if result.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMatchResult, ErrEmptyID)
	}

	if !IsValidScore(result.Score) {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidMatchResult, ErrScoreOutOfRange, result.Score)
	}

	return nil
}

// ValidateMatchRequest validates a MatchRequest according to domain rules.
//
// Validation rules:
//   - MatchType must be project_to_resume or resume_to_project
//   - QueryID must be set unless the query entity is embedded
//   - MinExperienceYears must not be negative
func ValidateMatchRequest(req *MatchRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}

	if err := ValidateMatchType(req.MatchType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if req.QueryID == "" && req.Project == nil && req.Candidate == nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyID)
	}

	if req.Requirements.MinExperienceYears < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrNegativeExperience)
	}

	return nil
}

// ValidateMatchType validates that a MatchType has a known value.
func ValidateMatchType(mt MatchType) error {
	if mt != MatchProjectToResume && mt != MatchResumeToProject {
		return fmt.Errorf("%w: value %q", ErrInvalidMatchType, mt)
	}
	return nil
}

// IsValidScore checks if a score is within 0..100.
func IsValidScore(score int) bool {
	return score >= 0 && score <= 100
}

// ClampScore bounds a score to 0..100.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
