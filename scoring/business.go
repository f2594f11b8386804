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


package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/talentmatch/core"
)

// Sub-score caps. They sum to 100.
const (
	MaxSkillScore      = 40
	MaxExperienceScore = 30
	MaxOtherScore      = 30
)

const (
	noSkillRequirementScore      = 20
	noExperienceRequirementScore = 15
	meetsExperienceScore         = 25
	belowExperienceScale         = 20
	exceedsExperienceRatio       = 1.5
)

// Breakdown is the per-factor split of a business score.
type Breakdown struct {
	Skill      int `json:"skill"`
	Experience int `json:"experience"`
	Other      int `json:"other"`
}

// Total sums the three sub-scores.
func (b Breakdown) Total() int {
	return b.Skill + b.Experience + b.Other
}

// Reason renders the breakdown for display next to a score.
func (b Breakdown) Reason() string {
	return fmt.Sprintf("business rules (skills: %d/%d | experience: %d/%d | other: %d/%d)",
		b.Skill, MaxSkillScore, b.Experience, MaxExperienceScore, b.Other, MaxOtherScore)
}

// BusinessScore scores a candidate against a project from structured
// attributes alone. The result is always within 0..100.
func BusinessScore(c *core.Candidate, p *core.Project) (int, Breakdown) {
	if c == nil || p == nil {
		return 0, Breakdown{}
	}
	b := Breakdown{
		Skill:      SkillScore(c.Skills, p.TechRequirements),
		Experience: ExperienceScore(c.Experience, p.TechRequirements+" "+p.Description),
		Other:      OtherScore(c, p),
	}
	return b.Total(), b
}

// SkillScore credits the candidate for each required technology category it
// also covers.
func SkillScore(candidateSkills, projectRequirements string) int {
	if strings.TrimSpace(candidateSkills) == "" || strings.TrimSpace(projectRequirements) == "" {
		return 0
	}
	required := CategoriesIn(projectRequirements)
	if len(required) == 0 {
		return noSkillRequirementScore
	}
	skills := strings.ToLower(candidateSkills)
	matched := 0
	for _, c := range required {
		if c.Covers(skills) {
			matched++
		}
	}
	return int(math.Round(MaxSkillScore * float64(matched) / float64(len(required))))
}

// ExperienceScore compares candidate years against the years a project
// text asks for.
func ExperienceScore(candidateExperience, projectText string) int {
	required := RequiredExperienceYears(projectText)
	if required <= 0 {
		return noExperienceRequirementScore
	}
	have := ExperienceYears(candidateExperience)
	switch {
	case float64(have) >= exceedsExperienceRatio*float64(required):
		return MaxExperienceScore
	case have >= required:
		return meetsExperienceScore
	}
	score := int(math.Round(belowExperienceScale * float64(have) / float64(required)))
	if score < 0 {
		return 0
	}
	return score
}

// OtherScore adds work style, education and certificate bonuses, capped at
// MaxOtherScore.
func OtherScore(c *core.Candidate, p *core.Project) int {
	score := workStyleBonus(p.WorkStyle) +
		educationBonus(c.Education) +
		certificateBonus(c.Certificates)
	if score > MaxOtherScore {
		return MaxOtherScore
	}
	return score
}

func workStyleBonus(style string) int {
	style = strings.ToLower(style)
	switch {
	case containsAny(style, "remote", "远程"):
		return 10
	case containsAny(style, "on-site", "onsite", "现场"):
		return 5
	}
	return 0
}

func educationBonus(education string) int {
	education = strings.ToLower(education)
	switch {
	case containsAny(education, "master", "硕士"):
		return 10
	case containsAny(education, "bachelor", "本科"):
		return 8
	case containsAny(education, "associate", "大专", "专科"):
		return 6
	}
	return 0
}

func certificateBonus(certs string) int {
	certs = strings.ToLower(strings.TrimSpace(certs))
	switch {
	case certs == "":
		return 0
	case containsAny(certs, "aws", "azure", "google cloud", "kubernetes"):
		return 10
	case containsAny(certs, "pmp", "scrum", "agile"):
		return 8
	}
	return 5
}
