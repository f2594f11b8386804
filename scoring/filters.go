package scoring

import (
	"strings"

	"github.com/poiesic/talentmatch/core"
)

// hardPredicates is the number of independent hard-filter predicates.
const hardPredicates = 4

// PassesHardFilters reports whether a candidate satisfies every requirement.
// A predicate whose requirement or candidate attribute is empty is skipped.
func PassesHardFilters(c *core.Candidate, req core.Requirements) bool {
	if c == nil {
		return false
	}
	return matchesLocation(c, req) &&
		meetsExperience(c, req) &&
		SalaryCompatible(c.ExpectedSalary, req.SalaryRange) &&
		coversSkills(c, req)
}

// HardFilter returns the candidates that pass every requirement, preserving
// pool order. The result is a subset of pool; filtering it again with the
// same requirements returns it unchanged.
func HardFilter(pool []*core.Candidate, req core.Requirements) []*core.Candidate {
	kept := make([]*core.Candidate, 0, len(pool))
	for _, c := range pool {
		if PassesHardFilters(c, req) {
			kept = append(kept, c)
		}
	}
	return kept
}

// FilterCoverage is the fraction of hard-filter predicates a candidate
// satisfies, in 0..1. Used to rank pools when filtering is soft.
func FilterCoverage(c *core.Candidate, req core.Requirements) float64 {
	if c == nil {
		return 0
	}
	passed := 0
	if matchesLocation(c, req) {
		passed++
	}
	if meetsExperience(c, req) {
		passed++
	}
	if SalaryCompatible(c.ExpectedSalary, req.SalaryRange) {
		passed++
	}
	if coversSkills(c, req) {
		passed++
	}
	return float64(passed) / hardPredicates
}

func matchesLocation(c *core.Candidate, req core.Requirements) bool {
	want := strings.ToLower(strings.TrimSpace(req.Location))
	have := strings.ToLower(strings.TrimSpace(c.LocationPreference))
	if want == "" || have == "" {
		return true
	}
	return strings.Contains(have, want) || strings.Contains(want, have)
}

func meetsExperience(c *core.Candidate, req core.Requirements) bool {
	if req.MinExperienceYears <= 0 || strings.TrimSpace(c.Experience) == "" {
		return true
	}
	return ExperienceYears(c.Experience) >= req.MinExperienceYears
}

func coversSkills(c *core.Candidate, req core.Requirements) bool {
	if len(req.RequiredSkills) == 0 || strings.TrimSpace(c.Skills) == "" {
		return true
	}
	for _, skill := range req.RequiredSkills {
		if !HasSkill(c.Skills, skill) {
			return false
		}
	}
	return true
}
