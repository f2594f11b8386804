package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentmatch/core"
)

func TestHasSkill(t *testing.T) {
	tests := []struct {
		name     string
		skills   string
		required string
		want     bool
	}{
		{"exact keyword", "Java, MySQL", "Java", true},
		{"category via sibling keyword", "Spring Boot, Maven", "java", true},
		{"category name", "PyTorch", "ai", true},
		{"verbatim substring", "Go, gRPC", "grpc", true},
		{"missing", "Python", "Java", false},
		{"blank requirement", "Python", " ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasSkill(tt.skills, tt.required))
		})
	}
}

func beijingPool() []*core.Candidate {
	return []*core.Candidate{
		{ID: "C1", Name: "Zhang San", LocationPreference: "Beijing", Experience: "5年", Skills: "Java, Spring"},
		{ID: "C2", Name: "Li Si", LocationPreference: "Shanghai", Experience: "3年", Skills: "Python"},
		{ID: "C3", Name: "Wang Wu", LocationPreference: "Beijing", Experience: "2年", Skills: "Java"},
	}
}

func TestHardFilter_BeijingExample(t *testing.T) {
	req := core.Requirements{Location: "Beijing", MinExperienceYears: 3, RequiredSkills: []string{"Java"}}

	kept := HardFilter(beijingPool(), req)

	require.Len(t, kept, 1)
	assert.Equal(t, "C1", kept[0].ID)
}

func TestHardFilter_Idempotent(t *testing.T) {
	reqs := []core.Requirements{
		{},
		{Location: "beijing"},
		{MinExperienceYears: 3},
		{RequiredSkills: []string{"java", "spring"}},
		{SalaryRange: "10-20k"},
	}
	pool := beijingPool()
	for i, req := range reqs {
		t.Run(fmt.Sprintf("req-%d", i), func(t *testing.T) {
			once := HardFilter(pool, req)
			twice := HardFilter(once, req)
			assert.Equal(t, once, twice)
			assert.LessOrEqual(t, len(once), len(pool))
		})
	}
}

func TestPassesHardFilters_SkipsAbsentSides(t *testing.T) {
	c := &core.Candidate{ID: "C9"}
	req := core.Requirements{Location: "Beijing", MinExperienceYears: 5, SalaryRange: "10k", RequiredSkills: []string{"Java"}}
	assert.True(t, PassesHardFilters(c, req))
	assert.False(t, PassesHardFilters(nil, req))
}

func TestPassesHardFilters_LocationEitherDirection(t *testing.T) {
	c := &core.Candidate{LocationPreference: "Beijing Chaoyang"}
	assert.True(t, PassesHardFilters(c, core.Requirements{Location: "beijing"}))

	c = &core.Candidate{LocationPreference: "Beijing"}
	assert.True(t, PassesHardFilters(c, core.Requirements{Location: "Beijing or remote"}))
}

func TestFilterCoverage(t *testing.T) {
	req := core.Requirements{Location: "Beijing", MinExperienceYears: 3, RequiredSkills: []string{"Java"}}
	pool := beijingPool()

	assert.Equal(t, 1.0, FilterCoverage(pool[0], req))
	assert.Equal(t, 0.5, FilterCoverage(pool[1], req))  // experience and salary pass
	assert.Equal(t, 0.75, FilterCoverage(pool[2], req)) // only experience fails
}

func TestSkillScore(t *testing.T) {
	assert.Equal(t, 40, SkillScore("Java Spring MySQL", "Java, MySQL"))
	assert.Equal(t, 20, SkillScore("Java", "Rust"))
	assert.Equal(t, 0, SkillScore("", "Java"))
	assert.Equal(t, 0, SkillScore("Java", ""))
	// java covered, python not, database covered: 2 of 3
	assert.Equal(t, 27, SkillScore("Java, Redis", "Java, Django, PostgreSQL"))
}

func TestExperienceScore(t *testing.T) {
	assert.Equal(t, 15, ExperienceScore("5年", "Java developer"))
	assert.Equal(t, 30, ExperienceScore("6年", "3年以上经验"))
	assert.Equal(t, 25, ExperienceScore("4年", "3年以上经验"))
	assert.Equal(t, 13, ExperienceScore("2年", "3年以上经验"))
	assert.Equal(t, 0, ExperienceScore("", "3年以上经验"))
}

func TestOtherScore_Capped(t *testing.T) {
	c := &core.Candidate{Education: "硕士", Certificates: "AWS Solutions Architect"}
	p := &core.Project{WorkStyle: "远程"}
	assert.Equal(t, 30, OtherScore(c, p))

	c = &core.Candidate{Education: "本科", Certificates: "PMP"}
	p = &core.Project{WorkStyle: "现场"}
	assert.Equal(t, 21, OtherScore(c, p))

	c = &core.Candidate{Certificates: "CET-6"}
	assert.Equal(t, 5, OtherScore(c, &core.Project{}))
}

func TestBusinessScore_Bounds(t *testing.T) {
	candidates := append(beijingPool(),
		&core.Candidate{Skills: "Java Python React MySQL AWS PyTorch HTML", Experience: "20年", Education: "master", Certificates: "kubernetes pmp"},
		&core.Candidate{},
	)
	projects := []*core.Project{
		{TechRequirements: "Java Spring 3年以上", WorkStyle: "remote"},
		{TechRequirements: "Python Django FastAPI", Description: "至少8年"},
		{TechRequirements: "Cobol"},
		{},
	}
	for _, c := range candidates {
		for _, p := range projects {
			score, b := BusinessScore(c, p)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
			assert.LessOrEqual(t, b.Skill, MaxSkillScore)
			assert.LessOrEqual(t, b.Experience, MaxExperienceScore)
			assert.LessOrEqual(t, b.Other, MaxOtherScore)
			assert.Equal(t, b.Total(), score)
		}
	}
}

func TestBreakdown_Reason(t *testing.T) {
	b := Breakdown{Skill: 40, Experience: 25, Other: 10}
	assert.Equal(t, "business rules (skills: 40/40 | experience: 25/30 | other: 10/30)", b.Reason())
}

func TestBusinessScore_Nil(t *testing.T) {
	score, b := BusinessScore(nil, &core.Project{})
	assert.Zero(t, score)
	assert.Equal(t, Breakdown{}, b)
}
