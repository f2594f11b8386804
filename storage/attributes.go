package storage

import (
	"strings"

	"github.com/poiesic/talentmatch/core"
)

// Attribute keys shared by payload-based backends and search filters.
const (
	AttrKind               = "kind"
	AttrID                 = "id"
	AttrName               = "name"
	AttrTitle              = "title"
	AttrExperience         = "experience_years"
	AttrSkills             = "skills"
	AttrCertificates       = "certificates"
	AttrEducation          = "education"
	AttrLocationPreference = "location_preference"
	AttrExpectedSalary     = "expected_salary"
	AttrContact            = "contact"
	AttrType               = "type"
	AttrTechRequirements   = "tech_requirements"
	AttrDescription        = "description"
	AttrBudget             = "budget"
	AttrDuration           = "duration"
	AttrStartTime          = "start_time"
	AttrWorkStyle          = "work_style"
	AttrLocation           = "location"
)

// CandidateAttributes flattens a candidate into string attributes.
func CandidateAttributes(c *core.Candidate) map[string]string {
	if c == nil {
		return map[string]string{}
	}
	return map[string]string{
		AttrKind:               string(core.KindCandidate),
		AttrID:                 c.ID,
		AttrName:               c.Name,
		AttrTitle:              c.Title,
		AttrExperience:         c.Experience,
		AttrSkills:             c.Skills,
		AttrCertificates:       c.Certificates,
		AttrEducation:          c.Education,
		AttrLocationPreference: c.LocationPreference,
		AttrExpectedSalary:     c.ExpectedSalary,
		AttrContact:            c.Contact,
	}
}

// CandidateFromAttributes rebuilds a candidate from CandidateAttributes output.
func CandidateFromAttributes(m map[string]string) *core.Candidate {
	return &core.Candidate{
		ID:                 m[AttrID],
		Name:               m[AttrName],
		Title:              m[AttrTitle],
		Experience:         m[AttrExperience],
		Skills:             m[AttrSkills],
		Certificates:       m[AttrCertificates],
		Education:          m[AttrEducation],
		LocationPreference: m[AttrLocationPreference],
		ExpectedSalary:     m[AttrExpectedSalary],
		Contact:            m[AttrContact],
	}
}

// ProjectAttributes flattens a project into string attributes.
func ProjectAttributes(p *core.Project) map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return map[string]string{
		AttrKind:             string(core.KindProject),
		AttrID:               p.ID,
		AttrTitle:            p.Title,
		AttrType:             p.Type,
		AttrTechRequirements: p.TechRequirements,
		AttrDescription:      p.Description,
		AttrBudget:           p.Budget,
		AttrDuration:         p.Duration,
		AttrStartTime:        p.StartTime,
		AttrWorkStyle:        p.WorkStyle,
		AttrLocation:         p.Location,
	}
}

// ProjectFromAttributes rebuilds a project from ProjectAttributes output.
func ProjectFromAttributes(m map[string]string) *core.Project {
	return &core.Project{
		ID:               m[AttrID],
		Title:            m[AttrTitle],
		Type:             m[AttrType],
		TechRequirements: m[AttrTechRequirements],
		Description:      m[AttrDescription],
		Budget:           m[AttrBudget],
		Duration:         m[AttrDuration],
		StartTime:        m[AttrStartTime],
		WorkStyle:        m[AttrWorkStyle],
		Location:         m[AttrLocation],
	}
}

// ItemFromAttributes rebuilds a pool item of the given kind.
func ItemFromAttributes(kind core.Kind, m map[string]string, similarity float64) core.Item {
	if kind == core.KindProject {
		return core.ProjectItem(ProjectFromAttributes(m), similarity)
	}
	return core.CandidateItem(CandidateFromAttributes(m), similarity)
}

// MatchesFilters reports whether every filter value occurs in the attribute
// of the same key, ignoring case. Empty filter values are ignored.
func MatchesFilters(attrs, filters map[string]string) bool {
	for key, want := range filters {
		if want == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(attrs[key]), strings.ToLower(want)) {
			return false
		}
	}
	return true
}
