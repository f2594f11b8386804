package core

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as fixed-width hex.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Kind identifies which side of a match a record belongs to.
type Kind string

const (
	KindCandidate Kind = "candidate"
	KindProject   Kind = "project"
)

// MatchType selects the direction of a match request.
type MatchType string

const (
	// MatchProjectToResume ranks candidates for a project.
	MatchProjectToResume MatchType = "project_to_resume"
	// MatchResumeToProject ranks projects for a candidate.
	MatchResumeToProject MatchType = "resume_to_project"
)

// PoolKind returns the kind of record ranked by this match type.
func (m MatchType) PoolKind() Kind {
	if m == MatchResumeToProject {
		return KindProject
	}
	return KindCandidate
}

// Candidate is a person looking for work. Fields are free text as extracted
// upstream; nothing here is normalized.
type Candidate struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Title              string `json:"title,omitempty"`
	Experience         string `json:"experience_years,omitempty"`
	Skills             string `json:"skills,omitempty"`
	Certificates       string `json:"certificates,omitempty"`
	Education          string `json:"education,omitempty"`
	LocationPreference string `json:"location_preference,omitempty"`
	ExpectedSalary     string `json:"expected_salary,omitempty"`
	Contact            string `json:"contact,omitempty"`
}

// EnsureID assigns a content-derived ID when the candidate has none.
func (c *Candidate) EnsureID() string {
	if c.ID == "" {
		c.ID = "C" + IDFromContent(c.Name+"|"+c.Contact+"|"+c.Skills).String()
	}
	return c.ID
}

// Text is the candidate text used for embeddings and relevance prompts.
func (c *Candidate) Text() string {
	return joinNonEmpty(c.Title, c.Skills, c.Experience, c.Education, c.Certificates, c.LocationPreference)
}

// Project is an engagement looking for people.
type Project struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Type             string `json:"type,omitempty"`
	TechRequirements string `json:"tech_requirements,omitempty"`
	Description      string `json:"description,omitempty"`
	Budget           string `json:"budget,omitempty"`
	Duration         string `json:"duration,omitempty"`
	StartTime        string `json:"start_time,omitempty"`
	WorkStyle        string `json:"work_style,omitempty"`
	Location         string `json:"location,omitempty"`
}

// EnsureID assigns a content-derived ID when the project has none.
func (p *Project) EnsureID() string {
	if p.ID == "" {
		p.ID = "P" + IDFromContent(p.Title+"|"+p.TechRequirements+"|"+p.Description).String()
	}
	return p.ID
}

// Text is the project text used for embeddings and relevance prompts.
func (p *Project) Text() string {
	return joinNonEmpty(p.Title, p.Type, p.TechRequirements, p.Description, p.WorkStyle, p.Location)
}

// Requirements are the hard-filter predicates of a match request.
// Zero values disable the corresponding predicate.
type Requirements struct {
	Location           string   `json:"location,omitempty"`
	MinExperienceYears int      `json:"min_experience_years,omitempty"`
	SalaryRange        string   `json:"salary_range,omitempty"`
	RequiredSkills     []string `json:"required_skills,omitempty"`
}

// IsZero reports whether no predicate is set.
func (r Requirements) IsZero() bool {
	return r.Location == "" && r.MinExperienceYears == 0 && r.SalaryRange == "" && len(r.RequiredSkills) == 0
}

// MatchRequest describes one ranking run. Project or Candidate may carry the
// query entity directly; otherwise it is resolved from QueryID.
type MatchRequest struct {
	MatchType     MatchType    `json:"match_type"`
	QueryID       string       `json:"query_id"`
	FreeTextQuery string       `json:"query,omitempty"`
	Requirements  Requirements `json:"requirements"`
	Project       *Project     `json:"project,omitempty"`
	Candidate     *Candidate   `json:"candidate,omitempty"`
}

// MatchResult is one ranked entry. Score is always within 0..100.
type MatchResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Item is a pool entry flowing through the matching stages. Exactly one of
// Candidate or Project is set, according to Kind.
type Item struct {
	Kind       Kind
	Candidate  *Candidate
	Project    *Project
	Similarity float64
}

// CandidateItem wraps a candidate as a pool item.
func CandidateItem(c *Candidate, similarity float64) Item {
	return Item{Kind: KindCandidate, Candidate: c, Similarity: similarity}
}

// ProjectItem wraps a project as a pool item.
func ProjectItem(p *Project, similarity float64) Item {
	return Item{Kind: KindProject, Project: p, Similarity: similarity}
}

// ID returns the wrapped record's identifier.
func (it Item) ID() string {
	switch it.Kind {
	case KindCandidate:
		if it.Candidate != nil {
			return it.Candidate.ID
		}
	case KindProject:
		if it.Project != nil {
			return it.Project.ID
		}
	}
	return ""
}

// Name returns a display name: candidate name or project title.
func (it Item) Name() string {
	switch it.Kind {
	case KindCandidate:
		if it.Candidate != nil {
			return it.Candidate.Name
		}
	case KindProject:
		if it.Project != nil {
			return it.Project.Title
		}
	}
	return ""
}

// Text returns the wrapped record's descriptive text.
func (it Item) Text() string {
	switch it.Kind {
	case KindCandidate:
		if it.Candidate != nil {
			return it.Candidate.Text()
		}
	case KindProject:
		if it.Project != nil {
			return it.Project.Text()
		}
	}
	return ""
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}
