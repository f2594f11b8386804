package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "Senior Java engineer, Spring Boot, 8 years, Beijing",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestID_String(t *testing.T) {
	if got := ID(255).String(); got != "00000000000000ff" {
		t.Errorf("ID.String() = %q, want %q", got, "00000000000000ff")
	}
}

func TestEnsureID(t *testing.T) {
	t.Run("candidate keeps existing id", func(t *testing.T) {
		c := &Candidate{ID: "C001", Name: "Zhang San"}
		if got := c.EnsureID(); got != "C001" {
			t.Errorf("EnsureID() = %q, want C001", got)
		}
	})

	t.Run("candidate id derived from content", func(t *testing.T) {
		a := &Candidate{Name: "Li Si", Contact: "lisi@example.com", Skills: "Python"}
		b := &Candidate{Name: "Li Si", Contact: "lisi@example.com", Skills: "Python"}
		if a.EnsureID() != b.EnsureID() {
			t.Errorf("EnsureID() not deterministic: %q vs %q", a.ID, b.ID)
		}
		if a.ID[0] != 'C' {
			t.Errorf("candidate id should start with C, got %q", a.ID)
		}
	})

	t.Run("project id derived from content", func(t *testing.T) {
		p := &Project{Title: "E-commerce platform", TechRequirements: "Java"}
		if got := p.EnsureID(); got == "" || got[0] != 'P' {
			t.Errorf("EnsureID() = %q, want P-prefixed id", got)
		}
	})
}

func TestMatchType_PoolKind(t *testing.T) {
	if got := MatchProjectToResume.PoolKind(); got != KindCandidate {
		t.Errorf("project_to_resume pool kind = %v, want candidate", got)
	}
	if got := MatchResumeToProject.PoolKind(); got != KindProject {
		t.Errorf("resume_to_project pool kind = %v, want project", got)
	}
}

func TestItem_Accessors(t *testing.T) {
	tests := []struct {
		name     string
		item     Item
		wantID   string
		wantName string
	}{
		{
			name:     "candidate item",
			item:     CandidateItem(&Candidate{ID: "C1", Name: "Wang Wu"}, 0.9),
			wantID:   "C1",
			wantName: "Wang Wu",
		},
		{
			name:     "project item",
			item:     ProjectItem(&Project{ID: "P1", Title: "Data platform"}, 0.5),
			wantID:   "P1",
			wantName: "Data platform",
		},
		{
			name:     "empty item",
			item:     Item{Kind: KindCandidate},
			wantID:   "",
			wantName: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.ID(); got != tt.wantID {
				t.Errorf("ID() = %q, want %q", got, tt.wantID)
			}
			if got := tt.item.Name(); got != tt.wantName {
				t.Errorf("Name() = %q, want %q", got, tt.wantName)
			}
		})
	}
}

func TestRequirements_IsZero(t *testing.T) {
	if !(Requirements{}).IsZero() {
		t.Error("empty requirements should be zero")
	}
	if (Requirements{Location: "Beijing"}).IsZero() {
		t.Error("requirements with location should not be zero")
	}
}

func TestText_SkipsEmptyFields(t *testing.T) {
	c := &Candidate{Title: "Backend engineer", Skills: "Go, Redis"}
	if got := c.Text(); got != "Backend engineer; Go, Redis" {
		t.Errorf("Text() = %q", got)
	}
}
