package storage

import (
	"context"

	"github.com/poiesic/talentmatch/core"
)

// repositorySource adapts a RecordRepository to RecordSource.
type repositorySource struct {
	repo RecordRepository
}

// NewRecordSource returns a RecordSource backed by repo.
func NewRecordSource(repo RecordRepository) RecordSource {
	return &repositorySource{repo: repo}
}

func (s *repositorySource) Candidates(ctx context.Context) ([]*core.Candidate, error) {
	records, err := s.repo.ListRecords(ctx, core.KindCandidate)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Candidate, 0, len(records))
	for _, r := range records {
		if r.Candidate != nil {
			out = append(out, r.Candidate)
		}
	}
	return out, nil
}

func (s *repositorySource) Projects(ctx context.Context) ([]*core.Project, error) {
	records, err := s.repo.ListRecords(ctx, core.KindProject)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Project, 0, len(records))
	for _, r := range records {
		if r.Project != nil {
			out = append(out, r.Project)
		}
	}
	return out, nil
}

func (s *repositorySource) Candidate(ctx context.Context, id string) (*core.Candidate, error) {
	r, err := s.repo.GetRecord(ctx, core.KindCandidate, id)
	if err != nil {
		return nil, err
	}
	return r.Candidate, nil
}

func (s *repositorySource) Project(ctx context.Context, id string) (*core.Project, error) {
	r, err := s.repo.GetRecord(ctx, core.KindProject, id)
	if err != nil {
		return nil, err
	}
	return r.Project, nil
}

// StaticSource is an in-memory RecordSource over fixed slices.
type StaticSource struct {
	CandidateList []*core.Candidate
	ProjectList   []*core.Project
}

var _ RecordSource = (*StaticSource)(nil)

func (s *StaticSource) Candidates(ctx context.Context) ([]*core.Candidate, error) {
	return s.CandidateList, nil
}

func (s *StaticSource) Projects(ctx context.Context) ([]*core.Project, error) {
	return s.ProjectList, nil
}

func (s *StaticSource) Candidate(ctx context.Context, id string) (*core.Candidate, error) {
	for _, c := range s.CandidateList {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *StaticSource) Project(ctx context.Context, id string) (*core.Project, error) {
	for _, p := range s.ProjectList {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrNotFound
}
