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


package storage

import (
	"time"

	"github.com/poiesic/talentmatch/core"
)

// Record is a stored pool entry. Exactly one of Candidate or Project is set,
// according to Kind.
type Record struct {
	Kind       core.Kind       `cbor:"1,keyasint"`
	Candidate  *core.Candidate `cbor:"2,keyasint,omitempty"`
	Project    *core.Project   `cbor:"3,keyasint,omitempty"`
	Vector     []float32       `cbor:"4,keyasint,omitempty"`
	InsertedAt time.Time       `cbor:"5,keyasint"`
	UpdatedAt  time.Time       `cbor:"6,keyasint"`
}

// SearchResult is a record with its similarity to a query vector.
type SearchResult struct {
	Record *Record
	Score  float32
}

// NewCandidateRecord wraps a candidate and its embedding.
func NewCandidateRecord(c *core.Candidate, vector []float32) *Record {
	return &Record{Kind: core.KindCandidate, Candidate: c, Vector: vector}
}

// NewProjectRecord wraps a project and its embedding.
func NewProjectRecord(p *core.Project, vector []float32) *Record {
	return &Record{Kind: core.KindProject, Project: p, Vector: vector}
}

// ID returns the wrapped record's identifier, assigning one if missing.
func (r *Record) ID() string {
	switch r.Kind {
	case core.KindCandidate:
		if r.Candidate != nil {
			return r.Candidate.EnsureID()
		}
	case core.KindProject:
		if r.Project != nil {
			return r.Project.EnsureID()
		}
	}
	return ""
}

// Text returns the text the record's embedding was computed from.
func (r *Record) Text() string {
	return r.Item(0).Text()
}

// Item converts the record into a pool item with the given similarity.
func (r *Record) Item(similarity float64) core.Item {
	return core.Item{Kind: r.Kind, Candidate: r.Candidate, Project: r.Project, Similarity: similarity}
}

// Attributes returns the record's flat attribute map.
func (r *Record) Attributes() map[string]string {
	if r.Kind == core.KindProject {
		return ProjectAttributes(r.Project)
	}
	return CandidateAttributes(r.Candidate)
}
