package orchestrator

import (
	"fmt"
	"time"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/matching"
	"github.com/poiesic/talentmatch/progress"
)

// StageCount tallies the items a stage handled.
type StageCount struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SuccessRate is Succeeded/Processed in 0..1. A stage that handled nothing
// counts as fully successful.
func (c StageCount) SuccessRate() float64 {
	if c.Processed == 0 {
		return 1
	}
	return float64(c.Succeeded) / float64(c.Processed)
}

// Performance describes how long a run took.
type Performance struct {
	TotalSeconds    float64 `json:"total_processing_time"`
	ItemsPerSecond  float64 `json:"items_per_second"`
	StagesCompleted int     `json:"stages_completed"`
}

// ItemOutcome is the result of one match request. Exactly one of Err or
// Results describes the outcome; a run that produced no results still has an
// empty Err.
type ItemOutcome struct {
	Index        int                      `json:"index"`
	QueryID      string                   `json:"query_id"`
	MatchType    core.MatchType           `json:"match_type"`
	Strategy     matching.Strategy        `json:"strategy,omitempty"`
	Results      []core.MatchResult       `json:"matches,omitempty"`
	Degradations []matching.DegradeReason `json:"degradations,omitempty"`
	Errors       []string                 `json:"errors,omitempty"`
	Err          string                   `json:"error,omitempty"`
	Run          *matching.Run            `json:"-"`
}

// OK reports whether the request ran to completion.
func (o ItemOutcome) OK() bool {
	return o.Err == ""
}

func newItemOutcome(i int, req core.MatchRequest, run *matching.Run, err error) ItemOutcome {
	out := ItemOutcome{Index: i, QueryID: req.QueryID, MatchType: req.MatchType, Run: run}
	if err != nil {
		out.Err = err.Error()
		return out
	}
	out.Strategy = run.Strategy
	out.Results = run.Results
	out.Degradations = run.Degradations
	for _, e := range run.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	return out
}

// Summary aggregates a run. Results is index-aligned with the requests.
type Summary struct {
	SessionID    string                         `json:"session_id"`
	Requests     int                            `json:"requests"`
	Stages       map[progress.Stage]StageCount  `json:"stages"`
	SuccessRates map[progress.Stage]float64     `json:"success_rates"`
	Strategies   map[matching.Strategy]int      `json:"strategies"`
	Degradations map[matching.DegradeReason]int `json:"degradations,omitempty"`
	Performance  Performance                    `json:"performance"`
	Results      []ItemOutcome                  `json:"results"`
}

func newSummary(sessionID string, requests int) *Summary {
	return &Summary{
		SessionID:    sessionID,
		Requests:     requests,
		Stages:       make(map[progress.Stage]StageCount),
		SuccessRates: make(map[progress.Stage]float64),
		Strategies:   make(map[matching.Strategy]int),
		Degradations: make(map[matching.DegradeReason]int),
	}
}

func (s *Summary) record(stage progress.Stage, c StageCount) {
	s.Stages[stage] = c
	s.SuccessRates[stage] = c.SuccessRate()
	s.Performance.StagesCompleted++
}

func (s *Summary) finish(elapsed time.Duration) {
	s.Performance.TotalSeconds = elapsed.Seconds()
	if secs := elapsed.Seconds(); secs > 0 {
		s.Performance.ItemsPerSecond = float64(s.Stages[progress.StageMatching].Processed) / secs
	}
}

// Matches counts the ranked entries across all outcomes.
func (s *Summary) Matches() int {
	n := 0
	for _, r := range s.Results {
		n += len(r.Results)
	}
	return n
}

// PairRequests builds one request per candidate and project pair. Each
// request embeds both records, so the pipeline scores only that pair.
// Records without IDs get content-derived ones.
func PairRequests(candidates []*core.Candidate, projects []*core.Project, matchType core.MatchType) []core.MatchRequest {
	reqs := make([]core.MatchRequest, 0, len(candidates)*len(projects))
	for i, c := range candidates {
		c.EnsureID()
		for j, p := range projects {
			p.EnsureID()
			reqs = append(reqs, core.MatchRequest{
				MatchType:     matchType,
				QueryID:       fmt.Sprintf("match_%d_%d", i, j),
				FreeTextQuery: pairQuery(c, p),
				Candidate:     c,
				Project:       p,
			})
		}
	}
	return reqs
}

func pairQuery(c *core.Candidate, p *core.Project) string {
	return fmt.Sprintf("%s %s", p.TechRequirements, c.Skills)
}
