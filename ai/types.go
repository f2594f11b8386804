package ai

import "github.com/poiesic/talentmatch/core"

// MaxRankItems bounds how many items go into one Rank call.
const MaxRankItems = 5

// RelevanceScore is a model's verdict on one candidate/project pair.
type RelevanceScore struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// QueryDescriptor is what a ranking request is about: the match direction,
// the query entity's text and any free-text query and requirements.
type QueryDescriptor struct {
	MatchType    core.MatchType
	QueryID      string
	Text         string
	Query        string
	Requirements core.Requirements
}
