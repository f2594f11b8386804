package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
)

const scoreResponseSchema = `{
  "type": "object",
  "properties": {
    "score": {"type": "integer", "minimum": 0, "maximum": 100},
    "reason": {"type": "string"}
  },
  "required": ["score", "reason"],
  "additionalProperties": false
}`

const scorePromptTemplate = `You evaluate how well a candidate fits a project.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- score is an integer from 0 (no fit) to 100 (ideal fit).
- Weigh technical skills first, then experience, then location, salary and work style.
- reason is one or two short sentences naming the deciding factors.
- Judge only from the information given. Do not invent qualifications.

Example:
Output:
{"score": 82, "reason": "Strong Java and Spring background matching the stack; slightly below the requested seniority."}`

const rankResponseSchema = `{
  "type": "object",
  "properties": {
    "matches": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string"},
          "score": {"type": "integer", "minimum": 0, "maximum": 100},
          "reason": {"type": "string"}
        },
        "required": ["id", "name", "score", "reason"],
        "additionalProperties": false
      }
    }
  },
  "required": ["matches"],
  "additionalProperties": false
}`

const rankPromptTemplate = `You rank %s against a query for a staffing team.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Return at most 3 matches, best first.
- id must be copied verbatim from the item list. Never invent ids.
- score is an integer from 0 to 100.
- reason is one short sentence.
- If nothing fits, return "matches": [].`

func buildScoreSystemPrompt() string {
	return fmt.Sprintf(scorePromptTemplate, scoreResponseSchema)
}

func buildRankSystemPrompt(mt core.MatchType) string {
	subject := "candidates"
	if mt.PoolKind() == core.KindProject {
		subject = "projects"
	}
	return fmt.Sprintf(rankPromptTemplate, subject, rankResponseSchema)
}

func buildScoreUserPrompt(c *core.Candidate, p *core.Project) string {
	var sb strings.Builder
	sb.WriteString("Candidate:\n")
	writeJSON(&sb, c)
	sb.WriteString("\nProject:\n")
	writeJSON(&sb, p)
	return sb.String()
}

// rankItem is the trimmed view of a pool item sent to the model.
type rankItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"details"`
}

func buildRankUserPrompt(q ai.QueryDescriptor, items []core.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Match type: %s\nQuery ID: %s\n", q.MatchType, q.QueryID)
	if q.Text != "" {
		fmt.Fprintf(&sb, "Query entity: %s\n", q.Text)
	}
	if q.Query != "" {
		fmt.Fprintf(&sb, "Query: %s\n", q.Query)
	}
	if !q.Requirements.IsZero() {
		sb.WriteString("Requirements: ")
		writeJSON(&sb, q.Requirements)
		sb.WriteString("\n")
	}
	list := make([]rankItem, len(items))
	for i, it := range items {
		list[i] = rankItem{ID: it.ID(), Name: it.Name(), Text: it.Text()}
	}
	sb.WriteString("Items:\n")
	writeJSON(&sb, list)
	return sb.String()
}

func writeJSON(sb *strings.Builder, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sb.WriteString("{}")
		return
	}
	sb.Write(data)
}
