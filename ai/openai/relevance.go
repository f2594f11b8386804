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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/poiesic/talentmatch/ai"
	"github.com/poiesic/talentmatch/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// RelevanceService implements ai.RelevanceService using OpenAI-compatible chat APIs.
type RelevanceService struct {
	client        llms.Model
	limiter       *rate.Limiter
	parseAttempts int
	logger        *slog.Logger
}

// rankResponse is the wrapper structure for the model's ranking output.
// Entries are decoded one by one so a bad entry only costs itself.
type rankResponse struct {
	Matches []json.RawMessage `json:"matches"`
}

// rankEntry is one entry of a ranking reply. Quoted numbers and fractional
// scores are accepted.
type rankEntry struct {
	ID     looseString `json:"id"`
	Name   looseString `json:"name"`
	Score  looseScore  `json:"score"`
	Reason looseString `json:"reason"`
}

func (e rankEntry) result() core.MatchResult {
	return core.MatchResult{
		ID:     strings.TrimSpace(string(e.ID)),
		Name:   string(e.Name),
		Score:  int(e.Score),
		Reason: string(e.Reason),
	}
}

// looseString decodes a JSON string or number.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("want string or number, got %s", clip(string(b), 40))
	}
	*s = looseString(n.String())
	return nil
}

// looseScore decodes a number or numeric string, rounded to an int.
type looseScore int

func (s *looseScore) UnmarshalJSON(b []byte) error {
	raw := string(b)
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		raw = strings.TrimSuffix(strings.TrimSpace(str), "%")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("score %s is not a number", clip(string(b), 40))
	}
	*s = looseScore(math.Round(f))
	return nil
}

// newRelevanceService is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRelevanceService(config *ai.Config) (*RelevanceService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.RelevanceHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.RelevanceModel),
	)
	if err != nil {
		return nil, err
	}

	return newRelevanceServiceWithModel(client, config), nil
}

func newRelevanceServiceWithModel(client llms.Model, config *ai.Config) *RelevanceService {
	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
	}
	attempts := config.ParseAttempts
	if attempts < 1 {
		attempts = ai.DefaultParseAttempts
	}
	return &RelevanceService{
		client:        client,
		limiter:       limiter,
		parseAttempts: attempts,
		logger:        slog.Default().With("component", "openai-relevance"),
	}
}

// NewRelevanceService creates a relevance service using the provided configuration.
//
// Returns ai.RelevanceService interface to enforce abstraction.
func NewRelevanceService(config *ai.Config) (ai.RelevanceService, error) {
	return newRelevanceService(config)
}

// Score asks the model to rate one candidate/project pair.
func (r *RelevanceService) Score(ctx context.Context, c *core.Candidate, p *core.Project) (ai.RelevanceScore, error) {
	var verdict ai.RelevanceScore
	if c == nil || p == nil {
		return verdict, fmt.Errorf("%w: candidate and project are required", core.ErrInvalidRequest)
	}

	err := r.generate(ctx, buildScoreSystemPrompt(), buildScoreUserPrompt(c, p), &verdict)
	if err != nil {
		return ai.RelevanceScore{}, err
	}
	if !core.IsValidScore(verdict.Score) {
		return ai.RelevanceScore{}, fmt.Errorf("%w: %w: got %d", ai.ErrInvalidResponse, core.ErrScoreOutOfRange, verdict.Score)
	}
	return verdict, nil
}

// Rank asks the model to order up to ai.MaxRankItems items against a query.
// Extra items are ignored.
func (r *RelevanceService) Rank(ctx context.Context, query ai.QueryDescriptor, items []core.Item) ([]core.MatchResult, error) {
	if len(items) == 0 {
		return []core.MatchResult{}, nil
	}
	if len(items) > ai.MaxRankItems {
		items = items[:ai.MaxRankItems]
	}

	var resp rankResponse
	err := r.generate(ctx, buildRankSystemPrompt(query.MatchType), buildRankUserPrompt(query, items), &resp)
	if err != nil {
		return nil, err
	}

	results := make([]core.MatchResult, 0, len(resp.Matches))
	var bad []*ai.EntryError
	for i, raw := range resp.Matches {
		var entry rankEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			r.logger.Warn("discarding undecodable ranked entry",
				"query", query.QueryID, "index", i, "entry", clip(string(raw), 200), "err", err)
			bad = append(bad, &ai.EntryError{Index: i, Err: fmt.Errorf("%w: %w", ai.ErrInvalidResponse, err)})
			continue
		}
		results = append(results, entry.result())
	}

	r.logger.Debug("ranked items", "query", query.QueryID, "items", len(items),
		"matches", len(results), "discarded", len(bad))
	if len(bad) > 0 {
		return results, &ai.RankEntriesError{Entries: bad}
	}
	return results, nil
}

// generate runs one chat completion in JSON mode and decodes it into out.
// Malformed output is regenerated until parseAttempts model calls were made;
// transport errors are returned immediately. A caller that retries failed
// requests multiplies the number of model calls by this count.
func (r *RelevanceService) generate(ctx context.Context, system, user string, out any) error {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	var lastErr error
	for attempt := range r.parseAttempts {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			r.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return err
		}

		if len(response.Choices) < 1 {
			return ai.ErrEmptyResponse
		}

		responseText := repairJSON(stripCodeFences(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(responseText), out); err != nil {
			lastErr = err
			r.logger.Warn("error parsing relevance response",
				"attempt", attempt+1,
				"response", clip(responseText, 500),
				"err", err)
			continue
		}
		return nil
	}

	r.logger.Error("failed to parse relevance response after retries", "err", lastErr)
	return fmt.Errorf("%w: %w", ai.ErrInvalidResponse, lastErr)
}
