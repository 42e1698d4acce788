package reranker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/knoguchi/talentrank/internal/llm"
)

// maxDocumentRunes bounds each document in the prompt to stay inside the
// model's context window.
const maxDocumentRunes = 800

// LLMReranker uses an LLM to re-score query-document pairs for improved relevance.
// This implements a cross-encoder-like approach where the model sees both
// query and document together, enabling more accurate relevance assessment.
type LLMReranker struct {
	llmClient llm.LLM
	model     string
}

// LLMRerankerOption is a functional option for configuring LLMReranker.
type LLMRerankerOption func(*LLMReranker)

// WithModel sets the model to use for reranking.
func WithModel(model string) LLMRerankerOption {
	return func(r *LLMReranker) {
		r.model = model
	}
}

// NewLLMReranker creates a new LLM-based reranker.
func NewLLMReranker(llmClient llm.LLM, opts ...LLMRerankerOption) *LLMReranker {
	r := &LLMReranker{
		llmClient: llmClient,
		model:     llm.DefaultModel,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// relevanceScore represents the structured output from the LLM.
type relevanceScore struct {
	DocIndex int     `json:"doc_index"`
	Score    float64 `json:"score"`
}

type rerankResponse struct {
	Scores []relevanceScore `json:"scores"`
}

// Rerank asks the LLM to score each document and returns them best first.
// An unparseable answer is an error so the caller can fall back.
func (r *LLMReranker) Rerank(ctx context.Context, query string, documents []string) ([]Result, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	temperature := float32(0)
	response, err := r.llmClient.Generate(ctx, buildRerankPrompt(query, documents), llm.GenerateOptions{
		Model:       r.model,
		Temperature: &temperature,
		MaxTokens:   64 + 24*len(documents),
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM reranking failed: %w", err)
	}

	scores, err := parseRerankResponse(response, len(documents))
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(scores))
	for i, s := range scores {
		results[i] = Result{Index: i, RelevanceScore: s}
	}

	// Sort by score (descending), ties keep pool order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	return results, nil
}

// ModelName returns the LLM used for scoring.
func (r *LLMReranker) ModelName() string {
	return r.model
}

// buildRerankPrompt constructs the prompt for LLM-based reranking.
func buildRerankPrompt(query string, documents []string) string {
	var sb strings.Builder

	sb.WriteString("You are a recruiting relevance scoring system. Score how well each candidate matches the search.\n\n")
	sb.WriteString("Search: ")
	sb.WriteString(query)
	sb.WriteString("\n\n")

	sb.WriteString("Candidates to score:\n")
	for i, doc := range documents {
		if runes := []rune(doc); len(runes) > maxDocumentRunes {
			doc = string(runes[:maxDocumentRunes]) + "..."
		}
		fmt.Fprintf(&sb, "[Doc %d]:\n%s\n\n", i, doc)
	}

	sb.WriteString(`Score each candidate from 0.0 to 1.0 based on relevance to the search.
Output ONLY valid JSON in this exact format:
{"scores": [{"doc_index": 0, "score": 0.9}, {"doc_index": 1, "score": 0.3}, ...]}

Be strict: unrelated candidates should score below 0.1, partial matches 0.3-0.7, strong matches above 0.7.
Output only JSON, no explanation:`)

	return sb.String()
}

// parseRerankResponse extracts per-document scores from the LLM response.
// Documents the model skipped score 0.
func parseRerankResponse(response string, numDocs int) ([]float64, error) {
	response = strings.TrimSpace(response)

	// Try to extract JSON from markdown code blocks if present
	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + 7
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	} else if idx := strings.Index(response, "```"); idx != -1 {
		start := idx + 3
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	}

	response = strings.TrimSpace(response)

	var parsed rerankResponse
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rerank response: %w", err)
	}

	scores := make([]float64, numDocs)
	for _, s := range parsed.Scores {
		if s.DocIndex < 0 || s.DocIndex >= numDocs {
			continue
		}
		scores[s.DocIndex] = min(max(s.Score, 0), 1)
	}

	return scores, nil
}

// Ensure LLMReranker implements Reranker interface.
var _ Reranker = (*LLMReranker)(nil)
