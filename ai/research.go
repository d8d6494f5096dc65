package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ericgreene/go-serp"
)

// SearchResult represents a web search result.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// researchDecision is the LLM's call on whether web research would
// improve a contribution.
type researchDecision struct {
	NeedsResearch bool     `json:"needs_research"`
	SearchQueries []string `json:"search_queries"`
	Reasoning     string   `json:"reasoning"`
}

// SearchConfig holds configuration for web search.
type SearchConfig struct {
	MaxResults int
	SafeSearch bool
}

// DefaultSearchConfig returns standard search configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxResults: 5,
		SafeSearch: true,
	}
}

// Researcher optionally enriches a topic with web search findings
// before generation. Disabled (nil) when no search key is configured.
type Researcher struct {
	apiKey string
	config SearchConfig
}

// NewResearcher creates a researcher; returns nil if apiKey is empty,
// and a nil Researcher skips enrichment.
func NewResearcher(apiKey string, config SearchConfig) *Researcher {
	if apiKey == "" {
		return nil
	}
	if config.MaxResults == 0 {
		config = DefaultSearchConfig()
	}
	return &Researcher{apiKey: apiKey, config: config}
}

// Enrich asks the generator whether the topic needs research, runs the
// suggested searches, and returns a findings block to prepend to the
// prompt. Returns "" when research is unnecessary or unavailable.
func (r *Researcher) Enrich(ctx context.Context, g Generator, topic string, traits []string) string {
	if r == nil {
		return ""
	}

	prompt := fmt.Sprintf(`You are an agent with these traits: %v

You need to contribute to a discussion on: %q

Decide if web research would improve your contribution. Return a JSON object:
{
  "needs_research": boolean,
  "search_queries": ["query1", "query2"],
  "reasoning": "why or why not"
}`, traits, topic)

	response, err := g.Generate(ctx, "", nil, prompt)
	if err != nil {
		return ""
	}

	var decision researchDecision
	if err := json.Unmarshal([]byte(response), &decision); err != nil || !decision.NeedsResearch {
		return ""
	}

	var findings strings.Builder
	for _, query := range decision.SearchQueries {
		results, err := r.search(query)
		if err != nil {
			continue
		}
		for _, result := range results {
			fmt.Fprintf(&findings, "- %s\n  %s\n", result.Title, result.Snippet)
		}
	}
	if findings.Len() == 0 {
		return ""
	}
	return "Relevant research findings:\n" + findings.String()
}

func (r *Researcher) search(query string) ([]SearchResult, error) {
	parameter := map[string]string{
		"q":   query,
		"key": r.apiKey,
		"num": strconv.Itoa(r.config.MaxResults),
	}
	if r.config.SafeSearch {
		parameter["safe"] = "active"
	}

	queryResponse := serp.NewGoogleSearch(parameter)
	results, err := queryResponse.GetJSON()
	if err != nil {
		return nil, err
	}

	var searchResults []SearchResult
	for _, result := range results.OrganicResults {
		searchResults = append(searchResults, SearchResult{
			Title:   result.Title,
			Snippet: result.Snippet,
			Link:    result.Link,
		})
	}
	return searchResults, nil
}
