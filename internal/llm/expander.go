package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Expander turns one query into related queries using the Live client. It
// satisfies internal/retrieval.Expander.
type Expander struct {
	client *Client
}

func NewExpander(client *Client) *Expander { return &Expander{client: client} }

func (e *Expander) IsAvailable(ctx context.Context) bool {
	return e.client != nil && e.client.IsAvailable(ctx)
}

// Expansion mirrors internal/retrieval.Expansion without importing that
// package, avoiding a dependency cycle; callers adapt between the two.
type Expansion struct {
	Original    string
	Expanded    []string
	WasExpanded bool
}

const expanderPromptTemplate = `Given this search query, generate up to 5 closely related alternative phrasings that would help find relevant notes in a knowledge base. Keep each alternative under 200 characters. Respond with ONLY a JSON array of strings, no other text.

Query: %s`

func (e *Expander) Expand(ctx context.Context, query string) (Expansion, error) {
	if !e.IsAvailable(ctx) {
		return Expansion{Original: query, Expanded: []string{query}, WasExpanded: false}, nil
	}
	prompt := fmt.Sprintf(expanderPromptTemplate, query)
	raw, err := e.client.complete(ctx, prompt, 256)
	if err != nil {
		return Expansion{}, err
	}

	var alternatives []string
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &alternatives); err != nil {
		return Expansion{Original: query, Expanded: []string{query}, WasExpanded: false}, nil
	}

	expanded := make([]string, 0, len(alternatives)+1)
	expanded = append(expanded, query)
	for _, alt := range alternatives {
		alt = strings.TrimSpace(alt)
		if alt == "" || alt == query {
			continue
		}
		if len(alt) > 200 {
			alt = alt[:200]
		}
		expanded = append(expanded, alt)
		if len(expanded) >= 6 {
			break
		}
	}
	return Expansion{Original: query, Expanded: expanded, WasExpanded: len(expanded) > 1}, nil
}

// extractJSONArray trims any leading/trailing prose the model added around
// the JSON array, since Haiku occasionally wraps output in a sentence
// despite being told not to.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return "[]"
	}
	return s[start : end+1]
}
