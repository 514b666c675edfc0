package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lazypower/keepsake/internal/fault"
	"github.com/lazypower/keepsake/internal/llm"
)

// Extraction is the JSON structure returned by the extraction LLM.
type Extraction struct {
	Summary     string   `json:"summary"`
	Goal        string   `json:"goal"`
	Reasoning   string   `json:"reasoning"`
	Constraints []string `json:"constraints"`
	Tags        []string `json:"tags"`
}

// extractReasoning asks the LLM to distill a decision narrative into
// structured fields. One attempt only: a failure aborts the create and
// nothing is persisted.
func extractReasoning(ctx context.Context, client llm.Client, text string) (*Extraction, error) {
	resp, err := client.Complete(ctx, llm.ExtractionPrompt(text))
	if err != nil {
		return nil, err
	}

	ex, err := parseExtraction(resp.Content)
	if err != nil {
		return nil, &fault.UpstreamError{Op: "extract", Err: err}
	}

	// Every field must be present before the record becomes visible
	if ex.Constraints == nil {
		ex.Constraints = []string{}
	}
	if ex.Tags == nil {
		ex.Tags = []string{}
	}
	return ex, nil
}

// parseExtraction extracts a JSON object from the LLM response.
// The response might contain markdown code fences or other wrapper text.
func parseExtraction(content string) (*Extraction, error) {
	content = strings.TrimSpace(content)

	// Strip markdown code fences if present
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 2 {
			content = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	content = strings.TrimSpace(content)

	// Find the JSON object
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var ex Extraction
	if err := json.Unmarshal([]byte(content[start:end+1]), &ex); err != nil {
		return nil, fmt.Errorf("unmarshal extraction: %w", err)
	}

	return &ex, nil
}
