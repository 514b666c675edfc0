package engine

import (
	"fmt"
	"strings"

	"github.com/lazypower/keepsake/internal/store"
)

// Reference identifies one memory included in an answer's context,
// echoed back to the caller for display and auditability.
type Reference struct {
	ID        string   `json:"id"`
	Summary   string   `json:"summary"`
	Goal      string   `json:"goal"`
	Reasoning string   `json:"reasoning"`
	Tags      []string `json:"tags"`
}

// Answer is a grounded response plus the memories used to ground it.
// References are exactly the records the retriever selected for this
// call, never more, never fewer.
type Answer struct {
	Response   string      `json:"response"`
	References []Reference `json:"references"`
}

// maxContextChars bounds the serialized memory block handed to the
// generation collaborator.
const maxContextChars = 4000

// contextBlock serializes retrieved memories into the bounded context
// handed to the LLM. Each memory gets an equal share of the budget,
// with the free-text reasoning field absorbing the truncation.
func contextBlock(memories []store.Decision) string {
	if len(memories) == 0 {
		return ""
	}

	budget := maxContextChars / len(memories)
	if budget < 200 {
		budget = 200
	}

	var b strings.Builder
	for i, m := range memories {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, m.ID, m.Summary)
		fmt.Fprintf(&b, "   Goal: %s\n", m.Goal)
		fmt.Fprintf(&b, "   Reasoning: %s\n", truncate(m.Reasoning, budget))
		fmt.Fprintf(&b, "   Tags: %s", strings.Join(m.Tags, ", "))
	}
	return b.String()
}

func references(memories []store.Decision) []Reference {
	refs := make([]Reference, len(memories))
	for i, m := range memories {
		refs[i] = Reference{
			ID:        m.ID,
			Summary:   m.Summary,
			Goal:      m.Goal,
			Reasoning: m.Reasoning,
			Tags:      m.Tags,
		}
	}
	return refs
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
