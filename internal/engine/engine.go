// Package engine wires the decision store, the undo cache, and the
// LLM collaborator into the operations the API exposes: create with
// reasoning extraction, delete with undo, restore, and grounded
// question answering.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lazypower/keepsake/internal/fault"
	"github.com/lazypower/keepsake/internal/llm"
	"github.com/lazypower/keepsake/internal/store"
	"github.com/lazypower/keepsake/internal/undo"
)

// Engine owns no state of its own; the store and undo cache are
// constructed once per process and passed in by reference.
type Engine struct {
	DB   *store.DB
	LLM  llm.Client
	Undo *undo.Cache
	TopK int
}

// New creates an Engine. A nil client disables create and ask.
func New(db *store.DB, client llm.Client, cache *undo.Cache) *Engine {
	return &Engine{
		DB:   db,
		LLM:  client,
		Undo: cache,
		TopK: DefaultTopK,
	}
}

// Create validates the input, extracts structured reasoning, and
// persists the decision. Validation happens before the collaborator is
// called; an extraction failure aborts the create with nothing stored.
func (e *Engine) Create(ctx context.Context, text, category string) (*store.Decision, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fault.NewValidation("text", "decision cannot be empty")
	}
	if e.LLM == nil {
		return nil, &fault.UpstreamError{Op: "extract", Err: errors.New("no LLM configured")}
	}

	ex, err := extractReasoning(ctx, e.LLM, text)
	if err != nil {
		return nil, err
	}

	d := &store.Decision{
		DecisionText: text,
		Category:     category,
		Summary:      ex.Summary,
		Goal:         ex.Goal,
		Reasoning:    ex.Reasoning,
		Constraints:  ex.Constraints,
		Tags:         ex.Tags,
	}
	if err := e.DB.CreateDecision(d); err != nil {
		return nil, fmt.Errorf("persist decision: %w", err)
	}

	log.Printf("decisions: created %s [%s]", d.ID, d.Category)
	return d, nil
}

// Delete removes a decision and parks its snapshot in the undo cache.
// Returns the one-time undo token.
func (e *Engine) Delete(id string) (string, error) {
	d, err := e.DB.GetDecision(id)
	if err != nil {
		return "", fmt.Errorf("get decision: %w", err)
	}
	if d == nil {
		return "", &fault.NotFoundError{Resource: "decision", ID: id}
	}

	deleted, err := e.DB.DeleteDecision(id)
	if err != nil {
		return "", fmt.Errorf("delete decision: %w", err)
	}
	if !deleted {
		// Lost a race with a concurrent delete; the winner holds the token
		return "", &fault.NotFoundError{Resource: "decision", ID: id}
	}

	token := e.Undo.Put(*d)
	log.Printf("decisions: deleted %s, undo %s", id, token)
	return token, nil
}

// Restore consumes an undo token and reinserts the snapshot into the
// store with its original identity. A consumed or expired token fails.
func (e *Engine) Restore(undoID string) (*store.Decision, error) {
	d, ok := e.Undo.Take(undoID)
	if !ok {
		return nil, &fault.NotFoundError{Message: "undo expired or not found"}
	}

	if err := e.DB.ReinsertDecision(d); err != nil {
		return nil, fmt.Errorf("reinsert decision: %w", err)
	}

	log.Printf("decisions: restored %s", d.ID)
	return d, nil
}

// Ask retrieves the memories most relevant to the question, composes a
// bounded context block, and delegates to the generation collaborator.
// Collaborator failures propagate unchanged; no retries here.
func (e *Engine) Ask(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fault.NewValidation("question", "question cannot be empty")
	}
	if e.LLM == nil {
		return nil, &fault.UpstreamError{Op: "generate", Err: errors.New("no LLM configured")}
	}

	decisions, err := e.DB.ListDecisions()
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}

	memories := Retrieve(question, decisions, e.TopK)

	resp, err := e.LLM.Complete(ctx, llm.AnswerPrompt(question, contextBlock(memories)))
	if err != nil {
		return nil, err
	}

	log.Printf("chat: answered with %d references", len(memories))
	return &Answer{
		Response:   resp.Content,
		References: references(memories),
	}, nil
}
