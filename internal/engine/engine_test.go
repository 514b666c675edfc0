package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lazypower/keepsake/internal/fault"
	"github.com/lazypower/keepsake/internal/llm"
	"github.com/lazypower/keepsake/internal/store"
	"github.com/lazypower/keepsake/internal/undo"
)

const extractionJSON = `{"summary":"Switch to remote work","goal":"reclaim commute time","reasoning":"two hours daily lost in traffic","constraints":["employer approval"],"tags":["career","remote"]}`

func testEngine(t *testing.T, mock *llm.MockClient) *Engine {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, mock, undo.New(undo.DefaultTTL))
}

func TestCreateExtractsAndPersists(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: extractionJSON}}
	eng := testEngine(t, mock)

	d, err := eng.Create(context.Background(), "I will switch to remote work", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if d.Summary == "" || d.Goal == "" || d.Reasoning == "" {
		t.Errorf("extracted fields missing: %+v", d)
	}
	if d.Category != "general" {
		t.Errorf("Category = %q, want general default", d.Category)
	}
	if d.DecisionText != "I will switch to remote work" {
		t.Errorf("DecisionText = %q", d.DecisionText)
	}
	if len(mock.Calls) != 1 {
		t.Errorf("LLM calls = %d, want 1 (no retries)", len(mock.Calls))
	}

	stored, err := eng.DB.GetDecision(d.ID)
	if err != nil || stored == nil {
		t.Fatalf("record not persisted: %v", err)
	}
}

func TestCreateEmptyTextNoCollaboratorCall(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: extractionJSON}}
	eng := testEngine(t, mock)

	_, err := eng.Create(context.Background(), "   \t\n", "career")
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("LLM calls = %d, want 0 for validation failure", len(mock.Calls))
	}
}

func TestCreateExtractionFailureNothingPersisted(t *testing.T) {
	mock := &llm.MockClient{Err: &fault.UpstreamError{Op: "gemini", Err: errors.New("timeout")}}
	eng := testEngine(t, mock)

	_, err := eng.Create(context.Background(), "some decision", "")
	if !errors.Is(err, fault.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}

	n, err := eng.DB.CountDecisions()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("store has %d records after failed create, want 0", n)
	}
}

func TestCreateRateLimitedPropagates(t *testing.T) {
	mock := &llm.MockClient{Err: &fault.RateLimitedError{RetryAfter: 42}}
	eng := testEngine(t, mock)

	_, err := eng.Create(context.Background(), "some decision", "")
	var rl *fault.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want RateLimitedError", err)
	}
	if rl.RetryAfter != 42 {
		t.Errorf("RetryAfter = %d, want 42", rl.RetryAfter)
	}
	if len(mock.Calls) != 1 {
		t.Errorf("LLM calls = %d, want exactly 1 (no automatic retry)", len(mock.Calls))
	}
}

func TestCreateCategoryPassedThrough(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: extractionJSON}}
	eng := testEngine(t, mock)

	d, err := eng.Create(context.Background(), "buy the house", "finance")
	if err != nil {
		t.Fatal(err)
	}
	if d.Category != "finance" {
		t.Errorf("Category = %q, want finance", d.Category)
	}
}

func TestDeleteThenRestore(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: extractionJSON}}
	eng := testEngine(t, mock)

	d, err := eng.Create(context.Background(), "sell the car", "")
	if err != nil {
		t.Fatal(err)
	}

	token, err := eng.Delete(d.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if token == "" {
		t.Fatal("expected undo token")
	}

	if got, _ := eng.DB.GetDecision(d.ID); got != nil {
		t.Fatal("record still in store after delete")
	}

	restored, err := eng.Restore(token)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.ID != d.ID {
		t.Errorf("restored id = %s, want %s (identity preserved)", restored.ID, d.ID)
	}
	if restored.CreatedAt != d.CreatedAt || restored.UpdatedAt != d.UpdatedAt {
		t.Error("restored timestamps differ from the pre-delete snapshot")
	}

	// The token is consumed
	if _, err := eng.Restore(token); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("second restore err = %v, want ErrNotFound", err)
	}
}

func TestRestoreExpired(t *testing.T) {
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	mock := &llm.MockClient{Response: &llm.Response{Content: extractionJSON}}
	eng := New(db, mock, undo.New(time.Millisecond))

	d, err := eng.Create(context.Background(), "cancel the subscription", "")
	if err != nil {
		t.Fatal(err)
	}
	token, err := eng.Delete(d.ID)
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(5 * time.Millisecond)

	_, err = eng.Restore(token)
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("restore after TTL err = %v, want ErrNotFound", err)
	}
}

func TestDeleteUnknownID(t *testing.T) {
	eng := testEngine(t, &llm.MockClient{})

	_, err := eng.Delete("no-such-id")
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestClearAllNotUndoable(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: extractionJSON}}
	eng := testEngine(t, mock)

	for _, text := range []string{"one", "two"} {
		if _, err := eng.Create(context.Background(), text, ""); err != nil {
			t.Fatal(err)
		}
	}

	n, err := eng.DB.ClearDecisions()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("cleared = %d, want 2", n)
	}

	// Deliberate asymmetry with single delete: bulk clear mints no
	// undo tokens
	if eng.Undo.Len() != 0 {
		t.Errorf("undo cache has %d entries after clear, want 0", eng.Undo.Len())
	}
}

func TestAskGroundsInRelevantDecisions(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: extractionJSON}}
	eng := testEngine(t, mock)

	a, err := eng.Create(context.Background(), "turned down the management track", "")
	if err != nil {
		t.Fatal(err)
	}
	// Second record with non-matching tags
	mock.Response = &llm.Response{Content: `{"summary":"Index funds","goal":"retire at 60","reasoning":"low fees","constraints":[],"tags":["finance"]}`}
	if _, err := eng.Create(context.Background(), "moved savings to index funds", ""); err != nil {
		t.Fatal(err)
	}

	mock.Response = &llm.Response{Content: "Based on your past career decisions..."}
	ans, err := eng.Ask(context.Background(), "career advice please")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	if ans.Response == "" {
		t.Error("empty response")
	}
	if len(ans.References) != 1 {
		t.Fatalf("references = %d, want 1", len(ans.References))
	}
	if ans.References[0].ID != a.ID {
		t.Errorf("reference = %s, want %s", ans.References[0].ID, a.ID)
	}
}

func TestAskEmptyQuestionNoCollaboratorCall(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "hi"}}
	eng := testEngine(t, mock)

	_, err := eng.Ask(context.Background(), "  ")
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("LLM calls = %d, want 0", len(mock.Calls))
	}
}

func TestAskEmptyStoreStillAnswers(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "nothing on record"}}
	eng := testEngine(t, mock)

	ans, err := eng.Ask(context.Background(), "should I move abroad?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(ans.References) != 0 {
		t.Errorf("references = %d, want 0", len(ans.References))
	}
	if ans.References == nil {
		t.Error("references should be an empty slice, not nil")
	}
}
