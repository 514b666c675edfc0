package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/lazypower/keepsake/internal/fault"
)

// Gemini calls the Google Generative Language API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a new Gemini client.
func NewGemini(apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete sends a prompt to Gemini. Quota errors surface as
// fault.RateLimitedError; anything else as fault.UpstreamError.
func (g *Gemini) Complete(ctx context.Context, prompt string) (*Response, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.3)

	rsp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
			return nil, &fault.RateLimitedError{RetryAfter: retryAfterSeconds(gerr.Header, 30)}
		}
		return nil, &fault.UpstreamError{Op: "gemini", Err: err}
	}

	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return nil, &fault.UpstreamError{Op: "gemini", Err: errors.New("empty response")}
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	tokens := 0
	if rsp.UsageMetadata != nil {
		tokens = int(rsp.UsageMetadata.TotalTokenCount)
	}

	return &Response{
		Content:    b.String(),
		Provider:   "gemini",
		TokensUsed: tokens,
	}, nil
}
