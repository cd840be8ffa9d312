package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"etoile/internal/modules/pricing"
)

// GeminiExplainer implements QuoteExplainer on Google's Gemini models.
type GeminiExplainer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiExplainer(ctx context.Context, apiKey string) (*GeminiExplainer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	// Flash keeps the latency of an interactive "explain this price" click
	// acceptable.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.SetTemperature(0.3)

	return &GeminiExplainer{client: client, model: model}, nil
}

func (e *GeminiExplainer) Close() {
	e.client.Close()
}

const explainPrompt = `You are a pricing assistant for a French chauffeured
transport company. Below is the machine-readable derivation of a quote: the
pricing mode, the ordered list of applied rules with their before/after
amounts, and the profitability classification. Write a short explanation in
French (3-5 sentences) that an operator could send to a client: state the
final price, why this pricing mode applied, and which adjustments changed the
amount. Do not mention internal costs, margins, or the profitability
indicator.`

// ExplainQuote sends the applied-rule trail to the model and returns its
// prose summary.
func (e *GeminiExplainer) ExplainQuote(ctx context.Context, result pricing.PricingResult) (string, error) {
	payload, err := json.Marshal(struct {
		Mode         pricing.PricingMode   `json:"mode"`
		Price        float64               `json:"price"`
		Fallback     string                `json:"fallbackReason,omitempty"`
		AppliedRules []pricing.AppliedRule `json:"appliedRules"`
	}{
		Mode:         result.Mode,
		Price:        result.Price,
		Fallback:     string(result.FallbackReason),
		AppliedRules: result.AppliedRules,
	})
	if err != nil {
		return "", fmt.Errorf("encode quote: %w", err)
	}

	resp, err := e.model.GenerateContent(ctx, genai.Text(explainPrompt+"\n\n"+string(payload)))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(out.String()), nil
}
