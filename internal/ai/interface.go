// Package ai turns a quote's applied-rule trail into a short prose
// explanation an operator can forward to a client.
package ai

import (
	"context"

	"etoile/internal/modules/pricing"
)

// QuoteExplainer narrates a pricing result. Implementations call an external
// model; the interface keeps providers swappable.
type QuoteExplainer interface {
	ExplainQuote(ctx context.Context, result pricing.PricingResult) (string, error)
}
