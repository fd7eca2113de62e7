package models

// Usage carries token counts from a completed provider response. This is
// intentionally a separate type from providers.Usage so the models package
// has no dependency on the providers package.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// CostResult breaks down the total cost by billing component, in USD.
type CostResult struct {
	TotalUSD  float64
	InputUSD  float64
	OutputUSD float64
	// ModelFound is false when the catalog has no entry for the requested
	// model. All cost fields are zero in that case.
	ModelFound bool
}

// perM converts a nullable price-per-million-tokens to a cost for n tokens.
// Returns 0 when price is nil (field not applicable) or n is 0.
func perM(price *float64, n int) float64 {
	if price == nil || n == 0 {
		return 0
	}
	return *price * float64(n) / 1_000_000
}

// Calculate computes the full cost for a completed request.
// modelKey should be "provider/model-id"; a bare model ID is also accepted
// but triggers a linear scan of the catalog.
func Calculate(catalog Catalog, modelKey string, usage Usage) CostResult {
	model, ok := catalog.Get(modelKey)
	if !ok {
		return CostResult{ModelFound: false}
	}

	p := model.Pricing
	r := CostResult{ModelFound: true}
	r.InputUSD = perM(p.InputPerMTokens, usage.PromptTokens)
	r.OutputUSD = perM(p.OutputPerMTokens, usage.CompletionTokens)
	r.TotalUSD = r.InputUSD + r.OutputUSD
	return r
}
