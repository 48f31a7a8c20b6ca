// Package cost estimates request size and dollar cost for a conversation
// before it is sent. Everything here is pure arithmetic over message
// content; no state, no I/O.
package cost

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"blogsmith/internal/core"
)

// Pricing holds the per-model rates used for estimation.
type Pricing struct {
	Model                 string
	InputCostPer1KTokens  float64 // USD per 1000 prompt tokens
	OutputCostPer1KTokens float64 // USD per 1000 generated tokens
	EstimatedOutputTokens int     // Typical generated length for one section
}

// PricingTable lists the models the tool knows rates for.
var PricingTable = map[string]Pricing{
	"gemini-2.0-flash": {
		Model:                 "gemini-2.0-flash",
		InputCostPer1KTokens:  0.0001,
		OutputCostPer1KTokens: 0.0004,
		EstimatedOutputTokens: 600,
	},
	"gemini-2.5-flash": {
		Model:                 "gemini-2.5-flash",
		InputCostPer1KTokens:  0.0003,
		OutputCostPer1KTokens: 0.0025,
		EstimatedOutputTokens: 600,
	},
	"gemini-2.5-pro": {
		Model:                 "gemini-2.5-pro",
		InputCostPer1KTokens:  0.00125,
		OutputCostPer1KTokens: 0.01,
		EstimatedOutputTokens: 700,
	},
}

// defaultPricing is used when a model has no table entry.
const defaultPricingModel = "gemini-2.0-flash"

// PricingFor returns the table entry for model, falling back to the
// default flash rates for unknown models.
func PricingFor(model string) Pricing {
	if p, ok := PricingTable[model]; ok {
		return p
	}
	return PricingTable[defaultPricingModel]
}

// perMessageOverhead covers the structural tokens wrapping each message
// (role marker and delimiters); replyPriming covers the tokens priming
// the assistant's answer.
const (
	perMessageOverhead = 4
	replyPriming       = 2
)

// EstimateTextTokens approximates the token count of a piece of text.
// Roughly one token per 3.5 characters for western text, rounded up.
func EstimateTextTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	text = strings.ReplaceAll(text, "\n", " ")
	charCount := utf8.RuneCountInString(text)
	return int(math.Ceil(float64(charCount) / 3.5))
}

// EstimateMessageTokens approximates the prompt size of an ordered
// conversation, including the per-message structural overhead.
func EstimateMessageTokens(messages []core.Message) int {
	tokens := 0
	for _, msg := range messages {
		tokens += perMessageOverhead
		tokens += EstimateTextTokens(msg.Content)
	}
	tokens += replyPriming
	return tokens
}

// Calculate prices a call from its input and output token counts.
func Calculate(inputTokens, outputTokens int, p Pricing) float64 {
	inputCost := float64(inputTokens) / 1000 * p.InputCostPer1KTokens
	outputCost := float64(outputTokens) / 1000 * p.OutputCostPer1KTokens
	return inputCost + outputCost
}

// RequestEstimate is the pre-flight estimate for one generation request.
type RequestEstimate struct {
	Model                 string
	EstimatedInputTokens  int
	EstimatedOutputTokens int
	InputCost             float64
	OutputCost            float64
	TotalCost             float64
}

// EstimateRequest sizes and prices a conversation for the given model.
func EstimateRequest(messages []core.Message, model string) RequestEstimate {
	p := PricingFor(model)
	inputTokens := EstimateMessageTokens(messages)
	outputTokens := p.EstimatedOutputTokens

	return RequestEstimate{
		Model:                 p.Model,
		EstimatedInputTokens:  inputTokens,
		EstimatedOutputTokens: outputTokens,
		InputCost:             float64(inputTokens) / 1000 * p.InputCostPer1KTokens,
		OutputCost:            float64(outputTokens) / 1000 * p.OutputCostPer1KTokens,
		TotalCost:             Calculate(inputTokens, outputTokens, p),
	}
}

// Format renders the estimate for terminal display.
func (e RequestEstimate) Format() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Cost estimate for %s\n", e.Model))
	sb.WriteString(fmt.Sprintf("  Input tokens:  %d (~$%.6f)\n", e.EstimatedInputTokens, e.InputCost))
	sb.WriteString(fmt.Sprintf("  Output tokens: %d (~$%.6f)\n", e.EstimatedOutputTokens, e.OutputCost))
	sb.WriteString(fmt.Sprintf("  Total:         $%.6f\n", e.TotalCost))
	return sb.String()
}

// ActualCost prices a completed call from the usage the endpoint reported.
func ActualCost(usage core.TokenUsage, model string) float64 {
	return Calculate(usage.InputTokens, usage.OutputTokens, PricingFor(model))
}
