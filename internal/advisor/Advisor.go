/*

This file contains the optional LLM-backed advisor. It renders a completed
cycle report into a short user-facing narrative with a single Messages call.
The advisor is a thin collaborator: it is disabled without an API key and its
failures are logged, never fatal to the cycle.

*/

package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/starkfolio/apa/internal/logger"
	"github.com/starkfolio/apa/internal/types"
)

const (
	narrateModel     = anthropic.ModelClaudeSonnet4_20250514
	narrateMaxTokens = 512

	systemPrompt = "You are a DeFi portfolio assistant. Summarize the allocation " +
		"cycle for the user in at most four sentences: where funds go, the expected " +
		"return, the confidence levels, and whether a rebalance is needed. Plain " +
		"prose, no markdown."
)

// Advisor narrates cycle reports through the Anthropic Messages API.
type Advisor struct {
	client  anthropic.Client
	enabled bool
	logger  zerolog.Logger
}

// New creates an advisor. An empty API key yields a disabled advisor whose
// Narrate returns an empty narrative.
func New(apiKey string) *Advisor {
	a := &Advisor{
		enabled: apiKey != "",
		logger:  logger.GetForComponent("advisor"),
	}
	if a.enabled {
		a.client = anthropic.NewClient(option.WithAPIKey(apiKey))
	}
	return a
}

// Narrate produces a short narrative for a cycle report, or "" when disabled.
func (a *Advisor) Narrate(ctx context.Context, report types.CycleReport) (string, error) {
	if !a.enabled {
		return "", nil
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     narrateModel,
		MaxTokens: narrateMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(string(reportJSON))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrate cycle: %w", err)
	}

	var narrative string
	for _, block := range resp.Content {
		if block.Type == "text" {
			narrative += block.Text
		}
	}
	return narrative, nil
}
