// Package openai adapts the OpenAI chat API to the AI-analysis port.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"bgv/internal/checks/ports"
	cmodels "bgv/internal/comparison/models"
)

const (
	defaultModel = "gpt-4o-mini"
	maxTokens    = 512
)

const systemPrompt = `You review employment background verification data.
Compare the candidate's claimed employment facts against the employer-verified facts
and judge the risk that the claim is inaccurate or fabricated.
Respond with a JSON object only:
{"riskLevel":"LOW|MEDIUM|HIGH","confidence":0.0-1.0,"reasoning":"...","recommendations":["..."]}`

// completer is the subset of the OpenAI client the adapter uses.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client implements ports.AIAnalyzer.
type Client struct {
	api   completer
	model string
}

func NewClient(apiKey, model string) *Client {
	return newClient(openai.NewClient(apiKey), model)
}

func newClient(api completer, model string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{api: api, model: model}
}

var _ ports.AIAnalyzer = (*Client)(nil)

func (c *Client) Analyze(ctx context.Context, req ports.AnalysisRequest) (*cmodels.AIAnalysis, error) {
	user, err := json.Marshal(map[string]any{
		"checkType":    req.CheckType,
		"claimedData":  req.Claimed,
		"verifiedData": req.Verified,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis input: %w", err)
	}

	chat := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(user)},
		},
	}
	// Reasoning models reject MaxTokens.
	if strings.HasPrefix(c.model, "o1") || strings.HasPrefix(c.model, "o3") || strings.HasPrefix(c.model, "o4") || strings.HasPrefix(c.model, "gpt-5") {
		chat.MaxCompletionTokens = maxTokens
	} else {
		chat.MaxTokens = maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	return parseAnalysis(resp.Choices[0].Message.Content)
}

func parseAnalysis(content string) (*cmodels.AIAnalysis, error) {
	var a cmodels.AIAnalysis
	if err := json.Unmarshal([]byte(content), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	a.RiskLevel = strings.ToUpper(strings.TrimSpace(a.RiskLevel))
	switch a.RiskLevel {
	case "LOW", "MEDIUM", "HIGH":
	default:
		return nil, fmt.Errorf("unexpected risk level %q", a.RiskLevel)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range", a.Confidence)
	}
	return &a, nil
}
