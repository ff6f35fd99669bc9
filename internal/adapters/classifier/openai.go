package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT4oMini

const systemPromptHeader = `You are a content moderation classifier. Judge the user message against the prohibited categories listed below and respond with a single JSON object, no prose, using exactly these fields:
{"allowed": bool, "severity": "low"|"medium"|"high"|"critical", "categories": [string], "confidence": number between 0 and 1, "reason": string}
Severity is "low" when the content is allowed. Categories must only contain entries from the prohibited list.

Prohibited categories:`

// OpenAIClassifier calls an OpenAI-compatible chat completion endpoint to
// judge content that passed the cheaper lexical and pattern stages.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier builds a classifier client. baseURL overrides the
// default endpoint so self-hosted OpenAI-compatible gateways work too.
func NewOpenAIClassifier(apiKey, baseURL, model string) *OpenAIClassifier {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

type verdictPayload struct {
	Allowed    bool     `json:"allowed"`
	Severity   string   `json:"severity"`
	Categories []string `json:"categories"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
}

// Classify implements ports.SemanticClassifier. Every failure mode (transport,
// timeout, empty completion, malformed payload) maps to
// domain.ErrClassifierUnavailable so the caller can fail open uniformly.
func (c *OpenAIClassifier) Classify(ctx context.Context, content string, policy ports.ClassificationPolicy) (domain.Verdict, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(policy)},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Verdict{}, fmt.Errorf("%w: empty completion", domain.ErrClassifierUnavailable)
	}
	return parseVerdict(resp.Choices[0].Message.Content)
}

func systemPrompt(policy ports.ClassificationPolicy) string {
	var b strings.Builder
	b.WriteString(systemPromptHeader)
	for _, category := range policy.ProhibitedCategories {
		b.WriteString("\n- ")
		b.WriteString(category)
	}
	return b.String()
}

// parseVerdict enforces the response schema strictly. A model that drifts
// from the contract is indistinguishable from an unavailable one.
func parseVerdict(raw string) (domain.Verdict, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var payload verdictPayload
	if err := dec.Decode(&payload); err != nil {
		return domain.Verdict{}, fmt.Errorf("%w: decode verdict: %v", domain.ErrClassifierUnavailable, err)
	}
	severity, ok := domain.ParseSeverity(payload.Severity)
	if !ok {
		return domain.Verdict{}, fmt.Errorf("%w: unknown severity %q", domain.ErrClassifierUnavailable, payload.Severity)
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		return domain.Verdict{}, fmt.Errorf("%w: confidence %v out of range", domain.ErrClassifierUnavailable, payload.Confidence)
	}

	categories := payload.Categories
	if categories == nil {
		categories = []string{}
	}
	return domain.Verdict{
		Allowed:    payload.Allowed,
		Reason:     payload.Reason,
		Severity:   severity,
		Categories: categories,
		Confidence: payload.Confidence,
	}, nil
}
