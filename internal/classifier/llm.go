package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/config"
	"github.com/kevinhe012597/calendar-analytics/internal/domain"
)

const systemPrompt = "You are an expert at categorizing calendar events. Be accurate and consistent."

const promptTemplate = `Categorize this calendar event into one of these categories: work, exercise, social, rest, or other.

Event Title: %s
Event Description: %s

Analyze the event and respond with JSON in this format:
{
  "category": "work|exercise|social|rest|other",
  "confidence": "high|medium|low",
  "reasoning": "brief explanation of why you chose this category"
}

Categories:
- work: professional activities, meetings, work tasks, business events
- exercise: fitness activities, sports, gym, running, yoga, physical activities
- social: personal social events, parties, dinners with friends, social gatherings
- rest: breaks, relaxation, meditation, sleep, personal downtime
- other: everything else that doesn't fit the above categories`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// LLMClassifier asks an OpenAI-compatible chat completions API to classify events.
// Every failure falls back to keyword classification.
type LLMClassifier struct {
	client *resty.Client
	model  string
	log    *zap.Logger
}

// NewLLMClassifier creates a new LLM-backed classifier
func NewLLMClassifier(cfg config.Classifier, log *zap.Logger) *LLMClassifier {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &LLMClassifier{
		client: client,
		model:  cfg.Model,
		log:    log,
	}
}

// Classify implements Classifier
func (c *LLMClassifier) Classify(ctx context.Context, title string, description *string) domain.Classification {
	result, err := c.requestClassification(ctx, title, description)
	if err != nil {
		c.log.Warn("LLM classification failed, falling back to keywords",
			zap.Error(err),
			zap.String("title", title))
		return classifyKeywords(title, description)
	}

	return result
}

func (c *LLMClassifier) requestClassification(ctx context.Context, title string, description *string) (domain.Classification, error) {
	desc := "No description"
	if description != nil && *description != "" {
		desc = *description
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(promptTemplate, title, desc)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	var out chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return domain.Classification{}, fmt.Errorf("failed to call classification service: %w", err)
	}
	if resp.IsError() {
		return domain.Classification{}, fmt.Errorf("classification service returned status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return domain.Classification{}, errors.New("classification service returned no choices")
	}

	return parseVerdict(out.Choices[0].Message.Content)
}

// parseVerdict decodes the model's JSON reply. An empty reply counts as an
// empty object; a reply that is not a JSON object is malformed. Missing or
// invalid fields default one by one.
func parseVerdict(content string) (domain.Classification, error) {
	if content == "" {
		content = "{}"
	}

	var verdict map[string]any
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return domain.Classification{}, fmt.Errorf("failed to decode classification reply: %w", err)
	}
	if verdict == nil {
		return domain.Classification{}, errors.New("classification reply is not an object")
	}

	category, _ := domain.ParseCategory(stringField(verdict, "category"))
	confidence, ok := domain.ParseConfidence(stringField(verdict, "confidence"))
	if !ok {
		confidence = domain.ConfidenceMedium
	}

	return domain.Classification{Category: category, Confidence: confidence}, nil
}

// stringField returns "" for missing and non-string values
func stringField(verdict map[string]any, key string) string {
	value, _ := verdict[key].(string)
	return value
}
