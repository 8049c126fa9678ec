package aiprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"saveit/internal/apperrors"
	"saveit/internal/core"
)

// GeminiClient implements EmbeddingProvider, ClassificationProvider, and
// LabellingProvider against the Gemini API, gated by a token-bucket limiter
// and a circuit breaker so a struggling upstream degrades the pipeline
// gracefully instead of stalling it.
type GeminiClient struct {
	client              *genai.Client
	classificationModel string
	embeddingModel      string
	labellingModel      string
	embeddingDimensions int32

	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[string]
	embedBreaker *gobreaker.CircuitBreaker[[]float32]
}

// Config configures the Gemini-backed provider.
type Config struct {
	APIKey              string
	ClassificationModel string
	EmbeddingModel      string
	LabellingModel      string
	EmbeddingDimensions int32
	RateLimitRPS        float64
	BreakerWindow       time.Duration
}

func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}
	breakerWindow := cfg.BreakerWindow
	if breakerWindow <= 0 {
		breakerWindow = 60 * time.Second
	}

	readyToTrip := func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures > 5
	}

	return &GeminiClient{
		client:              client,
		classificationModel: orDefault(cfg.ClassificationModel, "gemini-flash-lite-latest"),
		embeddingModel:      orDefault(cfg.EmbeddingModel, "text-embedding-004"),
		labellingModel:      orDefault(cfg.LabellingModel, "gemini-flash-lite-latest"),
		embeddingDimensions: orDefaultInt32(cfg.EmbeddingDimensions, 1536),
		limiter:             rate.NewLimiter(rate.Limit(rps), 1),
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name: "gemini-text", Interval: breakerWindow, Timeout: breakerWindow, ReadyToTrip: readyToTrip,
		}),
		embedBreaker: gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
			Name: "gemini-embed", Interval: breakerWindow, Timeout: breakerWindow, ReadyToTrip: readyToTrip,
		}),
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultInt32(v, def int32) int32 {
	if v <= 0 {
		return def
	}
	return v
}

// generateContent waits for rate-limiter capacity, then issues the call
// through the circuit breaker.
func (c *GeminiClient) generateContent(ctx context.Context, model, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", apperrors.RateLimited("rate limiter wait: %v", err)
	}

	return c.breaker.Execute(func() (string, error) {
		contents := []*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
			Role:  "user",
		}}
		resp, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
		if err != nil {
			return "", apperrors.UnavailableExternal(err, "gemini generate content")
		}
		text := resp.Text()
		if text == "" {
			return "", apperrors.UnavailableExternal(fmt.Errorf("empty response"), "gemini generate content")
		}
		return text, nil
	})
}

// Embed generates a fixed-dimension embedding vector for text.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.RateLimited("rate limiter wait: %v", err)
	}

	truncated := text
	if len(truncated) > 8000 {
		truncated = truncated[:8000]
	}

	return c.embedBreaker.Execute(func() ([]float32, error) {
		contents := []*genai.Content{{
			Parts: []*genai.Part{{Text: truncated}},
			Role:  "user",
		}}
		dims := c.embeddingDimensions
		config := &genai.EmbedContentConfig{OutputDimensionality: &dims}

		resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, config)
		if err != nil {
			return nil, apperrors.UnavailableExternal(err, "gemini embed content")
		}
		if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
			return nil, apperrors.UnavailableExternal(fmt.Errorf("no embedding returned"), "gemini embed content")
		}
		return resp.Embeddings[0].Values, nil
	})
}

// Classify analyses saved content and assigns a category plus metadata,
// via a strict-JSON prompt.
func (c *GeminiClient) Classify(ctx context.Context, input ClassificationInput) (*ClassificationResult, error) {
	prompt := buildClassificationPrompt(input)

	response, err := c.generateContent(ctx, c.classificationModel, prompt)
	if err != nil {
		return nil, err
	}

	return parseClassificationResponse(response)
}

// Label names a cluster from a sample of its members, via a strict-JSON
// prompt grounded on each member's title, topic, locations, and
// subcategories, falling back to a deterministic rule if the response
// cannot be parsed.
func (c *GeminiClient) Label(ctx context.Context, category core.ContentCategory, samples []LabelSample) (*LabelResult, error) {
	prompt := buildLabellingPrompt(category, samples)

	response, err := c.generateContent(ctx, c.labellingModel, prompt)
	if err != nil {
		return FallbackLabel(category, samples), nil
	}

	result, parseErr := parseLabelResponse(response)
	if parseErr != nil {
		return FallbackLabel(category, samples), nil
	}
	return result, nil
}

func buildClassificationPrompt(input ClassificationInput) string {
	var sb strings.Builder
	sb.WriteString("Classify the following saved content into exactly one of these categories: ")
	for i, cat := range core.AllCategories {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(cat))
	}
	sb.WriteString(".\n\n")
	fmt.Fprintf(&sb, "Platform: %s\n", input.Platform)
	fmt.Fprintf(&sb, "Title: %s\n", input.Title)
	fmt.Fprintf(&sb, "Caption: %s\n", input.Caption)
	fmt.Fprintf(&sb, "Content: %s\n\n", input.ContentText)
	sb.WriteString(`Respond with ONLY a JSON object, no markdown fences, matching this shape:
{
  "category": "<one of the categories above>",
  "subcategories": ["..."],
  "topic_main": "...",
  "locations": ["..."],
  "entities": ["..."],
  "intent": "<one of: inspiration, how_to, reference, entertain, misc>",
  "visual_description": "...",
  "visual_tags": ["..."]
}`)
	return sb.String()
}

func parseClassificationResponse(response string) (*ClassificationResult, error) {
	clean := stripCodeFence(response)

	var parsed struct {
		Category          string   `json:"category"`
		Subcategories     []string `json:"subcategories"`
		TopicMain         string   `json:"topic_main"`
		Locations         []string `json:"locations"`
		Entities          []string `json:"entities"`
		Intent            string   `json:"intent"`
		VisualDescription string   `json:"visual_description"`
		VisualTags        []string `json:"visual_tags"`
	}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, apperrors.Internal(err, "parse classification response: %s", response)
	}

	category := core.ContentCategory(parsed.Category)
	if !category.Valid() {
		category = core.CategoryMisc
	}
	intent := core.IntentType(strings.ToLower(parsed.Intent))
	if !intent.Valid() {
		intent = core.IntentMisc
	}

	return &ClassificationResult{
		Category:          category,
		Subcategories:     core.DedupeStrings(parsed.Subcategories),
		TopicMain:         parsed.TopicMain,
		Locations:         core.DedupeStrings(parsed.Locations),
		Entities:          core.DedupeStrings(parsed.Entities),
		Intent:            intent,
		VisualDescription: parsed.VisualDescription,
		VisualTags:        core.DedupeStrings(parsed.VisualTags),
	}, nil
}

func buildLabellingPrompt(category core.ContentCategory, samples []LabelSample) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "These are saved %s items that a clustering algorithm grouped together:\n", category)
	for _, s := range samples {
		fmt.Fprintf(&sb, "- title: %s", s.Title)
		if s.TopicMain != "" {
			fmt.Fprintf(&sb, "; topic: %s", s.TopicMain)
		}
		if len(s.Locations) > 0 {
			fmt.Fprintf(&sb, "; locations: %s", strings.Join(s.Locations, ", "))
		}
		if len(s.Subcategories) > 0 {
			fmt.Fprintf(&sb, "; subcategories: %s", strings.Join(s.Subcategories, ", "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(`
Generate a short, specific label (3-6 words) and a one-sentence description
for this group. Respond with ONLY a JSON object, no markdown fences:
{"label": "...", "description": "..."}`)
	return sb.String()
}

func parseLabelResponse(response string) (*LabelResult, error) {
	clean := stripCodeFence(response)

	var parsed struct {
		Label       string `json:"label"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("parse label response: %w", err)
	}
	if parsed.Label == "" {
		return nil, fmt.Errorf("empty label in response")
	}
	return &LabelResult{Label: parsed.Label, Description: parsed.Description}, nil
}

// FallbackLabel deterministically names a cluster when the LLM is
// unavailable or returns something unparseable: "{Category} in {location}"
// if any sample shares a location, else "{Category} Collection".
func FallbackLabel(category core.ContentCategory, samples []LabelSample) *LabelResult {
	label := fmt.Sprintf("%s Collection", category)
	if location := firstLocation(samples); location != "" {
		label = fmt.Sprintf("%s in %s", category, location)
	}
	return &LabelResult{
		Label:       label,
		Description: fmt.Sprintf("%d saved items", len(samples)),
	}
}

// firstLocation returns the first non-empty location across samples, in
// sample order, matching the original's "≥1 shared location" rule.
func firstLocation(samples []LabelSample) string {
	for _, s := range samples {
		if len(s.Locations) > 0 && s.Locations[0] != "" {
			return s.Locations[0]
		}
	}
	return ""
}
