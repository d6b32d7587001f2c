// Package gemini implements the natural-language task extractor on top of
// Google's Gemini API. It turns a free-text message into a structured task
// (description, optional due time, priority) and degrades to a verbatim,
// undated task whenever the AI service fails.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"tasknote/internal/config"
	"tasknote/internal/database"
)

// Extraction is the structured result of parsing one user message.
// DueAt is nil when the message carries no usable date.
type Extraction struct {
	Description string
	DueAt       *time.Time
	Priority    string
}

// Client defines the interface for the task extractor used by the handlers.
type Client interface {
	// ExtractTask parses rawText into an Extraction, resolving relative
	// dates against ref. It never fails: any extraction error falls back
	// to the trimmed raw text with no due date.
	ExtractTask(ctx context.Context, rawText string, ref time.Time) Extraction
}

// contentGenerator is the seam between the client and the genai SDK call.
type contentGenerator interface {
	generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type genaiGenerator struct {
	client *genai.Client
}

func (g genaiGenerator) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return g.client.Models.GenerateContent(ctx, model, contents, cfg)
}

type sdkClient struct {
	generator     contentGenerator
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	timeout       time.Duration
	maxRetries    int
	retryDelay    time.Duration
	loc           *time.Location
}

// taskSchema constrains the model to the extraction JSON shape.
var taskSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"description": {Type: genai.TypeString, Description: "Short description of the task."},
		"due_at":      {Type: genai.TypeString, Description: "Absolute ISO 8601 datetime, or empty string when the task has no date."},
		"priority":    {Type: genai.TypeString, Description: "Either normal or high."},
	},
	Required: []string{"description"},
}

// NewClient creates a new Gemini task extractor with the provided
// configuration. loc is the timezone used to resolve and interpret dates.
func NewClient(
	ctx context.Context,
	cfg config.GeminiConfig,
	loc *time.Location,
	log *slog.Logger,
) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if loc == nil {
		loc = time.UTC
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature:      &cfg.Temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   taskSchema,
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.ModelName)
	return &sdkClient{
		generator:     genaiGenerator{client: gi},
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.ModelName,
		timeout:       cfg.Timeout,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    time.Duration(cfg.RetryDelaySeconds) * time.Second,
		loc:           loc,
	}, nil
}

// ExtractTask parses rawText, falling back to a verbatim undated task when
// the extraction pipeline fails for any reason. Creating a task must never
// be blocked by AI unavailability.
func (c *sdkClient) ExtractTask(ctx context.Context, rawText string, ref time.Time) Extraction {
	extraction, err := c.extract(ctx, rawText, ref)
	if err != nil {
		c.log.WarnContext(ctx, "Task extraction failed, falling back to verbatim task", "error", err)
		return fallbackExtraction(rawText)
	}
	return extraction
}

func (c *sdkClient) extract(ctx context.Context, rawText string, ref time.Time) (Extraction, error) {
	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return Extraction{}, fmt.Errorf("empty task text")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	instruction := fmt.Sprintf(ExtractorSystemInstruction,
		ref.In(c.loc).Format(time.RFC3339), c.loc.String())

	cfg := *c.contentConfig
	cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instruction}}}

	contents := []*genai.Content{
		genai.NewContentFromText("Parse the following task: "+trimmed, genai.RoleUser),
	}

	resp, err := c.generateWithRetries(ctx, contents, &cfg)
	if err != nil {
		return Extraction{}, err
	}

	jsonText, err := extractTextFromResponse(resp)
	if err != nil {
		return Extraction{}, err
	}

	return parseExtraction(jsonText, trimmed, c.loc)
}

func (c *sdkClient) generateWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.generator.generate(ctx, c.modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry",
			"attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call", "delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, err
}

// extractTextFromResponse pulls the JSON text out of a generation response,
// surfacing safety blocks and empty candidates as errors.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		return "", fmt.Errorf("extraction blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("extraction returned no content")
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("extraction returned empty text")
	}

	return text, nil
}

// parseExtraction decodes the model's JSON into a typed Extraction.
// A malformed due_at or priority degrades to absent/normal rather than
// failing the whole extraction; only unparseable JSON is an error.
func parseExtraction(jsonText, rawText string, loc *time.Location) (Extraction, error) {
	var payload struct {
		Description string `json:"description"`
		DueAt       string `json:"due_at"`
		Priority    string `json:"priority"`
	}
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return Extraction{}, fmt.Errorf("invalid extraction JSON: %w", err)
	}

	description := strings.TrimSpace(payload.Description)
	if description == "" {
		description = rawText
	}

	priority := payload.Priority
	if priority != database.PriorityHigh {
		priority = database.PriorityNormal
	}

	return Extraction{
		Description: description,
		DueAt:       parseDueAt(payload.DueAt, loc),
		Priority:    priority,
	}, nil
}

// dueAtLayouts are the datetime shapes the model is known to produce.
// Layouts without an offset are interpreted in the configured timezone.
var dueAtLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339, true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

// parseDueAt parses an ISO 8601-ish datetime string. An empty or
// unparseable value yields nil (the no-date fallback).
func parseDueAt(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}

	for _, l := range dueAtLayouts {
		var t time.Time
		var err error
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, loc)
		}
		if err == nil {
			return &t
		}
	}

	return nil
}

func fallbackExtraction(rawText string) Extraction {
	return Extraction{
		Description: strings.TrimSpace(rawText),
		DueAt:       nil,
		Priority:    database.PriorityNormal,
	}
}
