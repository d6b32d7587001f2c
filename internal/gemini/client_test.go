package gemini

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"google.golang.org/genai"

	"tasknote/internal/database"
)

type stubGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubGenerator) generate(_ context.Context, _ string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	text := ""
	if i < len(s.responses) {
		text = s.responses[i]
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}, nil
}

func newTestClient(t *testing.T, gen contentGenerator, loc *time.Location) *sdkClient {
	t.Helper()
	return &sdkClient{
		generator:     gen,
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		contentConfig: &genai.GenerateContentConfig{},
		modelName:     "test-model",
		maxRetries:    2,
		retryDelay:    0,
		loc:           loc,
	}
}

func vienna(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Vienna")
	if err != nil {
		t.Fatalf("loading Europe/Vienna: %v", err)
	}
	return loc
}

func TestExtractTaskParsesStructuredResponse(t *testing.T) {
	t.Parallel()

	loc := vienna(t)
	gen := &stubGenerator{responses: []string{
		`{"description":"Dinner with parents","due_at":"2025-06-02T17:00:00","priority":"normal"}`,
	}}
	c := newTestClient(t, gen, loc)

	ref := time.Date(2025, 6, 2, 9, 0, 0, 0, loc)
	got := c.ExtractTask(context.Background(), "dinner with my parents tonight at 5pm", ref)

	if got.Description != "Dinner with parents" {
		t.Errorf("Description = %q, want %q", got.Description, "Dinner with parents")
	}
	if got.DueAt == nil {
		t.Fatal("DueAt = nil, want a time")
	}
	want := time.Date(2025, 6, 2, 17, 0, 0, 0, loc)
	if !got.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", got.DueAt, want)
	}
	if got.Priority != database.PriorityNormal {
		t.Errorf("Priority = %q, want %q", got.Priority, database.PriorityNormal)
	}
}

func TestExtractTaskFallsBackOnAPIFailure(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{errs: []error{
		fmt.Errorf("connection refused"),
	}}
	c := newTestClient(t, gen, time.UTC)

	got := c.ExtractTask(context.Background(), "  call the dentist  ", time.Now())

	if got.Description != "call the dentist" {
		t.Errorf("Description = %q, want trimmed raw text", got.Description)
	}
	if got.DueAt != nil {
		t.Errorf("DueAt = %v, want nil on fallback", got.DueAt)
	}
	if got.Priority != database.PriorityNormal {
		t.Errorf("Priority = %q, want %q", got.Priority, database.PriorityNormal)
	}
}

func TestExtractTaskFallsBackOnMalformedJSON(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{responses: []string{"not json at all"}}
	c := newTestClient(t, gen, time.UTC)

	got := c.ExtractTask(context.Background(), "water the plants", time.Now())

	if got.Description != "water the plants" {
		t.Errorf("Description = %q, want raw text", got.Description)
	}
	if got.DueAt != nil {
		t.Errorf("DueAt = %v, want nil", got.DueAt)
	}
}

func TestGenerateWithRetriesRetriesServerErrors(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{
		errs: []error{
			&genai.APIError{Code: 503, Message: "overloaded"},
			&genai.APIError{Code: 500, Message: "internal"},
			nil,
		},
		responses: []string{"", "", `{"description":"ok"}`},
	}
	c := newTestClient(t, gen, time.UTC)

	got := c.ExtractTask(context.Background(), "buy milk", time.Now())

	if gen.calls != 3 {
		t.Errorf("generator calls = %d, want 3", gen.calls)
	}
	if got.Description != "ok" {
		t.Errorf("Description = %q, want %q", got.Description, "ok")
	}
}

func TestGenerateWithRetriesDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{errs: []error{
		&genai.APIError{Code: 400, Message: "bad request"},
	}}
	c := newTestClient(t, gen, time.UTC)

	got := c.ExtractTask(context.Background(), "buy milk", time.Now())

	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1 (no retry on 400)", gen.calls)
	}
	if got.Description != "buy milk" {
		t.Errorf("Description = %q, want fallback raw text", got.Description)
	}
}

func TestParseExtraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		json         string
		raw          string
		wantDesc     string
		wantPriority string
		wantDue      bool
		wantErr      bool
	}{
		{
			name:         "complete payload",
			json:         `{"description":"Buy milk","due_at":"2025-06-03T17:00:00","priority":"high"}`,
			raw:          "buy milk tomorrow at 5pm!!",
			wantDesc:     "Buy milk",
			wantPriority: database.PriorityHigh,
			wantDue:      true,
		},
		{
			name:         "empty description falls back to raw text",
			json:         `{"description":"","due_at":"","priority":"normal"}`,
			raw:          "something vague",
			wantDesc:     "something vague",
			wantPriority: database.PriorityNormal,
		},
		{
			name:         "unknown priority becomes normal",
			json:         `{"description":"Do taxes","priority":"urgent"}`,
			raw:          "do taxes",
			wantDesc:     "Do taxes",
			wantPriority: database.PriorityNormal,
		},
		{
			name:    "invalid json",
			json:    `{"description":`,
			raw:     "x",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseExtraction(tt.json, tt.raw, time.UTC)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
			if got.Priority != tt.wantPriority {
				t.Errorf("Priority = %q, want %q", got.Priority, tt.wantPriority)
			}
			if (got.DueAt != nil) != tt.wantDue {
				t.Errorf("DueAt presence = %v, want %v", got.DueAt != nil, tt.wantDue)
			}
		})
	}
}

func TestParseDueAt(t *testing.T) {
	t.Parallel()

	loc := vienna(t)

	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{
			name:  "rfc3339 with offset",
			input: "2025-06-02T17:00:00+02:00",
			want:  timePtr(time.Date(2025, 6, 2, 17, 0, 0, 0, loc)),
		},
		{
			name:  "naive datetime resolves in configured zone",
			input: "2025-06-02T17:00:00",
			want:  timePtr(time.Date(2025, 6, 2, 17, 0, 0, 0, loc)),
		},
		{
			name:  "naive datetime without seconds",
			input: "2025-06-02T17:00",
			want:  timePtr(time.Date(2025, 6, 2, 17, 0, 0, 0, loc)),
		},
		{
			name:  "space separated",
			input: "2025-06-02 17:00",
			want:  timePtr(time.Date(2025, 6, 2, 17, 0, 0, 0, loc)),
		},
		{
			name:  "date only means midnight",
			input: "2025-06-02",
			want:  timePtr(time.Date(2025, 6, 2, 0, 0, 0, 0, loc)),
		},
		{name: "empty", input: ""},
		{name: "literal null", input: "null"},
		{name: "garbage", input: "next tuesday-ish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseDueAt(tt.input, loc)
			if tt.want == nil {
				if got != nil {
					t.Errorf("parseDueAt(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseDueAt(%q) = nil, want %v", tt.input, tt.want)
			}
			if !got.Equal(*tt.want) {
				t.Errorf("parseDueAt(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }
