package gateway

import (
	"testing"

	"github.com/examforge/question-engine/internal/domain"
)

func TestDecodeModelJSON(t *testing.T) {
	type payload struct {
		PageNumber int    `json:"pageNumber"`
		Kind       string `json:"kind"`
	}

	tests := []struct {
		name      string
		content   string
		wantPage  int
		wantError bool
	}{
		{
			name:     "bare object",
			content:  `{"pageNumber": 3, "kind": "questions"}`,
			wantPage: 3,
		},
		{
			name:     "json code fence",
			content:  "```json\n{\"pageNumber\": 5, \"kind\": \"questions\"}\n```",
			wantPage: 5,
		},
		{
			name:     "plain code fence",
			content:  "```\n{\"pageNumber\": 7}\n```",
			wantPage: 7,
		},
		{
			name:     "leading prose",
			content:  "Here is the analysis you asked for:\n{\"pageNumber\": 2}",
			wantPage: 2,
		},
		{
			name:     "trailing prose",
			content:  "{\"pageNumber\": 4}\nLet me know if you need more.",
			wantPage: 4,
		},
		{
			name:      "no json at all",
			content:   "I could not read this page.",
			wantError: true,
		},
		{
			name:      "empty response",
			content:   "",
			wantError: true,
		},
		{
			name:      "truncated json",
			content:   `{"pageNumber": 3, "kind":`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := decodeModelJSON(tt.content, &p)

			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				typ, ok := domain.TypeOf(err)
				if !ok || typ != domain.ErrorTypeMalformedResponse {
					t.Errorf("expected malformed_response, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("decodeModelJSON: %v", err)
			}
			if p.PageNumber != tt.wantPage {
				t.Errorf("pageNumber = %d, want %d", p.PageNumber, tt.wantPage)
			}
		})
	}
}

func TestDecodeModelJSONArray(t *testing.T) {
	content := "```json\n[{\"number\": 1}, {\"number\": 2}]\n```"

	var items []struct {
		Number int `json:"number"`
	}
	if err := decodeModelJSON(content, &items); err != nil {
		t.Fatalf("decodeModelJSON: %v", err)
	}
	if len(items) != 2 || items[0].Number != 1 || items[1].Number != 2 {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "no fence", content: "La capitale de la France", want: "La capitale de la France"},
		{name: "plain fence", content: "```\ntranslated text\n```", want: "translated text"},
		{name: "fence with language tag", content: "```text\ntranslated text\n```", want: "translated text"},
		{name: "surrounding whitespace", content: "  hello  ", want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.content); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}
