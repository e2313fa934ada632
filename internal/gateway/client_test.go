package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/examforge/question-engine/internal/domain"
	"github.com/examforge/question-engine/internal/observability"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.5-flash",
		BaseURL: srv.URL,
	}, observability.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func chatResponse(content string) string {
	resp := Response{Choices: []Choice{{Message: ChatContent{Content: content, Role: "assistant"}}}}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ClientConfig
		wantError bool
	}{
		{name: "valid", cfg: ClientConfig{APIKey: "k", Model: "m"}, wantError: false},
		{name: "missing api key", cfg: ClientConfig{Model: "m"}, wantError: true},
		{name: "missing model", cfg: ClientConfig{APIKey: "k"}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg, observability.Nop())
			if (err != nil) != tt.wantError {
				t.Errorf("NewClient error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestChatStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType domain.ErrorType
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantType: domain.ErrorTypeRateLimited},
		{name: "request timeout", status: http.StatusRequestTimeout, wantType: domain.ErrorTypeTimeout},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, wantType: domain.ErrorTypeTimeout},
		{name: "internal error", status: http.StatusInternalServerError, wantType: domain.ErrorTypeModelUnavailable},
		{name: "service unavailable", status: http.StatusServiceUnavailable, wantType: domain.ErrorTypeModelUnavailable},
		{name: "bad request", status: http.StatusBadRequest, wantType: domain.ErrorTypeModelUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.chat(context.Background(), textMessage("hello"))
			if err == nil {
				t.Fatal("expected error")
			}
			typ, ok := domain.TypeOf(err)
			if !ok || typ != tt.wantType {
				t.Errorf("error type = %v, want %v", typ, tt.wantType)
			}
		})
	}
}

func TestChatRequestShape(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(chatResponse("ok")))
	})

	content, err := client.chat(context.Background(), textMessage("hello"))
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if content != "ok" {
		t.Errorf("content = %q", content)
	}
	if gotAuth != "Bearer sk-or-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestChatEmptyChoices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.chat(context.Background(), textMessage("hello"))
	typ, ok := domain.TypeOf(err)
	if !ok || typ != domain.ErrorTypeMalformedResponse {
		t.Errorf("expected malformed_response, got %v", err)
	}
}

func TestAnalyzePage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse("```json\n" + `{
			"document_type": "question_paper",
			"languages": ["en"],
			"structure_type": "questions_only",
			"scanned": true,
			"elements": [
				{"type": "question_text", "text": "What is 2+2?", "confidence": 0.95},
				{"type": "option", "text": "A) 3", "confidence": 0.9}
			]
		}` + "\n```")))
	})

	analysis, err := client.AnalyzePage(context.Background(), domain.PageImage{PageNumber: 4, Data: []byte("jpeg")})
	if err != nil {
		t.Fatalf("AnalyzePage: %v", err)
	}

	if analysis.PageNumber != 4 {
		t.Errorf("pageNumber = %d, want 4", analysis.PageNumber)
	}
	if analysis.StructureType != domain.StructureQuestionsOnly {
		t.Errorf("structureType = %s", analysis.StructureType)
	}
	if len(analysis.Elements) != 2 || analysis.Elements[0].Type != domain.ElementQuestionText {
		t.Errorf("unexpected elements: %+v", analysis.Elements)
	}
	if !analysis.Scanned {
		t.Error("expected scanned page")
	}
}

func TestExtractQuestionsDefaults(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse(`[
			{"number": 7, "text": "What is the unit of force?", "options": ["Newton", "Joule", "Watt", "Pascal"], "correct_answer": 0, "confidence": 0.9, "marks": {"positive": 4, "negative": -1}},
			{"number": 8, "text": "Unanswered question?", "options": ["A", "B"], "confidence": 0.8}
		]`)))
	})

	questions, err := client.ExtractQuestions(context.Background(),
		domain.PageImage{PageNumber: 3, Data: []byte("jpeg")},
		domain.ExtractionContext{ExamName: "Sample Exam"})
	if err != nil {
		t.Fatalf("ExtractQuestions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	q := questions[0]
	if q.CorrectAnswer != 0 {
		t.Errorf("correctAnswer = %d, want 0", q.CorrectAnswer)
	}
	if q.Marks.Positive != 4 || q.Marks.Negative != -1 {
		t.Errorf("marks = %+v", q.Marks)
	}
	if q.Metadata.PageNumber != 3 {
		t.Errorf("metadata page = %d", q.Metadata.PageNumber)
	}
	if q.ID == (questions[1].ID) {
		t.Error("expected unique question ids")
	}

	// absent correct_answer stays unknown, never zero
	if questions[1].CorrectAnswer != -1 {
		t.Errorf("missing correct_answer = %d, want -1", questions[1].CorrectAnswer)
	}
}

func TestTranslateStripsFences(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse("```\nLa capitale de la France est Paris.\n```")))
	})

	got, err := client.Translate(context.Background(), "The capital of France is Paris.", "en", "fr", "")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "La capitale de la France est Paris." {
		t.Errorf("translated = %q", got)
	}
}
