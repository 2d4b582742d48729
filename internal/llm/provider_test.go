package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeClient struct {
	got  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	return f.resp, nil
}

func TestComplete_SendsSystemAndUser(t *testing.T) {
	f := &fakeClient{resp: openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "ok"}}}}}
	out, err := Complete(context.Background(), f, "gpt-4o", "sys", "usr")
	if err != nil || out != "ok" {
		t.Fatalf("out=%q err=%v", out, err)
	}
	if len(f.got.Messages) != 2 || f.got.Messages[0].Role != openai.ChatMessageRoleSystem || f.got.Messages[1].Content != "usr" {
		t.Fatalf("unexpected messages %+v", f.got.Messages)
	}
	if f.got.Temperature <= 0 || f.got.Temperature > 1e-30 {
		t.Fatalf("temperature should be effectively zero but encoded, got %g", f.got.Temperature)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	if _, err := Complete(context.Background(), &fakeClient{}, "m", "s", "u"); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestNewOpenAI_RequiresCredentials(t *testing.T) {
	if _, err := NewOpenAI(Options{BaseURL: "http://x"}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestNewOpenAI_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "{}"}}},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAI(Options{BaseURL: srv.URL + "/v1", APIKey: "k", MaxRetries: 1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := Complete(context.Background(), p, "m", "s", "u")
	if err != nil || out != "{}" {
		t.Fatalf("out=%q err=%v", out, err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}
