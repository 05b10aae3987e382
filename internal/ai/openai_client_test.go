package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestOpenAIClientGenerate(t *testing.T) {
	var got map[string]any
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4o-mini",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "North leads."},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL+"/", 2*time.Second, 1)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:     "gpt-4o-mini",
		Messages:  []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "who leads?"}},
		MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content() != "North leads." || resp.Usage.TotalTokens != 13 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages sent, got %v", got["messages"])
	}
	if got["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %v", got["model"])
	}
}

func TestOpenAIClientMapsAuthError(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad key", "code": "invalid_api_key"}})
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", srv.URL+"/", 2*time.Second, 1)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-4o-mini", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestOpenAIClientWithoutKey(t *testing.T) {
	c := NewOpenAIClient("", "", time.Second, 1)
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "gpt-4o-mini"}); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}
