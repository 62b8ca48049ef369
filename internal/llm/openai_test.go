package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openai/openai-go/v2/option"

	"github.com/anazari96/voice-agent/internal/agent"
)

func TestOpenAI_NoKey(t *testing.T) {
	c := NewOpenAIClient("", "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Generate(ctx, []agent.Turn{{Role: agent.RoleUser, Text: "hi"}}, ""); err == nil {
		t.Fatalf("expected error with missing key")
	}
}

func TestOpenAI_MapsHistoryAndLanguageHint(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  ¡Claro!  "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "gpt-4o", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	history := []agent.Turn{
		{Role: agent.RoleSystem, Text: "You help a pizzeria."},
		{Role: agent.RoleAssistant, Text: "Welcome!"},
		{Role: agent.RoleUser, Text: "hola"},
	}
	reply, err := c.Generate(context.Background(), history, "es")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "¡Claro!" {
		t.Fatalf("reply must be trimmed, got %q", reply)
	}

	if gotBody.Model != "gpt-4o" {
		t.Fatalf("model = %q", gotBody.Model)
	}
	roles := make([]string, 0, len(gotBody.Messages))
	for _, m := range gotBody.Messages {
		roles = append(roles, m.Role)
	}
	want := []string{"system", "assistant", "user", "system"}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v, want %v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
	last := gotBody.Messages[len(gotBody.Messages)-1].Content
	if last == "" || last == "hola" {
		t.Fatalf("expected trailing language hint, got %q", last)
	}
}

func TestOpenAI_NoLanguageHintForEnglish(t *testing.T) {
	var messageCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []json.RawMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		messageCount = len(body.Messages)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if _, err := c.Generate(context.Background(), []agent.Turn{{Role: agent.RoleUser, Text: "hi"}}, "en"); err != nil {
		t.Fatal(err)
	}
	if messageCount != 1 {
		t.Fatalf("expected 1 message, got %d", messageCount)
	}
}

func TestOpenAI_HTTPFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500); _, _ = w.Write([]byte("oops")) }},
		{"empty_choices", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			c := NewOpenAIClient("key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if _, err := c.Generate(ctx, []agent.Turn{{Role: agent.RoleUser, Text: "hi"}}, ""); err == nil {
				t.Fatalf("expected error; got nil")
			}
		})
	}
}

func TestOpenAI_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"late"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := c.Generate(ctx, []agent.Turn{{Role: agent.RoleUser, Text: "hi"}}, ""); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
