package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"deenly/deenly/config"
	"deenly/deenly/services/chat"
	httputils "deenly/deenly/utils/http"
)

func TestBuildMessagesCapsHistory(t *testing.T) {
	var history []chat.Turn
	for i := 0; i < 14; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, chat.Turn{Role: role, Text: fmt.Sprintf("m%d", i)})
	}
	msgs := BuildMessages("¿Qué es el Zakat?", history, nil, false)

	// system + 10 history + question
	if len(msgs) != 12 {
		t.Fatalf("got %d messages, want 12", len(msgs))
	}
	if msgs[0].Role != "system" {
		t.Errorf("first role = %q", msgs[0].Role)
	}
	if msgs[1].Content != "m4" || msgs[10].Content != "m13" {
		t.Errorf("history window = %q..%q", msgs[1].Content, msgs[10].Content)
	}
	if msgs[2].Role != "assistant" {
		t.Errorf("role of m5 = %q", msgs[2].Role)
	}
	if last := msgs[11]; last.Role != "user" || last.Content != "¿Qué es el Zakat?" {
		t.Errorf("last = %+v", last)
	}
}

func TestSystemPrompt(t *testing.T) {
	free := SystemPrompt(nil, false)
	if !strings.Contains(free, "GRATUITO") || strings.Contains(free, "PREMIUM") {
		t.Errorf("free prompt has wrong tier")
	}
	if strings.Contains(free, "RECUERDAS") {
		t.Errorf("memory section present without memories")
	}

	premium := SystemPrompt([]string{"vive en Madrid", "tiene dos hijos"}, true)
	if !strings.Contains(premium, "PREMIUM") {
		t.Errorf("premium prompt missing tier")
	}
	if !strings.Contains(premium, "\n- vive en Madrid\n- tiene dos hijos") {
		t.Errorf("memories not listed:\n%s", premium)
	}
}

func TestOpenAIResponder(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Bismillah."}}]}`)
	}))
	defer srv.Close()

	r := NewResponder(NewOpenAIClient(srv.URL+"/v1/", "sk-test"), "gpt-4o-mini")
	reply, err := r.Respond(context.Background(), "hola", []chat.Turn{{Role: "user", Text: "antes"}}, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if reply != "Bismillah." {
		t.Errorf("reply = %q", reply)
	}
	if got.Model != "gpt-4o-mini" || got.Temperature != Temperature || len(got.Messages) != 3 {
		t.Errorf("request = %+v", got)
	}
}

func TestOllamaResponder(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"As-salamu alaykum"},"done":true}`)
	}))
	defer srv.Close()

	r := NewResponder(NewOllamaClient(srv.URL+"/api"), "llama3:8b")
	reply, err := r.Respond(context.Background(), "hola", nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if reply != "As-salamu alaykum" {
		t.Errorf("reply = %q", reply)
	}
	if got.Stream || got.Options["temperature"] != Temperature {
		t.Errorf("request = %+v", got)
	}
}

func TestResponderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := NewResponder(NewOpenAIClient(srv.URL, "bad"), "m")
	_, err := r.Respond(context.Background(), "hola", nil, nil, false)
	var re *chat.ResponderError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want ResponderError", err)
	}
	if re.Connectivity {
		t.Error("bad status classified as connectivity")
	}
	var se *httputils.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Errorf("status error = %v", err)
	}

	// closed server: connection refused
	srv.Close()
	_, err = r.Respond(context.Background(), "hola", nil, nil, false)
	if !errors.As(err, &re) || !re.Connectivity {
		t.Errorf("err = %v, want connectivity failure", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	if _, err := NewFromConfig(&config.Config{LLMBackend: "ollama"}); err != nil {
		t.Errorf("ollama: %v", err)
	}
	if _, err := NewFromConfig(&config.Config{LLMBackend: "gemini"}); err == nil {
		t.Error("unknown backend accepted")
	}
}
