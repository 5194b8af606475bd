package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	httputils "deenly/deenly/utils/http"
	"deenly/deenly/utils/logging"
)

type OllamaClient struct {
	baseURL string
	http    *http.Client
}

func NewOllamaClient(baseURL string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434/api"
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// local models can be slow on the first call
		http: &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

func (c *OllamaClient) Run(ctx context.Context, req ChatRequest) (string, error) {
	defer logging.LogDuration(ctx, "ollama_run")()

	var resp ollamaResponse
	err := httputils.PostJSON(ctx, c.http, c.baseURL+"/chat", ollamaRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Options:  map[string]any{"temperature": req.Temperature},
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}
