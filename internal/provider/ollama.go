package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/polyglot-cli/potran/internal/placeholder"
	"github.com/polyglot-cli/potran/internal/postprocess"
)

// OllamaService translates through a locally running Ollama instance.
// No API key, no remote rate limits; useful for offline catalogs or when
// paid backends are not an option. Single-string like the other LLM
// backend, and the output goes through artifact cleanup because local
// models leak reasoning blocks more often than hosted ones.
type OllamaService struct {
	model   string
	baseURL string
	client  *http.Client
}

func NewOllamaService(model, baseURL string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaService{
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

func (s *OllamaService) Name() string {
	return "ollama"
}

func (s *OllamaService) Capability() Capability {
	return Capability{
		SupportsBatch:   false,
		MaxBatchSize:    1,
		PreservesMarkup: false,
	}
}

func (s *OllamaService) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if s.model == "" {
		return "", &BackendError{Provider: s.Name(), Message: "Ollama model name required"}
	}

	prompt := fmt.Sprintf(
		"Translate the following text to %s. Output only the translation, no explanations, no quotes. %s\n\n%s",
		targetLang, placeholder.InstructionHint(), text)

	reqBody := map[string]interface{}{
		"model":  s.model,
		"prompt": prompt,
		"stream": false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", networkError(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", statusError(s.Name(), resp.StatusCode, string(body))
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	cleaned := postprocess.Clean(ollamaResp.Response)
	if cleaned == "" {
		return "", &BackendError{Provider: s.Name(), Message: "empty translation response"}
	}
	return cleaned, nil
}

func (s *OllamaService) TranslateBatch(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	return nil, ErrBatchUnsupported
}
