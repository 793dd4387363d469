package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/polyglot-cli/potran/internal/placeholder"
	"github.com/polyglot-cli/potran/internal/postprocess"
)

// DeepSeekService translates through DeepSeek's OpenAI-compatible chat
// completions API. It is a single-string backend: the LLM cannot be
// trusted to keep N answers aligned with N inputs, so batching is not
// advertised. Text reaches it with placeholders already isolated and the
// system prompt instructs the model to keep the markers intact.
type DeepSeekService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewDeepSeekService(apiKey, baseURL, model string) *DeepSeekService {
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}
	if model == "" {
		model = "deepseek-chat"
	}
	return &DeepSeekService{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *DeepSeekService) Name() string {
	return "deepseek"
}

func (s *DeepSeekService) Capability() Capability {
	return Capability{
		SupportsBatch:   false,
		MaxBatchSize:    1,
		PreservesMarkup: false,
		RateLimitHint:   time.Second,
	}
}

func (s *DeepSeekService) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if s.apiKey == "" {
		return "", &BackendError{Provider: s.Name(), Message: "DeepSeek API key required"}
	}

	systemPrompt := fmt.Sprintf(
		"You are a professional translator. Translate the user's text to %s. "+
			"Only respond with the translation, nothing else. No explanations, no quotes. %s",
		targetLang, placeholder.InstructionHint())

	chatReq := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": text},
		},
		// DeepSeek's recommended temperature for translation tasks.
		"temperature": 1.3,
		"stream":      false,
	}

	jsonData, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", networkError(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", statusError(s.Name(), resp.StatusCode, fmt.Sprintf("%v", errResp))
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", &BackendError{Provider: s.Name(), Message: "empty response from API"}
	}

	return postprocess.Clean(chatResp.Choices[0].Message.Content), nil
}

func (s *DeepSeekService) TranslateBatch(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	return nil, ErrBatchUnsupported
}
