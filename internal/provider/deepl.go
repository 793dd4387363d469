package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const deeplMaxBatch = 50

// DeepLService talks to the DeepL v2 REST API. Free-plan keys (suffix
// ":fx") are routed to the free endpoint automatically.
type DeepLService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewDeepLService(apiKey, baseURL string) *DeepLService {
	if baseURL == "" {
		if strings.HasSuffix(apiKey, ":fx") {
			baseURL = "https://api-free.deepl.com"
		} else {
			baseURL = "https://api.deepl.com"
		}
	}
	return &DeepLService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *DeepLService) Name() string {
	return "deepl"
}

func (s *DeepLService) Capability() Capability {
	return Capability{
		SupportsBatch:   true,
		MaxBatchSize:    deeplMaxBatch,
		PreservesMarkup: true,
		RateLimitHint:   500 * time.Millisecond,
	}
}

func (s *DeepLService) Translate(ctx context.Context, text, targetLang string) (string, error) {
	results, err := s.TranslateBatch(ctx, []string{text}, targetLang)
	if err != nil {
		return "", err
	}
	return results[0], nil
}

func (s *DeepLService) TranslateBatch(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	if s.apiKey == "" {
		return nil, &BackendError{Provider: s.Name(), Message: "DeepL API key required"}
	}
	if len(texts) > deeplMaxBatch {
		return nil, &BackendError{Provider: s.Name(), Message: fmt.Sprintf("batch of %d exceeds DeepL limit of %d", len(texts), deeplMaxBatch)}
	}

	deeplReq := map[string]interface{}{
		"text":                texts,
		"target_lang":         strings.ToUpper(targetLang),
		"preserve_formatting": true,
		"tag_handling":        "html",
	}

	jsonData, err := json.Marshal(deeplReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v2/translate", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, networkError(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError(s.Name(), resp.StatusCode, string(body))
	}

	var deeplResp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&deeplResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(deeplResp.Translations) != len(texts) {
		return nil, &BackendError{
			Provider: s.Name(),
			Message:  fmt.Sprintf("expected %d translations, got %d", len(texts), len(deeplResp.Translations)),
		}
	}

	results := make([]string, len(texts))
	for i, tr := range deeplResp.Translations {
		results[i] = tr.Text
	}
	return results, nil
}
