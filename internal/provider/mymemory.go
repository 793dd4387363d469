package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MyMemoryService uses the free MyMemory API. Single-string only, and
// the upstream rate limit is generous with a registered email address.
type MyMemoryService struct {
	email      string
	sourceLang string
	baseURL    string
	client     *http.Client
}

func NewMyMemoryService(email, sourceLang string) *MyMemoryService {
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "en"
	}
	return &MyMemoryService{
		email:      email,
		sourceLang: sourceLang,
		baseURL:    "https://api.mymemory.translated.net",
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

func (s *MyMemoryService) Capability() Capability {
	return Capability{
		SupportsBatch:   false,
		MaxBatchSize:    1,
		PreservesMarkup: false,
		RateLimitHint:   time.Second,
	}
}

func (s *MyMemoryService) Translate(ctx context.Context, text, targetLang string) (string, error) {
	langPair := fmt.Sprintf("%s|%s", s.sourceLang, targetLang)

	apiURL := fmt.Sprintf("%s/get?q=%s&langpair=%s",
		s.baseURL, url.QueryEscape(text), url.QueryEscape(langPair))
	if s.email != "" {
		apiURL += "&de=" + url.QueryEscape(s.email)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", networkError(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", statusError(s.Name(), resp.StatusCode, string(body))
	}

	var mymemResp struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus  int    `json:"responseStatus"`
		ResponseDetails string `json:"responseDetails"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&mymemResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	// MyMemory reports errors in the body with HTTP 200; the embedded
	// status follows HTTP conventions (429 on daily quota exhaustion).
	if mymemResp.ResponseStatus != 200 {
		return "", statusError(s.Name(), mymemResp.ResponseStatus, mymemResp.ResponseDetails)
	}

	if mymemResp.ResponseData.TranslatedText == "" {
		return "", &BackendError{Provider: s.Name(), Message: "empty translation response"}
	}

	return mymemResp.ResponseData.TranslatedText, nil
}

func (s *MyMemoryService) TranslateBatch(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	return nil, ErrBatchUnsupported
}
