package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

const googleMaxBatch = 100

// GoogleService translates through the Google Cloud Translation API.
// The client is created lazily on first use and reused across calls.
type GoogleService struct {
	credentials string

	once    sync.Once
	client  *translate.Client
	initErr error
}

func NewGoogleService(credentials string) *GoogleService {
	return &GoogleService{credentials: credentials}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Capability() Capability {
	return Capability{
		SupportsBatch:   true,
		MaxBatchSize:    googleMaxBatch,
		PreservesMarkup: true,
		RateLimitHint:   100 * time.Millisecond,
	}
}

func (s *GoogleService) getClient(ctx context.Context) (*translate.Client, error) {
	s.once.Do(func() {
		opts := []option.ClientOption{}
		if s.credentials != "" {
			opts = append(opts, option.WithCredentialsFile(s.credentials))
		}
		s.client, s.initErr = translate.NewClient(ctx, opts...)
	})
	if s.initErr != nil {
		return nil, &BackendError{Provider: s.Name(), Message: fmt.Sprintf("failed to create client: %v", s.initErr)}
	}
	return s.client, nil
}

func (s *GoogleService) Translate(ctx context.Context, text, targetLang string) (string, error) {
	results, err := s.TranslateBatch(ctx, []string{text}, targetLang)
	if err != nil {
		return "", err
	}
	return results[0], nil
}

func (s *GoogleService) TranslateBatch(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	targetTag, err := language.Parse(targetLang)
	if err != nil {
		return nil, &BackendError{Provider: s.Name(), Message: fmt.Sprintf("invalid target language %q: %v", targetLang, err)}
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	translations, err := client.Translate(ctx, texts, targetTag, nil)
	if err != nil {
		// The cloud client does not surface status codes uniformly;
		// treat API failures as transient and let the retry bound cap them.
		return nil, &BackendError{Provider: s.Name(), Message: fmt.Sprintf("translation failed: %v", err), Transient: true}
	}

	if len(translations) != len(texts) {
		return nil, &BackendError{
			Provider: s.Name(),
			Message:  fmt.Sprintf("expected %d translations, got %d", len(texts), len(translations)),
		}
	}

	results := make([]string, len(texts))
	for i, tr := range translations {
		results[i] = tr.Text
	}
	return results, nil
}

// Close releases the underlying API client, if one was created.
func (s *GoogleService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
