// Package validator checks that translated text actually reads as the
// requested target language. Backends occasionally echo the source or
// answer in the wrong language; the check catches that after a run.
package validator

import (
	"fmt"
	"strings"

	"github.com/polyglot-cli/potran/internal/detector"
)

// minLength is the smallest rune count worth detecting. Shorter texts
// give unreliable results and pass without validation.
const minLength = 20

// Validator verifies translation output against a target language. The
// underlying detector is expensive to build; reuse one instance.
type Validator struct {
	det *detector.Detector
}

func New() *Validator {
	return &Validator{det: detector.New()}
}

// NewWithDetector shares an already-built detector, avoiding a second
// model load when the caller used one for source language detection.
func NewWithDetector(det *detector.Detector) *Validator {
	return &Validator{det: det}
}

// IsValid reports whether translatedText appears to be written in
// targetLang. Texts too short to detect and texts of ambiguous language
// pass. A detected mismatch returns false with an error naming both
// ISO codes.
func (v *Validator) IsValid(translatedText, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return true, nil
	}

	if !strings.EqualFold(detected, targetLang) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}

	return true, nil
}
