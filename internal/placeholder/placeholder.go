// Package placeholder protects markup and format variables during
// translation by replacing them with numbered markers ([PH0], [PH1], …)
// that backends are expected to carry through untouched. After
// translation, Restore substitutes the captured originals back in.
package placeholder

import (
	"fmt"
	"regexp"
)

var (
	// Token classes protected from the backend, matched in one pass so
	// marker numbering follows textual order:
	//   - HTML/XML tags: <b>, </a>, <br/>
	//   - printf variables: %s, %d, %f, %v, optionally positional (%1$s)
	//   - brace placeholders: {0}, {name}
	reToken = regexp.MustCompile(`<[^>]+>|%(?:\d+\$)?[sdfv]|\{[0-9]+\}|\{[a-zA-Z_][a-zA-Z0-9_]*\}`)

	// marker reference in translated text
	reMarker = regexp.MustCompile(`\[PH(\d+)\]`)
)

// MismatchError reports that a translated text did not carry the same
// number of markers that Isolate produced for its source.
type MismatchError struct {
	Expected int
	Found    int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("placeholder mismatch: expected %d markers, found %d", e.Expected, e.Found)
}

// Isolate replaces every protected token in text with a numbered marker,
// leftmost-first and non-overlapping, and returns the stripped text plus
// the ordered list of removed originals.
func Isolate(text string) (string, []string) {
	var tokens []string
	stripped := reToken.ReplaceAllStringFunc(text, func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(tokens))
		tokens = append(tokens, match)
		return id
	})
	return stripped, tokens
}

// Restore substitutes the Nth marker found in translated, left to right,
// with the Nth entry of tokens. The index digits inside a marker are
// ignored; substitution is purely positional, so a backend that renumbers
// markers but keeps their order still restores correctly.
//
// When the marker count differs from len(tokens) the translation cannot
// be reconstructed safely; Restore returns the text untouched along with
// a *MismatchError so the caller can fail the unit instead of emitting a
// corrupted string.
func Restore(translated string, tokens []string) (string, error) {
	found := len(reMarker.FindAllString(translated, -1))
	if found != len(tokens) {
		return translated, &MismatchError{Expected: len(tokens), Found: found}
	}

	i := 0
	restored := reMarker.ReplaceAllStringFunc(translated, func(string) string {
		tok := tokens[i]
		i++
		return tok
	})
	return restored, nil
}

// InstructionHint returns a sentence appended to LLM prompts so the model
// knows to leave markers intact.
func InstructionHint() string {
	return "Preserve all [PHn] markers exactly as they appear; do not translate, move, duplicate, or remove them."
}
