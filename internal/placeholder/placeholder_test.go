package placeholder_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/polyglot-cli/potran/internal/placeholder"
)

func TestIsolate_NoTokens(t *testing.T) {
	text := "Hello, world!"
	got, tokens := placeholder.Isolate(text)
	if got != text {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if len(tokens) != 0 {
		t.Errorf("expected 0 tokens, got %d", len(tokens))
	}
}

func TestIsolate_HTMLTags(t *testing.T) {
	text := "<p>Hello <b>world</b></p>"
	got, tokens := placeholder.Isolate(text)

	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens (<p>, <b>, </b>, </p>), got %d: %v", len(tokens), tokens)
	}
	for _, tag := range []string{"<p>", "<b>", "</b>", "</p>"} {
		if strings.Contains(got, tag) {
			t.Errorf("expected tag %q to be replaced, still present in %q", tag, got)
		}
	}
}

func TestIsolate_FormatVariables(t *testing.T) {
	text := "Hello %s, you have %d messages and {0} invites"
	got, tokens := placeholder.Isolate(text)

	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0] != "%s" || tokens[1] != "%d" || tokens[2] != "{0}" {
		t.Errorf("tokens not in textual order: %v", tokens)
	}
	if got != "Hello [PH0], you have [PH1] messages and [PH2] invites" {
		t.Errorf("unexpected stripped text: %q", got)
	}
}

func TestIsolate_MixedOrder(t *testing.T) {
	// Marker numbering must follow textual order across token classes.
	text := "Click <b>%s</b> to continue"
	got, tokens := placeholder.Isolate(text)

	want := []string{"<b>", "%s", "</b>"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], tokens[i])
		}
	}
	if got != "Click [PH0][PH1][PH2] to continue" {
		t.Errorf("unexpected stripped text: %q", got)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	cases := []string{
		"<p>Hello <b>world</b></p>",
		"Hello %s, you have %d messages",
		"Click <b>%s</b> to continue",
		"Mixed {name} and %1$s with <a href=\"#\">link</a>",
		"No tokens at all",
	}
	for _, original := range cases {
		stripped, tokens := placeholder.Isolate(original)
		restored, err := placeholder.Restore(stripped, tokens)
		if err != nil {
			t.Errorf("%q: unexpected restore error: %v", original, err)
			continue
		}
		if restored != original {
			t.Errorf("round-trip failed:\n  original: %q\n  restored: %q", original, restored)
		}
	}
}

func TestRestore_TranslatedText(t *testing.T) {
	// The translated text keeps the markers but everything else changes.
	original := "Click <b>%s</b> to continue"
	_, tokens := placeholder.Isolate(original)

	translated := "Haga clic en [PH0][PH1][PH2] para continuar"
	restored, err := placeholder.Restore(translated, tokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored != "Haga clic en <b>%s</b> para continuar" {
		t.Errorf("unexpected restoration: %q", restored)
	}
}

func TestRestore_PositionalNotIndexed(t *testing.T) {
	// A backend that renumbers markers but keeps their order still
	// restores correctly: substitution is positional.
	tokens := []string{"<b>", "</b>"}
	restored, err := placeholder.Restore("x [PH7] y [PH3] z", tokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored != "x <b> y </b> z" {
		t.Errorf("unexpected restoration: %q", restored)
	}
}

func TestRestore_MissingMarker(t *testing.T) {
	tokens := []string{"<b>", "</b>"}
	got, err := placeholder.Restore("only [PH0] survived", tokens)
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	var mismatch *placeholder.MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *MismatchError, got %T", err)
	}
	if mismatch.Expected != 2 || mismatch.Found != 1 {
		t.Errorf("expected 2/1, got %d/%d", mismatch.Expected, mismatch.Found)
	}
	// The text comes back untouched, never partially substituted.
	if got != "only [PH0] survived" {
		t.Errorf("expected untouched text, got %q", got)
	}
}

func TestRestore_ExtraMarker(t *testing.T) {
	_, err := placeholder.Restore("[PH0] and invented [PH1]", []string{"<b>"})
	if err == nil {
		t.Fatal("expected mismatch error for duplicated marker")
	}
}

func TestRestore_NoTokensHallucinatedMarker(t *testing.T) {
	_, err := placeholder.Restore("[PH0] appeared from nowhere", nil)
	if err == nil {
		t.Fatal("expected mismatch error when no tokens were extracted")
	}
}

func TestInstructionHint_NotEmpty(t *testing.T) {
	if placeholder.InstructionHint() == "" {
		t.Error("InstructionHint should not return empty string")
	}
}
