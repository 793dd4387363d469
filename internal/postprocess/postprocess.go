// Package postprocess strips common LLM artifacts from translated text.
// LLM-backed services (DeepSeek, Ollama) are instructed to answer with
// the bare translation, but models still leak reasoning blocks, preamble
// phrases, and quote wrapping; Clean removes all three before the result
// reaches the catalog or the cache.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean returns text with reasoning blocks, instruction echoes, and
// outer quote wrapping removed, trimmed of surrounding whitespace.
func Clean(text string) string {
	text = stripReasoning(text)
	text = stripPreamble(text)
	text = stripQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// Each tag variant is listed explicitly; RE2 has no backreferences.
var reasoningBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// An opened tag with no closing tag means the model was cut off
// mid-thought; everything from the tag onward is noise.
var truncatedReasoningRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func stripReasoning(text string) string {
	text = reasoningBlockRe.ReplaceAllString(text, "")
	text = truncatedReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// preambleRes match introductory phrases models prepend even when told
// not to. Anchored to the start and requiring a colon keeps legitimate
// content that merely mentions translations intact.
var preambleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished )?(?:translation|translated text)\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text)\s*:`),
}

func stripPreamble(text string) string {
	for _, re := range preambleRes {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// stripQuoteWrapping removes one matching pair of outer quotes when the
// whole text is wrapped in them. ASCII quotes, guillemets, and curly
// quote pairs are recognized.
func stripQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
