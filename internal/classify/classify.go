// Package classify holds the pure heuristics that decide whether captured
// text looks like a prompt and which AI application a URL belongs to.
package classify

import "strings"

// promptIndicators are phrases that commonly open or appear in prompts sent
// to an AI assistant: imperative verbs, politeness markers, and question
// words. Matching is case-insensitive substring matching, deliberately
// permissive: a false positive costs a spurious row, a false negative loses
// data.
var promptIndicators = []string{
	"write", "create", "generate", "explain", "help", "how", "what", "why",
	"please", "can you", "could you", "would you", "i need", "i want",
	"make", "build", "design", "code", "program", "function", "class",
	"fix", "debug", "error", "issue", "problem", "solve", "analyze",
	"review", "improve", "optimize", "refactor", "translate", "convert",
	"summarize", "list", "compare", "difference", "pros and cons",
}

var codeKeywords = []string{"function", "class", "variable", "algorithm", "syntax"}

// LooksLikePrompt reports whether text plausibly is a prompt a user sent to
// an AI assistant. Pure function, no I/O.
func LooksLikePrompt(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < 10 {
		return false
	}

	wordCount := len(strings.Fields(text))
	if wordCount < 3 || wordCount > 1000 {
		return false
	}

	if strings.Contains(text, "?") {
		return true
	}

	lower := strings.ToLower(text)
	for _, indicator := range promptIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	for _, kw := range codeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// appPatterns maps URL substrings to AI application names. Order matters:
// the first match wins.
var appPatterns = []struct {
	substr string
	name   string
}{
	{"chat.openai.com", "ChatGPT"},
	{"chatgpt", "ChatGPT"},
	{"claude.ai", "Claude"},
	{"anthropic", "Claude"},
	{"cursor.sh", "Cursor"},
	{"cursor", "Cursor"},
	{"x.ai", "Grok"},
	{"grok", "Grok"},
	{"perplexity.ai", "Perplexity"},
	{"localhost:11434", "Ollama"},
	{"ollama", "Ollama"},
}

// IdentifyApp maps a browser tab URL to a known AI application name.
// Unrecognized URLs return ok=false and are dropped by the caller.
func IdentifyApp(url string) (string, bool) {
	lower := strings.ToLower(url)
	for _, p := range appPatterns {
		if strings.Contains(lower, p.substr) {
			return p.name, true
		}
	}
	return "", false
}
