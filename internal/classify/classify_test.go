package classify

import "testing"

func TestLooksLikePrompt_Accepts(t *testing.T) {
	cases := []string{
		"Write a haiku about autumn leaves",
		"can you explain how goroutines work",
		"What is the difference between a mutex and a semaphore?",
		"please refactor this function to be more readable",
		"I need a regex that matches ISO timestamps",
		"is this thread safe?",
	}
	for _, c := range cases {
		if !LooksLikePrompt(c) {
			t.Errorf("LooksLikePrompt(%q) = false, want true", c)
		}
	}
}

func TestLooksLikePrompt_Rejects(t *testing.T) {
	cases := map[string]string{
		"too short":        "hi there",
		"single word":      "reconfiguration",
		"no indicators":    "the sky was blue yesterday evening",
		"empty":            "",
		"whitespace only":  "    \n\t  ",
		"short after trim": "   hey    ",
	}
	for name, c := range cases {
		if LooksLikePrompt(c) {
			t.Errorf("%s: LooksLikePrompt(%q) = true, want false", name, c)
		}
	}
}

func TestLooksLikePrompt_WordCountBounds(t *testing.T) {
	if LooksLikePrompt("writeit nowplease") {
		t.Error("two-word text should be rejected regardless of indicators")
	}

	long := "say"
	for i := 0; i < 1001; i++ {
		long += " again"
	}
	if LooksLikePrompt(long) {
		t.Error("text over 1000 words should be rejected")
	}
}

func TestLooksLikePrompt_CodeKeywords(t *testing.T) {
	if !LooksLikePrompt("the algorithm terminates after ten iterations") {
		t.Error("code keyword should qualify text as a prompt")
	}
}

func TestIdentifyApp(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://chat.openai.com/c/abc123", "ChatGPT", true},
		{"https://chatgpt.com/", "ChatGPT", true},
		{"https://claude.ai/chat/xyz", "Claude", true},
		{"https://console.anthropic.com/", "Claude", true},
		{"https://cursor.sh/download", "Cursor", true},
		{"https://x.ai/grok", "Grok", true},
		{"https://grok.com/", "Grok", true},
		{"https://www.perplexity.ai/search", "Perplexity", true},
		{"http://localhost:11434/api/tags", "Ollama", true},
		{"https://ollama.com/library", "Ollama", true},
		{"https://example.com/", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := IdentifyApp(tt.url)
		if got != tt.want || ok != tt.ok {
			t.Errorf("IdentifyApp(%q) = (%q, %v), want (%q, %v)", tt.url, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIdentifyApp_CaseInsensitive(t *testing.T) {
	got, ok := IdentifyApp("HTTPS://CLAUDE.AI/CHAT")
	if !ok || got != "Claude" {
		t.Errorf("IdentifyApp uppercase = (%q, %v), want (Claude, true)", got, ok)
	}
}
