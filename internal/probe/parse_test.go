package probe

import "testing"

func TestSplitPipeLines(t *testing.T) {
	output := "New chat|https://claude.ai/chat/1\n" +
		"  ChatGPT  |https://chatgpt.com/\n" +
		"\n" +
		"   \n" +
		"no delimiter here\n" +
		"too|many|fields\n"

	pairs := splitPipeLines(output)

	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2: %v", len(pairs), pairs)
	}
	if pairs[0] != [2]string{"New chat", "https://claude.ai/chat/1"} {
		t.Errorf("pairs[0] = %v", pairs[0])
	}
	// Lines are trimmed as a whole, not per field.
	if pairs[1][1] != "https://chatgpt.com/" {
		t.Errorf("pairs[1] = %v", pairs[1])
	}
}

func TestSplitPipeLines_Empty(t *testing.T) {
	if got := splitPipeLines(""); got != nil {
		t.Errorf("splitPipeLines(\"\") = %v, want nil", got)
	}
}

func TestParseTabs(t *testing.T) {
	tabs := parseTabs("Docs|https://pkg.go.dev/fmt\nChat|https://claude.ai/\n")

	if len(tabs) != 2 {
		t.Fatalf("got %d tabs, want 2", len(tabs))
	}
	if tabs[0].Title != "Docs" || tabs[0].URL != "https://pkg.go.dev/fmt" {
		t.Errorf("tabs[0] = %+v", tabs[0])
	}
	if tabs[0].Browser != "" {
		t.Errorf("Browser should be set by the caller, got %q", tabs[0].Browser)
	}
}

func TestParseProcesses(t *testing.T) {
	procs := parseProcesses("Finder|412\nCursor| 9001 \nGhost|not-a-pid\n")

	if len(procs) != 2 {
		t.Fatalf("got %d processes, want 2: %v", len(procs), procs)
	}
	if procs[0].Name != "Finder" || procs[0].PID != 412 {
		t.Errorf("procs[0] = %+v", procs[0])
	}
	if procs[1].Name != "Cursor" || procs[1].PID != 9001 {
		t.Errorf("procs[1] = %+v", procs[1])
	}
}
