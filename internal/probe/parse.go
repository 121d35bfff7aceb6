package probe

import (
	"strconv"
	"strings"
)

// splitPipeLines parses the pipe-delimited line output of the OS scripting
// probes. Lines that don't split into exactly two fields are dropped
// silently; a parse failure must never abort a polling tick.
func splitPipeLines(output string) [][2]string {
	var pairs [][2]string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 2 {
			continue
		}
		pairs = append(pairs, [2]string{parts[0], parts[1]})
	}
	return pairs
}

// parseTabs decodes "title|url" lines.
func parseTabs(output string) []Tab {
	var tabs []Tab
	for _, p := range splitPipeLines(output) {
		tabs = append(tabs, Tab{Title: p[0], URL: p[1]})
	}
	return tabs
}

// parseProcesses decodes "name|pid" lines, dropping entries whose pid is not
// numeric.
func parseProcesses(output string) []Process {
	var procs []Process
	for _, p := range splitPipeLines(output) {
		pid, err := strconv.Atoi(strings.TrimSpace(p[1]))
		if err != nil {
			continue
		}
		procs = append(procs, Process{Name: p[0], PID: pid})
	}
	return procs
}
