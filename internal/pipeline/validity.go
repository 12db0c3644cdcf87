package pipeline

import (
	"strings"
	"unicode/utf8"
)

const minNarrativeLength = 50

// metaPhrases mark responses where the model talked about the task instead
// of performing it. Matching is case-insensitive on the whole narrative.
var metaPhrases = []string{
	"ready to generate",
	"please provide",
	"json list",
	"follows all the rules",
	"provide the",
	"here's the",
	"output the",
	"write a",
	"in json",
	"the summary is",
	"the briefing is",
	"the analysis is",
}

// validNarrative rejects text too short to be a briefing, meta-commentary
// about the prompt, and heavily fragmented output such as stray bullet
// shards. Only valid narratives are ever persisted.
func validNarrative(narrative string) bool {
	trimmed := strings.TrimSpace(narrative)
	if utf8.RuneCountInString(trimmed) < minNarrativeLength {
		return false
	}

	lowered := strings.ToLower(trimmed)
	for _, phrase := range metaPhrases {
		if strings.Contains(lowered, phrase) {
			return false
		}
	}

	var lines, short int
	for line := range strings.Lines(trimmed) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines++
		if utf8.RuneCountInString(line) < 10 {
			short++
		}
	}
	if lines > 3 && float64(short) > 0.3*float64(lines) {
		return false
	}
	return true
}
