// Package cuesheet stores Redump's PSX cuesheets in a form that is
// comparable across any dump of the same disc regardless of what the
// dumper happened to name their files.
package cuesheet

import (
	"regexp"
	"strings"
)

var trackFilePattern = regexp.MustCompile(`FILE\s+"([^"]+)"`)

var keptDirectives = map[string]bool{
	"FILE":    true,
	"TRACK":   true,
	"PREGAP":  true,
	"INDEX":   true,
	"POSTGAP": true,
}

// Neutralize strips everything from content but the track-structure
// directives, then replaces every occurrence of stem (the referenced
// file's basename without extension) with "$" so a cuesheet compares equal
// across any dump of the same disc no matter what the files were
// actually named.
func Neutralize(content, stem string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		if keptDirectives[strings.ToUpper(fields[0])] {
			kept = append(kept, line)
		}
	}
	joined := strings.Join(kept, "\n")
	if stem == "" {
		return joined
	}
	return strings.ReplaceAll(joined, stem, "$")
}

// TrackFilenames returns every filename a cuesheet's FILE directives
// reference, in document order.
func TrackFilenames(content string) []string {
	matches := trackFilePattern.FindAllStringSubmatch(content, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
