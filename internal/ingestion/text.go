// Package ingestion turns raw clips and resume documents into the structured
// job details and skill profiles the stores keep.
package ingestion

import (
	"regexp"
	"strings"
)

var (
	runOfSpace = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankRun   = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes pasted or extracted text while keeping its shape:
// headings and bullets survive, runs of spaces collapse, and at most one
// blank line separates paragraphs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}
	out := blankRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	body := strings.TrimLeft(line, " \t")
	if body == "" {
		return ""
	}
	if strings.HasPrefix(body, "#") {
		return runOfSpace.ReplaceAllString(body, " ")
	}
	indent := strings.Repeat(" ", len(line)-len(body))
	if isBullet(body) {
		return indent + body
	}
	return indent + runOfSpace.ReplaceAllString(body, " ")
}

func isBullet(line string) bool {
	for _, p := range []string{"- ", "* ", "• ", "· "} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// firstLine returns the first non-empty line with bullets and heading marks removed.
func firstLine(text string) (line, rest string) {
	for text != "" {
		var cur string
		cur, text, _ = strings.Cut(text, "\n")
		cur = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(cur), "#-*•· "))
		if cur != "" {
			return cur, strings.TrimSpace(text)
		}
	}
	return "", ""
}
