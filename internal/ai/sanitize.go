package ai

import (
	"regexp"
	"strings"
)

// Free-text model replies arrive with markdown despite the prompt asking for
// plain text; these hit often enough that stripping is done unconditionally.
var (
	codeFenceRe  = regexp.MustCompile("(?s)```.*?```|~~~.*?~~~")
	headingRe    = regexp.MustCompile(`(?m)^#+\s*`)
	listMarkerRe = regexp.MustCompile(`(?m)^[-*+]\s+`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	boldRe       = regexp.MustCompile(`(\*\*|__)(.*?)(\*\*|__)`)
	italicRe     = regexp.MustCompile(`(\*|_)(.*?)(\*|_)`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// SanitizeText strips markdown formatting from a free-text model reply and
// collapses whitespace.
func SanitizeText(reply string) string {
	if reply == "" {
		return ""
	}
	cleaned := codeFenceRe.ReplaceAllString(reply, "")
	cleaned = headingRe.ReplaceAllString(cleaned, "")
	cleaned = listMarkerRe.ReplaceAllString(cleaned, "")
	cleaned = inlineCodeRe.ReplaceAllString(cleaned, "$1")
	cleaned = boldRe.ReplaceAllString(cleaned, "$2")
	cleaned = italicRe.ReplaceAllString(cleaned, "$2")
	cleaned = linkRe.ReplaceAllString(cleaned, "$1")
	cleaned = spaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
