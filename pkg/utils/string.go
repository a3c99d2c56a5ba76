package utils

import (
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("```(?:json)?\n?")

/*
StripCodeFence removes markdown code fences a model may have wrapped around
a JSON payload, returning the trimmed inner text.  Models regularly ignore
"JSON only" instructions, so every response that gets parsed goes through
here first.
*/
func StripCodeFence(response string) string {
	return strings.TrimSpace(codeFenceRe.ReplaceAllString(response, ""))
}

var whitespaceRe = regexp.MustCompile(`\s+`)

/*
Slugify lowercases a tag and collapses internal whitespace into hyphens,
producing the canonical tag form stored on every memory.
*/
func Slugify(tag string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(tag)), "-")
}
