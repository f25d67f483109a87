package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/spo/internal/core/domain"
)

// ParseResult is the outcome of a strict parse of a model reply.
// Exactly one of Value (when Err is nil) or Raw with Err is meaningful.
type ParseResult[T any] struct {
	Value T
	Raw   string
	Err   error
}

// OK reports whether parsing succeeded.
func (r ParseResult[T]) OK() bool {
	return r.Err == nil
}

func parseOK[T any](v T) ParseResult[T] {
	return ParseResult[T]{Value: v}
}

func parseError[T any](raw, reason string) ParseResult[T] {
	return ParseResult[T]{Raw: raw, Err: fmt.Errorf("%w: %s", domain.ErrParse, reason)}
}

// ExtractTag returns the trimmed content of the first <tag>...</tag> in text.
func ExtractTag(text, tag string) (string, bool) {
	open, closing := "<"+tag+">", "</"+tag+">"
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(open):]
	end := strings.Index(rest, closing)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// Choice is the presented-position pick of the judge model.
type Choice string

// Judge picks.
const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
)

// ParseChoice reads the <choose> field of a judge reply.
// Only "A" or "B" (case-insensitive, trimmed) parse.
func ParseChoice(text string) ParseResult[Choice] {
	field, ok := ExtractTag(text, "choose")
	if !ok {
		return parseError[Choice](text, "no <choose> field")
	}
	switch Choice(strings.ToUpper(field)) {
	case ChoiceA:
		return parseOK(ChoiceA)
	case ChoiceB:
		return parseOK(ChoiceB)
	default:
		return parseError[Choice](text, fmt.Sprintf("choice %q is neither A nor B", field))
	}
}

// ParsePrompt reads the <prompt> field of an optimize reply.
func ParsePrompt(text string) ParseResult[string] {
	field, ok := ExtractTag(text, "prompt")
	if !ok {
		return parseError[string](text, "no <prompt> field")
	}
	if field == "" {
		return parseError[string](text, "empty <prompt> field")
	}
	return parseOK(field)
}
