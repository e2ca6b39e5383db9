package parser

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Hosted models intermittently wrap valid JSON in prose or markdown
// despite explicit instructions not to. The extractor tolerates that
// without silently accepting garbage.
var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractResponse recovers the transaction entries from a raw model
// completion. Strategy, in order: trim, prefer the content of a fenced
// code block, slice from the first '{' to the last '}', parse, then
// require exactly one of the "transaction" / "transactions" keys.
// Element-level schema checks are the validator's job.
func ExtractResponse(raw string) ([]interface{}, error) {
	s := strings.TrimSpace(raw)

	if m := fencedBlockPattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return nil, &MalformedOutputError{Reason: "no JSON object found in model output"}
	}
	candidate := s[start : end+1]

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, &MalformedOutputError{Reason: "invalid JSON", Err: err}
	}

	single, hasSingle := parsed["transaction"]
	multi, hasMulti := parsed["transactions"]

	switch {
	case hasSingle && hasMulti:
		return nil, &MalformedOutputError{Reason: `both "transaction" and "transactions" keys present`}
	case hasSingle:
		return []interface{}{single}, nil
	case hasMulti:
		entries, ok := multi.([]interface{})
		if !ok {
			return nil, &MalformedOutputError{Reason: `"transactions" is not an array`}
		}
		return entries, nil
	default:
		return nil, &MalformedOutputError{Reason: `missing "transaction" or "transactions" key`}
	}
}
