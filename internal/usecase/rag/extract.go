package rag

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/kailas-cloud/discovery/internal/domain/enhance"
)

var errNoObject = errors.New("no JSON object in completion")

// firstObject returns the first balanced {...} block in s. Braces inside JSON
// strings do not count; an unterminated block is returned as-is for repair.
func firstObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if start < 0 {
			if ch == '{' {
				start, depth = i, 1
			}
			continue
		}
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	if start >= 0 {
		return s[start:], true
	}
	return "", false
}

// parseFields pulls {summary, relevance_explanation} out of free-form model output.
func parseFields(text string) (enhance.Fields, error) {
	obj, ok := firstObject(text)
	if !ok {
		return enhance.Fields{}, errNoObject
	}

	var f enhance.Fields
	if err := json.Unmarshal([]byte(obj), &f); err == nil {
		return f, nil
	}

	repaired, err := jsonrepair.JSONRepair(obj)
	if err != nil {
		return enhance.Fields{}, fmt.Errorf("repair completion json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &f); err != nil {
		return enhance.Fields{}, fmt.Errorf("decode completion json: %w", err)
	}
	return f, nil
}
