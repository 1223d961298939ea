package summarizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var objectSpan = regexp.MustCompile(`(?s)\{.*\}`)

// Parse maps raw model output to a Result. The whole text is tried first, then
// the widest brace-delimited span inside it.
func Parse(raw string) Result {
	text := strings.TrimSpace(raw)
	obj, ok := decodeObject(text)
	if !ok {
		if span := objectSpan.FindString(text); span != "" {
			obj, ok = decodeObject(span)
		}
	}
	if !ok {
		return NewFailure(KindNonJSON, "", text)
	}
	return classify(obj, text)
}

func decodeObject(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !json.Valid([]byte(s)) {
		return nil, false
	}
	return json.RawMessage(s), true
}

func classify(obj json.RawMessage, text string) Result {
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(obj))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return NewFailure(KindNonJSON, "", text)
	}

	if e, has := doc["error"]; has && e != nil && e != "" {
		res := NewFailure(KindModelError, fmt.Sprint(e), text)
		if ro, ok := doc["raw_output"].(string); ok {
			res.Failure.RawOutput = ro
		}
		res.object = obj
		return res
	}

	s := looseSummary(doc)
	res := Result{Summary: &s, object: obj}
	if err := validateSummary(doc); err != nil {
		res.Mismatch = err.Error()
	}
	return res
}

// DecodeSummary reads a stored summary object, ignoring fields of the wrong type.
func DecodeSummary(raw json.RawMessage) (*Summary, bool) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return nil, false
	}
	s := looseSummary(doc)
	return &s, true
}

func looseSummary(doc map[string]any) Summary {
	s := Summary{Title: str(doc["title"]), Summary: str(doc["summary"])}
	for _, it := range list(doc["key_points"]) {
		if m, ok := it.(map[string]any); ok {
			s.KeyPoints = append(s.KeyPoints, KeyPoint{Point: str(m["point"]), Detail: str(m["detail"])})
		}
	}
	for _, it := range list(doc["sources"]) {
		if m, ok := it.(map[string]any); ok {
			s.Sources = append(s.Sources, SourceNote{URL: str(m["url"]), Note: str(m["note"])})
		}
	}
	return s
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}
