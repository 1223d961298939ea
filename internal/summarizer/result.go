package summarizer

import (
	"bytes"
	"encoding/json"
)

// Failure kinds stored in the "error" key of a failed summary.
const (
	KindCallException = "gemini_call_exception"
	KindNonJSON       = "non_json_output"
	KindModelError    = "model_error"
	KindLLMException  = "llm_exception"
)

var userMessages = map[string]string{
	KindCallException: "We couldn't reach the AI summarizer right now. Please try again later.",
	KindNonJSON:       "The AI summarizer gave an unexpected response. Please try again.",
	KindModelError:    "The AI summarizer could not summarize these sources. Please try again.",
	KindLLMException:  "Our summarizer encountered an error. Please try again later.",
}

// UserMessage returns the display text for a failure kind.
func UserMessage(kind string) string {
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return userMessages[KindLLMException]
}

// Failure describes why no usable summary was produced.
type Failure struct {
	Kind        string
	UserMessage string
	Detail      string
	RawOutput   string
}

// Result is either a Summary or a Failure. Exactly one of the two is set.
type Result struct {
	Summary  *Summary
	Failure  *Failure
	// Mismatch describes schema problems in a summary that was still kept.
	Mismatch string

	// object is the model's JSON object exactly as received, when there was one.
	object json.RawMessage
}

// NewFailure builds a failure result with the standard message for kind.
func NewFailure(kind, detail, rawOutput string) Result {
	return Result{Failure: &Failure{
		Kind:        kind,
		UserMessage: UserMessage(kind),
		Detail:      detail,
		RawOutput:   rawOutput,
	}}
}

func (r Result) OK() bool { return r.Summary != nil }

// Title returns the summary title, or "" for failures and untitled summaries.
func (r Result) Title() string {
	if r.Summary == nil {
		return ""
	}
	return r.Summary.Title
}

type failureJSON struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Exception string `json:"exception,omitempty"`
	RawOutput string `json:"raw_output"`
}

// JSON is the stored form of the result. A success, or a model's own error
// object, is the object as received; other failures use the error shape
// {error, message, exception, raw_output}.
func (r Result) JSON() json.RawMessage {
	if len(r.object) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, r.object, "", "  "); err == nil {
			return buf.Bytes()
		}
		return r.object
	}
	if r.Failure == nil {
		return json.RawMessage("{}")
	}
	out, err := json.MarshalIndent(failureJSON{
		Error:     r.Failure.Kind,
		Message:   r.Failure.UserMessage,
		Exception: r.Failure.Detail,
		RawOutput: r.Failure.RawOutput,
	}, "", "  ")
	if err != nil {
		return json.RawMessage(`{"error":"` + KindLLMException + `"}`)
	}
	return out
}
