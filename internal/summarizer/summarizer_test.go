package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/researcher/models"
)

type fakeGenerator struct {
	out    string
	err    error
	panics bool

	model  string
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	f.model = model
	f.prompt = prompt
	if f.panics {
		panic("boom")
	}
	return f.out, f.err
}

func quietOptions() Options {
	return Options{Logger: log.New(io.Discard, "", 0)}
}

func decode(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("stored summary is not a JSON object: %v (%s)", err, raw)
	}
	return m
}

func TestSummarize_ValidObjectIsStoredExactly(t *testing.T) {
	out := `{"title":"Climate","summary":"s","key_points":[{"point":"p","detail":"d","extra":1}],"sources":[{"url":"https://a","note":"n"}],"confidence":0.5}`
	gen := &fakeGenerator{out: out}
	res := New(gen, quietOptions()).Summarize(context.Background(), "climate change", nil)

	if !res.OK() {
		t.Fatalf("expected success, got %+v", res.Failure)
	}
	if res.Title() != "Climate" {
		t.Fatalf("unexpected title %q", res.Title())
	}
	if len(res.Summary.KeyPoints) != 1 || res.Summary.KeyPoints[0].Point != "p" {
		t.Fatalf("unexpected key points %+v", res.Summary.KeyPoints)
	}

	var want, got any
	_ = json.Unmarshal([]byte(out), &want)
	_ = json.Unmarshal(res.JSON(), &got)
	wantB, _ := json.Marshal(want)
	gotB, _ := json.Marshal(got)
	if !bytes.Equal(wantB, gotB) {
		t.Fatalf("stored summary differs:\nwant %s\ngot  %s", wantB, gotB)
	}
	if gen.model != DefaultModel {
		t.Fatalf("expected default model, got %q", gen.model)
	}
}

func TestSummarize_ObjectInsideProse(t *testing.T) {
	gen := &fakeGenerator{out: "Sure! Here it is:\n```json\n{\"title\": \"T\", \"summary\": \"S\"}\n```"}
	res := New(gen, quietOptions()).Summarize(context.Background(), "q", nil)
	if !res.OK() || res.Title() != "T" {
		t.Fatalf("expected embedded object to parse, got %+v", res.Failure)
	}
}

func TestSummarize_NonJSONOutput(t *testing.T) {
	gen := &fakeGenerator{out: "  I cannot help with that.  "}
	res := New(gen, quietOptions()).Summarize(context.Background(), "q", nil)
	if res.OK() {
		t.Fatal("expected failure")
	}
	m := decode(t, res.JSON())
	if m["error"] != KindNonJSON {
		t.Fatalf("unexpected error kind %v", m["error"])
	}
	if m["message"] != "The AI summarizer gave an unexpected response. Please try again." {
		t.Fatalf("unexpected message %v", m["message"])
	}
	if m["raw_output"] != "I cannot help with that." {
		t.Fatalf("unexpected raw output %q", m["raw_output"])
	}
	if _, has := m["exception"]; has {
		t.Fatal("non_json_output should not carry an exception")
	}
}

func TestSummarize_BracesButInvalidJSON(t *testing.T) {
	res := Parse("result: {title: unquoted}")
	if res.OK() || res.Failure.Kind != KindNonJSON {
		t.Fatalf("expected non_json_output, got %+v", res)
	}
}

func TestSummarize_TopLevelArrayIsNotASummary(t *testing.T) {
	res := Parse(`["a","b"]`)
	if res.OK() || res.Failure.Kind != KindNonJSON {
		t.Fatalf("expected non_json_output, got %+v", res)
	}
}

func TestSummarize_CallError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("dial tcp: connection refused")}
	res := New(gen, quietOptions()).Summarize(context.Background(), "q", nil)
	if res.OK() {
		t.Fatal("expected failure")
	}
	m := decode(t, res.JSON())
	if m["error"] != KindCallException {
		t.Fatalf("unexpected kind %v", m["error"])
	}
	if m["exception"] != "dial tcp: connection refused" {
		t.Fatalf("unexpected exception %v", m["exception"])
	}
	if m["raw_output"] != "" {
		t.Fatalf("expected empty raw output, got %v", m["raw_output"])
	}
	if m["message"] != UserMessage(KindCallException) {
		t.Fatalf("unexpected message %v", m["message"])
	}
}

func TestSummarize_GeneratorPanicBecomesCallException(t *testing.T) {
	gen := &fakeGenerator{panics: true}
	res := New(gen, quietOptions()).Summarize(context.Background(), "q", nil)
	if res.OK() || res.Failure.Kind != KindCallException {
		t.Fatalf("expected call exception, got %+v", res)
	}
	if !strings.Contains(res.Failure.Detail, "boom") {
		t.Fatalf("expected panic value in detail, got %q", res.Failure.Detail)
	}
}

func TestSummarize_ModelEscapeHatch(t *testing.T) {
	out := `{"error":"sources were empty","raw_output":"nothing to say"}`
	res := Parse(out)
	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.Failure.Kind != KindModelError || res.Failure.Detail != "sources were empty" {
		t.Fatalf("unexpected failure %+v", res.Failure)
	}
	if res.Failure.RawOutput != "nothing to say" {
		t.Fatalf("unexpected raw output %q", res.Failure.RawOutput)
	}
	m := decode(t, res.JSON())
	if m["error"] != "sources were empty" || m["raw_output"] != "nothing to say" {
		t.Fatalf("model object not preserved: %v", m)
	}
}

func TestSummarize_SchemaMismatchKeepsObject(t *testing.T) {
	out := `{"title": null, "summary": "Warming is accelerating.", "key_points": [{"point": 7}]}`
	res := Parse(out)
	if !res.OK() || res.Failure != nil {
		t.Fatalf("expected a kept summary, got %+v", res)
	}
	if res.Title() != "" || res.Summary.Summary != "Warming is accelerating." {
		t.Fatalf("unexpected summary %+v", res.Summary)
	}
	if !strings.Contains(res.Mismatch, "/title") || strings.Contains(res.Mismatch, "file://") {
		t.Fatalf("unexpected mismatch %q", res.Mismatch)
	}
	var want, got any
	if err := json.Unmarshal([]byte(out), &want); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(res.JSON(), &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("stored object differs: %s", res.JSON())
	}
}

func TestSummarize_KeyPointsNotObjects(t *testing.T) {
	res := Parse(`{"title": "t", "key_points": ["a", {"point": "b", "detail": "c"}]}`)
	if !res.OK() || res.Mismatch == "" {
		t.Fatalf("expected a kept summary with a mismatch, got %+v", res)
	}
	if len(res.Summary.KeyPoints) != 1 || res.Summary.KeyPoints[0].Point != "b" {
		t.Fatalf("unexpected key points %+v", res.Summary.KeyPoints)
	}
	m := decode(t, res.JSON())
	if kp, _ := m["key_points"].([]any); len(kp) != 2 {
		t.Fatalf("stored key points changed: %v", m["key_points"])
	}
}

func TestDecodeSummary(t *testing.T) {
	s, ok := DecodeSummary(json.RawMessage(`{"title": 5, "summary": "s"}`))
	if !ok || s.Title != "" || s.Summary != "s" {
		t.Fatalf("unexpected decode %+v %v", s, ok)
	}
	if _, ok := DecodeSummary(json.RawMessage(`[1]`)); ok {
		t.Fatal("arrays are not summaries")
	}
}

func TestSummarize_EmptyOutput(t *testing.T) {
	res := Parse("")
	if res.OK() || res.Failure.Kind != KindNonJSON {
		t.Fatalf("expected non_json_output, got %+v", res)
	}
}

func TestBuildPrompt_CapsSourcesAndExcerpts(t *testing.T) {
	long := strings.Repeat("x", 50)
	sources := []models.Source{
		{URL: "https://one", Excerpt: long},
		{URL: "https://two", Excerpt: "short"},
		{URL: "https://three", Excerpt: "three"},
	}
	prompt := BuildPrompt(`say "hi"`, sources, 2, 10)

	if !strings.Contains(prompt, `User Query: "say \"hi\""`) {
		t.Fatalf("query not embedded: %s", prompt)
	}
	if !strings.Contains(prompt, "SOURCE 1: https://one\nEXCERPT:\n"+strings.Repeat("x", 10)+"\n") {
		t.Fatalf("first excerpt not capped: %s", prompt)
	}
	if strings.Contains(prompt, strings.Repeat("x", 11)) {
		t.Fatal("excerpt exceeded cap")
	}
	if !strings.Contains(prompt, "SOURCE 2: https://two") {
		t.Fatal("second source missing")
	}
	if strings.Contains(prompt, "https://three") {
		t.Fatal("third source should be dropped")
	}
	if !strings.Contains(prompt, "up to 2 source excerpts") {
		t.Fatal("source limit not stated")
	}
}

func TestSummarize_UsesConfiguredModel(t *testing.T) {
	gen := &fakeGenerator{out: `{"title":"t"}`}
	opts := quietOptions()
	opts.Model = "gemini-test"
	New(gen, opts).Summarize(context.Background(), "q", []models.Source{{URL: "https://a", Excerpt: "text"}})
	if gen.model != "gemini-test" {
		t.Fatalf("expected configured model, got %q", gen.model)
	}
	if !strings.Contains(gen.prompt, "https://a") {
		t.Fatal("source url missing from prompt")
	}
}

func TestResult_JSONForZeroValue(t *testing.T) {
	if got := string(Result{}.JSON()); got != "{}" {
		t.Fatalf("expected {}, got %s", got)
	}
}
