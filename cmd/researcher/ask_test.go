package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/researcher/models"
)

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, models.Report{
		ID:      12,
		Title:   "Tides",
		Status:  models.StatusPartial,
		Summary: json.RawMessage(`{"summary":"Moon pulls water.","key_points":[{"point":"Gravity","detail":"mostly lunar"},{"point":"Two bulges"}]}`),
		Sources: json.RawMessage(`[{"url":"https://a.example","title":"A","excerpt":"x"}]`),
		Notes:   "https://b.example skipped: fetch_error: 404",
	})
	out := buf.String()
	for _, want := range []string{"#12 Tides [partial]", "Moon pulls water.", "- Gravity: mostly lunar", "- Two bulges\n", `[1] A "x" (a.example) <https://a.example>`, "fetch_error: 404"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrintReportSummaryError(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, models.Report{
		ID:      1,
		Title:   "q",
		Status:  models.StatusPartial,
		Summary: json.RawMessage(`{"error":"non_json_output","message":"The AI summarizer gave an unexpected response. Please try again.","raw_output":"oops"}`),
	})
	if !strings.Contains(buf.String(), "unexpected response") {
		t.Fatalf("expected failure message, got:\n%s", buf.String())
	}
}
