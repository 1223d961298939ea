package models

import (
	"encoding/json"
	"testing"
)

func TestReportSummaryError(t *testing.T) {
	cases := []struct {
		name    string
		summary string
		wantMsg string
		wantOK  bool
	}{
		{"error with message", `{"error":"gemini_call_exception","message":"try later"}`, "try later", true},
		{"error without message", `{"error":"model_error","raw_output":"x"}`, "", false},
		{"success summary", `{"title":"t","summary":"s"}`, "", false},
		{"empty object", `{}`, "", false},
		{"not an object", `[1,2]`, "", false},
		{"empty column", ``, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Report{Summary: json.RawMessage(tc.summary)}
			msg, ok := r.SummaryError()
			if ok != tc.wantOK || msg != tc.wantMsg {
				t.Fatalf("SummaryError() = %q, %v; want %q, %v", msg, ok, tc.wantMsg, tc.wantOK)
			}
		})
	}
}

func TestReportSourceList(t *testing.T) {
	r := Report{Sources: json.RawMessage(`[{"url":"https://a","title":"A","excerpt":"aa"}]`)}
	got, err := r.SourceList()
	if err != nil {
		t.Fatalf("SourceList: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://a" || got[0].Excerpt != "aa" {
		t.Fatalf("unexpected sources: %+v", got)
	}

	empty, err := Report{}.SourceList()
	if err != nil || empty != nil {
		t.Fatalf("expected nil sources for empty column, got %v %v", empty, err)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusOK, StatusPartial, StatusFailed} {
		if !s.Valid() {
			t.Fatalf("%q should be valid", s)
		}
	}
	if Status("done").Valid() {
		t.Fatal("unexpected valid status")
	}
}
