package web_fetch

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns the text of every page joined by newlines, or "" when the
// document cannot be read.
func extractPDF(body []byte) (text string) {
	defer func() {
		// the pdf reader panics on some malformed cross-reference tables
		if r := recover(); r != nil {
			text = ""
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return ""
	}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		t, err := p.GetPlainText(nil)
		if err != nil {
			t = ""
		}
		pages = append(pages, t)
	}
	return strings.TrimSpace(strings.Join(pages, "\n"))
}
