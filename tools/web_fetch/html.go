package web_fetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// boilerplate is removed before the goquery fallback reads body text.
const boilerplate = "script, style, noscript, template, iframe, svg, form, nav, header, footer, aside"

// extractHTML decodes body as UTF-8, dropping invalid bytes, and returns the
// main text. go-readability does the boilerplate stripping; when it finds no
// article the visible body text is used instead.
func extractHTML(body []byte, pageURL string) string {
	doc := strings.ToValidUTF8(string(body), "")
	if strings.TrimSpace(doc) == "" {
		return ""
	}
	if text := readableText(doc, pageURL); text != "" {
		return text
	}
	return bodyText(doc)
}

func readableText(doc, pageURL string) string {
	article, err := readability.FromReader(strings.NewReader(doc), mustParseURL(pageURL))
	if err != nil {
		return ""
	}
	return normalizeLines(article.TextContent)
}

func bodyText(doc string) string {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return ""
	}
	gq.Find(boilerplate).Remove()
	return normalizeLines(gq.Find("body").Text())
}

// normalizeLines trims every line and drops blank ones.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
