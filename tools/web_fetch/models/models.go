package models

import (
	"fmt"
	"net/http"
	"strings"
)

// Page is a fetched document before extraction.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// IsPDF classifies by content type first, then by a .pdf suffix on the URL.
func (p Page) IsPDF() bool {
	if strings.Contains(strings.ToLower(p.ContentType), "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(p.URL), ".pdf")
}

// HTTPError is a non-2xx fetch response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s for url: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}
