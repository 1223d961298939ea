package server

import "github.com/mohammad-safakhou/researcher/models"

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// ResearchRequest is the JSON body of POST /api/reports.
type ResearchRequest struct {
	Query string `json:"query" form:"query"`
}

// IDResponse is returned after a report is created.
type IDResponse struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// ReportListResponse wraps history listings.
type ReportListResponse struct {
	Reports []models.ReportSummary `json:"reports"`
}
