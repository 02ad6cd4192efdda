package server

import (
	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/MeKo-Tech/notepeel/internal/layout"
	"github.com/MeKo-Tech/notepeel/internal/profile"
	"github.com/MeKo-Tech/notepeel/internal/version"
)

// Response types for API endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Build  version.BuildInfo `json:"build"`
	Time   string            `json:"time"`
}

type ProfileInfo struct {
	Name     string           `json:"name"`
	Default  bool             `json:"default"`
	Settings profile.Settings `json:"settings"`
}

type ProfilesResponse struct {
	Profiles []ProfileInfo `json:"profiles"`
	Count    int           `json:"count"`
}

// AnalyzeRequest is the JSON body of POST /analyze. Text may be empty when
// the layout carries its own text.
type AnalyzeRequest struct {
	Text    string           `json:"text"`
	Layout  *layout.Document `json:"layout,omitempty"`
	Profile string           `json:"profile,omitempty"`
	Format  string           `json:"format,omitempty"`
}

type AnalyzeResponse struct {
	Success      bool                         `json:"success"`
	RequestID    string                       `json:"request_id,omitempty"`
	Profile      string                       `json:"profile"`
	RawText      string                       `json:"raw_text"`
	Document     *document.StructuredDocument `json:"document"`
	ProcessingMS float64                      `json:"processing_ms"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
