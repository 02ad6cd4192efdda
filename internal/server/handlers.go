package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MeKo-Tech/notepeel/internal/analyzer"
	"github.com/MeKo-Tech/notepeel/internal/document"
	"github.com/MeKo-Tech/notepeel/internal/profile"
	"github.com/MeKo-Tech/notepeel/internal/render"
	"github.com/MeKo-Tech/notepeel/internal/source"
	"github.com/MeKo-Tech/notepeel/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Build:  version.Info(),
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// profilesHandler lists the registered detection profiles.
func (s *Server) profilesHandler(w http.ResponseWriter, _ *http.Request) {
	names := profile.Names()
	resp := ProfilesResponse{Profiles: make([]ProfileInfo, 0, len(names)), Count: len(names)}
	for _, name := range names {
		resp.Profiles = append(resp.Profiles, ProfileInfo{
			Name:     name,
			Default:  name == s.defaultProfile.Name(),
			Settings: profile.MustLookup(name).Settings(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// analyzeHandler accepts either a JSON AnalyzeRequest or a multipart upload
// with a "file" field plus optional "profile" and "format" fields. The
// profile and format may also be given as query parameters.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	var (
		in      *analyzer.Input
		req     AnalyzeRequest
		err     error
		started = time.Now()
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		in, req, err = s.readMultipart(r)
	} else {
		in, req, err = readJSONRequest(r)
	}
	if err != nil {
		analysisRequestsTotal.WithLabelValues("http", "error").Inc()
		s.writeRequestError(w, r, err)
		return
	}

	if req.Profile == "" {
		req.Profile = r.URL.Query().Get("profile")
	}
	if req.Format == "" {
		req.Format = r.URL.Query().Get("format")
	}
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		analysisRequestsTotal.WithLabelValues("http", "error").Inc()
		writeError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	doc, p, err := s.analyze(in, req.Profile)
	if err != nil {
		analysisRequestsTotal.WithLabelValues("http", "error").Inc()
		writeError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	elapsed := time.Since(started)
	analysisRequestsTotal.WithLabelValues("http", "success").Inc()
	analysisDuration.WithLabelValues("http").Observe(elapsed.Seconds())

	if format != render.JSON {
		var buf bytes.Buffer
		if err := render.Render(&buf, doc, format); err != nil {
			writeError(w, r, fmt.Sprintf("rendering failed: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", render.ContentType(format))
		_, _ = w.Write(buf.Bytes())
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Success:      true,
		RequestID:    middleware.GetReqID(r.Context()),
		Profile:      p.Name(),
		RawText:      in.Text,
		Document:     doc,
		ProcessingMS: float64(elapsed.Microseconds()) / 1000,
	})
}

// readMultipart decodes the uploaded "file" field with the source sniffer.
func (s *Server) readMultipart(r *http.Request) (*analyzer.Input, AnalyzeRequest, error) {
	var req AnalyzeRequest
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		return nil, req, fmt.Errorf("failed to parse form data: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req.Profile = r.FormValue("profile")
	req.Format = r.FormValue("format")

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, req, fmt.Errorf("%w: no file provided", source.ErrEmptyInput)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, req, fmt.Errorf("failed to read upload: %w", err)
	}
	uploadSizeBytes.Observe(float64(len(data)))

	in, err := source.Decode(data, header.Filename, header.Header.Get("Content-Type"))
	return in, req, err
}

func readJSONRequest(r *http.Request) (*analyzer.Input, AnalyzeRequest, error) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, req, fmt.Errorf("invalid JSON body: %w", err)
	}
	in, err := source.FromParts(req.Text, req.Layout)
	return in, req, err
}

// analyze resolves the requested profile and runs the analyzer.
func (s *Server) analyze(in *analyzer.Input, profileName string) (*document.StructuredDocument, *profile.Profile, error) {
	p := s.defaultProfile
	if profileName != "" && profileName != p.Name() {
		var err error
		if p, err = profile.Lookup(profileName); err != nil {
			return nil, nil, err
		}
	}
	doc := analyzer.Analyze(*in, p)
	observeDocument(doc)
	return doc, p, nil
}

// writeRequestError maps input errors to status codes: 413 for oversize
// bodies, 400 for everything the client can fix.
func (s *Server) writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		writeError(w, r, fmt.Sprintf("request body exceeds %d bytes", s.maxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	writeError(w, r, err.Error(), http.StatusBadRequest)
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message string, status int) {
	writeJSON(w, status, ErrorResponse{
		Success:   false,
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
