package server

import (
	"encoding/json"
	stderrors "errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/spantower/pkg/buildinfo"
	"github.com/matzehuels/spantower/pkg/errors"
	"github.com/matzehuels/spantower/pkg/observability"
	"github.com/matzehuels/spantower/pkg/pipeline"
	"github.com/matzehuels/spantower/pkg/session"
	"github.com/matzehuels/spantower/pkg/zipkin"
)

var contentTypes = map[string]string{
	pipeline.FormatText:  "text/plain; charset=utf-8",
	pipeline.FormatSVG:   "image/svg+xml",
	pipeline.FormatPNG:   "image/png",
	pipeline.FormatPDF:   "application/pdf",
	pipeline.FormatJSON:  "application/json",
	pipeline.FormatHTML:  "text/html; charset=utf-8",
	pipeline.FormatDOT:   "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatGraph: "image/svg+xml",
	pipeline.FormatTree:  "application/json",
}

// traceInfo is one entry of GET /traces.
type traceInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (s *Server) handleListTraces(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.cfg.TraceDir)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "read trace dir"))
		return
	}
	traces := []traceInfo{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" || errors.ValidateTraceName(e.Name()) != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		traces = append(traces, traceInfo{Name: e.Name(), Size: info.Size()})
	}
	s.writeJSON(w, r, http.StatusOK, traces)
}

// handleTrace renders a trace without server-side state. Rows named by
// expand parameters are opened.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	path, err := s.tracePath(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	expanded := r.URL.Query()["expand"]
	for _, id := range expanded {
		if err := errors.ValidateSpanID(id); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.render(w, r, pipeline.Options{
		Source:   path,
		Expanded: expanded,
		Title:    chi.URLParam(r, "name"),
	})
}

func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	path, err := s.tracePath(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, pipeline.Options{
		Source:  path,
		Display: true,
		Title:   chi.URLParam(r, "name"),
	})
}

func (s *Server) handleDisplayToggle(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, errors.New(errors.ErrCodeReadOnly, "display-mode views cannot be toggled"))
}

// createViewRequest is the JSON body of POST /views. Form posts send the
// same field as a form value.
type createViewRequest struct {
	Trace string `json:"trace"`
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	wantJSON := isJSON(r.Header.Get("Content-Type"))
	var req createViewRequest
	if wantJSON {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
			return
		}
	} else {
		req.Trace = r.FormValue("trace")
	}

	path, err := s.tracePath(req.Trace)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := os.Stat(path); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeFileNotFound, err, "trace %s not found", req.Trace))
		return
	}

	sess := session.New(req.Trace, s.cfg.SessionTTL)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store view"))
		return
	}
	s.logger.Info("created view", "view", sess.ID, "trace", sess.Trace)
	observability.View().OnViewCreated(r.Context(), sess.Trace)

	location := "/views/" + sess.ID
	if wantJSON {
		w.Header().Set("Location", location)
		s.writeJSON(w, r, http.StatusCreated, sess)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	path, err := s.tracePath(sess.Trace)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, pipeline.Options{
		Source:    path,
		Toggles:   sess.Toggles(),
		Title:     sess.Trace,
		ToggleURL: "/views/" + sess.ID + "/toggle/",
	})
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "delete view"))
		return
	}
	observability.View().OnViewDeleted(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleToggle is the only handler that changes view state.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	defer s.views.lock(chi.URLParam(r, "id"))()

	sess, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	spanID := chi.URLParam(r, "span")
	if err := errors.ValidateSpanID(spanID); err != nil {
		s.writeError(w, r, err)
		return
	}

	path, err := s.tracePath(sess.Trace)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	root, _, err := s.runner.Load(r.Context(), pipeline.Options{Source: path})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !hasSpan(root, spanID) {
		s.writeError(w, r, errors.New(errors.ErrCodeSpanNotFound, "span %s not in trace", spanID))
		return
	}

	sess.Click(spanID)
	sess.Touch(s.cfg.SessionTTL)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store view"))
		return
	}
	s.logger.Debug("toggled", "view", sess.ID, "span", spanID, "expanded", len(sess.Expanded))
	observability.View().OnViewToggled(r.Context(), spanID, len(sess.Expanded))

	location := "/views/" + sess.ID
	if f := r.URL.Query().Get("format"); f != "" {
		location += "?format=" + f
	}
	http.Redirect(w, r, location+"#span-"+spanID, http.StatusSeeOther)
}

// render runs the pipeline for the format requested in the query.
func (s *Server) render(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatHTML
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	opts.TrackWidth = s.cfg.TrackWidth
	opts.Logger = s.logger

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Artifacts[format]); err != nil {
		s.logger.Debug("write response", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) loadSession(r *http.Request) (*session.Session, error) {
	id := chi.URLParam(r, "id")
	if !session.ValidID(id) {
		return nil, errors.New(errors.ErrCodeViewNotFound, "view %s not found", id)
	}
	sess, err := s.sessions.Get(r.Context(), id)
	switch {
	case stderrors.Is(err, session.ErrNotFound):
		return nil, errors.New(errors.ErrCodeViewNotFound, "view %s not found", id)
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load view")
	}
	return sess, nil
}

// tracePath resolves a trace name inside the trace directory.
func (s *Server) tracePath(name string) (string, error) {
	if err := errors.ValidateTraceName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.cfg.TraceDir, name), nil
}

func hasSpan(root *zipkin.SpanNode, id string) bool {
	found := false
	root.Walk(func(n *zipkin.SpanNode, _ int) bool {
		if n.ID() == id {
			found = true
		}
		return !found
	})
	return found
}

// health is the body of GET /healthz.
type health struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// errorResponse is the JSON body of every error.
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	s.writeJSON(w, r, status, errorResponse{Code: code, Error: errors.UserMessage(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.logger.Debug("write response", "path", r.URL.Path, "error", err)
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json"))
}
