package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/render/sink"
	"github.com/matzehuels/stagegraph/pkg/runner"
	"github.com/matzehuels/stagegraph/pkg/selection"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// ClickPrefix is the path prefix clicks are posted to.
const ClickPrefix = "/api/click/"

// maxStagesBody caps PUT /api/stages bodies.
const maxStagesBody = 1 << 20

var contentTypes = map[string]string{
	runner.FormatSVG:  "image/svg+xml",
	runner.FormatPNG:  "image/png",
	runner.FormatPDF:  "application/pdf",
	runner.FormatJSON: "application/json",
	runner.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>stagegraph</title></head>
<body>
<object id="graph" type="image/svg+xml" data="/graph.svg"></object>
</body>
</html>
`

// snapshot applies the caller's selection to the view and returns the
// current model with the selection resolved against it.
func (s *Server) snapshot(ctx context.Context) (*layout.Model, selection.State, error) {
	s.mu.Lock()
	m, sel, stored := s.applySelection(ctx)
	s.mu.Unlock()
	return m, sel, s.dropStale(ctx, stored, sel)
}

// applySelection selects the caller's stored node in the view. Callers
// must hold s.mu. It returns the stored key alongside the result so a key
// whose node disappeared can be dropped with dropStale.
func (s *Server) applySelection(ctx context.Context) (*layout.Model, selection.State, string) {
	stored := ""
	if sess := sessionFrom(ctx); sess != nil {
		stored = sess.SelectedKey
	}
	if stored == "" || s.view.SelectKey(ctx, stored) != nil {
		s.view.ClearSelection(ctx)
	}
	return s.view.Model(), s.view.Selection(), stored
}

func (s *Server) dropStale(ctx context.Context, stored string, sel selection.State) error {
	if sel.Key == stored {
		return nil
	}
	return s.saveSelection(ctx, sel.Key)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(indexHTML))
}

// handleGraph renders /graph.<format>. Query parameters: viz (pipeline or
// nodelink), scale (PNG only), detailed (nodelink labels).
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := chi.URLParam(r, "format")
	q := r.URL.Query()

	opts := runner.Options{
		VizType:  q.Get("viz"),
		Formats:  []string{format},
		Detailed: q.Get("detailed") == "true",
	}
	if opts.VizType == "" {
		opts.VizType = runner.VizPipeline
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid scale %q", v))
			return
		}
		opts.Scale = scale
	}
	if opts.VizType == runner.VizPipeline && format == runner.FormatSVG {
		opts.ClickEndpoint = ClickPrefix
	}

	m, sel, err := s.snapshot(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	opts.SelectedKey = sel.Key

	artifacts, err := s.runner.Render(ctx, m, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(artifacts[format])
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	m, _, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := layout.MarshalModel(m)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "marshal layout"))
		return
	}
	writeRaw(w, "application/json", data)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s.mu.Lock()
	m, sel, stored := s.applySelection(ctx)
	scene := s.view.Scene()
	s.mu.Unlock()
	if err := s.dropStale(ctx, stored, sel); err != nil {
		writeError(w, err)
		return
	}

	data, err := sink.RenderJSON(scene, sink.WithJSONSelected(sel.Key), sink.WithJSONConstants(m.Constants))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "marshal scene"))
		return
	}
	writeRaw(w, "application/json", data)
}

type stagesResponse struct {
	Relayout bool `json:"relayout"`
	Stages   int  `json:"stages"`
	Nodes    int  `json:"nodes"`
}

// handlePutStages replaces the stage list. The body is a stage document in
// JSON ({"stages": [...]} or a bare array).
func (s *Server) handlePutStages(w http.ResponseWriter, r *http.Request) {
	stages, err := stage.Read(http.MaxBytesReader(w, r.Body, maxStagesBody), stage.FormatJSON)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	relayout := s.view.SetStages(stages)
	nodes := len(s.view.Model().Nodes)
	s.mu.Unlock()

	if relayout {
		s.logger.Info("stages replaced", "stages", len(stages), "nodes", nodes)
	}
	writeJSON(w, http.StatusOK, stagesResponse{Relayout: relayout, Stages: len(stages), Nodes: nodes})
}

type clickResponse struct {
	Reported bool             `json:"reported"`
	Click    *selection.Click `json:"click,omitempty"`
	Selected string           `json:"selected,omitempty"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "key")
	if err := errors.ValidateNodeKey(key); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	s.applySelection(ctx)
	click, reported, err := s.view.Click(ctx, key)
	selected := s.view.Selection().Key
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.saveSelection(ctx, selected); err != nil {
		writeError(w, err)
		return
	}

	resp := clickResponse{Reported: reported, Selected: selected}
	if reported {
		resp.Click = &click
		s.logger.Info("node clicked", "name", click.Name, "id", click.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

type selectionResponse struct {
	Selected string       `json:"selected,omitempty"`
	Node     *layout.Node `json:"node,omitempty"`
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	m, sel, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := selectionResponse{Selected: sel.Key}
	if n, ok := sel.Resolve(m); ok {
		resp.Node = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	if err := s.saveSelection(r.Context(), ""); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
