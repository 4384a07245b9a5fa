package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/buildinfo"
	"github.com/kiranandcode/axiom-profiler-2/pkg/cache"
	"github.com/kiranandcode/axiom-profiler-2/pkg/disabler"
	perrors "github.com/kiranandcode/axiom-profiler-2/pkg/errors"
	"github.com/kiranandcode/axiom-profiler-2/pkg/filter"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	pio "github.com/kiranandcode/axiom-profiler-2/pkg/io"
	"github.com/kiranandcode/axiom-profiler-2/pkg/render/dot"
)

// maxBodyBytes bounds POST bodies; filter chains are short.
const maxBodyBytes = 1 << 16

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", s.stats)
		r.Get("/view", s.getView)
		r.Post("/view", s.postView)
		r.Get("/nodes/{id}", s.node)
		r.Get("/nodes/{id}/reach", s.reach)
		r.Get("/edges", s.edges)
		r.Get("/render", s.render)
	})
	return r
}

// ----- Types -----

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Trace   string `json:"trace"`
	Nodes   int    `json:"nodes"`
}

// ViewRequest selects a new view.
type ViewRequest struct {
	Chain     string   `json:"chain"`
	Disablers []string `json:"disablers"`
}

// ViewResponse describes the current view.
type ViewResponse struct {
	Chain        string   `json:"chain"`
	ChainKey     string   `json:"chain_key"`
	Disablers    []string `json:"disablers"`
	Visible      int      `json:"visible"`
	Nodes        []int    `json:"nodes"`
	LongestPath  []int    `json:"longest_path,omitempty"`
	LoopTerms    []string `json:"matching_loop_terms,omitempty"`
	Unavailable  []string `json:"unavailable,omitempty"`
	VisibleEdges int      `json:"visible_edges"`
}

// ReachResponse lists what a node connects to.
type ReachResponse struct {
	Root        int   `json:"root"`
	Component   int   `json:"component"`
	Ancestors   []int `json:"ancestors"`
	Descendants []int `json:"descendants"`
}

// EdgeResponse is one visible edge with its description.
type EdgeResponse struct {
	From int `json:"from"`
	To   int `json:"to"`
	analysis.EdgeInfo
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ----- Handlers -----

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: buildinfo.Version,
		Trace:   s.session.Trace().Hash(),
		Nodes:   s.session.Graph().NodeCount(),
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	top := -1
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, perrors.New(perrors.ErrCodeInvalidInput, "top must be a non-negative integer, got %q", v))
			return
		}
		top = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	key := s.keyer.StatsKey(s.session.Trace().Hash())
	var st analysis.Stats
	ok, err := cache.GetJSON(ctx, s.cache, "stats", key, &st)
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "error", err)
	}
	if !ok {
		st = analysis.ComputeStats(s.session.Trace(), s.session.Graph())
		if err := cache.SetJSON(ctx, s.cache, "stats", key, st, s.ttl); err != nil {
			s.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	st.TopInstantiations = st.Top(top)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) getView(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.viewResponse(s.outputs))
}

func (s *Server) postView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode view request"))
		return
	}

	ds := make([]disabler.Disabler, 0, len(req.Disablers))
	for _, name := range req.Disablers {
		d, err := disabler.Parse(name)
		if err != nil {
			writeError(w, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "disablers"))
			return
		}
		ds = append(ds, d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chain, err := filter.ParseChain(req.Chain, s.session.Graph())
	if err != nil {
		writeError(w, perrors.Wrap(perrors.ErrCodeInvalidFilter, err, "chain"))
		return
	}
	view, err := s.session.View(r.Context(), chain, ds)
	if err != nil {
		writeError(w, err)
		return
	}
	s.outputs = view.Outputs
	writeJSON(w, http.StatusOK, s.viewResponse(view.Outputs))
}

func (s *Server) node(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodeParam(w, r)
	if !ok {
		return
	}
	info, _ := analysis.DescribeNode(s.session.Trace(), s.session.Graph(), n)
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) reach(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodeParam(w, r)
	if !ok {
		return
	}
	res, err := s.session.Reach(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReachResponse{
		Root:        res.Root.Index(),
		Component:   res.Component,
		Ancestors:   indices(res.Ancestors),
		Descendants: indices(res.Descendants),
	})
}

func (s *Server) edges(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, g := s.session.Trace(), s.session.Graph()
	visible := g.VisibleEdges()
	out := make([]EdgeResponse, len(visible))
	for i, e := range visible {
		out[i] = EdgeResponse{From: e.From.Index(), To: e.To.Index(), EdgeInfo: analysis.DescribeEdge(tr, g, e)}
	}
	writeJSON(w, http.StatusOK, out)
}

var contentTypes = map[string]string{
	"dot":  "text/vnd.graphviz; charset=utf-8",
	"svg":  "image/svg+xml",
	"png":  "image/png",
	"json": "application/json",
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "svg"
	}
	ctype, ok := contentTypes[format]
	if !ok {
		writeError(w, perrors.New(perrors.ErrCodeInvalidInput, "unknown format %q (want dot, svg, png or json)", format))
		return
	}
	detailed, _ := strconv.ParseBool(q.Get("detailed"))

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	key := s.keyer.RenderKey(s.viewKey(), cache.RenderKeyOpts{Format: format, Detailed: detailed})
	data, hit, err := cache.GetRaw(ctx, s.cache, "render", key)
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "error", err)
	}
	if !hit {
		src := dot.ToDOT(s.session.Trace(), s.session.Graph(), dot.Options{
			Detailed:  detailed,
			Highlight: longestPath(s.outputs),
		})
		switch format {
		case "dot":
			data = []byte(src)
		case "svg":
			data, err = dot.RenderSVG(ctx, src)
		case "png":
			data, err = dot.RenderPNG(ctx, src)
		case "json":
			var buf bytes.Buffer
			err = pio.WriteJSON(s.session.Trace(), s.session.Graph(), &buf)
			data = buf.Bytes()
		}
		if err != nil {
			writeError(w, perrors.Wrap(perrors.ErrCodeInternal, err, "render %s", format))
			return
		}
		if err := cache.SetRaw(ctx, s.cache, "render", key, data, s.ttl); err != nil {
			s.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}

	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ----- Helpers -----

// viewKey identifies the current view for the cache. Caller holds s.mu.
func (s *Server) viewKey() string {
	names := make([]string, 0)
	for _, d := range s.session.Disablers() {
		names = append(names, d.String())
	}
	return s.keyer.ViewKey(s.session.Trace().Hash(), cache.ViewKeyOpts{
		ChainHash: s.session.Chain().Hash(),
		Disablers: names,
	})
}

func (s *Server) viewResponse(outs []filter.Output) ViewResponse {
	g := s.session.Graph()
	chain := s.session.Chain()
	resp := ViewResponse{
		Chain:        chain.String(),
		ChainKey:     chain.Key(),
		Disablers:    make([]string, 0),
		Visible:      g.VisibleCount(),
		Nodes:        indices(g.VisibleNodes()),
		VisibleEdges: len(g.VisibleEdges()),
	}
	for _, d := range s.session.Disablers() {
		resp.Disablers = append(resp.Disablers, d.String())
	}
	for i, out := range outs {
		switch out.Kind {
		case filter.OutputLongestPath:
			resp.LongestPath = indices(out.LongestPath)
		case filter.OutputMatchingLoopTerms:
			resp.LoopTerms = append(resp.LoopTerms, out.MatchingLoopTerms...)
		case filter.OutputUnavailable:
			if i < len(chain) {
				resp.Unavailable = append(resp.Unavailable, chain[i].String())
			}
		}
	}
	return resp
}

func (s *Server) nodeParam(w http.ResponseWriter, r *http.Request) (instgraph.NodeIdx, bool) {
	raw := chi.URLParam(r, "id")
	i, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, perrors.New(perrors.ErrCodeInvalidInput, "node id must be an integer, got %q", raw))
		return instgraph.NodeIdx{}, false
	}
	n, err := s.session.NodeByIndex(i)
	if err != nil {
		writeError(w, err)
		return instgraph.NodeIdx{}, false
	}
	return n, true
}

func longestPath(outs []filter.Output) []instgraph.NodeIdx {
	var path []instgraph.NodeIdx
	for _, out := range outs {
		if out.Kind == filter.OutputLongestPath {
			path = out.LongestPath
		}
	}
	return path
}

func indices(ns []instgraph.NodeIdx) []int {
	out := make([]int, len(ns))
	for i, n := range ns {
		out[i] = n.Index()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error code to an HTTP status.
func statusFor(code perrors.Code) int {
	switch code {
	case perrors.ErrCodeInvalidInput, perrors.ErrCodeInvalidFilter, perrors.ErrCodeInvalidPath,
		perrors.ErrCodeInvalidTrace, perrors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case perrors.ErrCodeNotFound:
		return http.StatusNotFound
	case perrors.ErrCodeGraphShape:
		return http.StatusUnprocessableEntity
	case perrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := perrors.GetCode(err)
	writeJSON(w, statusFor(code), ErrorResponse{
		Error: perrors.UserMessage(err),
		Code:  string(code),
	})
}
