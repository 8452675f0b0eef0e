package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"

	slerrors "github.com/matzehuels/slocmap/pkg/errors"
	"github.com/matzehuels/slocmap/pkg/pipeline"
	"github.com/matzehuels/slocmap/pkg/source"
	"github.com/matzehuels/slocmap/pkg/store"
	"github.com/matzehuels/slocmap/pkg/tree"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:      "image/svg+xml",
	pipeline.FormatHTML:     "text/html; charset=utf-8",
	pipeline.FormatPNG:      "image/png",
	pipeline.FormatJSON:     "application/json",
	pipeline.FormatDOT:      "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatNodelink: "image/svg+xml",
}

// response is a rendered body kept in the response cache.
type response struct {
	contentType string
	body        []byte
	etag        string
}

func newResponse(contentType string, body []byte) response {
	return response{
		contentType: contentType,
		body:        body,
		etag:        `"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`,
	}
}

// write sends resp, answering conditional requests with 304.
func (resp response) write(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", resp.etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && etagMatch(match, resp.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", resp.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.body)
}

func etagMatch(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}

type errorBody struct {
	Error   slerrors.Code `json:"error"`
	Message string        `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := slerrors.HTTPStatus(err)
	code := slerrors.GetCode(err)
	if code == "" {
		code = slerrors.ErrCodeInternal
	}
	msg := slerrors.UserMessage(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		if code == slerrors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"stats":  s.stats.Snapshot(),
	})
}

// renderOptions reads render and layout parameters from the query string.
func renderOptions(q url.Values) (pipeline.Options, error) {
	var o pipeline.Options
	var err error
	floatParam := func(name string, dst *float64) {
		if v := q.Get(name); v != "" && err == nil {
			if *dst, err = strconv.ParseFloat(v, 64); err != nil {
				err = slerrors.New(slerrors.ErrCodeInvalidInput, "invalid %s %q", name, v)
			}
		}
	}
	boolParam := func(name string, dst *bool) {
		if v := q.Get(name); v != "" && err == nil {
			if *dst, err = strconv.ParseBool(v); err != nil {
				err = slerrors.New(slerrors.ErrCodeInvalidInput, "invalid %s %q", name, v)
			}
		}
	}

	floatParam("width", &o.Width)
	floatParam("height", &o.Height)
	floatParam("padding", &o.PaddingInner)
	floatParam("scale", &o.Scale)
	boolParam("round", &o.Round)
	boolParam("bars", &o.Bars)
	boolParam("panels", &o.Panels)
	boolParam("static", &o.Static)
	boolParam("legend", &o.Legend)
	boolParam("all", &o.AllCells)
	if v := q.Get("seed"); v != "" && err == nil {
		if o.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			err = slerrors.New(slerrors.ErrCodeInvalidInput, "invalid seed %q", v)
		}
	}
	if err != nil {
		return o, err
	}
	o.Focus = strings.Trim(q.Get("focus"), "/")
	o.Title = q.Get("title")
	o.Separator = q.Get("separator")
	return o, nil
}

// cacheKey identifies a response by route and canonical query.
func cacheKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// sourceOptions resolves the tree source for a request.
func (s *Server) sourceOptions(r *http.Request, o *pipeline.Options) error {
	o.Source = s.cfg.Source
	o.InputFormat = s.cfg.InputFormat
	if src := r.URL.Query().Get("source"); src != "" {
		if !s.cfg.AllowRemote {
			return slerrors.New(slerrors.ErrCodeInvalidSource, "custom sources are disabled")
		}
		if err := slerrors.ValidateURL(src); err != nil {
			return err
		}
		o.Source = src
		o.InputFormat = r.URL.Query().Get("input")
	}
	return nil
}

func (s *Server) handleArtifact(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := cacheKey(format, r.URL.Query().Encode())
		if resp, ok := s.responses.Get(key); ok {
			resp.write(w, r)
			return
		}

		opts, err := renderOptions(r.URL.Query())
		if err == nil {
			err = s.sourceOptions(r, &opts)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		opts.Formats = []string{format}

		res, err := s.runner.Execute(r.Context(), opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp := newResponse(contentTypes[format], res.Artifacts[format])
		s.responses.Add(key, resp)
		resp.write(w, r)
	}
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	key := cacheKey("tree", r.URL.Query().Encode())
	if resp, ok := s.responses.Get(key); ok {
		resp.write(w, r)
		return
	}

	var opts pipeline.Options
	if err := s.sourceOptions(r, &opts); err != nil {
		s.writeError(w, r, err)
		return
	}
	src, err := s.runner.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := tree.WriteJSON(&buf, src.Tree, true); err != nil {
		s.writeError(w, r, slerrors.Wrap(slerrors.ErrCodeInternal, err, "encode tree"))
		return
	}
	resp := newResponse("application/json", buf.Bytes())
	s.responses.Add(key, resp)
	resp.write(w, r)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*store.Snapshot{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateSnapshot stores an uploaded tree. The body format follows the
// Content-Type (application/json, application/yaml) unless ?format= is given;
// format=gocloc accepts a gocloc report and names the root after ?name=.
func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if strings.Contains(mt, "yaml") {
			format = string(source.FormatYAML)
		}
	}
	f, err := source.ParseFormat(format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if f == source.FormatAuto {
		f = source.FormatJSON
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	src, err := s.runner.Loader.Load(r.Context(), source.Spec{
		Location: source.Stdin,
		Format:   f,
		RootName: q.Get("name"),
		Stdin:    body,
	})
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = slerrors.New(slerrors.ErrCodeInvalidInput, "upload exceeds %d bytes", s.cfg.MaxUpload)
		}
		s.writeError(w, r, err)
		return
	}

	name := q.Get("name")
	if name == "" {
		name = src.Tree.Name
	}
	snap := store.New(name, src.Tree, src.Hash, s.cfg.SnapshotTTL)
	if err := s.store.Put(r.Context(), snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("stored snapshot", "id", snap.ID, "name", name)
	w.Header().Set("Location", "/api/snapshots/"+snap.ID)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshotArtifact(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format == pipeline.Extension(pipeline.FormatNodelink) {
		format = pipeline.FormatNodelink
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	snap, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	key := cacheKey("snapshot", snap.Hash, format, r.URL.Query().Encode())
	if resp, ok := s.responses.Get(key); ok {
		resp.write(w, r)
		return
	}

	opts, err := renderOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	if opts.Title == "" {
		opts.Title = snap.Name
	}

	root, layoutHash, _, err := s.runner.LayoutWithCacheInfo(r.Context(), snap.Tree, snap.Hash, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, _, err := s.runner.RenderWithCacheInfo(r.Context(), root, layoutHash, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := newResponse(contentTypes[format], artifacts[format])
	s.responses.Add(key, resp)
	resp.write(w, r)
}
