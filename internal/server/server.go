package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/alecthomas/errors"

	eventbus "github.com/hanpama/schemasubset/internal/eventbus"
	events "github.com/hanpama/schemasubset/internal/events"
	language "github.com/hanpama/schemasubset/internal/language"
	reqid "github.com/hanpama/schemasubset/internal/reqid"
	schema "github.com/hanpama/schemasubset/internal/schema"
	source "github.com/hanpama/schemasubset/internal/source"
	subset "github.com/hanpama/schemasubset/internal/subset"
	usage "github.com/hanpama/schemasubset/internal/usage"
)

// Handler serves the subsetting API:
//
//	POST /subset   run a subset over the posted schema and documents
//	GET  /metrics  metrics, when configured with WithMetrics
type Handler struct {
	mux *http.ServeMux
	opt Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses.
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	Metrics http.Handler
	Logger  *slog.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithMetrics(h http.Handler) Option  { return func(o *Options) { o.Metrics = h } }
func WithLogger(l *slog.Logger) Option   { return func(o *Options) { o.Logger = l } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

func New(opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second, MaxBodyBytes: 4 << 20}
	for _, f := range opts {
		f(&op)
	}
	if op.Logger == nil {
		op.Logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{mux: http.NewServeMux(), opt: op}
	h.mux.HandleFunc("/subset", h.serveSubset)
	if op.Metrics != nil {
		h.mux.Handle("GET /metrics", op.Metrics)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	ctx = reqid.WithID(ctx, r.Header.Get(reqid.Header))
	rid, _ := reqid.FromContext(ctx)
	w.Header().Set(reqid.Header, rid)
	r = r.WithContext(ctx)

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		d := time.Since(start)
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: sw.status, Bytes: sw.bytes, Duration: d})
		h.opt.Logger.InfoContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", d,
			"requestId", rid,
		)
	}()

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(sw, r, h.opt.CORS)
	}
	h.mux.ServeHTTP(sw, r)
}

// ------------------ /subset ------------------

// SubsetRequest is the body accepted by POST /subset.
type SubsetRequest struct {
	Schema                   string   `json:"schema"`
	Documents                []string `json:"documents"`
	PropagateInputTypeFields *bool    `json:"propagateInputTypeFields,omitempty"`
}

// SubsetResponse is the body of a successful subset.
type SubsetResponse struct {
	SDL   string       `json:"sdl"`
	Usage usage.Report `json:"usage"`
	Stats subset.Stats `json:"stats"`
}

func (h *Handler) serveSubset(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		h.writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	req, status, err := parseRequest(r, h.opt.MaxBodyBytes)
	if err != nil {
		h.writeError(w, status, err)
		return
	}

	ctx := r.Context()
	res, err := h.subset(ctx, req)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		h.opt.Logger.WarnContext(ctx, "subset failed", "error", err)
		h.writeError(w, status, err)
		return
	}
	h.writeJSON(w, http.StatusOK, SubsetResponse{
		SDL:   schema.Render(res.Schema),
		Usage: res.Usage.Report(),
		Stats: res.Stats,
	})
}

func (h *Handler) subset(ctx context.Context, req SubsetRequest) (*subset.Result, error) {
	s, err := source.ParseSchema([]source.Source{{Name: "schema.graphql", Content: req.Schema}})
	if err != nil {
		return nil, err
	}
	sources := make([]source.Source, len(req.Documents))
	for i, doc := range req.Documents {
		sources[i] = source.Source{Name: fmt.Sprintf("document-%d.graphql", i), Content: doc}
	}
	docs, err := source.ParseDocuments(sources)
	if err != nil {
		return nil, err
	}

	opts := []subset.Option{subset.WithLogger(h.opt.Logger)}
	if req.PropagateInputTypeFields != nil {
		opts = append(opts, subset.WithPropagateInputTypeFields(*req.PropagateInputTypeFields))
	}
	return subset.Subset(ctx, s, docs, opts...)
}

// ------------------ Request parsing ------------------

var errBodyTooLarge = errors.New("body too large")

func parseRequest(r *http.Request, maxBody int64) (SubsetRequest, int, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			return SubsetRequest{}, http.StatusUnsupportedMediaType, errors.New("unsupported Content-Type")
		}
	}

	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return SubsetRequest{}, http.StatusBadRequest, errors.New("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return SubsetRequest{}, http.StatusRequestEntityTooLarge, errBodyTooLarge
	}

	var req SubsetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return SubsetRequest{}, http.StatusBadRequest, errors.New("invalid JSON")
	}
	if req.Schema == "" {
		return SubsetRequest{}, http.StatusBadRequest, errors.New("missing 'schema'")
	}
	return req, http.StatusOK, nil
}

// ------------------ Response formatting ------------------

type apiLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type apiError struct {
	Message   string        `json:"message"`
	Source    string        `json:"source,omitempty"`
	Locations []apiLocation `json:"locations,omitempty"`
}

type errorResult struct {
	Errors []apiError `json:"errors"`
}

// flattenErrors expands joined errors, parse errors and schema violations into
// one entry per problem.
func flattenErrors(err error) []apiError {
	for e := err; e != nil; {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			var out []apiError
			for _, inner := range joined.Unwrap() {
				out = append(out, flattenErrors(inner)...)
			}
			return out
		}
		wrapper, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = wrapper.Unwrap()
	}

	var gqlErr *language.Error
	if errors.As(err, &gqlErr) {
		e := apiError{Message: gqlErr.Message}
		e.Source, _ = gqlErr.Extensions["file"].(string)
		for _, loc := range gqlErr.Locations {
			e.Locations = append(e.Locations, apiLocation{Line: loc.Line, Column: loc.Column})
		}
		return []apiError{e}
	}

	var violations schema.ValidationError
	if errors.As(err, &violations) {
		out := make([]apiError, 0, len(violations))
		for _, v := range violations {
			e := apiError{Message: v.Message, Source: v.File}
			if v.Line > 0 {
				e.Locations = []apiLocation{{Line: v.Line, Column: v.Column}}
			}
			out = append(out, e)
		}
		return out
	}

	return []apiError{{Message: err.Error()}}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResult{Errors: flattenErrors(err)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
