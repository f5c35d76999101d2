// Package server exposes a loaded function export over HTTP so a graph can
// be previewed or fetched from outside the terminal.
//
// Routes:
//
//	GET /healthz                          liveness
//	GET /views                            available views with block/edge/line counts
//	GET /dot?mode=&font=&size=            DOT text
//	GET /image?mode=&font=&size=&format=  rendered image
//
// Query parameters fall back to the configured defaults. When rendering
// fails /image answers 502 with a placeholder PNG so embedding pages still
// get an image.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/cfgdot/pkg/cfg"
	"github.com/matzehuels/cfgdot/pkg/config"
	"github.com/matzehuels/cfgdot/pkg/dot"
	"github.com/matzehuels/cfgdot/pkg/errors"
	"github.com/matzehuels/cfgdot/pkg/raster"
)

const shutdownTimeout = 5 * time.Second

// Server serves one function export.
type Server struct {
	conf   config.Config
	logger *log.Logger
	// rasterizers per output format
	rast map[raster.Format]raster.Rasterizer

	mu sync.RWMutex
	fn cfg.Function

	router chi.Router
}

// New builds a server for fn. Images in each format are produced by the
// matching rasterizer; formats without one are rejected.
func New(c config.Config, fn cfg.Function, rasterizers map[raster.Format]raster.Rasterizer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{conf: c, logger: logger, rast: rasterizers, fn: fn}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/views", s.handleViews)
	r.Get("/dot", s.handleDot)
	r.Get("/image", s.handleImage)
	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// SetFunction replaces the served function, e.g. after the export changed.
func (s *Server) SetFunction(fn cfg.Function) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

func (s *Server) function() cfg.Function {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fn
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type healthResponse struct {
	Status   string `json:"status"`
	Function string `json:"function"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	name := ""
	if fn := s.function(); fn != nil {
		name = fn.Name()
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Function: name})
}

// ViewInfo describes one view in the /views response.
type ViewInfo struct {
	Kind      cfg.Kind `json:"kind"`
	Name      string   `json:"name"`
	Available bool     `json:"available"`
	Blocks    int      `json:"blocks"`
	Edges     int      `json:"edges"`
	Lines     int      `json:"lines"`
}

type viewsResponse struct {
	Function string     `json:"function"`
	Views    []ViewInfo `json:"views"`
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	fn := s.function()
	if fn == nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "no function loaded"))
		return
	}

	resp := viewsResponse{Function: fn.Name()}
	for _, k := range cfg.Kinds {
		info := ViewInfo{Kind: k, Name: k.DisplayName()}
		if v, err := fn.View(k); err == nil {
			st := cfg.StatsOf(v)
			info.Available = true
			info.Blocks, info.Edges, info.Lines = st.Blocks, st.Edges, st.Lines
		}
		resp.Views = append(resp.Views, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDot(w http.ResponseWriter, r *http.Request) {
	text, err := s.format(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	format, err := raster.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	rz, ok := s.rast[format]
	if !ok {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "format %s is not served", format))
		return
	}

	text, err := s.format(r)
	if err != nil {
		writeError(w, err)
		return
	}

	img, err := rz.Rasterize(r.Context(), text)
	if err != nil {
		s.logger.Warn("render failed", "request_id", RequestIDFrom(r.Context()), "err", err)
		s.writePlaceholder(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (s *Server) writePlaceholder(w http.ResponseWriter, cause error) {
	img, err := raster.Placeholder(0, 0, "render failed: "+errors.UserMessage(cause))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeRenderFailed, cause, "render failed"))
		return
	}
	w.Header().Set("Content-Type", raster.FormatPNG.ContentType())
	w.WriteHeader(http.StatusBadGateway)
	_, _ = w.Write(img)
}

// format resolves the request's view options and produces the DOT text.
func (s *Server) format(r *http.Request) (string, error) {
	fn := s.function()
	if fn == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "no function loaded")
	}

	q := r.URL.Query()
	mode := cfg.KindAsm
	if m := q.Get("mode"); m != "" {
		k, err := cfg.ParseKind(m)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidView, err, "bad mode")
		}
		mode = k
	}

	font := s.conf.DefaultFont
	if f := q.Get("font"); f != "" {
		font = f
	}

	size := s.conf.DefaultFontSize
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", errors.New(errors.ErrCodeInvalidInput, "size %q is not an integer", v)
		}
		size = n
	}
	size = config.ClampFontSize(size)

	view, err := fn.View(mode)
	if err != nil {
		return "", err
	}
	return dot.Format(view, font, size), nil
}

type errorResponse struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorResponse{Error: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidView, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeViewUnavailable, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRenderFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
