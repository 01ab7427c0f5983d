// Package server serves the steps page locally and reloads it when the CSV changes.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mweers/mweers.github.io/internal/config"
	"github.com/mweers/mweers.github.io/internal/format"
	"github.com/mweers/mweers.github.io/internal/layout"
	"github.com/mweers/mweers.github.io/internal/mapping"
	"github.com/mweers/mweers.github.io/internal/page"
	"github.com/mweers/mweers.github.io/internal/stats"
	"github.com/mweers/mweers.github.io/internal/steps"
)

// maxDimension bounds the container size accepted by /grid.svg.
const maxDimension = 20000

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg     config.Config
	palette mapping.Palette
	store   *Store
	log     *zap.Logger
	router  chi.Router
}

func New(cfg config.Config, store *Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	p, err := cfg.BuildPalette()
	if err != nil {
		log.Warn("invalid palette, using defaults", zap.Error(err))
		p = mapping.DefaultPalette()
	}
	s := &Server{cfg: cfg, palette: p, store: store, log: log}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", s.handleIndex)
	r.Get("/grid.svg", s.handleGrid)
	r.Get("/steps.csv", s.handleCSV)
	r.Get("/api/summary", s.handleSummary)
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down gracefully. For local-file
// sources with watching enabled, it also reloads the store on file changes.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("serving", zap.String("url", "http://"+ln.Addr().String()), zap.String("source", s.store.Source()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if s.cfg.Server.Watch && steps.KindOf(s.store.Source()) == steps.KindFile {
		w, err := NewWatcher(s.store.Source(), s.cfg.Server.Debounce.Duration, s.reload, s.log)
		if err != nil {
			s.log.Warn("file watching disabled", zap.Error(err))
		} else {
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	return g.Wait()
}

func (s *Server) reload(ctx context.Context) {
	if err := s.store.Reload(ctx); err != nil {
		s.log.Warn("reload failed", zap.Error(err))
		return
	}
	s.log.Info("reloaded", zap.Int("days", s.store.Snapshot().Summary.Days))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	var buf bytes.Buffer
	status := http.StatusOK
	var err error
	if snap.Err != nil {
		status = http.StatusInternalServerError
		err = page.RenderError(&buf, format.ErrorReport(snap.Err))
	} else {
		err = page.Render(&buf, page.Data{
			Source:    s.store.Source(),
			Palette:   s.palette,
			Summary:   snap.Summary,
			Grid:      page.BuildGrid(snap.Days, s.palette, s.cfg.Layout.Mode, s.cfg.Container()),
			FadeInMs:  s.cfg.Tooltip.FadeInMs,
			FadeOutMs: s.cfg.Tooltip.FadeOutMs,
			Live:      true,
			Generated: snap.Loaded,
		})
	}
	if err != nil {
		s.log.Error("render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	c := s.cfg.Container()
	q := r.URL.Query()
	if v := q.Get("w"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid w", http.StatusBadRequest)
			return
		}
		c.Width = min(n, maxDimension)
	}
	if v := q.Get("h"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid h", http.StatusBadRequest)
			return
		}
		c.Height = min(n, maxDimension)
	}

	snap := s.store.Snapshot()
	if snap.Err != nil {
		http.Error(w, snap.Err.Error(), http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := page.RenderGrid(&buf, page.BuildGrid(snap.Days, s.palette, s.cfg.Layout.Mode, c)); err != nil {
		s.log.Error("render grid", zap.Error(err))
		http.Error(w, "failed to render grid", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	if steps.KindOf(s.store.Source()) != steps.KindFile {
		http.NotFound(w, r)
		return
	}
	snap := s.store.Snapshot()
	if snap.Raw == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(snap.Raw)
}

type summaryResponse struct {
	Source  string            `json:"source"`
	Loaded  time.Time         `json:"loaded"`
	Summary stats.Summary     `json:"summary"`
	Legend  []page.LegendItem `json:"legend"`
	Grid    layout.Grid       `json:"grid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap.Err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: snap.Err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Source:  s.store.Source(),
		Loaded:  snap.Loaded,
		Summary: snap.Summary,
		Legend:  page.Legend(s.palette),
		Grid:    layout.Fit(len(snap.Days), s.cfg.Container()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
