package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/lead-makers/mapleads/internal/store"
)

// ScraperController is the process-control surface the server exposes.
type ScraperController interface {
	Start(bin string, args ...string) error
	Stop() error
	Status() (running bool, pid int, since time.Time)
}

// Server exposes the lead database read-only and the scraper lifecycle over
// HTTP. It never touches a browser; scraping happens in the child process.
type Server struct {
	leads    store.LeadStore
	progress store.ProgressStore
	runner   ScraperController

	// Command used for POST /scraper/start.
	scraperBin  string
	scraperArgs []string

	// Log file tailed by GET /logs.
	logFile string
}

func NewServer(leads store.LeadStore, progress store.ProgressStore, runner ScraperController, scraperBin string, scraperArgs []string, logFile string) *Server {
	return &Server{
		leads:       leads,
		progress:    progress,
		runner:      runner,
		scraperBin:  scraperBin,
		scraperArgs: scraperArgs,
		logFile:     logFile,
	}
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/leads", s.handleLeads)
	r.Get("/stats", s.handleStats)
	r.Get("/progress", s.handleProgress)
	r.Get("/logs", s.handleLogs)

	r.Route("/scraper", func(r chi.Router) {
		r.Post("/start", s.handleScraperStart)
		r.Post("/stop", s.handleScraperStop)
		r.Get("/status", s.handleScraperStatus)
	})

	return r
}

// ListenAndServe runs the server on the given port until the listener fails.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	log.Info().Str("addr", addr).Msg("API server listening")
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return eris.Wrap(srv.ListenAndServe(), "api server")
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.leads.List(r.Context())
	if err != nil {
		serverError(w, err, "listing leads")
		return
	}
	if leads == nil {
		leads = []store.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.leads.Stats(r.Context())
	if err != nil {
		serverError(w, err, "reading stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	records, err := s.progress.Snapshot(r.Context())
	if err != nil {
		serverError(w, err, "reading progress")
		return
	}
	if records == nil {
		records = []store.ProgressRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleLogs streams the scraper log file from a byte offset so clients can
// poll for increments. The next offset to poll from is returned in the
// X-Next-Offset header.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	offset := int64(0)
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		offset = n
	}

	f, err := os.Open(s.logFile)
	if err != nil {
		if os.IsNotExist(err) {
			w.Header().Set("X-Next-Offset", "0")
			w.WriteHeader(http.StatusOK)
			return
		}
		serverError(w, err, "opening log file")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		serverError(w, err, "reading log file")
		return
	}
	size := info.Size()
	if offset > size {
		// Log rotated or truncated, restart from the top.
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		serverError(w, err, "seeking log file")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Next-Offset", strconv.FormatInt(size, 10))
	if _, err := io.Copy(w, f); err != nil {
		log.Warn().Err(err).Msg("Log streaming interrupted")
	}
}

func (s *Server) handleScraperStart(w http.ResponseWriter, _ *http.Request) {
	if err := s.runner.Start(s.scraperBin, s.scraperArgs...); err != nil {
		if eris.Is(err, ErrAlreadyRunning) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "scraper already running"})
			return
		}
		serverError(w, err, "starting scraper")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleScraperStop(w http.ResponseWriter, _ *http.Request) {
	if err := s.runner.Stop(); err != nil {
		if eris.Is(err, ErrNotRunning) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "scraper not running"})
			return
		}
		serverError(w, err, "stopping scraper")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleScraperStatus(w http.ResponseWriter, _ *http.Request) {
	running, pid, since := s.runner.Status()
	resp := map[string]any{"running": running}
	if running {
		resp["pid"] = pid
		resp["started_at"] = since.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Response encoding failed")
	}
}

func serverError(w http.ResponseWriter, err error, msg string) {
	log.Error().Err(err).Msg(msg)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}
