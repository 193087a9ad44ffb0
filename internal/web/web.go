// Package web serves a generated calendar over HTTP so calendar apps can
// subscribe to it while `schedcal watch` keeps it current.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"schedcal/internal/ics"
	appLog "schedcal/internal/log"
)

// BasicAuth holds HTTP Basic Auth credentials. Empty fields disable auth.
type BasicAuth struct {
	Username string
	Password string
}

// Server exposes:
//
//	GET /health           liveness, never authenticated
//	GET /calendar.ics     the calendar file as written on disk
//	GET /api/events       expanded meetings as JSON (?from=&to= dates)
type Server struct {
	path string
	auth *BasicAuth
	mux  *http.ServeMux

	// Parsed calendar, reused until the file's mtime changes.
	eventsMu    sync.Mutex
	eventsCache *eventsCache
}

type eventsCache struct {
	modTime time.Time
	result  ics.ExpandResult
}

// NewServer constructs a Server for the .ics file at path.
func NewServer(path string, auth *BasicAuth) *Server {
	s := &Server{
		path: path,
		auth: auth,
		mux:  http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr, "auth", s.basicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	return s.auth != nil && s.auth.Username != "" && s.auth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.auth.Username
	password := s.auth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="schedcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "calendar not generated yet", http.StatusServiceUnavailable)
			return
		}
		appLog.Error("calendar open failed", err, "path", s.path)
		http.Error(w, "calendar unavailable", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "calendar unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	// ServeContent handles If-Modified-Since / Range for polling clients.
	http.ServeContent(w, r, "calendar.ics", info.ModTime(), f)
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Occurrences   []occurrenceDTO `json:"occurrences"`
	TruncatedUIDs []string        `json:"truncated_uids,omitempty"`
	From          string          `json:"from,omitempty"`
	To            string          `json:"to,omitempty"`
}

// occurrenceDTO is a JSON-friendly view of one meeting. Times are
// wall-clock, formatted without offset for floating calendars.
type occurrenceDTO struct {
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

const (
	queryDateLayout = "2006-01-02"
	wallClockLayout = "2006-01-02T15:04:05"
)

// handleEvents returns expanded meetings, optionally limited to
//
//	GET /api/events?from=2024-01-08&to=2024-01-31
//
// where both bounds are inclusive dates.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseQueryDate(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseQueryDate(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	result, err := s.expanded()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusServiceUnavailable, "calendar not generated yet")
			return
		}
		appLog.Error("api events: load failed", err, "path", s.path)
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}

	dtos := make([]occurrenceDTO, 0, len(result.Occurrences))
	for _, occ := range result.Occurrences {
		day := time.Date(occ.Start.Year(), occ.Start.Month(), occ.Start.Day(), 0, 0, 0, 0, time.UTC)
		if !from.IsZero() && day.Before(from) {
			continue
		}
		if !to.IsZero() && day.After(to) {
			continue
		}
		dtos = append(dtos, occurrenceDTO{
			Title:    occ.Title,
			Location: occ.Location,
			Start:    occ.Start.Format(wallClockLayout),
			End:      occ.End.Format(wallClockLayout),
		})
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Occurrences:   dtos,
		TruncatedUIDs: result.TruncatedEvents,
		From:          q.Get("from"),
		To:            q.Get("to"),
	})
}

// expanded reads and expands the calendar, reusing the previous result
// while the file is unchanged.
func (s *Server) expanded() (ics.ExpandResult, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return ics.ExpandResult{}, err
	}

	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	if s.eventsCache != nil && s.eventsCache.modTime.Equal(info.ModTime()) {
		return s.eventsCache.result, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return ics.ExpandResult{}, err
	}
	defer f.Close()

	entries, err := ics.Read(f)
	if err != nil {
		return ics.ExpandResult{}, err
	}
	result, err := ics.Expand(entries, 0)
	if err != nil {
		return ics.ExpandResult{}, err
	}

	s.eventsCache = &eventsCache{modTime: info.ModTime(), result: result}
	return result, nil
}

func parseQueryDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(queryDateLayout, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
