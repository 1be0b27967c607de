package http

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/frontend"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
	"github.com/secmon-lab/itemdeck/pkg/utils/errutil"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
	"github.com/secmon-lab/itemdeck/pkg/utils/safe"
)

const defaultPageTitle = "Item List"

type Server struct {
	router    *chi.Mux
	uc        *usecase.UseCases
	events    *eventHub
	pageTitle string
	keepAlive time.Duration
	staticFS  fs.FS
}

type Options func(*Server)

func WithPageTitle(title string) Options {
	return func(s *Server) {
		s.pageTitle = title
	}
}

// WithKeepAlive sets the interval of comment frames on idle event streams.
func WithKeepAlive(d time.Duration) Options {
	return func(s *Server) {
		s.keepAlive = d
	}
}

// WithStaticFS replaces the embedded frontend.
func WithStaticFS(fsys fs.FS) Options {
	return func(s *Server) {
		s.staticFS = fsys
	}
}

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router:    r,
		uc:        uc,
		pageTitle: defaultPageTitle,
		keepAlive: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.staticFS == nil {
		staticFS, err := fs.Sub(frontend.StaticFiles, "dist")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to bind dist dir for static")
		}
		s.staticFS = staticFS
	}

	s.events = newEventHub(uc.Items)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.configHandler)
		r.Get("/state", s.stateHandler)
		r.Get("/events", s.eventsHandler)

		r.Post("/items/load", s.loadHandler)
		r.Post("/items", s.addHandler)
		r.Put("/items", s.updateHandler)
		r.Delete("/items/{id}", s.removeHandler)

		r.Put("/search", s.searchHandler)
		r.Post("/search/input", s.searchInputHandler)

		r.Post("/edit", s.beginAddHandler)
		r.Post("/edit/{id}", s.beginEditHandler)
		r.Delete("/edit", s.cancelEditHandler)

		r.Delete("/error", s.dismissErrorHandler)
	})

	// Static file serving for SPA (catch-all, must be last)
	r.Get("/*", spaHandler(s.staticFS))

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close detaches the event hub from the store and ends open event streams.
func (s *Server) Close() {
	s.events.Close()
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"),
			http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	type response struct {
		PageTitle string `json:"pageTitle"`
	}

	writeJSON(w, r, http.StatusOK, response{PageTitle: s.pageTitle})
}

// spaHandler handles SPA routing by serving static files and falling back to index.html
func spaHandler(staticFS fs.FS) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(staticFS))

	return func(w http.ResponseWriter, r *http.Request) {
		urlPath := strings.TrimPrefix(r.URL.Path, "/")

		// If the path is empty, serve index.html
		if urlPath == "" {
			urlPath = "index.html"
		}

		// Try to open the file to check if it exists
		file, err := staticFS.Open(urlPath)
		if err != nil {
			// File not found, serve index.html for SPA routing
			if indexFile, err := staticFS.Open("index.html"); err == nil {
				defer safe.Close(r.Context(), indexFile)
				w.Header().Set("Content-Type", "text/html")
				safe.Copy(r.Context(), w, indexFile)
				return
			}

			http.NotFound(w, r)
			return
		}
		safe.Close(r.Context(), file)

		fileServer.ServeHTTP(w, r)
	}
}
