package http

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/logging"
	"github.com/secmon-lab/intake/pkg/utils/safe"
)

const (
	defaultMaxUploadSize = 32 << 20
	maxJSONBodySize      = 1 << 20
)

type Server struct {
	router        *chi.Mux
	uc            *usecase.UseCases
	staticFS      fs.FS
	maxUploadSize int64
}

type Options func(*Server)

// WithStaticFS serves a built frontend from fsys for every non-API path
func WithStaticFS(fsys fs.FS) Options {
	return func(s *Server) {
		s.staticFS = fsys
	}
}

// WithMaxUploadSize limits multipart bodies of attachment and import uploads
func WithMaxUploadSize(n int64) Options {
	return func(s *Server) {
		s.maxUploadSize = n
	}
}

func New(uc *usecase.UseCases, opts ...Options) (*Server, error) {
	if uc == nil {
		return nil, goerr.New("use cases are required")
	}
	if uc.Auth == nil {
		return nil, goerr.New("authenticator is required; configure an OAuth client ID or --no-auth")
	}

	r := chi.NewRouter()
	s := &Server{
		router:        r,
		uc:            uc,
		maxUploadSize: defaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(uc.Auth))

		r.Get("/me", meHandler(uc.Auth))
		r.Get("/staff", listStaffHandler(uc.Staff))
		r.Post("/import", importHandler(uc.Import, s.maxUploadSize))

		r.Route("/cases", func(r chi.Router) {
			r.Post("/", createCaseHandler(uc.Case))
			r.Get("/", listCasesHandler(uc.Case))

			r.Route("/{caseID}", func(r chi.Router) {
				r.Get("/", getCaseHandler(uc.Case))
				r.Patch("/", updateCaseHandler(uc.Case))
				r.Put("/status", updateStatusHandler(uc.Case))
				r.Post("/assignees/toggle", toggleAssigneeHandler(uc.Case))
				r.Post("/assignees/me", assignToMeHandler(uc.Case))
				r.Put("/schedule", updateScheduleHandler(uc.Case))
				r.Post("/provision", provisionHandler(uc.Dispatch))

				r.Get("/records", listRecordsHandler(uc.Record))
				r.Post("/records", addRecordHandler(uc.Record, s.maxUploadSize))

				r.Get("/ai", listExchangesHandler(uc.Assistant))
				r.Post("/ai", askHandler(uc.Assistant))
			})
		})
	})

	// Static file serving for SPA (catch-all, must be last)
	if s.staticFS != nil {
		r.Get("/*", spaHandler(s.staticFS))
	}

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger binds a logger tagged with the request ID to the request
// context
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(logging.With(r.Context(), logger)))
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// spaHandler handles SPA routing by serving static files and falling back to index.html
func spaHandler(staticFS fs.FS) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(staticFS))

	return func(w http.ResponseWriter, r *http.Request) {
		urlPath := strings.TrimPrefix(r.URL.Path, "/")
		if urlPath == "" {
			urlPath = "index.html"
		}

		file, err := staticFS.Open(urlPath)
		if err != nil {
			// Unknown path: let the client router handle it
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
