package server

import (
	"context"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"personnel-records/internal/records"
	"personnel-records/internal/uploads"
)

// Config carries the dependencies of a Server.
type Config struct {
	Addr    string // e.g. ":8080"
	Version string
	Auth    AuthConfig

	Records *records.Store
	Uploads *uploads.Manager

	// MaxUploadBytes caps request bodies; zero means no cap.
	MaxUploadBytes int64
	// DeleteUploads removes a record's documents when the record is deleted.
	DeleteUploads bool
	// PerPage is the list page size, 10 when zero.
	PerPage int
	// Now stamps Created On and Last Modified; time.Now when nil.
	Now func() time.Time
}

type Server struct {
	httpServer *http.Server
	handler    http.Handler

	auth     AuthConfig
	sessions *SessionStore
	csrf     *CSRFProtection
	metrics  *Metrics
	pages    map[string]*template.Template

	records       *records.Store
	uploads       *uploads.Manager
	deleteUploads bool
	perPage       int
	now           func() time.Time
	version       string
}

// New builds the server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Records == nil || cfg.Uploads == nil {
		return nil, errors.New("server: record store and upload manager are required")
	}
	pages, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		auth:          cfg.Auth,
		sessions:      NewSessionStore(cfg.Auth.ttl()),
		csrf:          NewCSRFProtection(cfg.Auth.ttl()),
		pages:         pages,
		records:       cfg.Records,
		uploads:       cfg.Uploads,
		deleteUploads: cfg.DeleteUploads,
		perPage:       cfg.PerPage,
		now:           cfg.Now,
		version:       cfg.Version,
	}
	if s.perPage <= 0 {
		s.perPage = 10
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.metrics = NewMetrics(s.sessions.Active)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", s.loginPage)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("GET /logout", s.logout)

	protected := func(h http.HandlerFunc) http.Handler {
		return maxBodyMiddleware(cfg.MaxUploadBytes, s.requireSession(s.csrf.CSRFMiddleware(h)))
	}
	mux.Handle("GET /{$}", protected(s.newRecordForm))
	mux.Handle("POST /{$}", protected(s.createRecord))
	mux.Handle("GET /records", protected(s.listRecords))
	mux.Handle("GET /edit/{index}", protected(s.editRecordForm))
	mux.Handle("POST /edit/{index}", protected(s.updateRecord))
	mux.Handle("POST /delete/{index}", protected(s.deleteRecord))
	mux.Handle("GET /uploads/{path...}", protected(s.serveUpload))
	mux.Handle("GET /query", protected(s.queryForm))
	mux.Handle("POST /query", protected(s.query))

	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("GET /ready", s.HandleReady)
	mux.HandleFunc("GET /live", s.HandleLive)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// requestID -> logging -> security headers -> compression -> mux
	var handler http.Handler = mux
	handler = CompressionMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
