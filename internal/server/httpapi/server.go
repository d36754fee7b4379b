// Package httpapi exposes the MarkPDF REST API.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/al0nec0der/MarkPDF/internal/highlight"
	"github.com/al0nec0der/MarkPDF/internal/logging"
	"github.com/al0nec0der/MarkPDF/internal/server/metrics"
	"github.com/al0nec0der/MarkPDF/internal/server/models"
	"github.com/al0nec0der/MarkPDF/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type UserService interface {
	Register(ctx context.Context, userName, password string) (*models.User, error)
	Login(ctx context.Context, userName, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(accessToken string) (string, error)
}

type DocumentService interface {
	Upload(ctx context.Context, userID, fileName string, r io.Reader) (*services.DocumentView, error)
	Get(ctx context.Context, userID, id string) (*services.DocumentView, error)
	List(ctx context.Context, userID string) ([]services.DocumentView, error)
	Delete(ctx context.Context, userID, id string) error
}

type HighlightService interface {
	Submit(ctx context.Context, req highlight.Request) (*highlight.Highlight, []highlight.Degradation, error)
	ListForDocument(ctx context.Context, documentRef, userID string) ([]highlight.Highlight, error)
}

type Options struct {
	Address            string
	MaxUploadBytes     int64
	LoginRatePerMinute int
}

type Server struct {
	opts       Options
	users      UserService
	documents  DocumentService
	highlights HighlightService
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	limiter    *ipLimiter
	logger     logging.Logger
}

func NewServer(opts Options, l logging.Logger, us UserService, ds DocumentService, hs HighlightService,
	m *metrics.Metrics, g prometheus.Gatherer) *Server {
	return &Server{
		opts:       opts,
		users:      us,
		documents:  ds,
		highlights: hs,
		metrics:    m,
		gatherer:   g,
		limiter:    newIPLimiter(opts.LoginRatePerMinute),
		logger:     l.With("module", "http_server"),
	}
}

// Handler returns the routed API with logging and metrics applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /api/users/register", s.register)
	mux.Handle("POST /api/users/login", s.rateLimited(http.HandlerFunc(s.login)))
	mux.HandleFunc("POST /api/users/refresh", s.refresh)
	mux.HandleFunc("POST /api/users/logout", s.logout)

	mux.Handle("POST /api/documents", s.authenticated(s.uploadDocument))
	mux.Handle("GET /api/documents", s.authenticated(s.listDocuments))
	mux.Handle("GET /api/documents/{id}", s.authenticated(s.getDocument))
	mux.Handle("DELETE /api/documents/{id}", s.authenticated(s.deleteDocument))

	mux.Handle("POST /api/documents/{id}/highlights", s.authenticated(s.createHighlight))
	mux.Handle("GET /api/documents/{id}/highlights", s.authenticated(s.listHighlights))

	// Older clients name the document in the body or as pdfUuid.
	mux.Handle("POST /api/highlights", s.authenticated(s.createHighlight))
	mux.Handle("GET /api/highlights/{pdfUuid}", s.authenticated(s.listHighlights))

	return s.observe(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Error(sctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
