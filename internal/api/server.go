// Package api serves executions over HTTP
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ludo-technologies/warnscan/app"
	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/config"
	"github.com/ludo-technologies/warnscan/service"
)

// DefaultMaxStored is the number of execution reports kept for lookup
const DefaultMaxStored = 100

// Recorder records one execution
type Recorder interface {
	Execute(ctx context.Context, cfg *domain.ExecutionConfig) (*app.RecordResult, error)
}

// Options configures a Server
type Options struct {
	// Root confines every workspace, console log and reference path
	Root string

	// Base supplies the performance and analysis settings of every execution
	Base *config.Config

	// Recorder defaults to a RecordUseCase built from Base
	Recorder Recorder

	Logger    logrus.FieldLogger
	MaxStored int
}

// Server handles execution requests
type Server struct {
	root     string
	base     *config.Config
	loader   *service.ConfigurationLoaderImpl
	recorder Recorder
	logger   logrus.FieldLogger
	store    *executionStore
}

// NewServer creates a server rooted at opts.Root
func NewServer(opts Options) (*Server, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve server root: %w", err)
	}

	base := opts.Base
	if base == nil {
		base = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	maxStored := opts.MaxStored
	if maxStored <= 0 {
		maxStored = DefaultMaxStored
	}

	recorder := opts.Recorder
	if recorder == nil {
		uc, err := app.NewRecordUseCaseBuilder().
			WithFileHelper(app.NewFileHelperWithSymlinks(base.Analysis.FollowSymlinks)).
			WithPerformance(base.Performance).
			WithLogger(logger).
			Build()
		if err != nil {
			return nil, err
		}
		recorder = uc
	}

	return &Server{
		root:     root,
		base:     base,
		loader:   service.NewConfigurationLoader(),
		recorder: recorder,
		logger:   logger,
		store:    newExecutionStore(maxStored),
	}, nil
}

// Router returns the HTTP handler of the server
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/tools", s.handleTools)

	r.Route("/executions", func(r chi.Router) {
		r.Post("/", s.handleRecord)
		r.Get("/", s.handleListExecutions)
		r.Get("/{executionID}", s.handleGetExecution)
		r.Get("/{executionID}/results/{resultID}", s.handleGetResult)
	})

	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{"address": addr, "root": s.root}).Info("warnscan server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// resolvePath makes p absolute below the server root and rejects paths that
// leave it.
func (s *Server) resolvePath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.NewInvalidInputError(fmt.Sprintf("path %q is outside of the server root", p), nil)
	}
	return p, nil
}

func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("request handled")
		})
	}
}
