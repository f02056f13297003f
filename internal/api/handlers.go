package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/config"
	"github.com/ludo-technologies/warnscan/internal/parser"
	"github.com/ludo-technologies/warnscan/internal/version"
	"github.com/ludo-technologies/warnscan/service"
)

// ExecutionRequest is the body of POST /executions. Paths are relative to the
// server root.
type ExecutionRequest struct {
	Aggregate  bool                `json:"aggregate"`
	Workspace  string              `json:"workspace"`
	ConsoleLog string              `json:"console_log,omitempty"`
	Reference  string              `json:"reference,omitempty"`
	Threshold  domain.Threshold    `json:"threshold"`
	Tools      []config.ToolConfig `json:"tools"`
	Labels     map[string]string   `json:"labels,omitempty"`
}

// ToolInfo describes a supported tool
type ToolInfo struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	DefaultPattern    string `json:"default_pattern"`
	CanScanConsoleLog bool   `json:"console_log"`
}

// ExecutionSummary is one entry of GET /executions
type ExecutionSummary struct {
	ExecutionID string         `json:"execution_id"`
	GeneratedAt string         `json:"generated_at"`
	Outcome     domain.Outcome `json:"outcome"`
	Results     []string       `json:"results"`
}

// ErrorResponse is written for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, version.Get())
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	tools := parser.Tools()
	infos := make([]ToolInfo, 0, len(tools))
	for _, tool := range tools {
		infos = append(infos, ToolInfo{
			ID:                tool.ID,
			Name:              tool.Name,
			DefaultPattern:    tool.DefaultPattern,
			CanScanConsoleLog: tool.CanScanConsoleLog,
		})
	}
	render.JSON(w, r, infos)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req ExecutionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, domain.NewInvalidInputError("invalid json", err))
		return
	}

	execCfg, err := s.executionConfig(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	log := s.logger.WithField("request_id", middleware.GetReqID(r.Context()))
	result, err := s.recorder.Execute(r.Context(), execCfg)
	if err != nil {
		log.WithError(err).Warn("execution failed")
		writeError(w, r, statusOf(err), err)
		return
	}

	report := service.NewExecutionReport(result.Results, result.Meta())
	s.store.put(report)

	log.WithFields(logrus.Fields{
		"execution": result.ExecutionID,
		"outcome":   result.Outcome,
	}).Info("execution recorded over http")

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, report)
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	reports := s.store.list()
	summaries := make([]ExecutionSummary, 0, len(reports))
	for _, report := range reports {
		ids := make([]string, 0, len(report.Results))
		for _, result := range report.Results {
			ids = append(ids, result.ID())
		}
		summaries = append(summaries, ExecutionSummary{
			ExecutionID: report.ExecutionID,
			GeneratedAt: report.GeneratedAt,
			Outcome:     report.Outcome,
			Results:     ids,
		})
	}
	render.JSON(w, r, summaries)
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "executionID")
	report, ok := s.store.get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, domain.NewInvalidInputError("unknown execution "+id, nil))
		return
	}
	render.JSON(w, r, report)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "executionID")
	report, ok := s.store.get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, domain.NewInvalidInputError("unknown execution "+id, nil))
		return
	}

	resultID := chi.URLParam(r, "resultID")
	for _, result := range report.Results {
		if result.ID() == resultID {
			render.JSON(w, r, result)
			return
		}
	}
	writeError(w, r, http.StatusNotFound, domain.NewInvalidInputError("unknown result "+resultID, nil))
}

// executionConfig applies a request to the server's base configuration
func (s *Server) executionConfig(req ExecutionRequest) (*domain.ExecutionConfig, error) {
	if len(req.Tools) == 0 {
		return nil, domain.NewInvalidInputError("at least one tool is required", nil)
	}

	workspace, err := s.resolvePath(req.Workspace)
	if err != nil {
		return nil, err
	}
	if workspace == "" {
		workspace = s.root
	}
	consoleLog, err := s.resolvePath(req.ConsoleLog)
	if err != nil {
		return nil, err
	}
	reference, err := s.resolvePath(req.Reference)
	if err != nil {
		return nil, err
	}

	cfg := *s.base
	cfg.Execution = config.ExecutionConfig{
		Aggregate:  req.Aggregate,
		Workspace:  workspace,
		ConsoleLog: consoleLog,
		Reference:  reference,
		Threshold:  req.Threshold,
	}
	cfg.Tools = req.Tools
	cfg.Labels = req.Labels

	if err := cfg.Validate(); err != nil {
		return nil, domain.NewConfigError("invalid execution request", err)
	}
	return s.loader.ToExecutionConfig(&cfg)
}

func statusOf(err error) int {
	var domainErr domain.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case domain.ErrCodeInvalidInput, domain.ErrCodeConfigError, domain.ErrCodeInvalidThreshold:
			return http.StatusBadRequest
		case domain.ErrCodeFileNotFound:
			return http.StatusNotFound
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var domainErr domain.DomainError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.Code
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
