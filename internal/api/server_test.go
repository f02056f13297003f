package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/warnscan/app"
	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/config"
	"github.com/ludo-technologies/warnscan/internal/testutil"
	"github.com/ludo-technologies/warnscan/service"
)

type failingRecorder struct {
	err error
}

func (f failingRecorder) Execute(ctx context.Context, cfg *domain.ExecutionConfig) (*app.RecordResult, error) {
	return nil, f.err
}

func newTestServer(t *testing.T, root string, recorder Recorder) http.Handler {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv, err := NewServer(Options{Root: root, Recorder: recorder, Logger: logger})
	require.NoError(t, err)
	return srv.Router()
}

func do(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	handler := newTestServer(t, t.TempDir(), nil)

	rec := do(t, handler, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, handler, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"go_version"`)
}

func TestServer_Tools(t *testing.T) {
	handler := newTestServer(t, t.TempDir(), nil)

	rec := do(t, handler, http.MethodGet, "/tools", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tools []ToolInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tools))
	require.NotEmpty(t, tools)

	var eclipse *ToolInfo
	for i := range tools {
		if tools[i].ID == "eclipse" {
			eclipse = &tools[i]
		}
	}
	require.NotNil(t, eclipse)
	assert.Equal(t, "Eclipse ECJ", eclipse.Name)
	assert.Equal(t, "**/*.log", eclipse.DefaultPattern)
	assert.True(t, eclipse.CanScanConsoleLog)
}

func TestServer_RecordExecution(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "project/build.log", testutil.EclipseLog(root, 3))
	handler := newTestServer(t, root, nil)

	rec := do(t, handler, http.MethodPost, "/executions", ExecutionRequest{
		Workspace: "project",
		Tools:     []config.ToolConfig{{Tool: "eclipse", Pattern: "**/*.log"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report service.ExecutionReportJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.NotEmpty(t, report.ExecutionID)
	assert.Equal(t, domain.OutcomeSuccess, report.Outcome)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "eclipse", report.Results[0].ID())
	assert.Equal(t, 3, report.Results[0].TotalSize())

	rec = do(t, handler, http.MethodGet, "/executions/"+report.ExecutionID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, handler, http.MethodGet, "/executions/"+report.ExecutionID+"/results/eclipse", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, map[string]int{"eclipse": 3}, result.SizePerOrigin())

	rec = do(t, handler, http.MethodGet, "/executions/"+report.ExecutionID+"/results/pmd", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, handler, http.MethodGet, "/executions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []ExecutionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, []string{"eclipse"}, summaries[0].Results)
}

func TestServer_RecordCollision(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "build.log", testutil.EclipseLog(root, 2))
	handler := newTestServer(t, root, nil)

	rec := do(t, handler, http.MethodPost, "/executions", ExecutionRequest{
		Tools: []config.ToolConfig{
			{Tool: "eclipse", Pattern: "**/*.log"},
			{Tool: "eclipse", Pattern: "**/*.log"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report service.ExecutionReportJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, domain.OutcomeFailure, report.Outcome)
	require.Len(t, report.BuildErrors, 1)
	assert.Contains(t, report.BuildErrors[0], "ID eclipse is already used by another action")
	assert.Len(t, report.Results, 1)
}

func TestServer_RecordBadRequests(t *testing.T) {
	handler := newTestServer(t, t.TempDir(), nil)

	tests := []struct {
		name string
		body interface{}
	}{
		{"invalid json", "{not json"},
		{"no tools", ExecutionRequest{}},
		{"unknown tool", ExecutionRequest{Tools: []config.ToolConfig{{Tool: "nope"}}}},
		{"workspace outside root", ExecutionRequest{Workspace: "../elsewhere", Tools: []config.ToolConfig{{Tool: "eclipse"}}}},
		{"invalid threshold", ExecutionRequest{
			Threshold: domain.Threshold{WarningHigh: 5, WarningLow: 10},
			Tools:     []config.ToolConfig{{Tool: "eclipse"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, handler, http.MethodPost, "/executions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestServer_RecorderErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable},
		{"missing file", domain.NewFileNotFoundError("ref.json", nil), http.StatusNotFound},
		{"other", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestServer(t, t.TempDir(), failingRecorder{err: tt.err})
			rec := do(t, handler, http.MethodPost, "/executions", ExecutionRequest{
				Tools: []config.ToolConfig{{Tool: "eclipse"}},
			})
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestServer_UnknownExecution(t *testing.T) {
	handler := newTestServer(t, t.TempDir(), nil)

	rec := do(t, handler, http.MethodGet, "/executions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecutionStore_EvictsOldest(t *testing.T) {
	store := newExecutionStore(2)
	for _, id := range []string{"a", "b", "c"} {
		store.put(service.ExecutionReportJSON{ExecutionID: id})
	}

	_, ok := store.get("a")
	assert.False(t, ok)

	var ids []string
	for _, report := range store.list() {
		ids = append(ids, report.ExecutionID)
	}
	assert.Equal(t, []string{"c", "b"}, ids)
}
