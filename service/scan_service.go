package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ludo-technologies/warnscan/domain"
)

// ConsoleLogName is used in diagnostics when the console log is scanned
const ConsoleLogName = "console log"

// ScanInput describes the inputs of one tool run
type ScanInput struct {
	Run    domain.ToolRun
	Parser domain.Parser

	// Pattern is the effective pattern, reported when nothing matched
	Pattern string

	// Files are the matched report files
	Files []string

	// ConsoleLog is scanned instead of files when set
	ConsoleLog string

	WorkspaceRoot string
}

// ScanService builds the report of a tool run from its inputs
type ScanService struct {
	logger         logrus.FieldLogger
	maxConcurrency int
	postProcessor  *PostProcessor
	progress       domain.ProgressManager
}

// NewScanService creates a scan service. maxConcurrency bounds the number of
// files parsed at once, 0 for the number of CPUs.
func NewScanService(logger logrus.FieldLogger, maxConcurrency int, postProcessor *PostProcessor, progress domain.ProgressManager) *ScanService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.NumCPU()
	}
	if progress == nil {
		progress = &NoOpProgressManager{}
	}
	return &ScanService{
		logger:         logger,
		maxConcurrency: maxConcurrency,
		postProcessor:  postProcessor,
		progress:       progress,
	}
}

type parsedInput struct {
	name   string
	issues []domain.Issue
	err    error
}

// Scan parses every input of the run and returns the sealed report. Per file
// failures become error messages on the report; only context cancellation is
// returned as an error.
func (s *ScanService) Scan(ctx context.Context, input ScanInput) (*domain.Report, error) {
	origin := input.Run.Origin
	log := s.logger.WithFields(logrus.Fields{
		"origin": origin,
		"tool":   input.Run.ToolID,
	})

	report := domain.NewReport(origin)

	var parsed []parsedInput
	var err error
	switch {
	case input.ConsoleLog != "":
		parsed, err = s.parseConsoleLog(ctx, input)
	case len(input.Files) == 0:
		log.WithField("pattern", input.Pattern).Info("no report files matched")
		report.Info("No files found for pattern '%s'. Configuration error?", input.Pattern)
	default:
		parsed, err = s.parseFiles(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	unresolved := 0
	exists := make(map[string]bool)
	for _, p := range parsed {
		fileLog := log.WithField("file", p.name)
		if p.err != nil {
			fileLog.WithError(p.err).Warn("parsing failed")
			report.Error("Parsing of file '%s' failed: %v", p.name, parseCause(p.err))
			continue
		}

		for i := range p.issues {
			if p.issues[i].FilePath == "" {
				unresolved++
				continue
			}
			resolved := resolvePath(p.issues[i].FilePath, input.WorkspaceRoot)
			p.issues[i].FilePath = resolved
			if !fileExists(resolved, exists) {
				unresolved++
			}
		}

		skippedBefore := report.DuplicatesSkipped()
		added := report.Add(p.issues...)
		skipped := report.DuplicatesSkipped() - skippedBefore

		fileLog.WithField("issues", added).Debug("parsed report file")
		report.Info("Successfully parsed file %s", p.name)
		report.Info("-> found %d issues (skipped %d duplicates)", added, skipped)
	}
	if unresolved > 0 {
		report.Info("Unresolved file paths for %d issues", unresolved)
	}

	report.Seal()

	if s.postProcessor != nil && !report.IsEmpty() {
		s.postProcessor.Process(report, input.WorkspaceRoot)
	}

	log.WithField("issues", report.Size()).Info("tool run finished")
	return report, nil
}

func (s *ScanService) parseConsoleLog(ctx context.Context, input ScanInput) ([]parsedInput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(input.ConsoleLog)
	if err != nil {
		return []parsedInput{{name: ConsoleLogName, err: err}}, nil
	}
	issues, err := input.Parser.Parse(string(content), input.WorkspaceRoot)
	return []parsedInput{{name: ConsoleLogName, issues: issues, err: err}}, nil
}

// parseFiles reads and parses files concurrently and returns the results in
// sorted file order.
func (s *ScanService) parseFiles(ctx context.Context, input ScanInput) ([]parsedInput, error) {
	files := append([]string(nil), input.Files...)
	sort.Strings(files)

	task := s.progress.StartTask(fmt.Sprintf("Parsing %s", input.Run.Origin), len(files))
	defer task.Complete()

	results := make([]parsedInput, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = parsedInput{name: file}

			content, err := os.ReadFile(file)
			if err != nil {
				results[i].err = err
			} else {
				results[i].issues, results[i].err = input.Parser.Parse(string(content), input.WorkspaceRoot)
			}
			task.Increment(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// parseCause unwraps parse errors to the message of their cause
func parseCause(err error) error {
	var parseErr *domain.ParseError
	if errors.As(err, &parseErr) && parseErr.Cause != nil {
		return parseErr.Cause
	}
	return err
}

// resolvePath makes a report path absolute relative to the workspace root
func resolvePath(path, workspaceRoot string) string {
	if filepath.IsAbs(path) || workspaceRoot == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(workspaceRoot, path)
}

// fileExists stats path once per scan; seen caches the answers
func fileExists(path string, seen map[string]bool) bool {
	if found, ok := seen[path]; ok {
		return found
	}
	info, err := os.Stat(path)
	found := err == nil && !info.IsDir()
	seen[path] = found
	return found
}
