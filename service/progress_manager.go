package service

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ludo-technologies/warnscan/domain"
)

// ciEnvironmentVariables mark non-interactive build environments
var ciEnvironmentVariables = []string{"CI", "BUILD_NUMBER", "JENKINS_URL", "GITHUB_ACTIONS", "GITLAB_CI"}

// IsInteractiveEnvironment reports whether stderr is a terminal outside of CI
func IsInteractiveEnvironment() bool {
	for _, name := range ciEnvironmentVariables {
		if os.Getenv(name) != "" {
			return false
		}
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// NewProgressManager returns terminal progress bars when enabled in an
// interactive terminal, and a no-op manager otherwise
func NewProgressManager(enabled bool) domain.ProgressManager {
	if enabled && IsInteractiveEnvironment() {
		return newTerminalProgress(os.Stderr)
	}
	return &NoOpProgressManager{}
}

// TerminalProgress shows one bar per tool run scan and one for the execution
type TerminalProgress struct {
	mu     sync.Mutex
	writer io.Writer
	bars   []*progressbar.ProgressBar
}

func newTerminalProgress(w io.Writer) *TerminalProgress {
	return &TerminalProgress{writer: w}
}

// StartTask creates a bar counting total units of work
func (p *TerminalProgress) StartTask(description string, total int) domain.TaskProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(24),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(p.writer, "\n")
		}),
	)

	p.mu.Lock()
	p.bars = append(p.bars, bar)
	p.mu.Unlock()
	return &barProgress{bar: bar, task: description}
}

// IsInteractive reports that bars are rendered
func (p *TerminalProgress) IsInteractive() bool {
	return true
}

// Close finishes every bar still running
func (p *TerminalProgress) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, bar := range p.bars {
		if !bar.IsFinished() {
			_ = bar.Finish()
		}
	}
	p.bars = nil
}

// barProgress reports the progress of one task
type barProgress struct {
	bar  *progressbar.ProgressBar
	task string
}

func (b *barProgress) Increment(n int) {
	_ = b.bar.Add(n)
}

// Describe names the file or tool run being worked on
func (b *barProgress) Describe(item string) {
	b.bar.Describe(b.task + ": " + filepath.Base(item))
}

func (b *barProgress) Complete() {
	if !b.bar.IsFinished() {
		_ = b.bar.Finish()
	}
}

// NoOpProgressManager is used when progress is disabled or not interactive
type NoOpProgressManager struct{}

// StartTask returns a no-op task progress
func (pm *NoOpProgressManager) StartTask(_ string, _ int) domain.TaskProgress {
	return &NoOpTaskProgress{}
}

// IsInteractive returns false for no-op manager
func (pm *NoOpProgressManager) IsInteractive() bool {
	return false
}

// Close is a no-op
func (pm *NoOpProgressManager) Close() {}

// NoOpTaskProgress implements TaskProgress with no-op methods
type NoOpTaskProgress struct{}

// Increment is a no-op
func (tp *NoOpTaskProgress) Increment(_ int) {}

// Describe is a no-op
func (tp *NoOpTaskProgress) Describe(_ string) {}

// Complete is a no-op
func (tp *NoOpTaskProgress) Complete() {}
