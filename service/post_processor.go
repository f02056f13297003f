package service

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-enry/go-enry/v2"
	"github.com/sirupsen/logrus"

	"github.com/ludo-technologies/warnscan/domain"
)

// moduleDescriptors are checked in order in every directory on the way up
var moduleDescriptors = []string{"go.mod", "pom.xml", "package.json", "build.gradle", "setup.py"}

var (
	goModuleRegex   = regexp.MustCompile(`(?m)^\s*module\s+"?([^\s"]+)"?`)
	setupNameRegex  = regexp.MustCompile(`name\s*=\s*['"]([^'"]+)['"]`)
	gradleNameRegex = regexp.MustCompile(`(?m)^\s*(?:archivesBaseName|rootProject\.name)\s*=\s*['"]([^'"]+)['"]`)
)

// packageDeclarations maps an enry language to its package declaration
var packageDeclarations = map[string]*regexp.Regexp{
	"Java":   regexp.MustCompile(`^\s*package\s+([\w.]+)\s*;`),
	"Kotlin": regexp.MustCompile(`^\s*package\s+([\w.]+)`),
	"Scala":  regexp.MustCompile(`^\s*package\s+([\w.]+)`),
	"Groovy": regexp.MustCompile(`^\s*package\s+([\w.]+)`),
	"Go":     regexp.MustCompile(`^\s*package\s+(\w+)`),
	"C#":     regexp.MustCompile(`^\s*namespace\s+([\w.]+)`),
	"PHP":    regexp.MustCompile(`^\s*namespace\s+([\w\\]+)\s*;`),
	"Puppet": regexp.MustCompile(`^\s*(?:class|define)\s+([\w:]+)`),
}

// PostProcessor fills module and package names of the issues in a sealed report
type PostProcessor struct {
	logger logrus.FieldLogger

	mu       sync.Mutex
	modules  map[string]string
	packages map[string]string
}

// NewPostProcessor creates a post processor. Lookups are cached for the
// lifetime of the processor, so one instance should serve one execution.
func NewPostProcessor(logger logrus.FieldLogger) *PostProcessor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PostProcessor{
		logger:   logger,
		modules:  make(map[string]string),
		packages: make(map[string]string),
	}
}

// Process resolves module and package names. Only empty attributes are set.
func (p *PostProcessor) Process(report *domain.Report, workspaceRoot string) {
	var ioErrors []error

	modules := report.Enrich(func(issue domain.Issue) domain.Issue {
		if issue.ModuleName != "" || issue.FilePath == "" {
			return issue
		}
		name, err := p.moduleName(filepath.Dir(issue.FilePath), workspaceRoot)
		if err != nil {
			ioErrors = append(ioErrors, err)
		}
		issue.ModuleName = name
		return issue
	})
	report.Info("Resolved module names for %d issues", modules)

	files := make(map[string]struct{})
	report.Enrich(func(issue domain.Issue) domain.Issue {
		if issue.PackageName != "" || issue.FilePath == "" {
			return issue
		}
		name, err := p.packageName(issue.FilePath)
		if err != nil {
			ioErrors = append(ioErrors, err)
		}
		if name != "" {
			files[issue.FilePath] = struct{}{}
		}
		issue.PackageName = name
		return issue
	})
	report.Info("Resolved package names of %d affected files", len(files))

	for _, err := range dedupErrors(ioErrors) {
		report.Error("Post-processing failed: %v", err)
	}

	p.logger.WithFields(logrus.Fields{
		"origin":   report.Origin(),
		"modules":  modules,
		"packages": len(files),
	}).Debug("post-processed report")
}

// moduleName finds the nearest module descriptor from dir up to the workspace root
func (p *PostProcessor) moduleName(dir, workspaceRoot string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var visited []string
	defer func() {
		for _, d := range visited {
			if _, ok := p.modules[d]; !ok {
				p.modules[d] = ""
			}
		}
	}()

	root := filepath.Clean(workspaceRoot)
	for current := filepath.Clean(dir); ; {
		if name, ok := p.modules[current]; ok {
			p.fill(visited, name)
			return name, nil
		}
		visited = append(visited, current)

		for _, descriptor := range moduleDescriptors {
			name, err := readModuleName(filepath.Join(current, descriptor))
			if err != nil {
				return "", err
			}
			if name != "" {
				p.fill(visited, name)
				return name, nil
			}
		}

		parent := filepath.Dir(current)
		if current == root || parent == current {
			return "", nil
		}
		current = parent
	}
}

func (p *PostProcessor) fill(dirs []string, name string) {
	for _, d := range dirs {
		p.modules[d] = name
	}
}

// packageName extracts the package or namespace declared by a source file
func (p *PostProcessor) packageName(path string) (string, error) {
	p.mu.Lock()
	if name, ok := p.packages[path]; ok {
		p.mu.Unlock()
		return name, nil
	}
	p.mu.Unlock()

	name, err := readPackageName(path)

	p.mu.Lock()
	p.packages[path] = name
	p.mu.Unlock()
	return name, err
}

func readModuleName(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	switch filepath.Base(path) {
	case "go.mod":
		return firstSubmatch(goModuleRegex, content), nil
	case "pom.xml":
		var pom struct {
			Name       string `xml:"name"`
			ArtifactID string `xml:"artifactId"`
		}
		if err := xml.Unmarshal(content, &pom); err != nil {
			return "", nil
		}
		if pom.Name != "" {
			return strings.TrimSpace(pom.Name), nil
		}
		return strings.TrimSpace(pom.ArtifactID), nil
	case "package.json":
		var pkg struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(content, &pkg); err != nil {
			return "", nil
		}
		return pkg.Name, nil
	case "build.gradle":
		if name := firstSubmatch(gradleNameRegex, content); name != "" {
			return name, nil
		}
		return filepath.Base(filepath.Dir(path)), nil
	case "setup.py":
		return firstSubmatch(setupNameRegex, content), nil
	}
	return "", nil
}

func readPackageName(path string) (string, error) {
	lang, safe := enry.GetLanguageByExtension(path)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	if !safe || lang == "" {
		lang = enry.GetLanguage(path, content)
	}

	declaration, ok := packageDeclarations[lang]
	if !ok {
		return "", nil
	}

	for _, line := range strings.Split(string(content), "\n") {
		if m := declaration.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
			return m[1], nil
		}
	}
	return "", nil
}

func firstSubmatch(re *regexp.Regexp, content []byte) string {
	if m := re.FindSubmatch(content); m != nil {
		return string(m[1])
	}
	return ""
}

func dedupErrors(errs []error) []error {
	seen := make(map[string]struct{}, len(errs))
	var unique []error
	for _, err := range errs {
		if _, ok := seen[err.Error()]; ok {
			continue
		}
		seen[err.Error()] = struct{}{}
		unique = append(unique, err)
	}
	return unique
}
