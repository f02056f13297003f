package service

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/warnscan/domain"
)

// ReferenceBaseline provides the issues of a previously written execution report
type ReferenceBaseline struct {
	ExecutionID string
	issues      map[string][]domain.Issue
}

// NewReferenceBaseline indexes the results of a previous execution by id
func NewReferenceBaseline(executionID string, results []*domain.AnalysisResult) *ReferenceBaseline {
	b := &ReferenceBaseline{
		ExecutionID: executionID,
		issues:      make(map[string][]domain.Issue, len(results)),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		b.issues[r.ID()] = r.Issues()
	}
	return b
}

// Baseline implements domain.BaselineProvider
func (b *ReferenceBaseline) Baseline(resultID string) ([]domain.Issue, bool) {
	issues, ok := b.issues[resultID]
	return issues, ok
}

// IDs returns the ids of the reference results
func (b *ReferenceBaseline) IDs() []string {
	ids := make([]string, 0, len(b.issues))
	for id := range b.issues {
		ids = append(ids, id)
	}
	return ids
}

// LoadBaseline reads a report written with the json or yaml output format
func LoadBaseline(path string) (*ReferenceBaseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewFileNotFoundError(path, err)
		}
		return nil, domain.NewInvalidInputError("failed to read reference report", err)
	}

	var doc ExecutionReportJSON
	if isYAMLFile(path, data) {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, domain.NewParseError(path, err)
	}

	return NewReferenceBaseline(doc.ExecutionID, doc.Results), nil
}

func isYAMLFile(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] != '{'
}
