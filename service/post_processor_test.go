package service

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ludo-technologies/warnscan/domain"
	"github.com/ludo-technologies/warnscan/internal/testutil"
)

func sealedReportFor(issues ...domain.Issue) *domain.Report {
	report := domain.NewReport("tool")
	report.Add(issues...)
	report.Seal()
	return report
}

func TestPostProcessor_ModuleNames(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "core/pom.xml", `<?xml version="1.0"?>
<project>
  <parent><artifactId>parent</artifactId></parent>
  <artifactId>core-lib</artifactId>
  <name>Core Library</name>
</project>`)
	testutil.WriteFile(t, dir, "web/package.json", `{"name": "web-ui", "version": "1.0.0"}`)
	testutil.WriteFile(t, dir, "tools/setup.py", "from setuptools import setup\nsetup(name='lint-tools', version='1')\n")
	testutil.WriteFile(t, dir, "app/build.gradle", "apply plugin: 'java'\n")

	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(dir, "core", "src", "main", "Foo.java"), "Core Library"},
		{filepath.Join(dir, "web", "src", "index.js"), "web-ui"},
		{filepath.Join(dir, "tools", "lint.py"), "lint-tools"},
		{filepath.Join(dir, "app", "src", "Main.java"), "app"},
		{filepath.Join(dir, "README.md"), ""},
	}

	var issues []domain.Issue
	for i, tt := range tests {
		issues = append(issues, testutil.NewIssue(tt.path, i+1, "message"))
	}
	report := sealedReportFor(issues...)

	NewPostProcessor(nil).Process(report, dir)

	got := report.Issues()
	for i, tt := range tests {
		if got[i].ModuleName != tt.want {
			t.Errorf("%s: expected module %q, got %q", tt.path, tt.want, got[i].ModuleName)
		}
	}
	if !containsMessage(report.InfoMessages(), "Resolved module names for 4 issues") {
		t.Errorf("Missing module message: %v", report.InfoMessages())
	}
}

func TestPostProcessor_PackageNames(t *testing.T) {
	dir := t.TempDir()
	javaFile := testutil.WriteFile(t, dir, "src/Foo.java", "// header\npackage com.example.core;\n\npublic class Foo {}\n")
	ktFile := testutil.WriteFile(t, dir, "src/Bar.kt", "package org.sample.data\n\nclass Bar\n")
	txtFile := testutil.WriteFile(t, dir, "notes.txt", "just some notes\n")

	report := sealedReportFor(
		testutil.NewIssue(javaFile, 1, "first"),
		testutil.NewIssue(javaFile, 2, "second"),
		testutil.NewIssue(ktFile, 3, "third"),
		testutil.NewIssue(txtFile, 4, "fourth"),
	)

	NewPostProcessor(nil).Process(report, dir)

	got := report.Issues()
	if got[0].PackageName != "com.example.core" || got[1].PackageName != "com.example.core" {
		t.Errorf("Expected Java package, got %q and %q", got[0].PackageName, got[1].PackageName)
	}
	if got[2].PackageName != "org.sample.data" {
		t.Errorf("Expected Kotlin package, got %q", got[2].PackageName)
	}
	if got[3].PackageName != "" {
		t.Errorf("Plain text has no package, got %q", got[3].PackageName)
	}
	if !containsMessage(report.InfoMessages(), "Resolved package names of 2 affected files") {
		t.Errorf("Missing package message: %v", report.InfoMessages())
	}
}

func TestPostProcessor_PackageAfterVeryLongLine(t *testing.T) {
	dir := t.TempDir()
	header := "// " + strings.Repeat("x", 2*1024*1024) + "\n"
	javaFile := testutil.WriteFile(t, dir, "src/Long.java", header+"package com.example.generated;\r\n\nclass Long {}\n")

	report := sealedReportFor(testutil.NewIssue(javaFile, 1, "message"))
	NewPostProcessor(nil).Process(report, dir)

	if got := report.Issues()[0].PackageName; got != "com.example.generated" {
		t.Errorf("Expected the package after a long line, got %q", got)
	}
}

func TestPostProcessor_KeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "go.mod", "module example.com/kept\n")
	file := testutil.WriteFile(t, dir, "main.go", "package main\n")

	issue := testutil.NewIssue(file, 1, "message")
	issue.ModuleName = "preset-module"
	issue.PackageName = "preset::class"
	report := sealedReportFor(issue)
	fingerprint := report.Issues()[0].Fingerprint

	NewPostProcessor(nil).Process(report, dir)

	got := report.Issues()[0]
	if got.ModuleName != "preset-module" || got.PackageName != "preset::class" {
		t.Errorf("Existing values must be kept, got %+v", got)
	}
	if got.Fingerprint != fingerprint {
		t.Error("Post-processing must not change the fingerprint")
	}
	if report.HasErrors() {
		t.Errorf("Unexpected errors: %v", report.ErrorMessages())
	}
}

func TestPostProcessor_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	report := sealedReportFor(testutil.NewIssue(filepath.Join(dir, "gone", "Gone.java"), 1, "message"))

	NewPostProcessor(nil).Process(report, dir)

	if report.HasErrors() {
		t.Errorf("Missing source files are not errors: %v", report.ErrorMessages())
	}
	if report.Issues()[0].PackageName != "" {
		t.Error("Expected no package for a missing file")
	}
	if report.Size() != 1 {
		t.Errorf("Expected size 1, got %d", report.Size())
	}
}

func TestPostProcessor_CachesLookups(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "go.mod", "module example.com/cached\n")
	file := testutil.WriteFile(t, dir, "a/b/c.go", "package c\n")

	p := NewPostProcessor(nil)
	name, err := p.moduleName(filepath.Dir(file), dir)
	testutil.AssertNoError(t, err)
	if name != "example.com/cached" {
		t.Fatalf("Expected module name, got %q", name)
	}

	for _, d := range []string{filepath.Join(dir, "a", "b"), filepath.Join(dir, "a"), dir} {
		if cached, ok := p.modules[d]; !ok || cached != "example.com/cached" {
			t.Errorf("Expected %s to be cached, got %q", d, cached)
		}
	}
}
