//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for kortsvar developer tooling.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the pipeline expects.
var projectDirs = []string{
	"billeder/opgaver",
	"data",
	"archive",
	"review",
}

// Init creates the project directory structure for the pipeline.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "kortsvar"
	cmdPkg  = "./cmd/kortsvar"

	// sqliteTags enables FTS5 in mattn/go-sqlite3; the archive needs it.
	sqliteTags = "sqlite_fts5"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-tags", sqliteTags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the test suite with the SQLite build tags.
func Test() error {
	return sh.RunV("go", "test", "-tags", sqliteTags, "./...")
}

// binPath is the built CLI, used by the pipeline targets.
func binPath() string {
	return filepath.Join(binDir, binName)
}

// ensureBuilt builds the CLI and the working directories once per mage run.
func ensureBuilt() {
	mg.Deps(Build, Init)
}

// Stats prints project metrics: Go production/test lines, transcript lines
// and figure images.
func Stats() error {
	var prod, tests int
	err := walkGoFiles(".", func(path string, data []byte) {
		n := countNonBlank(data)
		if strings.HasSuffix(path, "_test.go") {
			tests += n
		} else {
			prod += n
		}
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", tests)

	if data, err := os.ReadFile("rawdata-kortsvar"); err == nil {
		fmt.Printf("Transcript lines:               %d\n", countNonBlank(data))
	}
	if entries, err := os.ReadDir("billeder/opgaver"); err == nil {
		fmt.Printf("Figure images:                  %d\n", len(entries))
	}
	return nil
}

// walkGoFiles calls fn for every .go file under root, skipping hidden and
// underscore-prefixed directories.
func walkGoFiles(root string, fn func(path string, data []byte)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		fn(path, data)
		return nil
	})
}

func countNonBlank(data []byte) int {
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
