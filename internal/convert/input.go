// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const bom = "\ufeff"

// ReadTranscript loads a transcript file and normalizes it with
// NormalizeText.
func ReadTranscript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("transcript not found: %s", path)
		}
		return "", fmt.Errorf("reading transcript %s: %w", path, err)
	}
	return NormalizeText(string(data)), nil
}

// NormalizeText strips a byte order mark, composes the text to NFC and
// turns CRLF and lone CR line endings into LF. The classifier patterns
// and the alias table are written in composed form.
func NormalizeText(s string) string {
	s = strings.TrimPrefix(s, bom)
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// ListImages returns the names of the regular files in dir, sorted.
func ListImages(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("images directory not found: %s", dir)
		}
		return nil, fmt.Errorf("reading images directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("images path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading images directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ImagePrefix returns the directory recorded in front of image names:
// imagesDir itself, or imagesDir relative to rootDir when rootDir is set.
func ImagePrefix(imagesDir, rootDir string) (string, error) {
	if rootDir == "" {
		return imagesDir, nil
	}
	absImages, err := filepath.Abs(imagesDir)
	if err != nil {
		return "", fmt.Errorf("resolving images directory: %w", err)
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return "", fmt.Errorf("resolving root directory: %w", err)
	}
	rel, err := filepath.Rel(absRoot, absImages)
	if err != nil {
		return "", fmt.Errorf("images directory %s is not under root %s: %w", imagesDir, rootDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("images directory %s is not under root %s", imagesDir, rootDir)
	}
	return rel, nil
}
