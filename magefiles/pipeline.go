//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds data/kortsvar.json from rawdata-kortsvar and the figure
// images in billeder/opgaver, with a review workbook in review/.
func Convert() error {
	ensureBuilt()
	return sh.RunV(binPath(), "convert",
		"--input", "rawdata-kortsvar",
		"--images", "billeder/opgaver",
		"--output", "data/kortsvar.json",
		"--report", "review/kortsvar.xlsx",
	)
}

// Archive ingests the converted dataset into archive/kortsvar.db.
func Archive() error {
	mg.Deps(Convert)
	return sh.RunV(binPath(), "archive", "ingest", "data/kortsvar.json")
}

// Export writes archive/export.json from the archive.
func Export() error {
	mg.Deps(Archive)
	return sh.RunV(binPath(), "archive", "export", "--format", "json")
}
