//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package storage

// This file is compiled when building without the sqlite_vec tag.
// Similarity is computed in Go over candidate rows.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// VectorExtensionAvailable indicates if vector extension is available
	VectorExtensionAvailable = false

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
