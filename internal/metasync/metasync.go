// Package metasync replaces the metadata document embedded in a
// trajectory parquet file with a freshly supplied JSON document, leaving
// the bulk record table unchanged.
//
// Replacement is total: the new document overwrites whatever was stored,
// it is never merged. Because the parquet medium cannot patch metadata in
// place, the sync is a full read-and-rewrite behind the store's atomic
// replace, so a failed run never leaves a half-written destination.
package metasync

import (
	"fmt"
	"os"

	"github.com/banshee-data/trajectory.report/internal/dsmeta"
	"github.com/banshee-data/trajectory.report/internal/parquetstore"
)

// Stage names the pipeline step a sync failure occurred in. The CLI
// prints it so a failure is diagnosable without reading internals.
type Stage string

const (
	StageLoadSource Stage = "load source"
	StageParseMeta  Stage = "parse metadata"
	StageWriteDest  Stage = "write destination"
)

// StageError wraps a pipeline failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Result describes a completed sync.
type Result struct {
	Path string // destination file written
	Rows int    // bulk rows carried through unchanged
}

// Sync loads the parquet file at sourcePath, replaces its embedded
// metadata with the JSON document at metaPath, and writes the result to
// outputPath (or back over sourcePath when outputPath is empty).
//
// The replacement document is decoded and re-encoded to canonical form
// before anything is written, so encoding problems surface while the
// source file is still untouched. All failures return a *StageError.
func Sync(sourcePath, metaPath, outputPath string) (*Result, error) {
	table, _, err := parquetstore.Load(sourcePath)
	if err != nil {
		return nil, &StageError{StageLoadSource, err}
	}

	text, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, &StageError{StageParseMeta, fmt.Errorf("read %s: %w", metaPath, err)}
	}
	meta, err := dsmeta.Decode(text)
	if err != nil {
		return nil, &StageError{StageParseMeta, fmt.Errorf("%s: %w", metaPath, err)}
	}
	canonical, err := dsmeta.Encode(meta)
	if err != nil {
		return nil, &StageError{StageParseMeta, err}
	}

	dst := outputPath
	if dst == "" {
		dst = sourcePath
	}
	if err := parquetstore.Store(dst, table, string(canonical)); err != nil {
		return nil, &StageError{StageWriteDest, err}
	}
	return &Result{Path: dst, Rows: table.NumRows()}, nil
}
