// Command meta-sync replaces the metadata document embedded in a
// trajectory parquet file with the contents of a JSON file.
//
// Usage:
//
//	meta-sync [-output dest.parquet] <source.parquet> <metadata.json>
//
// Without -output the source file is updated in place; the rewrite is
// atomic, so a failed run leaves the source untouched. Exits non-zero
// with a single-line diagnostic naming the failed stage.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/trajectory.report/internal/metasync"
)

// Config holds the sync tool configuration.
type Config struct {
	SourcePath string
	MetaPath   string
	OutputPath string
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.OutputPath, "output", "", "destination parquet path (default: overwrite source)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-output dest.parquet] <source.parquet> <metadata.json>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	cfg.SourcePath = flag.Arg(0)
	cfg.MetaPath = flag.Arg(1)
	return cfg
}

func main() {
	cfg := parseFlags()

	result, err := metasync.Sync(cfg.SourcePath, cfg.MetaPath, cfg.OutputPath)
	if err != nil {
		log.Fatalf("meta-sync failed: %v", err)
	}

	action := "Updated"
	if result.Path != cfg.SourcePath {
		action = "Wrote"
	}
	log.Printf("%s %s (%d rows, metadata from %s)", action, result.Path, result.Rows, cfg.MetaPath)
}
