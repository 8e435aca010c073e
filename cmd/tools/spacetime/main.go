// Command spacetime reads a trajectory parquet file and writes per-lane
// time-space diagrams.
//
// Usage:
//
//	spacetime [-out dir] [-html] [-speed-max mps] <source.parquet>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/trajectory.report/internal/dsmeta"
	"github.com/banshee-data/trajectory.report/internal/parquetstore"
	"github.com/banshee-data/trajectory.report/internal/spacetime"
	"github.com/banshee-data/trajectory.report/internal/trackset"
)

// Config holds the diagram tool configuration.
type Config struct {
	SourcePath string
	OutputDir  string
	HTML       bool
	SpeedMax   float64
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.OutputDir, "out", "fig", "output directory for diagrams")
	flag.BoolVar(&cfg.HTML, "html", false, "also write an interactive HTML chart per lane")
	flag.Float64Var(&cfg.SpeedMax, "speed-max", spacetime.DefaultSpeedMax, "speed colour scale ceiling in m/s")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-out dir] [-html] [-speed-max mps] <source.parquet>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cfg.SourcePath = flag.Arg(0)
	return cfg
}

func main() {
	cfg := parseFlags()

	table, rawMeta, err := parquetstore.Load(cfg.SourcePath)
	if err != nil {
		log.Fatalf("load source: %v", err)
	}
	meta, err := dsmeta.FromHeader(rawMeta)
	if err != nil {
		log.Fatalf("parse metadata: %v", err)
	}

	ds, err := trackset.Reconstruct(table, meta)
	if err != nil {
		log.Fatalf("reconstruct dataset: %v", err)
	}
	log.Printf("Loaded %s: %d rows, %d lanes, %d trajectories",
		cfg.SourcePath, table.NumRows(), len(ds.Lanes), ds.NumTrajectories())

	written, err := spacetime.Render(ds, spacetime.Config{
		OutputDir: cfg.OutputDir,
		SpeedMax:  cfg.SpeedMax,
		HTML:      cfg.HTML,
	})
	if err != nil {
		log.Fatalf("render diagrams: %v", err)
	}
	for _, path := range written {
		log.Printf("Saved: %s", path)
	}
	if len(written) == 0 {
		log.Printf("No lanes with plottable data")
	}
}
