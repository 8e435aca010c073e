// Command movement-stats prints movement and origin-destination
// statistics for a trajectory parquet file, using the
// lane_sequence_to_movement_map from the embedded metadata.
//
// Usage:
//
//	movement-stats [-top n] <source.parquet>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/trajectory.report/internal/dsmeta"
	"github.com/banshee-data/trajectory.report/internal/movement"
	"github.com/banshee-data/trajectory.report/internal/parquetstore"
)

func main() {
	topN := flag.Int("top", 10, "number of OD pairs to print")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-top n] <source.parquet>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	sourcePath := flag.Arg(0)

	table, rawMeta, err := parquetstore.Load(sourcePath)
	if err != nil {
		log.Fatalf("load source: %v", err)
	}
	meta, err := dsmeta.FromHeader(rawMeta)
	if err != nil {
		log.Fatalf("parse metadata: %v", err)
	}

	stats, err := movement.Analyse(table, meta)
	if err != nil {
		log.Fatalf("analyse movements: %v", err)
	}

	fmt.Printf("Total vehicles: %d\n", stats.TotalVehicles)
	fmt.Printf("Identified movements: %d\n", stats.Identified)
	fmt.Printf("Filtered partial vehicles (time boundary): %d\n", stats.FilteredPartial)

	fmt.Println("\nMovement statistics:")
	for _, name := range stats.Movements() {
		fmt.Printf("  - %s: %d\n", name, stats.ByMovement[name])
	}

	movementMap, _ := meta.StringMap(movement.MovementMapKey)
	fmt.Printf("\nOD pair statistics (top %d):\n", *topN)
	for i, od := range stats.ODPairs() {
		if i >= *topN {
			break
		}
		name, ok := movementMap[od]
		if !ok {
			name = movement.Undefined
		}
		fmt.Printf("  - %s (%s): %d\n", od, name, stats.ByOD[od])
		if name == movement.Undefined {
			fmt.Printf("    -> vehicle ids: %v\n", stats.VehiclesByOD[od])
		}
	}
}
