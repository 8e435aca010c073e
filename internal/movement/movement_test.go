package movement

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/trajectory.report/internal/dsmeta"
	"github.com/banshee-data/trajectory.report/internal/parquetstore"
	"github.com/banshee-data/trajectory.report/internal/trackset"
)

// buildTable assembles a table from per-row (timestamp, lane, vehicle)
// triples.
func buildTable(t *testing.T, ts []float64, lanes, vehicles []int64) *parquetstore.Table {
	t.Helper()

	pos := make([]float64, len(ts))
	spd := make([]float64, len(ts))
	table, err := parquetstore.NewTable(
		parquetstore.FloatColumn("timestamp", ts),
		parquetstore.FloatColumn("position", pos),
		parquetstore.FloatColumn("speed", spd),
		parquetstore.IntColumn("lane_id", lanes),
		parquetstore.IntColumn("vehicle_id", vehicles),
	)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func TestAnalyseMapsODThroughMetadata(t *testing.T) {
	meta, err := dsmeta.Decode([]byte(`{
		"frame_interval": 0.1,
		"lane_sequence_to_movement_map": {"1-3": "left turn", "2-2": "through"}
	}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// Vehicle 10: lane 1 -> 3 (left turn). Vehicle 20: stays in lane 2
	// (through). Both well inside the recording window.
	table := buildTable(t,
		[]float64{0.0, 5.0, 5.1, 5.2, 5.1, 5.2, 10.0},
		[]int64{1, 1, 1, 3, 2, 2, 1},
		[]int64{1, 10, 10, 10, 20, 20, 2},
	)

	stats, err := Analyse(table, meta)
	if err != nil {
		t.Fatalf("Analyse failed: %v", err)
	}

	if stats.TotalVehicles != 4 {
		t.Errorf("TotalVehicles = %d, want 4", stats.TotalVehicles)
	}
	if stats.Identified != 2 {
		t.Errorf("Identified = %d, want 2", stats.Identified)
	}

	wantMovements := map[string]int{"left turn": 1, "through": 1}
	// Vehicles 1 and 2 sit on the recording boundary with an unmapped
	// OD, so they are filtered, not counted as Undefined.
	if diff := cmp.Diff(wantMovements, stats.ByMovement); diff != "" {
		t.Errorf("ByMovement (-want +got):\n%s", diff)
	}
	if stats.FilteredPartial != 2 {
		t.Errorf("FilteredPartial = %d, want 2", stats.FilteredPartial)
	}

	if got := stats.VehiclesByOD["1-3"]; len(got) != 1 || got[0] != 10 {
		t.Errorf("VehiclesByOD[1-3] = %v, want [10]", got)
	}
}

func TestAnalyseUndefinedInsideWindow(t *testing.T) {
	meta, err := dsmeta.Decode([]byte(`{
		"frame_interval": 0.1,
		"lane_sequence_to_movement_map": {"1-1": "through"}
	}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// Vehicles 1 and 3 pin the recording window; vehicle 7 has an
	// unmapped OD but is fully observed, so it counts as Undefined.
	table := buildTable(t,
		[]float64{0.0, 20.0, 5.0, 6.0, 10.0, 30.0},
		[]int64{1, 1, 2, 4, 1, 1},
		[]int64{1, 1, 7, 7, 3, 3},
	)

	stats, err := Analyse(table, meta)
	if err != nil {
		t.Fatalf("Analyse failed: %v", err)
	}

	if stats.ByMovement[Undefined] != 1 {
		t.Errorf("ByMovement[Undefined] = %d, want 1", stats.ByMovement[Undefined])
	}
	if stats.ByOD["2-4"] != 1 {
		t.Errorf("ByOD[2-4] = %d, want 1", stats.ByOD["2-4"])
	}
	if stats.FilteredPartial != 0 {
		t.Errorf("FilteredPartial = %d, want 0", stats.FilteredPartial)
	}
}

func TestAnalyseNoMovementMap(t *testing.T) {
	// Without a mapping every fully observed vehicle is Undefined.
	table := buildTable(t,
		[]float64{0.0, 10.0, 5.0, 5.5},
		[]int64{1, 1, 2, 2},
		[]int64{1, 1, 5, 5},
	)

	stats, err := Analyse(table, dsmeta.Metadata{})
	if err != nil {
		t.Fatalf("Analyse failed: %v", err)
	}
	if stats.Identified != 0 {
		t.Errorf("Identified = %d, want 0", stats.Identified)
	}
	if stats.ByMovement[Undefined] != 1 {
		t.Errorf("ByMovement[Undefined] = %d, want 1 (vehicle 5)", stats.ByMovement[Undefined])
	}
}

func TestAnalyseMissingColumn(t *testing.T) {
	table, err := parquetstore.NewTable(
		parquetstore.FloatColumn("timestamp", []float64{0}),
		parquetstore.IntColumn("vehicle_id", []int64{1}),
	)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	_, err = Analyse(table, dsmeta.Metadata{})
	if !errors.Is(err, trackset.ErrSchema) {
		t.Errorf("Analyse without lane_id = %v, want ErrSchema", err)
	}
}

func TestAnalyseEmptyTable(t *testing.T) {
	table := buildTable(t, nil, nil, nil)

	stats, err := Analyse(table, dsmeta.Metadata{})
	if err != nil {
		t.Fatalf("Analyse failed: %v", err)
	}
	if stats.TotalVehicles != 0 {
		t.Errorf("TotalVehicles = %d, want 0", stats.TotalVehicles)
	}
}

func TestStatsOrdering(t *testing.T) {
	stats := &Stats{
		ByMovement: map[string]int{"through": 5, "left turn": 2, "Undefined": 5},
		ByOD:       map[string]int{"1-1": 5, "2-3": 2, "4-4": 5},
	}

	wantMovements := []string{"Undefined", "through", "left turn"}
	if diff := cmp.Diff(wantMovements, stats.Movements()); diff != "" {
		t.Errorf("Movements (-want +got):\n%s", diff)
	}
	wantOD := []string{"1-1", "4-4", "2-3"}
	if diff := cmp.Diff(wantOD, stats.ODPairs()); diff != "" {
		t.Errorf("ODPairs (-want +got):\n%s", diff)
	}
}
