package spacetime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/trajectory.report/internal/dsmeta"
	"github.com/banshee-data/trajectory.report/internal/trackset"
)

// testDataset builds a dataset with two plottable lanes and an invalid
// lane -1.
func testDataset() *trackset.Dataset {
	return &trackset.Dataset{
		Meta: dsmeta.Metadata{},
		Lanes: map[int64][]trackset.Trajectory{
			1: {
				{VehicleID: 10, Points: []trackset.Point{
					{Timestamp: 0.0, Position: 0, Speed: 10},
					{Timestamp: 0.1, Position: 1, Speed: 11},
					{Timestamp: 0.2, Position: 2, Speed: 12},
				}},
			},
			2: {
				{VehicleID: 20, Points: []trackset.Point{
					{Timestamp: 0.0, Position: 50, Speed: 20},
					{Timestamp: 0.1, Position: 52, Speed: 21},
				}},
			},
			-1: {
				{VehicleID: 30, Points: []trackset.Point{
					{Timestamp: 0.0, Position: 9, Speed: 5},
					{Timestamp: 0.1, Position: 10, Speed: 5},
				}},
			},
		},
	}
}

func TestRenderWritesOnePNGPerValidLane(t *testing.T) {
	dir := t.TempDir()

	written, err := Render(testDataset(), Config{OutputDir: dir})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("wrote %d files, want 2: %v", len(written), written)
	}

	for _, lane := range []string{"lane_1_spacetime.png", "lane_2_spacetime.png"} {
		path := filepath.Join(dir, lane)
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("missing %s: %v", lane, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", lane)
		}
	}

	// Lane -1 is invalid and must not be rendered.
	if _, err := os.Stat(filepath.Join(dir, "lane_-1_spacetime.png")); !os.IsNotExist(err) {
		t.Errorf("lane -1 diagram should not exist, stat err = %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	dir := t.TempDir()

	written, err := Render(testDataset(), Config{OutputDir: dir, HTML: true})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(written) != 4 {
		t.Fatalf("wrote %d files, want 4 (png+html per lane): %v", len(written), written)
	}
	for _, name := range []string{"lane_1_spacetime.html", "lane_2_spacetime.html"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRenderRequiresOutputDir(t *testing.T) {
	if _, err := Render(testDataset(), Config{}); err == nil {
		t.Error("Render without OutputDir should fail")
	}
}

func TestRenderSkipsSinglePointTrajectories(t *testing.T) {
	ds := &trackset.Dataset{
		Meta: dsmeta.Metadata{},
		Lanes: map[int64][]trackset.Trajectory{
			4: {
				{VehicleID: 1, Points: []trackset.Point{{Timestamp: 0, Position: 1, Speed: 3}}},
			},
		},
	}

	written, err := Render(ds, Config{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(written) != 0 {
		t.Errorf("single-point lane produced output: %v", written)
	}
}

func TestSplitRuns(t *testing.T) {
	points := []trackset.Point{
		{Timestamp: 0.0}, {Timestamp: 0.1}, {Timestamp: 0.2},
		{Timestamp: 1.0}, {Timestamp: 1.1},
	}

	runs := splitRuns(points, 0.15)
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if len(runs[0]) != 3 || len(runs[1]) != 2 {
		t.Errorf("run sizes = %d,%d; want 3,2", len(runs[0]), len(runs[1]))
	}
}

func TestGapThresholdFromMetadata(t *testing.T) {
	meta, err := dsmeta.Decode([]byte(`{"frame_interval": 0.2}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	ds := &trackset.Dataset{Meta: meta}

	got := gapThreshold(ds)
	want := 0.3
	if got < want-1e-9 || got > want+1e-9 {
		t.Errorf("gapThreshold = %v, want %v", got, want)
	}

	// Fallback when metadata is silent.
	ds = &trackset.Dataset{Meta: dsmeta.Metadata{}}
	if got := gapThreshold(ds); got != 1.5*defaultFrameInterval {
		t.Errorf("default gapThreshold = %v", got)
	}
}

func TestSpeedColorClamps(t *testing.T) {
	slow := speedColor(0, 35)
	fast := speedColor(100, 35) // clamped to max
	if slow == fast {
		t.Error("speed colour scale is flat")
	}
	if fast != speedColor(35, 35) {
		t.Error("speeds beyond max should clamp to the max colour")
	}
}
