// Package trackset rebuilds the structured in-memory trajectory dataset
// from a flat columnar table: rows grouped first by lane, then by vehicle
// within each lane, in source row order.
//
// Reconstruction never re-sorts by timestamp. If the source rows are out
// of order the dataset reflects that, so upstream ordering problems stay
// visible instead of being silently masked.
package trackset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/trajectory.report/internal/dsmeta"
	"github.com/banshee-data/trajectory.report/internal/parquetstore"
)

// ErrSchema reports a table missing one of the required trajectory
// columns. Match with errors.Is.
var ErrSchema = errors.New("missing required column")

// Required column names of the trajectory schema.
const (
	ColTimestamp = "timestamp"
	ColPosition  = "position"
	ColSpeed     = "speed"
	ColLaneID    = "lane_id"
	ColVehicleID = "vehicle_id"
)

// RequiredColumns lists the columns a table must carry to be
// reconstructed.
var RequiredColumns = []string{ColTimestamp, ColPosition, ColSpeed, ColLaneID, ColVehicleID}

// Point is one trajectory sample.
type Point struct {
	Timestamp float64 // seconds
	Position  float64 // metres along the roadway
	Speed     float64 // m/s
}

// Trajectory is the ordered samples of one vehicle within one lane.
type Trajectory struct {
	VehicleID int64
	Points    []Point
}

// Dataset is the reconstructed read-side view of a stored file: per-lane
// trajectories plus the decoded metadata. It is never persisted directly.
type Dataset struct {
	Lanes map[int64][]Trajectory
	Meta  dsmeta.Metadata
}

// LaneIDs returns the lane identifiers in ascending order.
func (d *Dataset) LaneIDs() []int64 {
	ids := make([]int64, 0, len(d.Lanes))
	for id := range d.Lanes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NumTrajectories returns the total trajectory count across all lanes.
func (d *Dataset) NumTrajectories() int {
	n := 0
	for _, trajs := range d.Lanes {
		n += len(trajs)
	}
	return n
}

// Reconstruct groups the flat table into per-lane trajectories. Within a
// lane, trajectories appear in first-appearance order and keep their
// source row order. The table and metadata are not mutated. A table
// missing any required column fails with ErrSchema.
func Reconstruct(table *parquetstore.Table, meta dsmeta.Metadata) (*Dataset, error) {
	for _, name := range RequiredColumns {
		if _, ok := table.Column(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrSchema, name)
		}
	}

	ts, _ := table.Column(ColTimestamp)
	pos, _ := table.Column(ColPosition)
	spd, _ := table.Column(ColSpeed)
	lane, _ := table.Column(ColLaneID)
	veh, _ := table.Column(ColVehicleID)

	type key struct {
		lane int64
		veh  int64
	}
	lanes := make(map[int64][]Trajectory)
	index := make(map[key]int)

	for i := 0; i < table.NumRows(); i++ {
		laneID := lane.Int64(i)
		vehID := veh.Int64(i)
		k := key{laneID, vehID}

		j, ok := index[k]
		if !ok {
			j = len(lanes[laneID])
			lanes[laneID] = append(lanes[laneID], Trajectory{VehicleID: vehID})
			index[k] = j
		}
		lanes[laneID][j].Points = append(lanes[laneID][j].Points, Point{
			Timestamp: ts.Float64(i),
			Position:  pos.Float64(i),
			Speed:     spd.Float64(i),
		})
	}

	return &Dataset{Lanes: lanes, Meta: meta}, nil
}
