// Package movement derives origin-destination statistics from a
// trajectory table. Each vehicle's first and last lane form an OD key
// ("startLane-endLane") which the dataset metadata's
// lane_sequence_to_movement_map translates into a movement name.
package movement

import (
	"fmt"
	"sort"

	"github.com/banshee-data/trajectory.report/internal/dsmeta"
	"github.com/banshee-data/trajectory.report/internal/parquetstore"
	"github.com/banshee-data/trajectory.report/internal/trackset"
)

// MovementMapKey is the metadata key holding the OD-to-movement mapping.
const MovementMapKey = "lane_sequence_to_movement_map"

// Undefined names movements with no entry in the mapping.
const Undefined = "Undefined"

// boundaryFrames is the margin, in frames, used to filter vehicles whose
// observation starts or ends at the edge of the recording. A vehicle with
// an Undefined movement that is already present near the global start or
// still present near the global end was only partially observed, so its
// OD pair says nothing about its real movement.
const boundaryFrames = 3

// Stats holds the analysis result.
type Stats struct {
	TotalVehicles   int
	Identified      int // vehicles with a mapped movement name
	FilteredPartial int // Undefined vehicles dropped at the time boundary
	ByMovement      map[string]int
	ByOD            map[string]int
	VehiclesByOD    map[string][]int64
}

// ODPairs returns the OD keys sorted by descending count, ties broken by
// key, for stable reporting.
func (s *Stats) ODPairs() []string {
	keys := make([]string, 0, len(s.ByOD))
	for k := range s.ByOD {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.ByOD[keys[i]] != s.ByOD[keys[j]] {
			return s.ByOD[keys[i]] > s.ByOD[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Movements returns movement names sorted by descending count, ties
// broken by name.
func (s *Stats) Movements() []string {
	names := make([]string, 0, len(s.ByMovement))
	for n := range s.ByMovement {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.ByMovement[names[i]] != s.ByMovement[names[j]] {
			return s.ByMovement[names[i]] > s.ByMovement[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// vehicleSpan tracks one vehicle's observation extent in row order.
type vehicleSpan struct {
	id        int64
	startLane int64
	endLane   int64
	firstTS   float64
	lastTS    float64
}

// Analyse counts movements and OD pairs across all vehicles in the
// table. Required columns are timestamp, lane_id and vehicle_id; their
// absence fails with trackset.ErrSchema.
func Analyse(table *parquetstore.Table, meta dsmeta.Metadata) (*Stats, error) {
	for _, name := range []string{trackset.ColTimestamp, trackset.ColLaneID, trackset.ColVehicleID} {
		if _, ok := table.Column(name); !ok {
			return nil, fmt.Errorf("%w: %s", trackset.ErrSchema, name)
		}
	}
	ts, _ := table.Column(trackset.ColTimestamp)
	lane, _ := table.Column(trackset.ColLaneID)
	veh, _ := table.Column(trackset.ColVehicleID)

	movementMap, _ := meta.StringMap(MovementMapKey)

	frameInterval := 0.1
	if v, ok := meta.Float("frame_interval"); ok && v > 0 {
		frameInterval = v
	}
	margin := boundaryFrames * frameInterval

	// Gather per-vehicle spans in first-appearance order.
	var order []int64
	spans := make(map[int64]*vehicleSpan)
	for i := 0; i < table.NumRows(); i++ {
		id := veh.Int64(i)
		sp, ok := spans[id]
		if !ok {
			sp = &vehicleSpan{id: id, startLane: lane.Int64(i), firstTS: ts.Float64(i)}
			spans[id] = sp
			order = append(order, id)
		}
		sp.endLane = lane.Int64(i)
		sp.lastTS = ts.Float64(i)
	}

	stats := &Stats{
		TotalVehicles: len(order),
		ByMovement:    make(map[string]int),
		ByOD:          make(map[string]int),
		VehiclesByOD:  make(map[string][]int64),
	}
	if len(order) == 0 {
		return stats, nil
	}

	globalMin := spans[order[0]].firstTS
	globalMax := spans[order[0]].lastTS
	for _, id := range order {
		sp := spans[id]
		if sp.firstTS < globalMin {
			globalMin = sp.firstTS
		}
		if sp.lastTS > globalMax {
			globalMax = sp.lastTS
		}
	}

	for _, id := range order {
		sp := spans[id]
		od := fmt.Sprintf("%d-%d", sp.startLane, sp.endLane)

		name, mapped := movementMap[od]
		if !mapped {
			name = Undefined
		}

		if name == Undefined {
			// Partially observed vehicles cannot be classified.
			if sp.firstTS < globalMin+margin || sp.lastTS > globalMax-margin {
				stats.FilteredPartial++
				continue
			}
		}

		stats.ByMovement[name]++
		stats.ByOD[od]++
		stats.VehiclesByOD[od] = append(stats.VehiclesByOD[od], id)
		if name != Undefined {
			stats.Identified++
		}
	}
	return stats, nil
}
