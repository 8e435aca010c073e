package spacetime

import (
	"fmt"
	"os"

	"github.com/banshee-data/trajectory.report/internal/trackset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// viridis ramp for the speed visual map.
var speedRamp = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// renderLaneHTML writes an interactive scatter chart of one lane's
// samples, time on X, position on Y, point colour driven by speed.
func renderLaneHTML(ds *trackset.Dataset, laneID int64, cfg Config, path string) error {
	var data []opts.ScatterData
	for _, traj := range ds.Lanes[laneID] {
		for _, pt := range traj.Points {
			data = append(data, opts.ScatterData{Value: []interface{}{pt.Timestamp, pt.Position, abs(pt.Speed)}})
		}
	}
	if len(data) == 0 {
		return nil
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fmt.Sprintf("Lane %d Time-Space", laneID), Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Lane %d Time-Space Diagram", laneID),
			Subtitle: fmt.Sprintf("trajectories=%d points=%d", len(ds.Lanes[laneID]), len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Position (m)", NameLocation: "middle", NameGap: 40}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(cfg.SpeedMax),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: speedRamp},
		}),
	)
	scatter.AddSeries(fmt.Sprintf("lane %d", laneID), data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scatter.Render(f)
}
