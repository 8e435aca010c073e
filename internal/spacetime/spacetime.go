// Package spacetime renders per-lane time-space diagrams from a
// reconstructed trajectory dataset. Each lane gets one PNG: trajectory
// segments coloured by absolute speed on a fixed scale, with lane-change
// entry and exit points marked. Optionally an interactive HTML scatter
// chart is written alongside each PNG.
package spacetime

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/banshee-data/trajectory.report/internal/trackset"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultSpeedMax is the ceiling of the speed colour scale in m/s,
// roughly 120 km/h.
const DefaultSpeedMax = 35.0

// invalidLane marks samples outside any mapped lane and is never plotted.
const invalidLane = -1

// defaultFrameInterval is assumed when the metadata carries no
// frame_interval or time_step value.
const defaultFrameInterval = 0.1

// Config controls diagram rendering. OutputDir is explicit configuration,
// never ambient process state.
type Config struct {
	OutputDir string
	SpeedMax  float64 // colour scale ceiling in m/s; DefaultSpeedMax when zero
	HTML      bool    // also write an interactive HTML chart per lane
}

// Render writes one diagram per lane in the dataset and returns the
// paths written. Lanes with id -1 are skipped. Lanes whose trajectories
// carry fewer than two points produce no output.
func Render(ds *trackset.Dataset, cfg Config) ([]string, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("no output directory configured")
	}
	if cfg.SpeedMax <= 0 {
		cfg.SpeedMax = DefaultSpeedMax
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	gap := gapThreshold(ds)

	var written []string
	for _, laneID := range ds.LaneIDs() {
		if laneID == invalidLane {
			continue
		}
		paths, err := renderLane(ds, laneID, gap, cfg)
		if err != nil {
			return written, fmt.Errorf("lane %d: %w", laneID, err)
		}
		written = append(written, paths...)
	}
	return written, nil
}

// gapThreshold derives the sample gap above which a trajectory is
// considered to have left and re-entered the lane. A gap larger than
// 1.5 frame intervals cannot be two consecutive frames.
func gapThreshold(ds *trackset.Dataset) float64 {
	interval := defaultFrameInterval
	if v, ok := ds.Meta.Float("frame_interval"); ok && v > 0 {
		interval = v
	} else if v, ok := ds.Meta.Float("time_step"); ok && v > 0 {
		interval = v
	}
	return 1.5 * interval
}

func renderLane(ds *trackset.Dataset, laneID int64, gap float64, cfg Config) ([]string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Lane %d Time-Space Diagram", laneID)
	p.X.Label.Text = "Time [s]"
	p.Y.Label.Text = "Position [m]"

	var lcPoints plotter.XYs
	segments := 0

	for _, traj := range ds.Lanes[laneID] {
		runs := splitRuns(traj.Points, gap)
		for r, run := range runs {
			// A run boundary is a lane change: the vehicle left the
			// lane at the end of one run and re-entered at the start
			// of the next.
			if r > 0 {
				lcPoints = append(lcPoints, plotter.XY{X: run[0].Timestamp, Y: run[0].Position})
			}
			if r < len(runs)-1 {
				last := run[len(run)-1]
				lcPoints = append(lcPoints, plotter.XY{X: last.Timestamp, Y: last.Position})
			}

			for i := 0; i+1 < len(run); i++ {
				line, err := plotter.NewLine(plotter.XYs{
					{X: run[i].Timestamp, Y: run[i].Position},
					{X: run[i+1].Timestamp, Y: run[i+1].Position},
				})
				if err != nil {
					return nil, err
				}
				line.Color = speedColor(abs(run[i].Speed), cfg.SpeedMax)
				line.Width = vg.Points(1)
				p.Add(line)
				segments++
			}
		}
	}

	if segments == 0 {
		return nil, nil
	}

	if len(lcPoints) > 0 {
		scatter, err := plotter.NewScatter(lcPoints)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = color.Black
		scatter.GlyphStyle.Radius = vg.Points(2)
		p.Add(scatter)
		p.Legend.Add("lane change", scatter)
	}

	pngPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("lane_%d_spacetime.png", laneID))
	if err := p.Save(20*vg.Inch, 8*vg.Inch, pngPath); err != nil {
		return nil, err
	}
	paths := []string{pngPath}

	if cfg.HTML {
		htmlPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("lane_%d_spacetime.html", laneID))
		if err := renderLaneHTML(ds, laneID, cfg, htmlPath); err != nil {
			return paths, err
		}
		paths = append(paths, htmlPath)
	}
	return paths, nil
}

// splitRuns breaks a trajectory into contiguous sample runs: a new run
// starts wherever consecutive timestamps are more than gap apart.
func splitRuns(points []trackset.Point, gap float64) [][]trackset.Point {
	if len(points) == 0 {
		return nil
	}
	var runs [][]trackset.Point
	start := 0
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp-points[i-1].Timestamp > gap {
			runs = append(runs, points[start:i])
			start = i
		}
	}
	return append(runs, points[start:])
}

// speedColor maps an absolute speed onto a blue-to-red hue ramp, blue at
// standstill and red at max.
func speedColor(speed, max float64) color.Color {
	frac := speed / max
	if frac > 1 {
		frac = 1
	}
	hue := (1 - frac) * (2.0 / 3.0)
	r, g, b := hslToRGB(hue, 0.9, 0.45)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// hslToRGB converts HSL to RGB (0-255 range).
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
