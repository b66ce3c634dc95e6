package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage names used as the stage label.
const (
	StageCell       = "cell"
	StageCavity     = "cavity"
	StageNeighbors  = "neighbors"
	StageBonds      = "bonds"
	StageScene      = "scene"
	StageInstancers = "instancers"
)

var (
	// stageDuration measures each pipeline stage.
	// Labels: stage
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "batoms",
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"stage"})

	// cavitySpheres tracks how many spheres survive a detection pass.
	cavitySpheres = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "batoms",
		Name:      "cavity_spheres",
		Help:      "Number of cavity spheres per detection pass",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})
)

// observe records the time since start for stage and returns the elapsed
// duration for logging.
func observe(stage string, start time.Time) time.Duration {
	d := time.Since(start)
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	return d
}
