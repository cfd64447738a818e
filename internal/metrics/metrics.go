// Package metrics collects attendance counters on a private registry and
// exports them in textfile-collector format. There is no HTTP surface to
// scrape, so snapshots are written to disk for the node exporter to pick up.
package metrics

import (
	"bytes"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Set holds the application metrics. A nil *Set is a valid no-op recorder.
type Set struct {
	registry *prometheus.Registry

	checkins    prometheus.Counter
	rejections  *prometheus.CounterVec
	manualMarks prometheus.Counter
	rotations   prometheus.Counter
	users       prometheus.Gauge
}

// NewSet builds and registers the metric set.
func NewSet() *Set {
	s := &Set{
		registry: prometheus.NewRegistry(),
		checkins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pointage_checkins_total",
			Help: "Self check-ins successfully recorded.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pointage_checkins_rejected_total",
			Help: "Self check-ins rejected, by reason.",
		}, []string{"reason"}),
		manualMarks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pointage_manual_marks_total",
			Help: "Administrative presence marks applied.",
		}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pointage_token_rotations_total",
			Help: "Daily token regenerations.",
		}),
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pointage_directory_users",
			Help: "Users currently in the directory.",
		}),
	}
	s.registry.MustRegister(s.checkins, s.rejections, s.manualMarks, s.rotations, s.users)
	return s
}

// IncCheckin counts a recorded self check-in.
func (s *Set) IncCheckin() {
	if s != nil {
		s.checkins.Inc()
	}
}

// IncRejection counts a rejected self check-in with its reason.
func (s *Set) IncRejection(reason string) {
	if s != nil {
		s.rejections.WithLabelValues(reason).Inc()
	}
}

// IncManualMark counts an administrative mark.
func (s *Set) IncManualMark() {
	if s != nil {
		s.manualMarks.Inc()
	}
}

// IncRotation counts a token regeneration.
func (s *Set) IncRotation() {
	if s != nil {
		s.rotations.Inc()
	}
}

// SetDirectoryUsers records the directory size.
func (s *Set) SetDirectoryUsers(n int) {
	if s != nil {
		s.users.Set(float64(n))
	}
}

// WriteTextfile dumps all metrics to path in the Prometheus text format,
// atomically via a temp file rename as the textfile collector expects.
func (s *Set) WriteTextfile(path string) error {
	if s == nil {
		return nil
	}
	mfs, err := s.registry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("metrics: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("metrics: commit: %w", err)
	}
	return nil
}
