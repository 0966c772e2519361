// Copyright 2023 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

var (
	recordingCurrent atomic.Int32
	recordingStarts  atomic.Uint64
	recordingStops   atomic.Uint64
	recordingFailed  atomic.Uint64

	promRecordingCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: livekitNamespace,
		Subsystem: "recording",
		Name:      "total",
		Help:      "Rooms currently being recorded.",
	})
	promRecordingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: livekitNamespace,
		Subsystem: "recording",
		Name:      "duration_seconds",
		Buckets: []float64{
			10, 60, 5 * 60, 10 * 60, 30 * 60, 60 * 60, 2 * 60 * 60, 5 * 60 * 60,
		},
	})
	promRecordingCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: livekitNamespace,
		Subsystem: "recording",
		Name:      "requests",
	}, []string{"action", "state"})
	promEgressLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: livekitNamespace,
		Subsystem: "recording",
		Name:      "egress_request_ms",
		Buckets:   prometheus.ExponentialBucketsRange(10, 30000, 12),
	}, []string{"method"})
)

func initRecordingStats() {
	prometheus.MustRegister(promRecordingCurrent)
	prometheus.MustRegister(promRecordingDuration)
	prometheus.MustRegister(promRecordingCounter)
	prometheus.MustRegister(promEgressLatency)
}

func RecordingStarted() {
	promRecordingCurrent.Add(1)
	promRecordingCounter.WithLabelValues("start", "success").Inc()
	recordingCurrent.Inc()
	recordingStarts.Inc()
}

func RecordingStopped(startedAt time.Time) {
	if !startedAt.IsZero() {
		promRecordingDuration.Observe(float64(time.Since(startedAt)) / float64(time.Second))
		promRecordingCurrent.Sub(1)
		recordingCurrent.Dec()
	}
	promRecordingCounter.WithLabelValues("stop", "success").Inc()
	recordingStops.Inc()
}

// RecordingRejected counts a request refused before reaching the recording service,
// state being the reason, e.g. "conflict" or "not_found".
func RecordingRejected(action, state string) {
	promRecordingCounter.WithLabelValues(action, state).Inc()
}

func RecordingFailed(action string) {
	promRecordingCounter.WithLabelValues(action, "failure").Inc()
	recordingFailed.Inc()
}

func RecordEgressLatency(method string, d time.Duration) {
	promEgressLatency.WithLabelValues(method).Observe(float64(d.Milliseconds()))
}

type RecordingStats struct {
	Current int32
	Started uint64
	Stopped uint64
	Failed  uint64
}

func GetRecordingStats() RecordingStats {
	return RecordingStats{
		Current: recordingCurrent.Load(),
		Started: recordingStarts.Load(),
		Stopped: recordingStops.Load(),
		Failed:  recordingFailed.Load(),
	}
}
