// Copyright 2025 The Mongoward Authors
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

package supervisor

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	startsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongoward_starts_total",
			Help: "Total startup attempts by outcome (ready, port_conflict, spawn_error, premature_exit, timeout, stopped)",
		},
		[]string{"outcome"},
	)

	stopsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongoward_stops_total",
			Help: "Total completed stops, labeled by whether forced termination was required",
		},
		[]string{"forced"},
	)

	startupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mongoward_startup_duration_seconds",
			Help:    "Time from start request to readiness for successful startups",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	stateGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mongoward_state",
			Help: "Current lifecycle state (0=stopped, 1=starting, 2=running, 3=stopping)",
		},
	)
)

func recordStartOutcome(outcome string) {
	startsTotal.WithLabelValues(outcome).Inc()
}

func recordStartReady(d time.Duration) {
	startsTotal.WithLabelValues("ready").Inc()
	startupDuration.Observe(d.Seconds())
}

func recordStop(forced bool) {
	stopsTotal.WithLabelValues(strconv.FormatBool(forced)).Inc()
}

func recordState(s State) {
	stateGauge.Set(float64(s))
}
