// Copyright (c) 2025, MinBackup Authors.  All rights reserved.
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

package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scheduler tick metrics
	tickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "minbackup_scheduler_tick_duration_seconds",
			Help:    "Time taken to complete a full scheduler tick",
			Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800},
		},
	)

	tickTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minbackup_scheduler_tick_total",
			Help: "Total number of scheduler ticks",
		},
		[]string{"status"}, // success or partial
	)

	vmFailureTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "minbackup_scheduler_vm_failures_total",
			Help: "Total number of per-VM failures across all ticks",
		},
	)

	vmProcessedGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "minbackup_scheduler_vms_processed",
			Help: "Number of VMs processed in the last tick",
		},
	)
)
