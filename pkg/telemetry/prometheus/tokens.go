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
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

var (
	tokensIssued atomic.Uint64

	promTokenCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: livekitNamespace,
		Subsystem: "token",
		Name:      "issued",
	}, []string{"state"})
)

func initTokenStats() {
	prometheus.MustRegister(promTokenCounter)
}

func TokenIssued() {
	promTokenCounter.WithLabelValues("success").Inc()
	tokensIssued.Inc()
}

func TokenFailed(state string) {
	promTokenCounter.WithLabelValues(state).Inc()
}

func TokensIssued() uint64 {
	return tokensIssued.Load()
}
