// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments gateway request volume, cascade depth, and latency.
type Metrics struct {
	RequestsTotal  *prometheus.CounterVec
	CascadeDepth   prometheus.Histogram
	RequestLatency *prometheus.HistogramVec
	CostUSDTotal   *prometheus.CounterVec
}

// NewMetrics registers the gateway's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_gateway_requests_total",
			Help: "Total completion requests by selected model and outcome.",
		}, []string{"model", "outcome"}),
		CascadeDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "llm_gateway_cascade_depth",
			Help:    "Number of candidates tried before a request succeeded or was exhausted.",
			Buckets: prometheus.LinearBuckets(1, 1, 8),
		}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_gateway_request_duration_seconds",
			Help:    "End-to-end completion latency by selected model.",
			Buckets: prometheus.DefBuckets,
		}, []string{"model"}),
		CostUSDTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_gateway_cost_usd_total",
			Help: "Estimated cost attributed per model.",
		}, []string{"model"}),
	}
	reg.MustRegister(m.RequestsTotal, m.CascadeDepth, m.RequestLatency, m.CostUSDTotal)
	return m
}

// Observe records one completed (successful or exhausted) gateway call.
func (m *Metrics) Observe(model, outcome string, cascadeDepth int, latencySeconds, costUSD float64) {
	m.RequestsTotal.WithLabelValues(model, outcome).Inc()
	m.CascadeDepth.Observe(float64(cascadeDepth))
	if model != "" {
		m.RequestLatency.WithLabelValues(model).Observe(latencySeconds)
		m.CostUSDTotal.WithLabelValues(model).Add(costUSD)
	}
}
