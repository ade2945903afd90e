package host

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/boypayge/Blockchain-Based-Specialized-Gemstone-Certification/internal/ir"
)

// Metrics records host activity. A nil *Metrics records nothing.
type Metrics struct {
	calls  *prometheus.CounterVec
	height prometheus.Gauge
	stones prometheus.Gauge
}

// NewMetrics registers the host collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gemledger_calls_total",
			Help: "Executed calls by action and output case.",
		}, []string{"action", "case"}),
		height: f.NewGauge(prometheus.GaugeOpts{
			Name: "gemledger_height",
			Help: "Current ledger height.",
		}),
		stones: f.NewGauge(prometheus.GaugeOpts{
			Name: "gemledger_stones_registered",
			Help: "Last allocated stone identifier.",
		}),
	}
}

func (m *Metrics) observeCall(action ir.ActionRef, outcomeCase string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(string(action), outcomeCase).Inc()
}

func (m *Metrics) observeState(h ir.Height, lastStone ir.StoneID) {
	if m == nil {
		return
	}
	m.height.Set(float64(h))
	m.stones.Set(float64(lastStone))
}
