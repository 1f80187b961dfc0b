package sales

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	reasonEmptyCart = "empty_cart"
	reasonStock     = "insufficient_stock"
	reasonStore     = "store"
)

// Metrics exposes Prometheus collectors for sale commits.
type Metrics struct {
	commits  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the sales metrics against registerer, or the default
// Prometheus registerer when nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retailpad_sale_commits_total",
		Help: "Successful sale commits, split by whether the commit token was replayed.",
	}, []string{"replayed"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retailpad_sale_commit_failures_total",
		Help: "Rejected or failed sale commits by reason.",
	}, []string{"reason"})
	registerer.MustRegister(commits, failures)
	return &Metrics{commits: commits, failures: failures}
}

// Committed counts a successful commit.
func (m *Metrics) Committed(replayed bool) {
	if m == nil {
		return
	}
	label := "false"
	if replayed {
		label = "true"
	}
	m.commits.WithLabelValues(label).Inc()
}

// Failed counts a commit that did not produce a sale.
func (m *Metrics) Failed(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}

func reasonFor(err error) string {
	var stockErr *StockError
	if errors.As(err, &stockErr) {
		return reasonStock
	}
	return reasonStore
}
