package notify

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jacentio/entrymodel/model"
)

// Metrics counts model operations.
type Metrics struct {
	Operations *prometheus.CounterVec
}

// NewMetrics creates the operation counter and registers it with reg.
// A nil reg leaves the counter unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of successful entry operations",
		},
		[]string{"model", "table", "action"},
	)

	if reg != nil {
		if err := reg.Register(ops); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
			ops = already.ExistingCollector.(*prometheus.CounterVec)
		}
	}

	return &Metrics{Operations: ops}, nil
}

// Callback returns a callback that increments the counter for each event.
func (m *Metrics) Callback() model.Callback {
	return func(ctx context.Context, ev model.Event) error {
		m.Operations.WithLabelValues(ev.ModelName, ev.TableName, string(ev.ActionType)).Inc()
		return nil
	}
}
