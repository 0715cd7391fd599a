// Package notify provides ready-made model.Callback implementations.
//
// Callbacks compose with model.Chain:
//
//	metrics, err := notify.NewMetrics("entrymodel", prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	cfg.Callback = model.Chain(
//	    notify.Logger(logger),
//	    metrics.Callback(),
//	    notify.NewEventBridge(ebClient, "entries", logger).Callback(),
//	)
package notify
