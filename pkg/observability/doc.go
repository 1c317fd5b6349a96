/*
Package observability turns runtime lifecycle hooks into Prometheus metrics.

	metrics := observability.NewMetrics()
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}
	eng, err := arbor.New(source, arbor.WithLifecycleHooks(metrics.Hooks()))

The HTTP adapter serves the registry on /metrics.
*/
package observability
