/*
Package observability turns engine lifecycle events into metrics and logs.

Metrics registers Prometheus collectors on a caller-supplied registry and exposes
them as domain.LifecycleHooks; LoggingHooks does the same for slog. Combine
merges several hook sets so both can be installed at once:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))
	engine := gamebook.New(store, gamebook.WithLifecycleHooks(hooks))
*/
package observability
