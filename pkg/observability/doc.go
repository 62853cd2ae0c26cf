/*
Package observability turns workflow lifecycle events into logs and Prometheus metrics.

Both are exposed as domain.LifecycleHooks so they can be merged and handed to the
controller and the collector:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.LogHooks(logger).Merge(metrics.Hooks())
*/
package observability
