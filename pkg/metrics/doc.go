/*
Package metrics provides Prometheus metrics collection and exposition for
the memory engine, plus a small health-check registry behind the /health,
/ready, and /live endpoints, which cmd/memoriad serves on its metrics
listener alongside /metrics (not on the HTTP transport).

# Metric categories

  - Coordinator (§4.3): MemNodesTotal (by class/tier), MemEdgesTotal,
    Promotions/Demotions (by class/destination tier).
  - Hot vector index (§4.4): VectorCount, VectorQueryTotal,
    VectorQueryDuration.
  - Hot graph index (§4.5): GraphQueryTotal (by traversal kind).
  - Task scheduler (§4.8): SchedulerQueueDepth (by priority),
    TaskExecutions (by kind/outcome).
  - Route dispatch (§4.9): APIRequestsTotal, APIRequestDuration (by route).

All metrics are registered via prometheus.MustRegister in this package's
init(), the same pattern the teacher repo uses; Handler() returns the
standard promhttp.Handler() for mounting on a transport's metrics route.

# Collector

Collector polls the two hot indexes and the scheduler's queue depths on a
15-second interval and republishes their state as gauges. It is parameterized by
plain closures rather than concrete package types so that pkg/metrics
itself stays free of a dependency on pkg/coordinator, pkg/vectorindex, or
pkg/graphindex — the caller (cmd/memoriad's serve command) wires the
closures once, at startup, the same way the teacher's cmd/warren wires its
own Collector to a *manager.Manager.

# Health checks

HealthChecker tracks a small set of named components ("storage",
"coordinator", "api") as healthy/unhealthy, matching the shape of the
teacher's own health package almost unchanged — only the critical
component names differ, since this process has no Raft leader or
container runtime to report on. HealthHandler, ReadyHandler, and
LivenessHandler back the three conventional HTTP probes.

# Usage

	metrics.SetVersion(buildVersion)
	metrics.RegisterComponent("storage", true, "")
	metrics.RegisterComponent("coordinator", true, "")

	collector := metrics.NewCollector(
		func() metrics.VectorIndexStats { return metrics.VectorIndexStats{Count: int64(vecIdx.Len())} },
		func() metrics.GraphIndexStats {
			return metrics.GraphIndexStats{NodeCount: graphIdx.NodeCount(), EdgeCount: graphIdx.EdgeCount()}
		},
		nil,
	)
	collector.Start()
	defer collector.Stop()

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())
*/
package metrics
