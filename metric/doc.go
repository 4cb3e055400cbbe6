// Package metric provides Prometheus metrics for the processor network
// and an HTTP server exposing them.
//
// The core metrics track the structural state of the network (processor,
// connection and link counts), mutation and invalidation rates, and
// evaluation-order timing. A network observer feeds them automatically:
//
//	registry := metric.NewRegistry()
//	net.AddObserver(metric.NewObserver(registry.Core()))
//
//	server := metric.NewServer(":9090", "/metrics", registry)
//	go server.Start()
//	defer server.Stop()
//
// Tooling can register additional collectors through Registry.Register.
// All registry operations are safe for concurrent use.
package metric
