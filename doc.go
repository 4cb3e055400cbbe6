// Package inviwo is a dataflow processor-network core: a mutable graph
// of processors connected through typed ports, with a property tree per
// processor, invalidation propagation, two-way property links, and
// workspace persistence.
//
// # Architecture
//
// The module is layered from the property tree upwards:
//
//   - property: the observable property tree. Leaf value properties,
//     composite properties, invalidation levels, two-phase add/remove
//     observation and record-based serialization.
//   - processor: processors with typed inports/outports, connection
//     capacity, and invalidation state; the processor factory registry.
//   - network: the processor network. Structural mutation with two-phase
//     observers and a reentrant advisory lock, link evaluation,
//     traversal and topological sorting, processor replacement,
//     auto-linking.
//   - workspace: versioned JSON documents, lossless round-trip with
//     per-item error recovery, partial copy/paste, file storage and
//     NATS JetStream KV storage.
//   - module: factory-contributing modules with dependency-ordered
//     loading and live reload under a populated network.
//
// Around the core sit the serving surfaces: metric (prometheus
// collectors fed by a network observer), gateway (websocket event
// stream of network changes) and cmd/inviwo (the headless host).
//
// # Concurrency
//
// A single logical owner goroutine mutates and evaluates the network.
// The network lock is a reentrant deferral counter that batches
// observer notifications, not a mutex. The factories, the config
// wrapper and the workspace store carry their own synchronization since
// tooling reads them from other goroutines.
package inviwo
