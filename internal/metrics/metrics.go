// Package metrics exposes the SDK's ambient Prometheus metrics: crypto
// operation counters/durations, login/auth outcomes, and key-session
// batch-upload activity. Package user records its crypto operations
// here, group/keysession records key-session batches and the fakeserver
// test double records login outcomes; nothing in the SDK reads the
// values back.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "vaultsdk"

// Registry is the Prometheus registry all metrics in this package
// register against. Callers that expose a /metrics endpoint serve this
// registry rather than the global default, so tests can spin up
// isolated instances.
var Registry = prometheus.NewRegistry()
