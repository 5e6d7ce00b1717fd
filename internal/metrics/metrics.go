// Package metrics holds the domain-specific Prometheus collectors: proof
// verification outcomes, cache hit rate, and nullifier registrations. HTTP
// request-level metrics live in internal/api/http/middleware instead,
// since they aren't specific to any one service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProofVerificationTotal counts VerifyProof outcomes by result:
// "valid", "invalid", "replay", or "error".
var ProofVerificationTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "zeroid",
		Subsystem: "verifier",
		Name:      "proof_verifications_total",
		Help:      "Total proof verification outcomes by result.",
	},
	[]string{"result"},
)

// CacheLookupsTotal counts proof cache lookups by tier ("l1" or "l2") and
// outcome ("hit" or "miss").
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "zeroid",
		Subsystem: "verifier",
		Name:      "cache_lookups_total",
		Help:      "Total proof cache lookups by tier and outcome.",
	},
	[]string{"tier", "outcome"},
)

// NullifierRegistrationsTotal counts nullifier registration attempts by
// outcome ("registered" or "replay").
var NullifierRegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "zeroid",
		Subsystem: "verifier",
		Name:      "nullifier_registrations_total",
		Help:      "Total nullifier registration attempts by outcome.",
	},
	[]string{"outcome"},
)
