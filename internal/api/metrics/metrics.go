// Package metrics defines the Prometheus metrics of the revenue tracker API.
// All metrics register with the default registry on package init via promauto
// and are exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "revtrack"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "failed", "throttled" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// AccessDeniedTotal counts requests refused by the access guard.
// Labels:
//   - kind: no_credential_supplied, session_invalid, account_gone, session_superseded
//   - token_error: for session_invalid, the token failure (expired, invalid_signature, malformed)
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Requests denied by the access guard, by internal denial kind.",
	},
	[]string{"kind", "token_error"},
)

// ForbiddenTotal counts authenticated requests rejected by a role gate.
var ForbiddenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forbidden_total",
		Help:      "Authenticated requests rejected for insufficient role.",
	},
	[]string{"role"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks events waiting in each audit worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending per worker.",
	},
	[]string{"worker_id"},
)

// AuditEventsDroppedTotal counts audit events lost to a full buffer.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Audit events dropped because the worker buffer was full.",
	},
)
