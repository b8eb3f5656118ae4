package access

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// decisions counts gate evaluations by action, actor level and outcome.
var decisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "yamdb_access_decisions_total",
	Help: "Total number of access policy evaluations",
}, []string{"action", "level", "outcome"})

func recordDecision(action Action, identity *Identity, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	decisions.WithLabelValues(string(action), identity.Level().String(), outcome).Inc()
}
