package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RotationsTotal counts issued join tokens across all sessions.
var RotationsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rollcall_token_rotations_total",
	Help: "Number of join token rotations performed.",
})

// CheckinsTotal counts check-in attempts by outcome
// (ok, rejected, error).
var CheckinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rollcall_checkins_total",
	Help: "Number of student check-in attempts by outcome.",
}, []string{"outcome"})
