package service

import (
	"errors"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hypothesisTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teambrain_hypothesis_transitions_total",
		Help: "Hypothesis status transitions by edge and result",
	}, []string{"from", "to", "result"})

	verificationsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teambrain_verifications_total",
		Help: "Verification records appended, by result",
	}, []string{"result"})

	verificationStates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teambrain_verification_state_changes_total",
		Help: "Aggregate verification state changes, by new state",
	}, []string{"state"})

	qualitySnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teambrain_quality_scores_total",
		Help: "Quality scores recorded, by whether the snapshot was replaced",
	}, []string{"snapshot"})

	suggestionResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teambrain_suggestion_responses_total",
		Help: "Sharing suggestion responses by decision and result",
	}, []string{"decision", "result"})

	suggestionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teambrain_suggestions_expired_total",
		Help: "Pending sharing suggestions rejected by the expirer",
	})

	conflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teambrain_conflicts_total",
		Help: "Operations that failed an optimistic concurrency check",
	}, []string{"operation"})
)

// outcome labels err for the result dimension of a counter.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "error"
}
