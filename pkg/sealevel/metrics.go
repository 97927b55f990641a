package sealevel

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpi_invocations_total",
			Help: "Total number of cross-program invocations by outcome",
		}, []string{"outcome"})
	invocationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpi_invocation_errors_total",
			Help: "Total number of failed cross-program invocations by error",
		}, []string{"reason"})
	invocationDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cpi_invocation_depth",
			Help:    "Nesting depth of cross-program invocations",
			Buckets: prometheus.LinearBuckets(1, 1, 8),
		})
	transactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cpi_transactions_total",
			Help: "Total number of executed transactions by outcome",
		}, []string{"outcome"})
)

const (
	outcomeSuccess     = "success"
	outcomeCalleeError = "callee_error"
	outcomeRejected    = "rejected"
	outcomeFatal       = "fatal"
)

func outcomeOf(status uint64, err error) string {
	switch {
	case IsFatal(err):
		return outcomeFatal
	case err != nil:
		return outcomeRejected
	case status != StatusSuccess:
		return outcomeCalleeError
	}
	return outcomeSuccess
}

var errorReasons = []error{
	ErrPrivilegeEscalation,
	ErrAccountAliasingViolation,
	ErrCallDepthExceeded,
	ErrResourceLimitExceeded,
	ErrProgramNotExecutable,
	ErrUnresolvedAccount,
	ErrInvalidSeeds,
	ErrNoValidAddress,
	ErrReturnDataTooLarge,
	ErrReadonlyDataModified,
	ErrReentrancyNotAllowed,
	ErrProgramNotSupported,
	ErrInvalidArgument,
}

// reasonOf labels an error by its taxonomy class.
func reasonOf(err error) string {
	for _, reason := range errorReasons {
		if errors.Is(err, reason) {
			return reason.Error()
		}
	}
	return "other"
}

func observeInvocation(depth int, status uint64, err error) {
	invocationDepth.Observe(float64(depth))
	invocationsTotal.WithLabelValues(outcomeOf(status, err)).Inc()
	if err != nil {
		invocationErrors.WithLabelValues(reasonOf(err)).Inc()
	}
}
