package push

import (
	"fmt"
	"net/http"
)

// Outcome classifies the result of a single delivery attempt.
type Outcome int

const (
	Delivered Outcome = iota
	// Gone means the push service reported the endpoint as permanently invalid.
	Gone
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Gone:
		return "gone"
	case TransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome    Outcome
	StatusCode int
	Err        error
}

func transientFailure(err error) Result {
	return Result{Outcome: TransientFailure, Err: err}
}

// classifyStatus maps the push service response status to an Outcome.
func classifyStatus(statusCode int) Result {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return Result{Outcome: Delivered, StatusCode: statusCode}
	case statusCode == http.StatusNotFound || statusCode == http.StatusGone:
		return Result{Outcome: Gone, StatusCode: statusCode}
	default:
		return Result{
			Outcome:    TransientFailure,
			StatusCode: statusCode,
			Err:        fmt.Errorf("push service responded with status %d", statusCode),
		}
	}
}
