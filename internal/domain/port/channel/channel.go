package channel

import (
	"context"
)

// Outcome is the result of a single delivery attempt.
type Outcome struct {
	OK  bool
	Err string
}

// Failure builds a failed Outcome from an error.
func Failure(err error) Outcome {
	if err == nil {
		return Outcome{OK: false, Err: "sender returned false"}
	}
	return Outcome{OK: false, Err: err.Error()}
}

// Success is the zero-cost successful Outcome.
func Success() Outcome {
	return Outcome{OK: true}
}

// Sender is the uniform delivery capability implemented once per channel.
// Attempt must validate the destination locally before performing any
// external I/O and must never panic across this boundary.
type Sender interface {
	Attempt(ctx context.Context, destination, title, body string) Outcome
}
