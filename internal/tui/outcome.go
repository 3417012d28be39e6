package tui

import (
	"time"

	"github.com/theirongolddev/ghlc/internal/api"
)

type outcomeState int

const (
	stateIdle outcomeState = iota
	stateLoading
	stateSuccess
	stateFailure
)

func (s outcomeState) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case stateSuccess:
		return "success"
	case stateFailure:
		return "failure"
	default:
		return "idle"
	}
}

// outcome is the result of a widget's latest action. Each action replaces it.
type outcome struct {
	state   outcomeState
	message string
	at      time.Time
	elapsed time.Duration
}

func (o outcome) loading() bool { return o.state == stateLoading }

func (o outcome) start() outcome {
	return outcome{state: stateLoading, at: time.Now()}
}

// finish settles a loading outcome from an action's result.
func (o outcome) finish(err error, okMessage string) outcome {
	next := outcome{state: stateSuccess, message: okMessage, at: time.Now()}
	if !o.at.IsZero() {
		next.elapsed = next.at.Sub(o.at)
	}
	if err != nil {
		next.state = stateFailure
		next.message = api.UserMessage(err)
	}
	return next
}

func failed(err error) outcome {
	return outcome{state: stateFailure, message: api.UserMessage(err), at: time.Now()}
}
