package session

import (
	"errors"

	"github.com/looplab/fsm"

	"github.com/rocketscienceinc/othello-viewer/internal/entity"
)

const (
	eventStart       = "start"
	eventStarted     = "started"
	eventStartFailed = "start_failed"
	eventFinished    = "finished"
	eventPollFailed  = "poll_failed"
	eventReset       = "reset"
)

var (
	stateAwaitingSetup = string(entity.PhaseAwaitingSetup)
	stateStarting      = string(entity.PhaseStarting)
	stateActive        = string(entity.PhaseActive)
	stateTerminal      = string(entity.PhaseTerminal)
	stateErrorPaused   = string(entity.PhaseErrorPaused)
)

func newStateMachine(onEnter func(e *fsm.Event)) *fsm.FSM {
	return fsm.NewFSM(
		stateAwaitingSetup,
		fsm.Events{
			{
				Name: eventStart,
				Src:  []string{stateAwaitingSetup},
				Dst:  stateStarting,
			},
			{
				Name: eventStarted,
				Src:  []string{stateStarting},
				Dst:  stateActive,
			},
			{
				Name: eventStartFailed,
				Src:  []string{stateStarting},
				Dst:  stateAwaitingSetup,
			},
			{
				Name: eventFinished,
				Src:  []string{stateActive},
				Dst:  stateTerminal,
			},
			{
				Name: eventPollFailed,
				Src:  []string{stateActive},
				Dst:  stateErrorPaused,
			},
			{
				Name: eventReset,
				Src: []string{
					stateStarting,
					stateActive,
					stateTerminal,
					stateErrorPaused,
				},
				Dst: stateAwaitingSetup,
			},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) { onEnter(e) },
		},
	)
}

func (that *Controller) enterState(e *fsm.Event) {
	that.logger.Debug("phase changed", "event", e.Event, "from", e.Src, "to", e.Dst)
}

// fire - must be called with mu held.
func (that *Controller) fire(event string) {
	if err := that.sm.Event(event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return
		}

		that.logger.Error("invalid phase transition", "event", event, "phase", that.sm.Current(), "error", err)
	}
}

func (that *Controller) phaseLocked() entity.Phase {
	return entity.Phase(that.sm.Current())
}
