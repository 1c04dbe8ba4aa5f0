package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Event is something observed by a sensor or posted by a background
// runner, consumed by controllers during a loop iteration.
type Event interface {
	// EventName is a short name used in diagnostics.
	EventName() string
}

// Controller defines the abstract controlling logic.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// TimeSource provides the time for controlling logic.
type TimeSource interface {
	Time() time.Time
}

// Stage orders controllers inside one iteration.
type Stage int

// Stages in execution order.
const (
	// StageSense polls peripherals and emits events.
	StageSense Stage = iota
	// StageDecide turns observations into decisions.
	StageDecide
	// StageActuate drives outputs (LEDs, relays).
	StageActuate
	// StageReport forwards results off the board.
	StageReport
	// StageIdle runs last, for bookkeeping.
	StageIdle

	// StageCount is the number of stages.
	StageCount int = iota
)

var stageNames = [...]string{"sense", "decide", "actuate", "report", "idle"}

// String implements fmt.Stringer.
func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// ControlContext provides the context of current control
// iteration.
type ControlContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// Stage gets the stage currently running.
	Stage() Stage
	// Events retrieves all events collected for this iteration.
	Events() EventStore

	LoopControl
}

// LoopControl exposes access to the controlling loop.
type LoopControl interface {
	// PostEvent enqueues an event for the next iteration.
	PostEvent(Event)
	// TriggerNext schedules the next iteration to be executed
	// immediately after the current iteration.
	TriggerNext()
	// Stop ends Run once the current iteration completes.
	Stop()
}

// EventStore provides read/write access to the events of an iteration.
type EventStore interface {
	// ProcessEvents uses a processor to process all events.
	ProcessEvents(EventProcessor)

	EventAppender
}

// EventAppender appends events to store.
type EventAppender interface {
	// AddEvents appends events visible to later stages of
	// the current iteration.
	AddEvents(evs ...Event)
}

// EventProcessor is used by EventStore to process events.
type EventProcessor interface {
	ProcessEvent(EventContext)
}

// ProcessEventFunc is the func form of EventProcessor.
type ProcessEventFunc func(EventContext)

// ProcessEvent implements EventProcessor.
func (f ProcessEventFunc) ProcessEvent(ec EventContext) {
	f(ec)
}

// EventContext provides context for current event.
type EventContext interface {
	// CurrentEvent gets the current event being processed.
	CurrentEvent() Event
	// EventTaken removes the event so later stages won't see it.
	EventTaken()
	// StopProcessing indicates no need to examine further events.
	StopProcessing()

	EventAppender
}
