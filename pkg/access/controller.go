package access

import (
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"

	"github.com/robotalks/tagback/pkg/console"
	fx "github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/indicator"
	"github.com/robotalks/tagback/pkg/reader"
	"github.com/robotalks/tagback/pkg/tag"
)

// Console messages.
const (
	MsgDetected = "Badge detected UID:"
	MsgGranted  = "access granted"
	MsgDenied   = "access denied"
)

// DecisionEvent is emitted for every checked card.
type DecisionEvent struct {
	UID     tag.UID
	Granted bool
}

// EventName implements framework.Event.
func (e *DecisionEvent) EventName() string { return "decision" }

// Controller checks every CardEvent and reports the decision on the
// console. GrantLED and DenyLED are optional and lit for PulseTime.
type Controller struct {
	Checker   Checker
	Console   *console.Printer
	GrantLED  indicator.LED
	DenyLED   indicator.LED
	PulseTime time.Duration

	lit      indicator.LED
	litUntil time.Time
}

// NewController creates a Controller printing to stdout.
func NewController(authorized tag.UID) *Controller {
	return &Controller{
		Checker:   Checker{Authorized: authorized},
		Console:   console.Stdout,
		PulseTime: defaultConfig.PulseTime,
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.StageDecide, fx.ControlFunc(c.decide))
	loop.AddController(fx.StageActuate, fx.ControlFunc(c.actuate))
}

func (c *Controller) decide(cc fx.ControlContext) error {
	cc.Events().ProcessEvents(fx.ProcessEventFunc(func(ec fx.EventContext) {
		card, ok := ec.CurrentEvent().(*reader.CardEvent)
		if !ok {
			return
		}
		granted := c.Checker.Check(card.UID)
		c.Console.Printf("%s%s", MsgDetected, card.UID.Spaced())
		if granted {
			c.Console.Println(MsgGranted)
		} else {
			c.Console.Println(MsgDenied)
		}
		ec.AddEvents(&DecisionEvent{UID: card.UID, Granted: granted})
	}))
	return nil
}

func (c *Controller) actuate(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Events().ProcessEvents(fx.ProcessEventFunc(func(ec fx.EventContext) {
		decision, ok := ec.CurrentEvent().(*DecisionEvent)
		if !ok {
			return
		}
		led, other := c.DenyLED, c.GrantLED
		if decision.Granted {
			led, other = other, led
		}
		errs.Add(indicator.Set(other, gpio.Low), indicator.Set(led, gpio.High))
		c.lit, c.litUntil = led, cc.Time().Add(c.PulseTime)
	}))
	if c.lit != nil && !cc.Time().Before(c.litUntil) {
		glog.V(3).Info("access: pulse done")
		errs.Add(c.lit.Out(gpio.Low))
		c.lit = nil
	}
	return errs.Aggregate()
}
