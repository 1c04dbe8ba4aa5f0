package indicator

import (
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"

	fx "github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/reader"
	"github.com/robotalks/tagback/pkg/tag"
)

// Overrides reported by Status.
const (
	OverrideNone = ""
	OverrideOn   = "on"
	OverrideOff  = "off"
)

// LEDEvent forces both LEDs on or off. With Reset set the LEDs
// follow card presence again.
type LEDEvent struct {
	On    bool
	Reset bool
}

// EventName implements framework.Event.
func (e *LEDEvent) EventName() string { return "led" }

// Status is a snapshot of the indicator state.
type Status struct {
	Present  bool    `json:"present"`
	LastUID  tag.UID `json:"last_uid,omitempty"`
	Override string  `json:"override"`
}

type levels struct {
	present, idle gpio.Level
}

// Controller drives an Indicator from PresenceEvent and LEDEvent.
// It starts in the idle state.
type Controller struct {
	Indicator Indicator

	lock    sync.Mutex
	status  Status
	applied bool
	shown   levels
}

// NewController creates a Controller.
func NewController(ind Indicator) *Controller {
	return &Controller{Indicator: ind}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.StageActuate, c)
}

// Status returns the current state. It is safe to call from any goroutine.
func (c *Controller) Status() Status {
	c.lock.Lock()
	defer c.lock.Unlock()
	st := c.status
	st.LastUID = st.LastUID.Clone()
	return st
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	c.lock.Lock()
	cc.Events().ProcessEvents(fx.ProcessEventFunc(func(ec fx.EventContext) {
		switch ev := ec.CurrentEvent().(type) {
		case *reader.PresenceEvent:
			c.status.Present = ev.Present
			if ev.Present {
				c.status.LastUID = ev.UID.Clone()
			}
		case *LEDEvent:
			ec.EventTaken()
			switch {
			case ev.Reset:
				c.status.Override = OverrideNone
			case ev.On:
				c.status.Override = OverrideOn
			default:
				c.status.Override = OverrideOff
			}
		}
	}))
	want := c.levels()
	c.lock.Unlock()

	if c.applied && want == c.shown {
		return nil
	}
	if err := c.Indicator.Show(want.present, want.idle); err != nil {
		return err
	}
	glog.V(2).Infof("indicator: present=%s idle=%s", want.present, want.idle)
	c.shown, c.applied = want, true
	return nil
}

func (c *Controller) levels() levels {
	switch c.status.Override {
	case OverrideOn:
		return levels{gpio.High, gpio.High}
	case OverrideOff:
		return levels{gpio.Low, gpio.Low}
	}
	if c.status.Present {
		return levels{gpio.High, gpio.Low}
	}
	return levels{gpio.Low, gpio.High}
}
