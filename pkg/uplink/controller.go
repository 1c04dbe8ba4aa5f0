package uplink

import (
	"github.com/golang/glog"

	"github.com/robotalks/tagback/pkg/console"
	fx "github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/reader"
)

// Controller forwards every CardEvent once. Failures are logged and
// dropped.
type Controller struct {
	Forwarder *Forwarder
	Console   *console.Printer
}

// NewController creates a Controller printing to stdout.
func NewController(f *Forwarder) *Controller {
	return &Controller{Forwarder: f, Console: console.Stdout}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.StageReport, c)
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Events().ProcessEvents(fx.ProcessEventFunc(func(ec fx.EventContext) {
		card, ok := ec.CurrentEvent().(*reader.CardEvent)
		if !ok {
			return
		}
		c.Console.Printf("UID: %s", card.UID)
		if err := c.Forwarder.Send(cc.Context(), card.UID); err != nil {
			glog.Warningf("uplink %s: %v", card.UID, err)
			return
		}
		glog.V(2).Infof("uplink %s: sent", card.UID)
	}))
	return nil
}
