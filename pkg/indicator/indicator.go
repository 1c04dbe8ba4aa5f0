package indicator

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	fx "github.com/robotalks/tagback/pkg/framework"
)

// Indicator is the pair of presence LEDs.
type Indicator struct {
	Present LED
	Idle    LED
}

// Show drives both LEDs to the given levels.
func (i *Indicator) Show(present, idle gpio.Level) error {
	var errs fx.AggregatedError
	if err := Set(i.Present, present); err != nil {
		errs.Add(fmt.Errorf("present LED: %v", err))
	}
	if err := Set(i.Idle, idle); err != nil {
		errs.Add(fmt.Errorf("idle LED: %v", err))
	}
	return errs.Aggregate()
}

// ShowPresence lights Present when a card is present and Idle otherwise.
func (i *Indicator) ShowPresence(present bool) error {
	if present {
		return i.Show(gpio.High, gpio.Low)
	}
	return i.Show(gpio.Low, gpio.High)
}
