package indicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	fx "github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/reader"
	"github.com/robotalks/tagback/pkg/tag"
)

type countingLED struct {
	writes int
	level  gpio.Level
	err    error
}

func (l *countingLED) Out(level gpio.Level) error {
	l.writes++
	if l.err != nil {
		return l.err
	}
	l.level = level
	return nil
}

func TestControllerFollowsPresence(t *testing.T) {
	present := &gpiotest.Pin{N: "GPIO17"}
	idle := &gpiotest.Pin{N: "GPIO27"}
	ctl := NewController(Indicator{Present: present, Idle: idle})
	loop := fx.NewLoop().Add(ctl)
	uid := tag.MustParseUID("DEADBEEF")

	iterate := func(evs ...fx.Event) {
		for _, ev := range evs {
			loop.PostEvent(ev)
		}
		loop.RunIteration(context.Background(), time.Now())
	}

	iterate()
	assert.Equal(t, gpio.Low, present.Read())
	assert.Equal(t, gpio.High, idle.Read())

	iterate(&reader.PresenceEvent{Present: true, UID: uid})
	assert.Equal(t, gpio.High, present.Read())
	assert.Equal(t, gpio.Low, idle.Read())
	st := ctl.Status()
	assert.True(t, st.Present)
	assert.Equal(t, uid, st.LastUID)
	assert.Equal(t, OverrideNone, st.Override)

	iterate(&reader.PresenceEvent{Present: false, UID: uid})
	assert.Equal(t, gpio.Low, present.Read())
	assert.Equal(t, gpio.High, idle.Read())
	assert.Equal(t, uid, ctl.Status().LastUID)
}

func TestControllerOverrides(t *testing.T) {
	present, idle := &countingLED{}, &countingLED{}
	ctl := NewController(Indicator{Present: present, Idle: idle})
	loop := fx.NewLoop().Add(ctl)
	iterate := func(evs ...fx.Event) []fx.Event {
		for _, ev := range evs {
			loop.PostEvent(ev)
		}
		return loop.RunIteration(context.Background(), time.Now())
	}

	iterate()
	iterate()
	assert.Equal(t, 1, present.writes, "unchanged output is not rewritten")

	left := iterate(&LEDEvent{On: true})
	assert.Empty(t, left, "LEDEvent is taken")
	assert.Equal(t, gpio.High, present.level)
	assert.Equal(t, gpio.High, idle.level)
	assert.Equal(t, OverrideOn, ctl.Status().Override)

	// presence is tracked but not shown during an override.
	iterate(&reader.PresenceEvent{Present: true, UID: tag.UID{1, 2, 3, 4}})
	assert.Equal(t, gpio.High, idle.level)

	iterate(&LEDEvent{On: false})
	assert.Equal(t, gpio.Low, present.level)
	assert.Equal(t, gpio.Low, idle.level)
	assert.Equal(t, OverrideOff, ctl.Status().Override)

	iterate(&LEDEvent{Reset: true})
	assert.Equal(t, gpio.High, present.level)
	assert.Equal(t, gpio.Low, idle.level)
	assert.Equal(t, OverrideNone, ctl.Status().Override)
}

func TestControllerRetriesFailedOutput(t *testing.T) {
	present, idle := &countingLED{err: errors.New("gpio busy")}, &countingLED{}
	ctl := NewController(Indicator{Present: present, Idle: idle})
	loop := fx.NewLoop().Add(ctl)
	loop.RunIteration(context.Background(), time.Now())
	loop.RunIteration(context.Background(), time.Now())
	assert.Equal(t, 2, present.writes)

	present.err = nil
	loop.RunIteration(context.Background(), time.Now())
	loop.RunIteration(context.Background(), time.Now())
	assert.Equal(t, 3, present.writes)
	assert.Equal(t, gpio.Low, present.level)
}

func TestIndicatorShowErrors(t *testing.T) {
	ind := Indicator{
		Present: &countingLED{err: errors.New("a")},
		Idle:    &countingLED{err: errors.New("b")},
	}
	err := ind.Show(gpio.High, gpio.High)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "present LED: a")
	assert.Contains(t, err.Error(), "idle LED: b")

	assert.NoError(t, (&Indicator{}).ShowPresence(true), "missing LEDs are skipped")
}

func TestOpenLED(t *testing.T) {
	led, err := OpenLED("")
	require.NoError(t, err)
	assert.Nil(t, led)

	led, err = OpenLED("log:green")
	require.NoError(t, err)
	logLED, ok := led.(*LogLED)
	require.True(t, ok)
	assert.Equal(t, "green", logLED.Name)
	require.NoError(t, logLED.Out(gpio.High))
	assert.Equal(t, gpio.High, logLED.Level())
}

func TestConfigOpenLogLEDs(t *testing.T) {
	conf := NewConfig()
	conf.PresentPin, conf.IdlePin = "log:present", ""
	ind, err := conf.Open()
	require.NoError(t, err)
	assert.NotNil(t, ind.Present)
	assert.Nil(t, ind.Idle)
}
