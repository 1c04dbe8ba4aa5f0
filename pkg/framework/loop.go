package framework

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the polling interval used when Loop.Interval is zero.
const DefaultInterval = 100 * time.Millisecond

// Loop polls sensors, runs controllers and drives actuators, one
// stage after another, on every tick.
type Loop struct {
	Interval time.Duration

	stages  [StageCount][]Controller
	runners []Runnable

	posted eventList
	lock   sync.Mutex

	wakeUpCh chan struct{}
	stopCh   chan struct{}
	stopped  bool
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	*Loop
	ctx    context.Context
	time   time.Time
	stage  Stage
	events eventList
}

type eventList struct {
	head *eventItem
	tail *eventItem
}

type eventItem struct {
	ev   Event
	next *eventItem
}

func (l *eventList) append(item *eventItem) {
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *eventList) splice(src *eventList) {
	l.head, l.tail = src.head, src.tail
	src.head, src.tail = nil, nil
}

func (l *eventList) concat(lst *eventList) {
	if lst.head == nil {
		return
	}
	if l.head == nil {
		l.head = lst.head
	} else {
		l.tail.next = lst.head
	}
	l.tail = lst.tail
}

func (l *eventList) slice() []Event {
	var evs []Event
	for item := l.head; item != nil; item = item.next {
		evs = append(evs, item.ev)
	}
	return evs
}

var (
	loopCtxKey = &Loop{}
)

// LoopCtlFrom gets LoopControl from a context passed to Runnables
// started by the loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a stage.
func (l *Loop) AddController(stage Stage, ctls ...Controller) *Loop {
	l.stages[stage] = append(l.stages[stage], ctls...)
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	stopCh := l.stopChan()
	l.lock.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	runner := NewRunnerWith(context.WithValue(runCtx, loopCtxKey, LoopControl(l)))
	runner.Go(l.runners...)
	defer func() {
		cancel()
		if err := runner.Wait(); err != nil {
			glog.Errorf("runner error: %v", err)
		}
	}()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return nil
		default:
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			l.RunIteration(ctx, time.Now())
		case <-l.wakeUpCh:
			l.RunIteration(ctx, time.Now())
		}
	}
}

// RunOrFail is intended to be used in main to run the loop until it
// stops or is interrupted. closers are released if the user insists
// on exiting while the loop is stuck.
func (l *Loop) RunOrFail(closers ...io.Closer) {
	err := NewRunner().HandleSignals(closers...).Go(NamedRun("loop", l)).Wait()
	if err != nil {
		log.Fatalln(err)
	}
}

// Stop implements LoopControl.
func (l *Loop) Stop() {
	l.lock.Lock()
	defer l.lock.Unlock()
	ch := l.stopChan()
	if !l.stopped {
		l.stopped = true
		close(ch)
	}
}

func (l *Loop) stopChan() chan struct{} {
	if l.stopCh == nil {
		l.stopCh = make(chan struct{})
	}
	return l.stopCh
}

// PostEvent implements LoopControl.
func (l *Loop) PostEvent(ev Event) {
	l.lock.Lock()
	l.posted.append(&eventItem{ev: ev})
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	ch := l.wakeUpCh
	l.lock.Unlock()
	select {
	case ch <- struct{}{}:
	default:
	}
}

// RunIteration runs all stages once with the given time and returns
// the events nobody took. Run calls it on every tick; it is exported
// for one-shot callers like the shell.
func (l *Loop) RunIteration(ctx context.Context, now time.Time) []Event {
	iter := &loopIteration{Loop: l, ctx: ctx, time: now}
	l.lock.Lock()
	iter.events.splice(&l.posted)
	l.lock.Unlock()
	for i := 0; i < StageCount; i++ {
		iter.stage = Stage(i)
		for _, ctl := range l.stages[i] {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("%s controller error: %v", iter.stage, err)
			}
		}
	}
	return iter.events.slice()
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Stage() Stage {
	return t.stage
}

func (t *loopIteration) Events() EventStore {
	return t
}

type eventContext struct {
	iter  *loopIteration
	item  *eventItem
	taken bool
	stop  bool
}

func (c *eventContext) CurrentEvent() Event    { return c.item.ev }
func (c *eventContext) EventTaken()            { c.taken = true }
func (c *eventContext) StopProcessing()        { c.stop = true }
func (c *eventContext) AddEvents(evs ...Event) { c.iter.AddEvents(evs...) }

func (t *loopIteration) ProcessEvents(proc EventProcessor) {
	var evs, remains eventList
	evs.splice(&t.events)
	for evs.head != nil {
		ec := &eventContext{iter: t, item: evs.head}
		evs.head = evs.head.next
		ec.item.next = nil
		proc.ProcessEvent(ec)
		if !ec.taken {
			remains.append(ec.item)
		}
		if ec.stop {
			remains.concat(&evs)
			break
		}
	}
	// events added while processing go after the ones already there.
	remains.concat(&t.events)
	t.events = remains
}

func (t *loopIteration) AddEvents(evs ...Event) {
	for _, ev := range evs {
		if glog.V(4) {
			glog.Infof("%s: event %s", t.stage, ev.EventName())
		}
		t.events.append(&eventItem{ev: ev})
	}
}
