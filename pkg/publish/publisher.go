package publish

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/tagback/pkg/console"
	fx "github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/mqtt"
	"github.com/robotalks/tagback/pkg/reader"
	"github.com/robotalks/tagback/pkg/tag"
)

// ScanTopic is the topic suffix scans are published to.
const ScanTopic = "scan"

// DefaultRetryInterval is the wait between attempts to connect.
const DefaultRetryInterval = 5 * time.Second

// Topic returns the topic, without prefix, of a reader's scans.
func Topic(readerName string) string {
	return readerName + "/" + ScanTopic
}

// Publisher publishes every CardEvent. Scans read while the broker
// is unreachable are dropped.
type Publisher struct {
	Queue         *mqtt.Queue
	Codec         Codec
	RetryInterval time.Duration
}

// NewPublisher creates a Publisher.
func NewPublisher(q *mqtt.Queue, codec Codec) *Publisher {
	return &Publisher{Queue: q, Codec: codec, RetryInterval: DefaultRetryInterval}
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(fx.NamedRun("mqtt", p))
	loop.AddController(fx.StageReport, p)
}

// Run keeps connecting the broker until the first success. paho
// reconnects by itself afterwards.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		err := p.Queue.Run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		glog.Warningf("mqtt: %v, retry in %s", err, p.RetryInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.RetryInterval):
		}
	}
}

// Control implements Controller.
func (p *Publisher) Control(cc fx.ControlContext) error {
	cc.Events().ProcessEvents(fx.ProcessEventFunc(func(ec fx.EventContext) {
		if card, ok := ec.CurrentEvent().(*reader.CardEvent); ok {
			p.Publish(card.Scan())
		}
	}))
	return nil
}

// Publish sends one scan without waiting for delivery.
func (p *Publisher) Publish(scan *tag.Scan) {
	if !p.Queue.Client.IsConnected() {
		glog.V(2).Infof("mqtt offline, drop scan %s", scan.UID)
		return
	}
	payload, err := p.Codec.Encode(scan)
	if err != nil {
		glog.Warningf("encode scan %s: %v", scan.UID, err)
		return
	}
	p.Queue.Pub(Topic(scan.Reader), payload)
}

// Monitor prints the scans published by all readers.
type Monitor struct {
	Queue   *mqtt.Queue
	Console *console.Printer
}

// NewMonitor creates a Monitor printing to stdout.
func NewMonitor(q *mqtt.Queue) *Monitor {
	return &Monitor{Queue: q, Console: console.Stdout}
}

// Run implements Runnable.
func (m *Monitor) Run(ctx context.Context) error {
	sub := m.Queue.Sub("+/"+ScanTopic, m.HandleScan)
	defer sub.Close()
	return m.Queue.Run(ctx)
}

// HandleScan decodes and prints one message.
func (m *Monitor) HandleScan(topic string, payload []byte) {
	codec := DetectCodec(payload)
	scan, err := codec.Decode(payload)
	if err != nil {
		glog.Warningf("%s: bad %s payload: %v", topic, codec.Name(), err)
		return
	}
	m.Console.Printf("%s %-12s %s", scan.Time.Format("15:04:05.000"), scan.Reader, scan.UID)
}
