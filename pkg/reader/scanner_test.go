package reader

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/tag"
)

// scriptReader returns one scripted result per ReadUID call, then
// ErrNoCard forever.
type scriptReader struct {
	results []tag.UID
	errs    []error
	halts   int
	haltErr error
}

func (r *scriptReader) String() string { return "script" }
func (r *scriptReader) Close() error   { return nil }

func (r *scriptReader) Halt() error {
	r.halts++
	return r.haltErr
}

func (r *scriptReader) ReadUID(time.Duration) (tag.UID, error) {
	if len(r.results) == 0 {
		return nil, ErrNoCard
	}
	uid, err := r.results[0], r.errs[0]
	r.results, r.errs = r.results[1:], r.errs[1:]
	if uid == nil && err == nil {
		err = ErrNoCard
	}
	return uid, err
}

func (r *scriptReader) push(uid tag.UID, err error) *scriptReader {
	r.results = append(r.results, uid)
	r.errs = append(r.errs, err)
	return r
}

var (
	cardA = tag.UID{0xDE, 0xAD, 0xBE, 0xEF}
	cardB = tag.UID{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
)

type step struct {
	at     time.Duration
	expect []string
}

func describe(evs []fx.Event) []string {
	var out []string
	for _, ev := range evs {
		switch e := ev.(type) {
		case *CardEvent:
			out = append(out, "card "+e.UID.String())
		case *PresenceEvent:
			if e.Present {
				out = append(out, "present "+e.UID.String())
			} else {
				out = append(out, "gone "+e.UID.String())
			}
		}
	}
	return out
}

func runSteps(t *testing.T, s *Scanner, steps []step) {
	loop := fx.NewLoop().Add(s)
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for n, st := range steps {
		evs := loop.RunIteration(context.Background(), t0.Add(st.at))
		assert.Equal(t, st.expect, describe(evs), "step %d", n)
	}
}

func TestScannerHaltReportsEveryRead(t *testing.T) {
	r := (&scriptReader{}).
		push(cardA, nil).
		push(cardA, nil).
		push(nil, nil).
		push(cardA, nil)
	s := NewScanner(r)
	s.Name, s.HoldTime, s.Repeat, s.HaltAfterRead = "door", 500*time.Millisecond, false, true
	runSteps(t, s, []step{
		{at: 0, expect: []string{"present DEADBEEF", "card DEADBEEF"}},
		{at: 100 * time.Millisecond, expect: []string{"card DEADBEEF"}},
		{at: 200 * time.Millisecond, expect: nil},
		{at: 300 * time.Millisecond, expect: []string{"card DEADBEEF"}},
		{at: 700 * time.Millisecond, expect: nil},
		{at: 900 * time.Millisecond, expect: []string{"gone DEADBEEF"}},
		{at: time.Second, expect: nil},
	})
	assert.Equal(t, 3, r.halts)
	assert.False(t, s.Present())
}

func TestScannerHeldCardOnce(t *testing.T) {
	r := (&scriptReader{}).
		push(cardA, nil).
		push(cardA, nil).
		push(nil, nil).
		push(cardA, nil)
	s := NewScanner(r)
	s.HoldTime, s.Repeat, s.HaltAfterRead = 500*time.Millisecond, false, false
	runSteps(t, s, []step{
		{at: 0, expect: []string{"present DEADBEEF", "card DEADBEEF"}},
		{at: 100 * time.Millisecond, expect: nil},
		{at: 200 * time.Millisecond, expect: nil},
		{at: 300 * time.Millisecond, expect: nil},
		{at: 900 * time.Millisecond, expect: []string{"gone DEADBEEF"}},
	})
	assert.Zero(t, r.halts)
}

func TestScannerRepeatedTapsFromLines(t *testing.T) {
	s := NewScanner(NewLines("taps", strings.NewReader("DEADBEEF\nDEADBEEF\n")))
	s.Timeout, s.HaltAfterRead = time.Second, true
	loop := fx.NewLoop().Add(s)
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	var cards int
	for i := 0; i < 4; i++ {
		for _, ev := range loop.RunIteration(context.Background(), t0.Add(time.Duration(i)*100*time.Millisecond)) {
			if _, ok := ev.(*CardEvent); ok {
				cards++
			}
		}
	}
	assert.Equal(t, 2, cards)
}

func TestScannerStopsLoopAtEndOfInput(t *testing.T) {
	s := NewScanner(NewLines("stdin", strings.NewReader("DEADBEEF\n01020304\n")))
	s.Timeout, s.HaltAfterRead = 100*time.Millisecond, true
	var uids []string
	loop := fx.NewLoop().Add(s)
	loop.Interval = time.Millisecond
	loop.AddController(fx.StageReport, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Events().ProcessEvents(fx.ProcessEventFunc(func(ec fx.EventContext) {
			if card, ok := ec.CurrentEvent().(*CardEvent); ok {
				uids = append(uids, card.UID.String())
			}
		}))
		return nil
	}))

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop didn't stop at end of input")
	}
	assert.Equal(t, []string{"DEADBEEF", "01020304"}, uids)
}

func TestScannerRepeatAndSwap(t *testing.T) {
	r := (&scriptReader{}).
		push(cardA, nil).
		push(cardA, nil).
		push(cardB, nil)
	s := NewScanner(r)
	s.Repeat, s.HaltAfterRead = true, false
	runSteps(t, s, []step{
		{at: 0, expect: []string{"present DEADBEEF", "card DEADBEEF"}},
		{at: 100 * time.Millisecond, expect: []string{"card DEADBEEF"}},
		{at: 200 * time.Millisecond, expect: []string{"present 04112233445566", "card 04112233445566"}},
	})
	assert.Zero(t, r.halts)
	assert.True(t, s.Present())
}

func TestScannerErrorsMeanNoCard(t *testing.T) {
	r := (&scriptReader{}).
		push(cardA, nil).
		push(nil, errors.New("crc error")).
		push(nil, io.EOF)
	s := NewScanner(r)
	s.HoldTime = 150 * time.Millisecond
	runSteps(t, s, []step{
		{at: 0, expect: []string{"present DEADBEEF", "card DEADBEEF"}},
		{at: 100 * time.Millisecond, expect: nil},
		{at: 200 * time.Millisecond, expect: []string{"gone DEADBEEF"}},
	})
}

func TestScannerCardEventFields(t *testing.T) {
	r := (&scriptReader{}).push(cardA, nil)
	s := NewScanner(r)
	s.Name = "gate"
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	evs := fx.NewLoop().Add(s).RunIteration(context.Background(), now)
	require.Len(t, evs, 2)
	card, ok := evs[1].(*CardEvent)
	require.True(t, ok)
	scan := card.Scan()
	assert.Equal(t, "gate", scan.Reader)
	assert.Equal(t, now, scan.Time)
	assert.True(t, cardA.Equal(scan.UID))
}

func TestLinesReader(t *testing.T) {
	l := NewLines("test", strings.NewReader("DEADBEEF\n\nnot-a-uid\n04:11:22:33:44:55:66\n"))
	uid, err := l.ReadUID(time.Second)
	require.NoError(t, err)
	assert.Equal(t, cardA, uid)
	uid, err = l.ReadUID(time.Second)
	require.NoError(t, err)
	assert.Equal(t, cardB, uid)
	_, err = l.ReadUID(time.Second)
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, l.Halt())
	assert.NoError(t, l.Close())
	assert.Equal(t, "lines:test", l.String())
}

func TestLinesReaderTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	l := NewLines("pipe", pr)
	_, err := l.ReadUID(10 * time.Millisecond)
	assert.Equal(t, ErrNoCard, err)
	_, err = l.ReadUID(0)
	assert.Equal(t, ErrNoCard, err)

	go pw.Write([]byte("DE AD BE EF\n"))
	uid, err := l.ReadUID(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, cardA, uid)
}

func TestConfigOpenUnknownDriver(t *testing.T) {
	conf := NewConfig()
	conf.Driver = "magic"
	_, err := conf.Open()
	assert.Error(t, err)

	conf.Name, conf.Timeout, conf.Repeat = "bench", 10*time.Millisecond, true
	s := conf.NewScanner(&scriptReader{})
	assert.Equal(t, "bench", s.Name)
	assert.Equal(t, 10*time.Millisecond, s.Timeout)
	assert.True(t, s.Repeat)
}

func TestScannerHaltFailureStillReports(t *testing.T) {
	r := (&scriptReader{haltErr: errors.New("halt: no response")}).
		push(cardA, nil)
	s := NewScanner(r)
	s.HaltAfterRead = true
	runSteps(t, s, []step{
		{at: 0, expect: []string{"present DEADBEEF", "card DEADBEEF"}},
	})
	assert.Equal(t, 1, r.halts)
}

func TestConfigLoadEnv(t *testing.T) {
	t.Setenv("TAGBACK_READER", DriverStdin)
	t.Setenv("TAGBACK_HALT", "false")
	t.Setenv("TAGBACK_REPEAT", "true")
	t.Setenv("TAGBACK_SYNC", "1")
	t.Setenv("TAGBACK_POLL_INTERVAL", "20ms")

	conf := NewConfig()
	conf.HaltAfterRead = true
	conf.loadEnv()
	assert.Equal(t, DriverStdin, conf.Driver)
	assert.False(t, conf.HaltAfterRead)
	assert.True(t, conf.Repeat)
	assert.True(t, conf.Sync)
	assert.Equal(t, 20*time.Millisecond, conf.Interval)
	assert.True(t, conf.NewScanner(&scriptReader{}).Repeat)
}
