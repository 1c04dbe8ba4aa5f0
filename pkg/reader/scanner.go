package reader

import (
	"errors"
	"io"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/tagback/pkg/framework"
	"github.com/robotalks/tagback/pkg/tag"
)

// Scanner polls a Reader once per loop iteration and turns reads into
// CardEvent and PresenceEvent.
//
// With HaltAfterRead a card is put to sleep after each read and won't
// answer again before it leaves the field, so every successful read is
// a new tap and produces a CardEvent. Without it the card keeps
// answering while held; it is reported once until absent for HoldTime,
// unless Repeat is set.
type Scanner struct {
	Reader        Reader
	Name          string
	Timeout       time.Duration
	HoldTime      time.Duration
	Repeat        bool
	HaltAfterRead bool

	present  bool
	current  tag.UID
	lastSeen time.Time
	ended    bool
}

// NewScanner creates a Scanner with default settings.
func NewScanner(r Reader) *Scanner {
	return &Scanner{
		Reader:        r,
		Name:          defaultConfig.Name,
		Timeout:       defaultConfig.Timeout,
		HoldTime:      defaultConfig.HoldTime,
		Repeat:        defaultConfig.Repeat,
		HaltAfterRead: defaultConfig.HaltAfterRead,
	}
}

// AddToLoop implements LoopAdder.
func (s *Scanner) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.StageSense, s)
}

// Present tells whether a card is currently considered present.
func (s *Scanner) Present() bool {
	return s.present
}

// Control implements Controller. When the reader reports io.EOF
// (simulated input exhausted) the loop is stopped.
func (s *Scanner) Control(cc fx.ControlContext) error {
	now := cc.Time()
	uid, err := s.Reader.ReadUID(s.Timeout)
	if err != nil {
		switch {
		case errors.Is(err, io.EOF):
			if !s.ended {
				s.ended = true
				glog.Infof("%s: input ended", s.Reader)
				cc.Stop()
			}
		case !errors.Is(err, ErrNoCard):
			glog.V(3).Infof("%s: %v", s.Reader, err)
		}
		if s.present && now.Sub(s.lastSeen) >= s.HoldTime {
			cc.Events().AddEvents(&PresenceEvent{Present: false, UID: s.current})
			s.present, s.current = false, nil
		}
		return nil
	}

	s.lastSeen = now
	if s.HaltAfterRead {
		if err := s.Reader.Halt(); err != nil {
			glog.Warningf("%s: halt: %v", s.Reader, err)
		}
	}
	newCard := !s.present || !uid.Equal(s.current)
	if newCard {
		s.present, s.current = true, uid
		cc.Events().AddEvents(&PresenceEvent{Present: true, UID: uid})
	}
	if newCard || s.Repeat || s.HaltAfterRead {
		cc.Events().AddEvents(&CardEvent{UID: uid, Reader: s.Name, Time: now})
	}
	return nil
}
