package reader

import (
	"bufio"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/tagback/pkg/tag"
)

// Lines simulates a reader: every non-empty line read from the
// underlying stream is a card presented once. Malformed lines are
// logged and skipped.
type Lines struct {
	name   string
	uidCh  chan tag.UID
	closer io.Closer
}

// NewLines starts reading r in background.
func NewLines(name string, r io.Reader) *Lines {
	l := &Lines{name: name, uidCh: make(chan tag.UID)}
	if closer, ok := r.(io.Closer); ok {
		l.closer = closer
	}
	go l.scan(r)
	return l
}

func (l *Lines) scan(r io.Reader) {
	defer close(l.uidCh)
	s := bufio.NewScanner(r)
	for s.Scan() {
		text := s.Text()
		if len(text) == 0 {
			continue
		}
		uid, err := tag.ParseUID(text)
		if err != nil {
			glog.Warningf("%s: skip line: %v", l.name, err)
			continue
		}
		l.uidCh <- uid
	}
	if err := s.Err(); err != nil {
		glog.Warningf("%s: %v", l.name, err)
	}
}

// String implements Reader.
func (l *Lines) String() string {
	return "lines:" + l.name
}

// ReadUID implements Reader. It returns io.EOF once the stream ends.
func (l *Lines) ReadUID(timeout time.Duration) (tag.UID, error) {
	if timeout <= 0 {
		select {
		case uid, ok := <-l.uidCh:
			return l.result(uid, ok)
		default:
			return nil, ErrNoCard
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case uid, ok := <-l.uidCh:
		return l.result(uid, ok)
	case <-timer.C:
		return nil, ErrNoCard
	}
}

func (l *Lines) result(uid tag.UID, ok bool) (tag.UID, error) {
	if !ok {
		return nil, io.EOF
	}
	return uid, nil
}

// Halt implements Reader.
func (l *Lines) Halt() error {
	return nil
}

// Close implements Reader.
func (l *Lines) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
