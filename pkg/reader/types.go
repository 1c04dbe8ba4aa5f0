// Package reader polls RFID readers for newly presented cards.
package reader

import (
	"errors"
	"io"
	"time"

	"github.com/robotalks/tagback/pkg/tag"
)

// ErrNoCard indicates no card answered before the timeout.
var ErrNoCard = errors.New("no card")

// Reader is an opened RFID reader.
type Reader interface {
	io.Closer
	// String describes the reader for diagnostics.
	String() string
	// ReadUID waits up to timeout for a card and returns its UID.
	ReadUID(timeout time.Duration) (tag.UID, error)
	// Halt puts the last read card to sleep so it is not reported
	// again until it leaves the field.
	Halt() error
}

// CardEvent is emitted when a card is read.
type CardEvent struct {
	UID    tag.UID
	Reader string
	Time   time.Time
}

// EventName implements framework.Event.
func (e *CardEvent) EventName() string { return "card" }

// Scan converts the event into a tag.Scan.
func (e *CardEvent) Scan() *tag.Scan {
	return &tag.Scan{UID: e.UID, Reader: e.Reader, Time: e.Time}
}

// PresenceEvent is emitted when the reader goes from idle to card
// present, or back.
type PresenceEvent struct {
	Present bool
	UID     tag.UID
}

// EventName implements framework.Event.
func (e *PresenceEvent) EventName() string { return "presence" }
