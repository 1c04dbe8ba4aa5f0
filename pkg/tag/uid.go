// Package tag defines the identifiers read from contactless cards.
package tag

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxLen is the longest UID a card reports (triple size UID).
const MaxLen = 10

// ErrInvalidUID indicates a UID string can't be parsed.
var ErrInvalidUID = errors.New("invalid UID")

// UID is the unique identifier broadcast by a card.
type UID []byte

// Equal reports whether both UIDs have the same length and bytes.
func (u UID) Equal(other UID) bool {
	return bytes.Equal(u, other)
}

// String formats the UID as contiguous upper case hex, e.g. DEADBEEF.
func (u UID) String() string {
	return strings.ToUpper(hex.EncodeToString(u))
}

// Spaced formats the UID the way a serial monitor shows it: every
// byte zero padded and preceded by a space, e.g. " DE AD BE EF".
func (u UID) Spaced() string {
	var b strings.Builder
	for _, c := range u {
		fmt.Fprintf(&b, " %02X", c)
	}
	return b.String()
}

// Clone returns a copy which doesn't alias the driver's buffer.
func (u UID) Clone() UID {
	if u == nil {
		return nil
	}
	return append(UID(nil), u...)
}

// MarshalText implements encoding.TextMarshaler.
func (u UID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *UID) UnmarshalText(text []byte) error {
	uid, err := ParseUID(string(text))
	if err != nil {
		return err
	}
	*u = uid
	return nil
}

// ParseUID parses hex with optional separators: "DEADBEEF",
// "DE:AD:BE:EF", "de-ad-be-ef" and "DE AD BE EF" are all the same UID.
func ParseUID(s string) (UID, error) {
	digits := strings.Map(func(r rune) rune {
		switch r {
		case ':', '-', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if digits == "" || len(digits)%2 != 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUID, s)
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidUID, s, err)
	}
	if len(b) > MaxLen {
		return nil, fmt.Errorf("%w: %q longer than %d bytes", ErrInvalidUID, s, MaxLen)
	}
	return UID(b), nil
}

// MustParseUID is ParseUID for constants, it panics on error.
func MustParseUID(s string) UID {
	uid, err := ParseUID(s)
	if err != nil {
		panic(err)
	}
	return uid
}

// Scan is one detection of a card by a reader.
type Scan struct {
	UID    UID       `json:"uid"`
	Reader string    `json:"reader,omitempty"`
	Time   time.Time `json:"time"`
}
